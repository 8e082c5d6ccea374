package memory

import (
	"context"
	"sync"

	"pizza-service/internal/data/entity"
	"pizza-service/internal/data/repository"

	"github.com/google/uuid"
)

type franchiseRecord struct {
	franchise entity.Franchise
	adminIDs  []uuid.UUID
	storeIDs  []uuid.UUID
}

// FranchiseRepository keeps the catalog behind one RWMutex. Catalog writes
// are rare admin actions; order and token paths never take this lock for
// writing.
type FranchiseRepository struct {
	mu     sync.RWMutex
	users  *UserRepository
	order  []uuid.UUID
	byID   map[uuid.UUID]*franchiseRecord
	names  map[string]uuid.UUID
	stores map[uuid.UUID]entity.Store
}

func NewFranchiseRepository(users *UserRepository) *FranchiseRepository {
	return &FranchiseRepository{
		users:  users,
		byID:   make(map[uuid.UUID]*franchiseRecord),
		names:  make(map[string]uuid.UUID),
		stores: make(map[uuid.UUID]entity.Store),
	}
}

func (r *FranchiseRepository) Create(ctx context.Context, franchise *entity.Franchise) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.names[franchise.Name]; taken {
		return repository.ErrDuplicateName
	}

	for _, admin := range franchise.Admins {
		if r.users.entry(admin.UserID) == nil {
			return repository.ErrNotFound
		}
	}

	rec := &franchiseRecord{franchise: *franchise}
	rec.franchise.Admins = nil
	rec.franchise.Stores = nil
	for _, admin := range franchise.Admins {
		if err := r.users.AddRole(ctx, admin.UserID, entity.FranchiseeRole(franchise.ID)); err != nil {
			return err
		}
		rec.adminIDs = append(rec.adminIDs, admin.UserID)
	}

	r.byID[franchise.ID] = rec
	r.names[franchise.Name] = franchise.ID
	r.order = append(r.order, franchise.ID)
	return nil
}

// view builds a detached copy with live admin details. Caller holds r.mu.
func (r *FranchiseRepository) view(ctx context.Context, rec *franchiseRecord) *entity.Franchise {
	f := rec.franchise
	f.Admins = []entity.FranchiseAdmin{}
	f.Stores = []entity.Store{}

	scoped := entity.FranchiseeRole(f.ID)
	for _, id := range rec.adminIDs {
		user, _ := r.users.FindByID(ctx, id)
		if user == nil || !user.HasRole(scoped) {
			continue
		}
		f.Admins = append(f.Admins, entity.FranchiseAdmin{
			UserID: user.ID,
			Name:   user.Name,
			Email:  user.Email,
		})
	}
	for _, id := range rec.storeIDs {
		if store, ok := r.stores[id]; ok {
			f.Stores = append(f.Stores, store)
		}
	}
	return &f
}

func (r *FranchiseRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Franchise, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	return r.view(ctx, rec), nil
}

func (r *FranchiseRepository) FindAll(ctx context.Context) ([]*entity.Franchise, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	franchises := make([]*entity.Franchise, 0, len(r.order))
	for _, id := range r.order {
		franchises = append(franchises, r.view(ctx, r.byID[id]))
	}
	return franchises, nil
}

func (r *FranchiseRepository) FindByAdmin(ctx context.Context, userID uuid.UUID) ([]*entity.Franchise, error) {
	user, _ := r.users.FindByID(ctx, userID)
	if user == nil {
		return []*entity.Franchise{}, nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	franchises := []*entity.Franchise{}
	for _, id := range r.order {
		if user.HasRole(entity.FranchiseeRole(id)) {
			franchises = append(franchises, r.view(ctx, r.byID[id]))
		}
	}
	return franchises, nil
}

func (r *FranchiseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.byID[id]
	if !ok {
		return repository.ErrNotFound
	}

	for _, storeID := range rec.storeIDs {
		delete(r.stores, storeID)
	}
	delete(r.names, rec.franchise.Name)
	delete(r.byID, id)
	for i, fid := range r.order {
		if fid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	r.users.removeScope(id)
	return nil
}

func (r *FranchiseRepository) CreateStore(ctx context.Context, store *entity.Store) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.byID[store.FranchiseID]
	if !ok {
		return repository.ErrNotFound
	}

	r.stores[store.ID] = *store
	rec.storeIDs = append(rec.storeIDs, store.ID)
	return nil
}

func (r *FranchiseRepository) FindStore(ctx context.Context, id uuid.UUID) (*entity.Store, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	store, ok := r.stores[id]
	if !ok {
		return nil, nil
	}
	return &store, nil
}

func (r *FranchiseRepository) DeleteStore(ctx context.Context, franchiseID, storeID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	store, ok := r.stores[storeID]
	if !ok || store.FranchiseID != franchiseID {
		return repository.ErrNotFound
	}

	delete(r.stores, storeID)
	rec := r.byID[franchiseID]
	for i, id := range rec.storeIDs {
		if id == storeID {
			rec.storeIDs = append(rec.storeIDs[:i], rec.storeIDs[i+1:]...)
			break
		}
	}
	return nil
}
