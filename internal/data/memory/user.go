package memory

import (
	"context"
	"sync"

	"pizza-service/internal/data/entity"
	"pizza-service/internal/data/repository"

	"github.com/google/uuid"
)

type userEntry struct {
	mu   sync.RWMutex
	user entity.User
}

type UserRepository struct {
	byID    sync.Map // uuid.UUID -> *userEntry
	byEmail sync.Map // normalized email -> uuid.UUID
}

func NewUserRepository() *UserRepository {
	return &UserRepository{}
}

func cloneUser(u *entity.User) *entity.User {
	c := *u
	c.Roles = make([]entity.RoleBinding, len(u.Roles))
	copy(c.Roles, u.Roles)
	return &c
}

func (r *UserRepository) Create(ctx context.Context, user *entity.User) error {
	for _, role := range user.Roles {
		if !role.IsValid() {
			return entity.ErrInvalidRole
		}
	}

	key := entity.NormalizeEmail(user.Email)
	if _, loaded := r.byEmail.LoadOrStore(key, user.ID); loaded {
		return repository.ErrDuplicateEmail
	}

	r.byID.Store(user.ID, &userEntry{user: *cloneUser(user)})
	return nil
}

func (r *UserRepository) entry(id uuid.UUID) *userEntry {
	v, ok := r.byID.Load(id)
	if !ok {
		return nil
	}
	return v.(*userEntry)
}

func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	e := r.entry(id)
	if e == nil {
		return nil, nil
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.user.IsDeleted() {
		return nil, nil
	}
	return cloneUser(&e.user), nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	v, ok := r.byEmail.Load(entity.NormalizeEmail(email))
	if !ok {
		return nil, nil
	}
	return r.FindByID(ctx, v.(uuid.UUID))
}

func (r *UserRepository) Update(ctx context.Context, user *entity.User) error {
	e := r.entry(user.ID)
	if e == nil {
		return repository.ErrNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.user.IsDeleted() {
		return repository.ErrNotFound
	}

	oldKey := entity.NormalizeEmail(e.user.Email)
	newKey := entity.NormalizeEmail(user.Email)
	if newKey != oldKey {
		if _, loaded := r.byEmail.LoadOrStore(newKey, user.ID); loaded {
			return repository.ErrDuplicateEmail
		}
		r.byEmail.Delete(oldKey)
	}

	e.user.Name = user.Name
	e.user.Email = user.Email
	e.user.PasswordHash = user.PasswordHash
	e.user.UpdatedAt = user.UpdatedAt
	return nil
}

func (r *UserRepository) AddRole(ctx context.Context, userID uuid.UUID, role entity.RoleBinding) error {
	if !role.IsValid() {
		return entity.ErrInvalidRole
	}

	e := r.entry(userID)
	if e == nil {
		return repository.ErrNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.user.HasRole(role) {
		e.user.Roles = append(e.user.Roles, role)
	}
	return nil
}

// removeScope drops every franchisee binding scoped to franchiseID.
func (r *UserRepository) removeScope(franchiseID uuid.UUID) {
	scoped := entity.FranchiseeRole(franchiseID)
	r.byID.Range(func(_, v any) bool {
		e := v.(*userEntry)
		e.mu.Lock()
		kept := e.user.Roles[:0]
		for _, role := range e.user.Roles {
			if role != scoped {
				kept = append(kept, role)
			}
		}
		e.user.Roles = kept
		e.mu.Unlock()
		return true
	})
}
