package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pizza-service/internal/authz"
	"pizza-service/internal/data/entity"
	"pizza-service/internal/data/repository"
	"pizza-service/internal/dto/request"
	"pizza-service/internal/dto/response"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type FranchiseService interface {
	List(ctx context.Context) ([]response.FranchiseResponse, error)
	// ListForUser returns the franchises userID administers.
	ListForUser(ctx context.Context, caller entity.Identity, userID uuid.UUID) ([]response.FranchiseResponse, error)
	Create(ctx context.Context, caller entity.Identity, req *request.CreateFranchiseRequest) (*response.FranchiseResponse, error)
	Delete(ctx context.Context, caller entity.Identity, franchiseID uuid.UUID) error
	CreateStore(ctx context.Context, caller entity.Identity, franchiseID uuid.UUID, req *request.CreateStoreRequest) (*response.StoreResponse, error)
	DeleteStore(ctx context.Context, caller entity.Identity, franchiseID, storeID uuid.UUID) error
}

type franchiseService struct {
	repo *repository.Repository
	log  *zap.Logger
}

func NewFranchiseService(repo *repository.Repository, log *zap.Logger) FranchiseService {
	return &franchiseService{
		repo: repo,
		log:  log.With(zap.String("service", "franchise")),
	}
}

func (s *franchiseService) List(ctx context.Context) ([]response.FranchiseResponse, error) {
	franchises, err := s.repo.Franchise.FindAll(ctx)
	if err != nil {
		s.log.Error("Failed to list franchises", zap.Error(err))
		return nil, StoreError("failed to list franchises", err)
	}
	return response.FranchisesToResponse(franchises), nil
}

func (s *franchiseService) ListForUser(ctx context.Context, caller entity.Identity, userID uuid.UUID) ([]response.FranchiseResponse, error) {
	if !authz.CanAct(caller, authz.ActionReadUser, authz.UserResource(userID)) {
		return nil, Forbidden("unauthorized")
	}

	franchises, err := s.repo.Franchise.FindByAdmin(ctx, userID)
	if err != nil {
		s.log.Error("Failed to list user franchises", zap.Error(err), zap.String("user_id", userID.String()))
		return nil, StoreError("failed to list franchises", err)
	}
	return response.FranchisesToResponse(franchises), nil
}

func (s *franchiseService) Create(ctx context.Context, caller entity.Identity, req *request.CreateFranchiseRequest) (*response.FranchiseResponse, error) {
	if !authz.CanAct(caller, authz.ActionCreateFranchise, authz.Platform()) {
		s.log.Warn("Create franchise denied", zap.String("caller_id", caller.UserID.String()))
		return nil, Forbidden("unable to create a franchise")
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ValidationError("franchise name is required", nil)
	}

	franchise := &entity.Franchise{
		BaseNoDelete: entity.BaseNoDelete{
			ID:        uuid.New(),
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		},
		Name: name,
	}

	seen := make(map[uuid.UUID]bool)
	for _, ref := range req.Admins {
		user, err := s.repo.User.FindByEmail(ctx, entity.NormalizeEmail(ref.Email))
		if err != nil {
			s.log.Error("Failed to resolve franchise admin", zap.Error(err))
			return nil, StoreError("failed to resolve franchise admin", err)
		}
		if user == nil {
			return nil, NotFound(fmt.Sprintf("unknown user for franchise admin email %s", ref.Email))
		}
		if seen[user.ID] {
			continue
		}
		seen[user.ID] = true
		franchise.Admins = append(franchise.Admins, entity.FranchiseAdmin{
			UserID: user.ID,
			Name:   user.Name,
			Email:  user.Email,
		})
	}

	if err := s.repo.Franchise.Create(ctx, franchise); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateName):
			return nil, Conflict("franchise name already exists", err)
		case errors.Is(err, repository.ErrNotFound):
			return nil, NotFound("franchise admin not found")
		}
		s.log.Error("Failed to create franchise", zap.Error(err), zap.String("name", name))
		return nil, StoreError("failed to create franchise", err)
	}

	s.log.Info("Franchise created",
		zap.String("franchise_id", franchise.ID.String()),
		zap.Int("admins", len(franchise.Admins)),
		zap.String("by", caller.UserID.String()))

	resp := response.FranchiseToResponse(franchise)
	return &resp, nil
}

func (s *franchiseService) Delete(ctx context.Context, caller entity.Identity, franchiseID uuid.UUID) error {
	if !authz.CanAct(caller, authz.ActionDeleteFranchise, authz.FranchiseResource(franchiseID)) {
		s.log.Warn("Delete franchise denied",
			zap.String("caller_id", caller.UserID.String()),
			zap.String("franchise_id", franchiseID.String()))
		return Forbidden("unable to delete a franchise")
	}

	if err := s.repo.Franchise.Delete(ctx, franchiseID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return NotFound("franchise not found")
		}
		s.log.Error("Failed to delete franchise", zap.Error(err), zap.String("franchise_id", franchiseID.String()))
		return StoreError("failed to delete franchise", err)
	}

	s.log.Info("Franchise deleted",
		zap.String("franchise_id", franchiseID.String()),
		zap.String("by", caller.UserID.String()))
	return nil
}

func (s *franchiseService) CreateStore(ctx context.Context, caller entity.Identity, franchiseID uuid.UUID, req *request.CreateStoreRequest) (*response.StoreResponse, error) {
	if !authz.CanAct(caller, authz.ActionCreateStore, authz.FranchiseResource(franchiseID)) {
		return nil, Forbidden("unable to create a store")
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ValidationError("store name is required", nil)
	}

	store := &entity.Store{
		BaseSimple: entity.BaseSimple{
			ID:        uuid.New(),
			CreatedAt: time.Now(),
		},
		FranchiseID: franchiseID,
		Name:        name,
	}

	if err := s.repo.Franchise.CreateStore(ctx, store); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NotFound("franchise not found")
		}
		s.log.Error("Failed to create store", zap.Error(err), zap.String("franchise_id", franchiseID.String()))
		return nil, StoreError("failed to create store", err)
	}

	s.log.Info("Store created",
		zap.String("store_id", store.ID.String()),
		zap.String("franchise_id", franchiseID.String()))

	resp := response.StoreToResponse(store)
	return &resp, nil
}

func (s *franchiseService) DeleteStore(ctx context.Context, caller entity.Identity, franchiseID, storeID uuid.UUID) error {
	store, err := s.repo.Franchise.FindStore(ctx, storeID)
	if err != nil {
		s.log.Error("Failed to find store", zap.Error(err), zap.String("store_id", storeID.String()))
		return StoreError("failed to delete store", err)
	}

	// an existing store is authorized against its real owner
	target := authz.FranchiseResource(franchiseID)
	if store != nil {
		target = authz.StoreResource(*store)
	}
	if !authz.CanAct(caller, authz.ActionDeleteStore, target) {
		s.log.Warn("Delete store denied",
			zap.String("caller_id", caller.UserID.String()),
			zap.String("store_id", storeID.String()))
		return Forbidden("unable to delete a store")
	}

	if store == nil || store.FranchiseID != franchiseID {
		return NotFound("store not found")
	}

	if err := s.repo.Franchise.DeleteStore(ctx, franchiseID, storeID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return NotFound("store not found")
		}
		s.log.Error("Failed to delete store", zap.Error(err), zap.String("store_id", storeID.String()))
		return StoreError("failed to delete store", err)
	}

	s.log.Info("Store deleted",
		zap.String("store_id", storeID.String()),
		zap.String("franchise_id", franchiseID.String()))
	return nil
}
