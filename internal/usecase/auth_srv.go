package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"pizza-service/internal/authz"
	"pizza-service/internal/data/entity"
	"pizza-service/internal/data/repository"
	"pizza-service/internal/dto/request"
	"pizza-service/internal/dto/response"
	"pizza-service/internal/metrics"
	"pizza-service/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AuthService interface {
	// Register creates a diner and signs them in.
	Register(ctx context.Context, req *request.RegisterRequest) (*response.AuthResponse, error)
	Authenticate(ctx context.Context, req *request.LoginRequest) (*response.AuthResponse, error)
	// ResolveToken returns the caller behind a bearer token, with roles
	// read live from the user store.
	ResolveToken(ctx context.Context, token string) (entity.Identity, error)
	// Revoke is idempotent: unknown and already revoked tokens succeed.
	Revoke(ctx context.Context, token string) error
	UpdateUser(ctx context.Context, caller entity.Identity, userID uuid.UUID, req *request.UpdateUserRequest) (*response.UserResponse, error)
	BootstrapAdmin(ctx context.Context, name, email, password string) error
	CleanExpiredSessions(ctx context.Context) error
}

type authService struct {
	repo    *repository.Repository
	signer  *utils.TokenSigner
	hasher  utils.PasswordHasher
	metrics *metrics.Registry
	log     *zap.Logger
	now     func() time.Time
}

func NewAuthService(
	repo *repository.Repository,
	signer *utils.TokenSigner,
	hasher utils.PasswordHasher,
	registry *metrics.Registry,
	log *zap.Logger,
) AuthService {
	return &authService{
		repo:    repo,
		signer:  signer,
		hasher:  hasher,
		metrics: registry,
		log:     log.With(zap.String("service", "auth")),
		now:     time.Now,
	}
}

func (s *authService) Register(ctx context.Context, req *request.RegisterRequest) (*response.AuthResponse, error) {
	name := strings.TrimSpace(req.Name)
	email := strings.TrimSpace(req.Email)
	if name == "" || email == "" || req.Password == "" {
		return nil, ValidationError("name, email, and password are required", nil)
	}

	hashed, err := s.hasher.Hash(req.Password)
	if err != nil {
		s.log.Error("Failed to hash password", zap.Error(err))
		return nil, StoreError("failed to process password", err)
	}

	now := s.now()
	user := &entity.User{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Name:         name,
		Email:        email,
		PasswordHash: hashed,
		Roles:        []entity.RoleBinding{entity.DinerRole()},
	}

	if err := s.repo.User.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			s.log.Warn("Register with taken email", zap.String("email", email))
			return nil, Conflict("email already registered", err)
		}
		s.log.Error("Failed to create user", zap.Error(err), zap.String("email", email))
		return nil, StoreError("failed to create account", err)
	}

	resp, err := s.issue(ctx, user)
	if err != nil {
		return nil, err
	}

	s.log.Info("User registered", zap.String("user_id", user.ID.String()))
	return resp, nil
}

func (s *authService) Authenticate(ctx context.Context, req *request.LoginRequest) (*response.AuthResponse, error) {
	user, err := s.repo.User.FindByEmail(ctx, entity.NormalizeEmail(req.Email))
	if err != nil {
		s.log.Error("Failed to find user by email", zap.Error(err))
		return nil, StoreError("failed to find user", err)
	}

	if user == nil || !s.hasher.Verify(req.Password, user.PasswordHash) {
		s.metrics.AuthFailed()
		s.log.Warn("Invalid login attempt", zap.String("email", req.Email))
		return nil, ErrInvalidCredentials
	}

	resp, err := s.issue(ctx, user)
	if err != nil {
		return nil, err
	}

	s.metrics.AuthSucceeded()
	s.log.Info("User logged in", zap.String("user_id", user.ID.String()))
	return resp, nil
}

func (s *authService) ResolveToken(ctx context.Context, token string) (entity.Identity, error) {
	if token == "" {
		return entity.Identity{}, Unauthenticated("missing token")
	}

	claims, err := s.signer.Parse(token)
	if err != nil {
		s.log.Debug("Malformed token", zap.String("token", utils.TokenFingerprint(token)), zap.Error(err))
		return entity.Identity{}, Unauthenticated("unauthorized")
	}

	session, err := s.repo.Session.FindByTokenHash(ctx, utils.HashToken(token))
	if err != nil {
		s.log.Error("Failed to look up session", zap.Error(err))
		return entity.Identity{}, StoreError("failed to validate session", err)
	}
	if session == nil || !session.IsValid(s.now()) {
		s.log.Debug("Unknown, revoked or expired token", zap.String("token", utils.TokenFingerprint(token)))
		return entity.Identity{}, Unauthenticated("unauthorized")
	}

	userID, _ := claims.UserID()
	if sessionID, err := claims.SessionID(); err != nil || sessionID != session.ID || userID != session.UserID {
		s.log.Warn("Token claims do not match ledger entry", zap.String("token", utils.TokenFingerprint(token)))
		return entity.Identity{}, Unauthenticated("unauthorized")
	}

	user, err := s.repo.User.FindByID(ctx, session.UserID)
	if err != nil {
		s.log.Error("Failed to load token owner", zap.Error(err), zap.String("user_id", session.UserID.String()))
		return entity.Identity{}, StoreError("failed to validate session", err)
	}
	if user == nil {
		return entity.Identity{}, Unauthenticated("unauthorized")
	}

	return entity.IdentityOf(user), nil
}

func (s *authService) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return Unauthenticated("missing token")
	}

	hash := utils.HashToken(token)
	session, err := s.repo.Session.FindByTokenHash(ctx, hash)
	if err != nil {
		s.log.Error("Failed to look up session", zap.Error(err))
		return StoreError("failed to logout", err)
	}

	revoked, err := s.repo.Session.Revoke(ctx, hash)
	if err != nil {
		s.log.Error("Failed to revoke session", zap.Error(err))
		return StoreError("failed to logout", err)
	}

	// only the call that performed the revocation closes the session
	if revoked && session != nil && session.IsValid(s.now()) {
		s.metrics.SessionClosed()
	}

	s.log.Info("Token revoked", zap.String("token", utils.TokenFingerprint(token)))
	return nil
}

func (s *authService) UpdateUser(ctx context.Context, caller entity.Identity, userID uuid.UUID, req *request.UpdateUserRequest) (*response.UserResponse, error) {
	if !authz.CanAct(caller, authz.ActionUpdateUser, authz.UserResource(userID)) {
		s.log.Warn("Update of another user denied",
			zap.String("caller_id", caller.UserID.String()),
			zap.String("user_id", userID.String()))
		return nil, Forbidden("unauthorized")
	}

	email := strings.TrimSpace(req.Email)
	if email == "" && req.Password == "" {
		return nil, ValidationError("email or password is required", nil)
	}

	user, err := s.repo.User.FindByID(ctx, userID)
	if err != nil {
		s.log.Error("Failed to find user", zap.Error(err), zap.String("user_id", userID.String()))
		return nil, StoreError("failed to find user", err)
	}
	if user == nil {
		return nil, NotFound("user not found")
	}

	if email != "" {
		user.Email = email
	}
	if req.Password != "" {
		hashed, err := s.hasher.Hash(req.Password)
		if err != nil {
			s.log.Error("Failed to hash password", zap.Error(err))
			return nil, StoreError("failed to process password", err)
		}
		user.PasswordHash = hashed
	}
	user.UpdatedAt = s.now()

	if err := s.repo.User.Update(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateEmail):
			return nil, Conflict("email already registered", err)
		case errors.Is(err, repository.ErrNotFound):
			return nil, NotFound("user not found")
		}
		s.log.Error("Failed to update user", zap.Error(err), zap.String("user_id", userID.String()))
		return nil, StoreError("failed to update user", err)
	}

	if req.Password != "" {
		closed, err := s.repo.Session.RevokeAllUserSessions(ctx, userID)
		if err != nil {
			s.log.Error("Failed to revoke sessions after password change", zap.Error(err), zap.String("user_id", userID.String()))
			return nil, StoreError("failed to update user", err)
		}
		s.metrics.SessionsClosed(closed)
	}

	s.log.Info("User updated",
		zap.String("user_id", userID.String()),
		zap.String("by", caller.UserID.String()))

	resp := response.UserToResponse(user)
	return &resp, nil
}

// BootstrapAdmin makes sure a platform admin with email exists. An
// existing user with that email is granted the admin role.
func (s *authService) BootstrapAdmin(ctx context.Context, name, email, password string) error {
	if email == "" {
		return nil
	}

	user, err := s.repo.User.FindByEmail(ctx, entity.NormalizeEmail(email))
	if err != nil {
		return StoreError("failed to find admin", err)
	}

	if user != nil {
		return s.grantAdmin(ctx, user)
	}

	if password == "" {
		return ValidationError("admin bootstrap password is required", nil)
	}

	hashed, err := s.hasher.Hash(password)
	if err != nil {
		return StoreError("failed to process password", err)
	}

	now := s.now()
	admin := &entity.User{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Name:         name,
		Email:        email,
		PasswordHash: hashed,
		Roles:        []entity.RoleBinding{entity.AdminRole()},
	}
	err = s.repo.User.Create(ctx, admin)
	if errors.Is(err, repository.ErrDuplicateEmail) {
		// another replica created the user first
		existing, err := s.repo.User.FindByEmail(ctx, entity.NormalizeEmail(email))
		if err != nil {
			return StoreError("failed to find admin", err)
		}
		if existing == nil {
			return StoreError("failed to create admin", repository.ErrNotFound)
		}
		return s.grantAdmin(ctx, existing)
	}
	if err != nil {
		return StoreError("failed to create admin", err)
	}

	s.log.Info("Bootstrapped admin", zap.String("user_id", admin.ID.String()))
	return nil
}

func (s *authService) grantAdmin(ctx context.Context, user *entity.User) error {
	if user.IsAdmin() {
		return nil
	}
	if err := s.repo.User.AddRole(ctx, user.ID, entity.AdminRole()); err != nil {
		return StoreError("failed to grant admin role", err)
	}
	s.log.Info("Granted admin role", zap.String("user_id", user.ID.String()))
	return nil
}

func (s *authService) CleanExpiredSessions(ctx context.Context) error {
	if err := s.repo.Session.CleanExpiredSessions(ctx); err != nil {
		return StoreError("failed to clean sessions", err)
	}
	return nil
}

// issue signs a token for user and records it in the ledger.
func (s *authService) issue(ctx context.Context, user *entity.User) (*response.AuthResponse, error) {
	issued, err := s.signer.Sign(user.ID)
	if err != nil {
		s.log.Error("Failed to sign token", zap.Error(err), zap.String("user_id", user.ID.String()))
		return nil, StoreError("failed to create session", err)
	}

	session := &entity.Session{
		BaseSimple: entity.BaseSimple{
			ID:        issued.SessionID,
			CreatedAt: issued.IssuedAt,
		},
		UserID:    user.ID,
		TokenHash: utils.HashToken(issued.Raw),
		ExpiresAt: issued.ExpiresAt,
	}

	if err := s.repo.Session.Create(ctx, session); err != nil {
		s.log.Error("Failed to record session", zap.Error(err), zap.String("user_id", user.ID.String()))
		return nil, StoreError("failed to create session", err)
	}
	s.metrics.SessionOpened()

	return &response.AuthResponse{
		User:      response.UserToResponse(user),
		Token:     issued.Raw,
		ExpiresAt: issued.ExpiresAt,
	}, nil
}
