package usecase

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"pizza-service/internal/data/entity"
	"pizza-service/internal/data/memory"
	"pizza-service/internal/data/repository"
	"pizza-service/internal/dto/request"
	"pizza-service/internal/metrics"
	"pizza-service/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var jwtShape = regexp.MustCompile(`^[a-zA-Z0-9\-_]*\.[a-zA-Z0-9\-_]*\.[a-zA-Z0-9\-_]*$`)

func TestAuthService_RegisterThenAuthenticate(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	reg, err := env.svc.Auth.Register(ctx, &request.RegisterRequest{Name: "diner", Email: "d@test.com", Password: "a"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if len(reg.User.Roles) != 1 || reg.User.Roles[0] != entity.DinerRole() {
		t.Fatalf("expected single diner role, got %v", reg.User.Roles)
	}

	login, err := env.svc.Auth.Authenticate(ctx, &request.LoginRequest{Email: "D@Test.com", Password: "a"})
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if !jwtShape.MatchString(login.Token) {
		t.Fatalf("expected JWT-shaped token, got %q", login.Token)
	}

	identity, err := env.svc.Auth.ResolveToken(ctx, login.Token)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if identity.UserID.String() != reg.User.ID || identity.Email != "d@test.com" {
		t.Fatalf("unexpected identity %+v", identity)
	}

	s := env.metrics.Snapshot()
	if s.Auth.Succeeded != 1 || s.ActiveSessions != 2 {
		t.Fatalf("unexpected metrics %+v", s)
	}
}

func TestAuthService_InvalidCredentials(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	env.svc.Auth.Register(ctx, &request.RegisterRequest{Name: "diner", Email: "d@test.com", Password: "a"})

	_, err := env.svc.Auth.Authenticate(ctx, &request.LoginRequest{Email: "d@test.com", Password: "wrong"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	_, err = env.svc.Auth.Authenticate(ctx, &request.LoginRequest{Email: "nobody@test.com", Password: "a"})
	expectKind(t, err, KindUnauthenticated)

	if env.metrics.Snapshot().Auth.Failed != 2 {
		t.Fatal("expected two failed auth attempts")
	}
}

func TestAuthService_RegisterValidation(t *testing.T) {
	env := newTestEnv(t, nil)
	tests := []request.RegisterRequest{
		{Email: "e@test.com", Password: "p"},
		{Name: "n", Password: "p"},
		{Name: "n", Email: "e@test.com"},
		{Name: "  ", Email: "e@test.com", Password: "p"},
	}
	for _, req := range tests {
		_, err := env.svc.Auth.Register(context.Background(), &req)
		e := expectKind(t, err, KindValidation)
		if e.Message != "name, email, and password are required" {
			t.Fatalf("unexpected message %q", e.Message)
		}
	}
}

func TestAuthService_RegisterDuplicateEmail(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	first, err := env.svc.Auth.Register(ctx, &request.RegisterRequest{Name: "first", Email: "dup@test.com", Password: "a"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	_, err = env.svc.Auth.Register(ctx, &request.RegisterRequest{Name: "second", Email: "DUP@test.com", Password: "b"})
	expectKind(t, err, KindConflict)

	user, _ := env.repo.User.FindByEmail(ctx, "dup@test.com")
	if user == nil || user.ID.String() != first.User.ID || user.Name != "first" {
		t.Fatalf("expected first user unchanged, got %+v", user)
	}
	if _, err := env.svc.Auth.Authenticate(ctx, &request.LoginRequest{Email: "dup@test.com", Password: "a"}); err != nil {
		t.Fatalf("expected original password to still work: %v", err)
	}
}

func TestAuthService_RevokeInvalidatesToken(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	_, token := env.signUp(t)

	if err := env.svc.Auth.Revoke(ctx, token); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	_, err := env.svc.Auth.ResolveToken(ctx, token)
	expectKind(t, err, KindUnauthenticated)

	// idempotent
	if err := env.svc.Auth.Revoke(ctx, token); err != nil {
		t.Fatalf("second revoke: %v", err)
	}
	if err := env.svc.Auth.Revoke(ctx, "never.issued.token"); err != nil {
		t.Fatalf("revoke unknown: %v", err)
	}
	expectKind(t, env.svc.Auth.Revoke(ctx, ""), KindUnauthenticated)

	if env.metrics.Snapshot().ActiveSessions != 0 {
		t.Fatal("expected no active sessions")
	}
}

func TestAuthService_RevokeRacingResolve(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	_, token := env.signUp(t)

	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			env.svc.Auth.ResolveToken(ctx, token)
		}()
	}
	close(start)
	if err := env.svc.Auth.Revoke(ctx, token); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	// every resolve issued after the revoke returned must fail
	var after sync.WaitGroup
	for i := 0; i < 32; i++ {
		after.Add(1)
		go func() {
			defer after.Done()
			if _, err := env.svc.Auth.ResolveToken(ctx, token); err == nil {
				t.Error("expected revoked token to be rejected")
			}
		}()
	}
	after.Wait()
	wg.Wait()
}

func TestAuthService_ResolveRejectsMalformedAndForeignTokens(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	for _, token := range []string{"", "garbage", "a.b.c"} {
		_, err := env.svc.Auth.ResolveToken(ctx, token)
		expectKind(t, err, KindUnauthenticated)
	}

	other := newTestEnv(t, nil)
	_, foreign := other.signUp(t)
	_, err := env.svc.Auth.ResolveToken(ctx, foreign)
	expectKind(t, err, KindUnauthenticated)
}

func TestAuthService_ResolveReadsRolesLive(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	identity, token := env.signUp(t)

	if err := env.repo.User.AddRole(ctx, identity.UserID, entity.AdminRole()); err != nil {
		t.Fatalf("add role: %v", err)
	}

	refreshed, err := env.svc.Auth.ResolveToken(ctx, token)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	found := false
	for _, role := range refreshed.Roles {
		if role == entity.AdminRole() {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected admin role on next resolve, got %v", refreshed.Roles)
	}
}

func TestAuthService_ExpiredSessionRejected(t *testing.T) {
	repo := memory.NewRepository()
	svc := NewAuthService(repo, utils.NewTokenSigner("test-secret", time.Hour), utils.NewBcryptHasher(4), metrics.NewRegistry(), zap.NewNop())
	auth := svc.(*authService)
	ctx := context.Background()

	resp, err := svc.Register(ctx, &request.RegisterRequest{Name: "diner", Email: "d@test.com", Password: "a"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if resp.ExpiresAt == nil {
		t.Fatal("expected expiry on token")
	}
	if _, err := svc.ResolveToken(ctx, resp.Token); err != nil {
		t.Fatalf("expected fresh token valid: %v", err)
	}

	auth.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = svc.ResolveToken(ctx, resp.Token)
	expectKind(t, err, KindUnauthenticated)
}

func TestAuthService_TokenWithoutExpiryStaysValid(t *testing.T) {
	env := newTestEnv(t, nil)
	auth := env.svc.Auth.(*authService)
	_, token := env.signUp(t)

	auth.now = func() time.Time { return time.Now().Add(24 * 365 * time.Hour) }
	if _, err := env.svc.Auth.ResolveToken(context.Background(), token); err != nil {
		t.Fatalf("expected token without expiry to stay valid: %v", err)
	}
}

func TestAuthService_UpdateUser(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	self, _ := env.signUp(t)
	other, _ := env.signUp(t)
	admin, _ := env.signUp(t, entity.AdminRole())

	resp, err := env.svc.Auth.UpdateUser(ctx, self, self.UserID, &request.UpdateUserRequest{Email: "new@test.com"})
	if err != nil {
		t.Fatalf("self update: %v", err)
	}
	if resp.Email != "new@test.com" {
		t.Fatalf("unexpected email %q", resp.Email)
	}

	_, err = env.svc.Auth.UpdateUser(ctx, self, other.UserID, &request.UpdateUserRequest{Password: "x"})
	expectKind(t, err, KindForbidden)

	if _, err := env.svc.Auth.UpdateUser(ctx, admin, other.UserID, &request.UpdateUserRequest{Password: "changed"}); err != nil {
		t.Fatalf("admin update: %v", err)
	}
	if _, err := env.svc.Auth.Authenticate(ctx, &request.LoginRequest{Email: other.Email, Password: "changed"}); err != nil {
		t.Fatalf("expected new password to work: %v", err)
	}

	_, err = env.svc.Auth.UpdateUser(ctx, other, other.UserID, &request.UpdateUserRequest{Email: "NEW@test.com"})
	expectKind(t, err, KindConflict)

	_, err = env.svc.Auth.UpdateUser(ctx, self, self.UserID, &request.UpdateUserRequest{})
	expectKind(t, err, KindValidation)

	_, err = env.svc.Auth.UpdateUser(ctx, admin, uuid.New(), &request.UpdateUserRequest{Password: "x"})
	expectKind(t, err, KindNotFound)
}

func TestAuthService_BootstrapAdmin(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	if err := env.svc.Auth.BootstrapAdmin(ctx, "root", "root@test.com", "toomanysecrets"); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	if err := env.svc.Auth.BootstrapAdmin(ctx, "root", "root@test.com", "toomanysecrets"); err != nil {
		t.Fatalf("second bootstrap: %v", err)
	}

	login, err := env.svc.Auth.Authenticate(ctx, &request.LoginRequest{Email: "root@test.com", Password: "toomanysecrets"})
	if err != nil {
		t.Fatalf("authenticate admin: %v", err)
	}
	if len(login.User.Roles) != 1 || login.User.Roles[0] != entity.AdminRole() {
		t.Fatalf("expected admin role, got %v", login.User.Roles)
	}

	diner, _ := env.signUp(t)
	if err := env.svc.Auth.BootstrapAdmin(ctx, "", diner.Email, ""); err != nil {
		t.Fatalf("promote: %v", err)
	}
	user, _ := env.repo.User.FindByID(ctx, diner.UserID)
	if !user.IsAdmin() {
		t.Fatal("expected existing user to be promoted")
	}
}

func TestAuthService_PasswordChangeRevokesSessions(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	self, first := env.signUp(t)
	login, err := env.svc.Auth.Authenticate(ctx, &request.LoginRequest{Email: self.Email, Password: "a"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	second := login.Token

	// an email change keeps the sessions
	if _, err := env.svc.Auth.UpdateUser(ctx, self, self.UserID, &request.UpdateUserRequest{Email: "moved@test.com"}); err != nil {
		t.Fatalf("email update: %v", err)
	}
	if _, err := env.svc.Auth.ResolveToken(ctx, first); err != nil {
		t.Fatalf("expected token to survive email change: %v", err)
	}

	if _, err := env.svc.Auth.UpdateUser(ctx, self, self.UserID, &request.UpdateUserRequest{Password: "rotated"}); err != nil {
		t.Fatalf("password update: %v", err)
	}
	for _, token := range []string{first, second} {
		_, err := env.svc.Auth.ResolveToken(ctx, token)
		expectKind(t, err, KindUnauthenticated)
	}
	if active := env.metrics.Snapshot().ActiveSessions; active != 0 {
		t.Fatalf("expected 0 active sessions, got %d", active)
	}

	fresh, err := env.svc.Auth.Authenticate(ctx, &request.LoginRequest{Email: "moved@test.com", Password: "rotated"})
	if err != nil {
		t.Fatalf("login with new password: %v", err)
	}
	if _, err := env.svc.Auth.ResolveToken(ctx, fresh.Token); err != nil {
		t.Fatalf("fresh token rejected: %v", err)
	}
}

func TestAuthService_ConcurrentRevokeClosesSessionOnce(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	_, token := env.signUp(t)

	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if err := env.svc.Auth.Revoke(ctx, token); err != nil {
				t.Errorf("revoke: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	if active := env.metrics.Snapshot().ActiveSessions; active != 0 {
		t.Fatalf("expected 0 active sessions, got %d", active)
	}
}

// lateUserRepository hides every user from FindByEmail until Create has run
// once, and makes that Create lose to a concurrent insert of the same email.
type lateUserRepository struct {
	repository.UserRepository
	mu     sync.Mutex
	raced  bool
	winner *entity.User
}

func (r *lateUserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	r.mu.Lock()
	raced := r.raced
	r.mu.Unlock()
	if !raced {
		return nil, nil
	}
	return r.UserRepository.FindByEmail(ctx, email)
}

func (r *lateUserRepository) Create(ctx context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.raced {
		return r.UserRepository.Create(ctx, user)
	}
	r.raced = true

	r.winner = &entity.User{
		Base:         entity.Base{ID: uuid.New(), CreatedAt: user.CreatedAt, UpdatedAt: user.UpdatedAt},
		Name:         "replica",
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		Roles:        []entity.RoleBinding{entity.DinerRole()},
	}
	if err := r.UserRepository.Create(ctx, r.winner); err != nil {
		return err
	}
	return repository.ErrDuplicateEmail
}

func TestAuthService_BootstrapAdminLosesCreateRace(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	late := &lateUserRepository{UserRepository: env.repo.User}
	env.repo.User = late

	if err := env.svc.Auth.BootstrapAdmin(ctx, "root", "root@test.com", "toomanysecrets"); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}

	user, err := late.UserRepository.FindByID(ctx, late.winner.ID)
	if err != nil || user == nil {
		t.Fatalf("find winner: %v", err)
	}
	if !user.IsAdmin() {
		t.Fatal("expected the concurrently created user to be granted admin")
	}
}
