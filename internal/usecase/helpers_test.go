package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"pizza-service/internal/data/entity"
	"pizza-service/internal/data/memory"
	"pizza-service/internal/data/repository"
	"pizza-service/internal/dto/request"
	"pizza-service/internal/fulfillment"
	"pizza-service/internal/metrics"
	"pizza-service/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type stubFactory struct {
	mu     sync.Mutex
	calls  int
	submit func(ctx context.Context, diner fulfillment.Diner, order *entity.Order) (*fulfillment.Receipt, error)
}

func (f *stubFactory) Submit(ctx context.Context, diner fulfillment.Diner, order *entity.Order) (*fulfillment.Receipt, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.submit(ctx, diner, order)
}

func (f *stubFactory) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func acceptingFactory() *stubFactory {
	return &stubFactory{submit: func(ctx context.Context, diner fulfillment.Diner, order *entity.Order) (*fulfillment.Receipt, error) {
		return &fulfillment.Receipt{JobToken: "job-" + order.ID.String(), ReportURL: "http://factory/report/" + order.ID.String()}, nil
	}}
}

type testEnv struct {
	svc     *Service
	repo    *repository.Repository
	metrics *metrics.Registry
	factory *stubFactory
}

func newTestEnv(t *testing.T, factory *stubFactory) *testEnv {
	t.Helper()
	if factory == nil {
		factory = acceptingFactory()
	}
	repo := memory.NewRepository()
	registry := metrics.NewRegistry()
	svc := NewService(repo, Dependencies{
		Signer:         utils.NewTokenSigner("test-secret", 0),
		Hasher:         utils.NewBcryptHasher(4),
		Factory:        factory,
		FactoryTimeout: time.Second,
		Metrics:        registry,
	}, zap.NewNop())
	return &testEnv{svc: svc, repo: repo, metrics: registry, factory: factory}
}

// signUp registers a diner and returns its identity and token.
func (e *testEnv) signUp(t *testing.T, roles ...entity.RoleBinding) (entity.Identity, string) {
	t.Helper()
	ctx := context.Background()
	name := "user-" + uuid.NewString()[:8]
	resp, err := e.svc.Auth.Register(ctx, &request.RegisterRequest{
		Name:     name,
		Email:    name + "@test.com",
		Password: "a",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	userID := uuid.MustParse(resp.User.ID)
	for _, role := range roles {
		if err := e.repo.User.AddRole(ctx, userID, role); err != nil {
			t.Fatalf("add role: %v", err)
		}
	}

	identity, err := e.svc.Auth.ResolveToken(ctx, resp.Token)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	return identity, resp.Token
}

// seedStore creates a franchise administered by admins with one store.
func (e *testEnv) seedStore(t *testing.T, admin entity.Identity, franchiseAdmins ...entity.Identity) (franchiseID, storeID uuid.UUID) {
	t.Helper()
	ctx := context.Background()

	req := &request.CreateFranchiseRequest{Name: "franchise-" + uuid.NewString()[:8]}
	for _, a := range franchiseAdmins {
		req.Admins = append(req.Admins, request.FranchiseAdminRef{Email: a.Email})
	}
	franchise, err := e.svc.Franchise.Create(ctx, admin, req)
	if err != nil {
		t.Fatalf("create franchise: %v", err)
	}
	franchiseID = uuid.MustParse(franchise.ID)

	store, err := e.svc.Franchise.CreateStore(ctx, admin, franchiseID, &request.CreateStoreRequest{Name: "store"})
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	return franchiseID, uuid.MustParse(store.ID)
}

func expectKind(t *testing.T, err error, kind ErrorKind) *Error {
	t.Helper()
	e, ok := AsError(err)
	if !ok {
		t.Fatalf("expected %s error, got %v", kind, err)
	}
	if e.Kind != kind {
		t.Fatalf("expected %s, got %s (%v)", kind, e.Kind, err)
	}
	return e
}
