package usecase

import (
	"context"
	"testing"

	"pizza-service/internal/data/entity"
	"pizza-service/internal/dto/request"

	"github.com/google/uuid"
)

func TestFranchiseService_CreateRequiresAdmin(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	diner, _ := env.signUp(t)

	_, err := env.svc.Franchise.Create(ctx, diner, &request.CreateFranchiseRequest{Name: "X"})
	e := expectKind(t, err, KindForbidden)
	if e.Message != "unable to create a franchise" {
		t.Fatalf("unexpected message %q", e.Message)
	}
}

func TestFranchiseService_CreateGrantsFranchiseeRole(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	admin, _ := env.signUp(t, entity.AdminRole())
	owner, _ := env.signUp(t)

	resp, err := env.svc.Franchise.Create(ctx, admin, &request.CreateFranchiseRequest{
		Name:   "X",
		Admins: []request.FranchiseAdminRef{{Email: admin.Email}, {Email: owner.Email}, {Email: owner.Email}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if resp.ID == "" || len(resp.Admins) != 2 {
		t.Fatalf("unexpected franchise %+v", resp)
	}

	franchiseID := uuid.MustParse(resp.ID)
	user, _ := env.repo.User.FindByID(ctx, owner.UserID)
	if !user.HasRole(entity.FranchiseeRole(franchiseID)) {
		t.Fatalf("expected franchisee binding, got %v", user.Roles)
	}

	mine, err := env.svc.Franchise.ListForUser(ctx, owner, owner.UserID)
	if err != nil || len(mine) != 1 || mine[0].ID != resp.ID {
		t.Fatalf("expected owner to see the franchise, got %v %v", mine, err)
	}
}

func TestFranchiseService_CreateErrors(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	admin, _ := env.signUp(t, entity.AdminRole())

	_, err := env.svc.Franchise.Create(ctx, admin, &request.CreateFranchiseRequest{
		Name:   "X",
		Admins: []request.FranchiseAdminRef{{Email: "ghost@test.com"}},
	})
	expectKind(t, err, KindNotFound)

	if _, err := env.svc.Franchise.Create(ctx, admin, &request.CreateFranchiseRequest{Name: "X"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err = env.svc.Franchise.Create(ctx, admin, &request.CreateFranchiseRequest{Name: "X"})
	expectKind(t, err, KindConflict)

	_, err = env.svc.Franchise.Create(ctx, admin, &request.CreateFranchiseRequest{Name: " "})
	expectKind(t, err, KindValidation)
}

func TestFranchiseService_ListForUser(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	admin, _ := env.signUp(t, entity.AdminRole())
	u1, _ := env.signUp(t)
	u2, _ := env.signUp(t)

	if _, err := env.svc.Franchise.ListForUser(ctx, u1, u1.UserID); err != nil {
		t.Fatalf("self: %v", err)
	}
	if _, err := env.svc.Franchise.ListForUser(ctx, admin, u1.UserID); err != nil {
		t.Fatalf("admin: %v", err)
	}
	_, err := env.svc.Franchise.ListForUser(ctx, u1, u2.UserID)
	expectKind(t, err, KindForbidden)
}

func TestFranchiseService_StoresScopedToFranchise(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	admin, _ := env.signUp(t, entity.AdminRole())
	ownerA, _ := env.signUp(t)
	ownerB, _ := env.signUp(t)

	franchiseA, storeA := env.seedStore(t, admin, ownerA)
	franchiseB, storeB := env.seedStore(t, admin, ownerB)

	// refresh identities so the new bindings are visible
	ownerA = reload(t, env, ownerA)

	_, err := env.svc.Franchise.CreateStore(ctx, ownerA, franchiseB, &request.CreateStoreRequest{Name: "sneaky"})
	e := expectKind(t, err, KindForbidden)
	if e.Message != "unable to create a store" {
		t.Fatalf("unexpected message %q", e.Message)
	}

	e = expectKind(t, env.svc.Franchise.DeleteStore(ctx, ownerA, franchiseB, storeB), KindForbidden)
	if e.Message != "unable to delete a store" {
		t.Fatalf("unexpected message %q", e.Message)
	}
	// a foreign store addressed through the caller's own franchise is still denied
	expectKind(t, env.svc.Franchise.DeleteStore(ctx, ownerA, franchiseA, storeB), KindForbidden)

	if _, err := env.svc.Franchise.CreateStore(ctx, ownerA, franchiseA, &request.CreateStoreRequest{Name: "second"}); err != nil {
		t.Fatalf("create own store: %v", err)
	}
	if err := env.svc.Franchise.DeleteStore(ctx, ownerA, franchiseA, storeA); err != nil {
		t.Fatalf("delete own store: %v", err)
	}
	expectKind(t, env.svc.Franchise.DeleteStore(ctx, ownerA, franchiseA, storeA), KindNotFound)
}

func TestFranchiseService_DeleteCascades(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	admin, _ := env.signUp(t, entity.AdminRole())
	owner, _ := env.signUp(t)
	stranger, _ := env.signUp(t)

	franchiseID, storeID := env.seedStore(t, admin, owner)
	owner = reload(t, env, owner)

	e := expectKind(t, env.svc.Franchise.Delete(ctx, stranger, franchiseID), KindForbidden)
	if e.Message != "unable to delete a franchise" {
		t.Fatalf("unexpected message %q", e.Message)
	}

	if err := env.svc.Franchise.Delete(ctx, owner, franchiseID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	store, _ := env.repo.Franchise.FindStore(ctx, storeID)
	if store != nil {
		t.Fatal("expected store removed with its franchise")
	}
	user, _ := env.repo.User.FindByID(ctx, owner.UserID)
	if user.HasRole(entity.FranchiseeRole(franchiseID)) {
		t.Fatal("expected scoped binding removed")
	}
	expectKind(t, env.svc.Franchise.Delete(ctx, admin, franchiseID), KindNotFound)
}

func TestFranchiseService_ListIsPublic(t *testing.T) {
	env := newTestEnv(t, nil)
	admin, _ := env.signUp(t, entity.AdminRole())
	env.seedStore(t, admin)

	list, err := env.svc.Franchise.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || len(list[0].Stores) != 1 {
		t.Fatalf("unexpected list %+v", list)
	}
}

func reload(t *testing.T, env *testEnv, identity entity.Identity) entity.Identity {
	t.Helper()
	user, err := env.repo.User.FindByID(context.Background(), identity.UserID)
	if err != nil || user == nil {
		t.Fatalf("reload: %v", err)
	}
	return entity.IdentityOf(user)
}
