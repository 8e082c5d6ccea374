// Package authz decides whether an identity may perform an action on a
// target. It does no I/O; callers load the target before asking.
package authz

import (
	"pizza-service/internal/data/entity"

	"github.com/google/uuid"
)

type Action string

const (
	ActionReadUser   Action = "user:read"
	ActionUpdateUser Action = "user:update"
	ActionListOrders Action = "order:list"

	ActionDeleteFranchise Action = "franchise:delete"
	ActionCreateStore     Action = "store:create"
	ActionDeleteStore     Action = "store:delete"

	ActionCreateFranchise Action = "franchise:create"
	ActionAddMenuItem     Action = "menu:add"
	ActionReadMetrics     Action = "metrics:read"
)

type resourceKind int

const (
	kindNone resourceKind = iota
	kindUser
	kindFranchise
	kindPlatform
)

// Target is the resource an action applies to. Build one with
// UserResource, FranchiseResource, StoreResource or Platform.
type Target struct {
	kind        resourceKind
	userID      uuid.UUID
	franchiseID uuid.UUID
}

func UserResource(userID uuid.UUID) Target {
	return Target{kind: kindUser, userID: userID}
}

func FranchiseResource(franchiseID uuid.UUID) Target {
	return Target{kind: kindFranchise, franchiseID: franchiseID}
}

// StoreResource resolves a store to its owning franchise.
func StoreResource(store entity.Store) Target {
	return FranchiseResource(store.FranchiseID)
}

// Platform is the target of admin-only actions that have no owner.
func Platform() Target {
	return Target{kind: kindPlatform}
}

var actionKinds = map[Action]resourceKind{
	ActionReadUser:        kindUser,
	ActionUpdateUser:      kindUser,
	ActionListOrders:      kindUser,
	ActionDeleteFranchise: kindFranchise,
	ActionCreateStore:     kindFranchise,
	ActionDeleteStore:     kindFranchise,
	ActionCreateFranchise: kindPlatform,
	ActionAddMenuItem:     kindPlatform,
	ActionReadMetrics:     kindPlatform,
}

// CanAct reports whether identity may perform action on target.
// Admin is checked first. A franchisee binding grants access only to the
// franchise it is scoped to.
func CanAct(identity entity.Identity, action Action, target Target) bool {
	if isAdmin(identity) {
		return true
	}

	kind, ok := actionKinds[action]
	if !ok || kind != target.kind {
		return false
	}

	switch target.kind {
	case kindUser:
		return identity.UserID != uuid.Nil && identity.UserID == target.userID
	case kindFranchise:
		return target.franchiseID != uuid.Nil &&
			hasBinding(identity, entity.FranchiseeRole(target.franchiseID))
	}
	return false
}

// isAdmin reports whether identity holds the platform admin binding.
func isAdmin(identity entity.Identity) bool {
	return hasBinding(identity, entity.AdminRole())
}

func hasBinding(identity entity.Identity, binding entity.RoleBinding) bool {
	for _, role := range identity.Roles {
		if role == binding {
			return true
		}
	}
	return false
}
