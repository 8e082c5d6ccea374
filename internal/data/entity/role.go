package entity

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

type RoleTag string

const (
	RoleDiner      RoleTag = "diner"
	RoleFranchisee RoleTag = "franchisee"
	RoleAdmin      RoleTag = "admin"
)

var ErrInvalidRole = errors.New("invalid role binding")

// RoleBinding is one of Diner, Admin or Franchisee{franchiseID}.
// The zero value is not a valid binding; build one with DinerRole,
// AdminRole, FranchiseeRole or NewRoleBinding.
type RoleBinding struct {
	tag         RoleTag
	franchiseID uuid.UUID
}

func DinerRole() RoleBinding { return RoleBinding{tag: RoleDiner} }

func AdminRole() RoleBinding { return RoleBinding{tag: RoleAdmin} }

func FranchiseeRole(franchiseID uuid.UUID) RoleBinding {
	return RoleBinding{tag: RoleFranchisee, franchiseID: franchiseID}
}

// NewRoleBinding rebuilds a binding from its stored form. The scope must be
// present for franchisee and absent for every other tag.
func NewRoleBinding(tag RoleTag, scope *uuid.UUID) (RoleBinding, error) {
	switch tag {
	case RoleDiner, RoleAdmin:
		if scope != nil && *scope != uuid.Nil {
			return RoleBinding{}, fmt.Errorf("%w: %s takes no scope", ErrInvalidRole, tag)
		}
		return RoleBinding{tag: tag}, nil
	case RoleFranchisee:
		if scope == nil || *scope == uuid.Nil {
			return RoleBinding{}, fmt.Errorf("%w: franchisee requires a franchise scope", ErrInvalidRole)
		}
		return FranchiseeRole(*scope), nil
	default:
		return RoleBinding{}, fmt.Errorf("%w: unknown role %q", ErrInvalidRole, tag)
	}
}

func (r RoleBinding) Tag() RoleTag { return r.tag }

// Scope returns the franchise id of a franchisee binding.
func (r RoleBinding) Scope() (uuid.UUID, bool) {
	if r.tag != RoleFranchisee {
		return uuid.Nil, false
	}
	return r.franchiseID, true
}

func (r RoleBinding) IsValid() bool {
	switch r.tag {
	case RoleDiner, RoleAdmin:
		return r.franchiseID == uuid.Nil
	case RoleFranchisee:
		return r.franchiseID != uuid.Nil
	}
	return false
}

func (r RoleBinding) String() string {
	if r.tag == RoleFranchisee {
		return string(r.tag) + ":" + r.franchiseID.String()
	}
	return string(r.tag)
}

type roleJSON struct {
	Role   RoleTag    `json:"role"`
	Object *uuid.UUID `json:"objectId,omitempty"`
}

func (r RoleBinding) MarshalJSON() ([]byte, error) {
	out := roleJSON{Role: r.tag}
	if id, ok := r.Scope(); ok {
		out.Object = &id
	}
	return json.Marshal(out)
}

func (r *RoleBinding) UnmarshalJSON(data []byte) error {
	var in roleJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	binding, err := NewRoleBinding(in.Role, in.Object)
	if err != nil {
		return err
	}
	*r = binding
	return nil
}
