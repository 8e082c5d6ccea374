package entity

import (
	"strings"

	"github.com/google/uuid"
)

type User struct {
	Base
	Name         string        `db:"name"`
	Email        string        `db:"email"`
	PasswordHash string        `db:"password"`
	Roles        []RoleBinding `db:"-"`
}

func (u *User) IsAdmin() bool {
	for _, r := range u.Roles {
		if r.Tag() == RoleAdmin {
			return true
		}
	}
	return false
}

// HasRole reports whether the user holds the binding, scope included.
func (u *User) HasRole(binding RoleBinding) bool {
	for _, r := range u.Roles {
		if r == binding {
			return true
		}
	}
	return false
}

// NormalizeEmail is the key used for the case-insensitive uniqueness check.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Identity is the resolved caller of a request: who it is and what it may
// currently do.
type Identity struct {
	UserID uuid.UUID
	Name   string
	Email  string
	Roles  []RoleBinding
}

func IdentityOf(u *User) Identity {
	roles := make([]RoleBinding, len(u.Roles))
	copy(roles, u.Roles)
	return Identity{
		UserID: u.ID,
		Name:   u.Name,
		Email:  u.Email,
		Roles:  roles,
	}
}
