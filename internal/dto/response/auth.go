package response

import (
	"time"

	"pizza-service/internal/data/entity"
)

type UserResponse struct {
	ID    string               `json:"id"`
	Name  string               `json:"name"`
	Email string               `json:"email"`
	Roles []entity.RoleBinding `json:"roles"`
}

type AuthResponse struct {
	User      UserResponse `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt *time.Time   `json:"expiresAt,omitempty"`
}

func UserToResponse(user *entity.User) UserResponse {
	return UserResponse{
		ID:    user.ID.String(),
		Name:  user.Name,
		Email: user.Email,
		Roles: rolesOrEmpty(user.Roles),
	}
}

func IdentityToResponse(identity entity.Identity) UserResponse {
	return UserResponse{
		ID:    identity.UserID.String(),
		Name:  identity.Name,
		Email: identity.Email,
		Roles: rolesOrEmpty(identity.Roles),
	}
}

func rolesOrEmpty(roles []entity.RoleBinding) []entity.RoleBinding {
	if roles == nil {
		return []entity.RoleBinding{}
	}
	return roles
}
