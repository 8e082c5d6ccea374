// Package memory holds in-process implementations of every repository.
// State is guarded per record (per token, per order, per user) so
// unrelated requests never contend on a shared lock.
package memory

import (
	"pizza-service/internal/data/repository"
)

// NewRepository returns a repository set backed entirely by process memory.
func NewRepository() *repository.Repository {
	users := NewUserRepository()
	return &repository.Repository{
		User:      users,
		Session:   NewSessionRepository(),
		Franchise: NewFranchiseRepository(users),
		Menu:      NewMenuRepository(),
		Order:     NewOrderRepository(),
	}
}
