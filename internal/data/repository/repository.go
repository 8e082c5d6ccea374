package repository

import (
	"context"
	"errors"

	"pizza-service/pkg/database"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

var (
	ErrNotFound        = errors.New("record not found")
	ErrDuplicateEmail  = errors.New("email already registered")
	ErrDuplicateName   = errors.New("name already taken")
	ErrAlreadyResolved = errors.New("order already resolved")
)

type Repository struct {
	User      UserRepository
	Session   SessionRepository
	Franchise FranchiseRepository
	Menu      MenuRepository
	Order     OrderRepository
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	return &Repository{
		User:      NewUserRepository(db, log),
		Session:   NewSessionRepository(db, log),
		Franchise: NewFranchiseRepository(db, log),
		Menu:      NewMenuRepository(db, log),
		Order:     NewOrderRepository(db, log),
	}
}

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// execer is satisfied by both the pool and a pgx.Tx.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}
