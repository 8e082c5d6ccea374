package repository

import (
	"context"
	"errors"
	"fmt"

	"pizza-service/internal/data/entity"
	"pizza-service/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	Update(ctx context.Context, user *entity.User) error
	AddRole(ctx context.Context, userID uuid.UUID, role entity.RoleBinding) error
}

type userRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewUserRepository(db database.PgxIface, log *zap.Logger) UserRepository {
	return &userRepository{
		db:  db,
		log: log.With(zap.String("repository", "user")),
	}
}

// Create inserts the user and its role bindings in one transaction.
// Returns ErrDuplicateEmail when the email is taken, ignoring case.
func (ur *userRepository) Create(ctx context.Context, user *entity.User) error {
	tx, err := ur.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin create user: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO users (id, name, email, password, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err = tx.Exec(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicateEmail
	}
	if err != nil {
		ur.log.Error("Failed to create user",
			zap.Error(err),
			zap.String("email", user.Email),
		)
		return fmt.Errorf("create user %s: %w", user.Email, err)
	}

	for _, role := range user.Roles {
		if err := insertRole(ctx, tx, user.ID, role); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit create user %s: %w", user.Email, err)
	}

	return nil
}

func (ur *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	query := `
		SELECT id, name, email, password, created_at, updated_at, deleted_at
		FROM users
		WHERE id = $1 AND deleted_at IS NULL
	`

	return ur.findOne(ctx, query, id)
}

func (ur *userRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	query := `
		SELECT id, name, email, password, created_at, updated_at, deleted_at
		FROM users
		WHERE lower(email) = $1 AND deleted_at IS NULL
	`

	return ur.findOne(ctx, query, entity.NormalizeEmail(email))
}

func (ur *userRepository) findOne(ctx context.Context, query string, arg any) (*entity.User, error) {
	var user entity.User
	err := ur.db.QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
		&user.DeletedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		ur.log.Error("Failed to find user", zap.Error(err), zap.Any("key", arg))
		return nil, fmt.Errorf("find user %v: %w", arg, err)
	}

	roles, err := ur.findRoles(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	user.Roles = roles

	return &user, nil
}

func (ur *userRepository) findRoles(ctx context.Context, userID uuid.UUID) ([]entity.RoleBinding, error) {
	query := `
		SELECT role, franchise_id
		FROM user_roles
		WHERE user_id = $1
		ORDER BY created_at, role
	`

	rows, err := ur.db.Query(ctx, query, userID)
	if err != nil {
		ur.log.Error("Failed to load user roles", zap.Error(err), zap.String("user_id", userID.String()))
		return nil, fmt.Errorf("find roles for user %s: %w", userID, err)
	}
	defer rows.Close()

	var roles []entity.RoleBinding
	for rows.Next() {
		var tag string
		var scope *uuid.UUID
		if err := rows.Scan(&tag, &scope); err != nil {
			return nil, fmt.Errorf("scan role row: %w", err)
		}
		role, err := entity.NewRoleBinding(entity.RoleTag(tag), scope)
		if err != nil {
			// Rows that cannot form a valid binding grant nothing.
			ur.log.Warn("Skipping invalid role binding",
				zap.Error(err),
				zap.String("user_id", userID.String()),
			)
			continue
		}
		roles = append(roles, role)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate role rows: %w", err)
	}

	return roles, nil
}

// Update writes name, email and password. Role bindings are changed with AddRole.
func (ur *userRepository) Update(ctx context.Context, user *entity.User) error {
	query := `
		UPDATE users
		SET name = $2, email = $3, password = $4, updated_at = $5
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := ur.db.Exec(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicateEmail
	}
	if err != nil {
		ur.log.Error("Failed to update user",
			zap.Error(err),
			zap.String("user_id", user.ID.String()),
		)
		return fmt.Errorf("update user %s: %w", user.ID, err)
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func (ur *userRepository) AddRole(ctx context.Context, userID uuid.UUID, role entity.RoleBinding) error {
	return insertRole(ctx, ur.db, userID, role)
}

func insertRole(ctx context.Context, db execer, userID uuid.UUID, role entity.RoleBinding) error {
	if !role.IsValid() {
		return entity.ErrInvalidRole
	}

	var scope *uuid.UUID
	if id, ok := role.Scope(); ok {
		scope = &id
	}

	query := `
		INSERT INTO user_roles (user_id, role, franchise_id, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT DO NOTHING
	`

	if _, err := db.Exec(ctx, query, userID, string(role.Tag()), scope); err != nil {
		return fmt.Errorf("add role %s to user %s: %w", role, userID, err)
	}

	return nil
}
