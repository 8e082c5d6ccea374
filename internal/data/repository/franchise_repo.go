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

// FranchiseRepository owns franchises and their stores. Franchise admins
// are the users holding a franchisee binding scoped to the franchise.
type FranchiseRepository interface {
	// Create inserts the franchise and grants every admin a franchisee
	// binding for it.
	Create(ctx context.Context, franchise *entity.Franchise) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Franchise, error)
	FindAll(ctx context.Context) ([]*entity.Franchise, error)
	FindByAdmin(ctx context.Context, userID uuid.UUID) ([]*entity.Franchise, error)
	// Delete removes the franchise, its stores and the bindings scoped to
	// it. Orders referencing it are kept.
	Delete(ctx context.Context, id uuid.UUID) error

	CreateStore(ctx context.Context, store *entity.Store) error
	FindStore(ctx context.Context, id uuid.UUID) (*entity.Store, error)
	DeleteStore(ctx context.Context, franchiseID, storeID uuid.UUID) error
}

type franchiseRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewFranchiseRepository(db database.PgxIface, log *zap.Logger) FranchiseRepository {
	return &franchiseRepository{
		db:  db,
		log: log.With(zap.String("repository", "franchise")),
	}
}

func (r *franchiseRepository) Create(ctx context.Context, franchise *entity.Franchise) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin create franchise: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO franchises (id, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err = tx.Exec(ctx, query,
		franchise.ID,
		franchise.Name,
		franchise.CreatedAt,
		franchise.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicateName
	}
	if err != nil {
		r.log.Error("Failed to create franchise",
			zap.Error(err),
			zap.String("name", franchise.Name),
		)
		return fmt.Errorf("create franchise %s: %w", franchise.Name, err)
	}

	for _, admin := range franchise.Admins {
		if err := insertRole(ctx, tx, admin.UserID, entity.FranchiseeRole(franchise.ID)); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit create franchise %s: %w", franchise.Name, err)
	}

	return nil
}

func (r *franchiseRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Franchise, error) {
	query := `
		SELECT id, name, created_at, updated_at
		FROM franchises
		WHERE id = $1
	`

	var franchise entity.Franchise
	err := r.db.QueryRow(ctx, query, id).Scan(
		&franchise.ID,
		&franchise.Name,
		&franchise.CreatedAt,
		&franchise.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find franchise by ID",
			zap.Error(err),
			zap.String("franchise_id", id.String()),
		)
		return nil, fmt.Errorf("find franchise by ID %s: %w", id, err)
	}

	if err := r.loadDetails(ctx, &franchise); err != nil {
		return nil, err
	}

	return &franchise, nil
}

func (r *franchiseRepository) FindAll(ctx context.Context) ([]*entity.Franchise, error) {
	query := `
		SELECT id, name, created_at, updated_at
		FROM franchises
		ORDER BY created_at, name
	`

	return r.findMany(ctx, query)
}

func (r *franchiseRepository) FindByAdmin(ctx context.Context, userID uuid.UUID) ([]*entity.Franchise, error) {
	query := `
		SELECT f.id, f.name, f.created_at, f.updated_at
		FROM franchises f
		JOIN user_roles ur ON ur.franchise_id = f.id
		WHERE ur.user_id = $1 AND ur.role = 'franchisee'
		ORDER BY f.created_at, f.name
	`

	return r.findMany(ctx, query, userID)
}

func (r *franchiseRepository) findMany(ctx context.Context, query string, args ...any) ([]*entity.Franchise, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to list franchises", zap.Error(err))
		return nil, fmt.Errorf("list franchises: %w", err)
	}
	defer rows.Close()

	var franchises []*entity.Franchise
	for rows.Next() {
		var franchise entity.Franchise
		if err := rows.Scan(
			&franchise.ID,
			&franchise.Name,
			&franchise.CreatedAt,
			&franchise.UpdatedAt,
		); err != nil {
			r.log.Error("Failed to scan franchise row", zap.Error(err))
			return nil, fmt.Errorf("scan franchise row: %w", err)
		}
		franchises = append(franchises, &franchise)
	}

	if err := rows.Err(); err != nil {
		r.log.Error("Rows iteration error", zap.Error(err))
		return nil, fmt.Errorf("iterate franchise rows: %w", err)
	}

	// Details are loaded after rows is drained so the connection is free.
	for _, franchise := range franchises {
		if err := r.loadDetails(ctx, franchise); err != nil {
			return nil, err
		}
	}

	return franchises, nil
}

func (r *franchiseRepository) loadDetails(ctx context.Context, franchise *entity.Franchise) error {
	adminQuery := `
		SELECT u.id, u.name, u.email
		FROM user_roles ur
		JOIN users u ON u.id = ur.user_id
		WHERE ur.franchise_id = $1 AND ur.role = 'franchisee' AND u.deleted_at IS NULL
		ORDER BY ur.created_at, u.email
	`

	rows, err := r.db.Query(ctx, adminQuery, franchise.ID)
	if err != nil {
		return fmt.Errorf("find admins for franchise %s: %w", franchise.ID, err)
	}
	franchise.Admins = franchise.Admins[:0]
	for rows.Next() {
		var admin entity.FranchiseAdmin
		if err := rows.Scan(&admin.UserID, &admin.Name, &admin.Email); err != nil {
			rows.Close()
			return fmt.Errorf("scan franchise admin: %w", err)
		}
		franchise.Admins = append(franchise.Admins, admin)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate franchise admins: %w", err)
	}

	storeQuery := `
		SELECT id, franchise_id, name, created_at
		FROM stores
		WHERE franchise_id = $1
		ORDER BY created_at, name
	`

	rows, err = r.db.Query(ctx, storeQuery, franchise.ID)
	if err != nil {
		return fmt.Errorf("find stores for franchise %s: %w", franchise.ID, err)
	}
	defer rows.Close()

	franchise.Stores = franchise.Stores[:0]
	for rows.Next() {
		var store entity.Store
		if err := rows.Scan(&store.ID, &store.FranchiseID, &store.Name, &store.CreatedAt); err != nil {
			return fmt.Errorf("scan store: %w", err)
		}
		franchise.Stores = append(franchise.Stores, store)
	}

	return rows.Err()
}

func (r *franchiseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin delete franchise: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM stores WHERE franchise_id = $1`, id); err != nil {
		return fmt.Errorf("delete stores of franchise %s: %w", id, err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM user_roles WHERE franchise_id = $1`, id); err != nil {
		return fmt.Errorf("delete roles scoped to franchise %s: %w", id, err)
	}

	result, err := tx.Exec(ctx, `DELETE FROM franchises WHERE id = $1`, id)
	if err != nil {
		r.log.Error("Failed to delete franchise",
			zap.Error(err),
			zap.String("franchise_id", id.String()),
		)
		return fmt.Errorf("delete franchise %s: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit delete franchise %s: %w", id, err)
	}

	r.log.Info("Franchise deleted", zap.String("franchise_id", id.String()))
	return nil
}

func (r *franchiseRepository) CreateStore(ctx context.Context, store *entity.Store) error {
	query := `
		INSERT INTO stores (id, franchise_id, name, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.db.Exec(ctx, query,
		store.ID,
		store.FranchiseID,
		store.Name,
		store.CreatedAt,
	)
	if err != nil {
		r.log.Error("Failed to create store",
			zap.Error(err),
			zap.String("franchise_id", store.FranchiseID.String()),
		)
		return fmt.Errorf("create store %s: %w", store.Name, err)
	}

	return nil
}

func (r *franchiseRepository) FindStore(ctx context.Context, id uuid.UUID) (*entity.Store, error) {
	query := `
		SELECT id, franchise_id, name, created_at
		FROM stores
		WHERE id = $1
	`

	var store entity.Store
	err := r.db.QueryRow(ctx, query, id).Scan(
		&store.ID,
		&store.FranchiseID,
		&store.Name,
		&store.CreatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find store", zap.Error(err), zap.String("store_id", id.String()))
		return nil, fmt.Errorf("find store %s: %w", id, err)
	}

	return &store, nil
}

func (r *franchiseRepository) DeleteStore(ctx context.Context, franchiseID, storeID uuid.UUID) error {
	query := `DELETE FROM stores WHERE id = $1 AND franchise_id = $2`

	result, err := r.db.Exec(ctx, query, storeID, franchiseID)
	if err != nil {
		r.log.Error("Failed to delete store",
			zap.Error(err),
			zap.String("store_id", storeID.String()),
		)
		return fmt.Errorf("delete store %s: %w", storeID, err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}
