package repository

import (
	"context"
	"fmt"

	"pizza-service/internal/data/entity"
	"pizza-service/pkg/database"

	"go.uber.org/zap"
)

type MenuRepository interface {
	FindAll(ctx context.Context) ([]*entity.MenuItem, error)
	Create(ctx context.Context, item *entity.MenuItem) error
}

type menuRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewMenuRepository(db database.PgxIface, log *zap.Logger) MenuRepository {
	return &menuRepository{
		db:  db,
		log: log.With(zap.String("repository", "menu")),
	}
}

func (r *menuRepository) FindAll(ctx context.Context) ([]*entity.MenuItem, error) {
	query := `
		SELECT id, title, description, image, price, created_at
		FROM menu
		ORDER BY created_at, title
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.log.Error("Failed to get menu", zap.Error(err))
		return nil, fmt.Errorf("find menu: %w", err)
	}
	defer rows.Close()

	var items []*entity.MenuItem
	for rows.Next() {
		var item entity.MenuItem
		if err := rows.Scan(
			&item.ID,
			&item.Title,
			&item.Description,
			&item.Image,
			&item.Price,
			&item.CreatedAt,
		); err != nil {
			r.log.Error("Failed to scan menu row", zap.Error(err))
			return nil, fmt.Errorf("scan menu row: %w", err)
		}
		items = append(items, &item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate menu rows: %w", err)
	}

	return items, nil
}

func (r *menuRepository) Create(ctx context.Context, item *entity.MenuItem) error {
	query := `
		INSERT INTO menu (id, title, description, image, price, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.Exec(ctx, query,
		item.ID,
		item.Title,
		item.Description,
		item.Image,
		item.Price,
		item.CreatedAt,
	)
	if err != nil {
		r.log.Error("Failed to create menu item",
			zap.Error(err),
			zap.String("title", item.Title),
		)
		return fmt.Errorf("create menu item %s: %w", item.Title, err)
	}

	return nil
}
