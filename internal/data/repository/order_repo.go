package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pizza-service/internal/data/entity"
	"pizza-service/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type OrderRepository interface {
	// Create persists a new order with its items.
	Create(ctx context.Context, order *entity.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Order, error)
	// FindByDinerID returns the diner's orders in creation order.
	FindByDinerID(ctx context.Context, dinerID uuid.UUID) ([]*entity.Order, error)
	// Resolve moves a pending order to a terminal status. It applies at
	// most once per order: a second call returns ErrAlreadyResolved.
	Resolve(ctx context.Context, id uuid.UUID, status entity.OrderStatus, jobToken, reportURL *string) error
}

type orderRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewOrderRepository(db database.PgxIface, log *zap.Logger) OrderRepository {
	return &orderRepository{
		db:  db,
		log: log.With(zap.String("repository", "order")),
	}
}

func (r *orderRepository) Create(ctx context.Context, order *entity.Order) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin create order: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO orders (id, diner_id, franchise_id, store_id, status,
		                    job_token, report_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err = tx.Exec(ctx, query,
		order.ID,
		order.DinerID,
		order.FranchiseID,
		order.StoreID,
		order.Status,
		order.JobToken,
		order.ReportURL,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to create order",
			zap.Error(err),
			zap.String("order_id", order.ID.String()),
			zap.String("diner_id", order.DinerID.String()),
		)
		return fmt.Errorf("create order %s: %w", order.ID, err)
	}

	itemQuery := `
		INSERT INTO order_items (order_id, position, menu_id, description, price)
		VALUES ($1, $2, $3, $4, $5)
	`
	for i, item := range order.Items {
		if _, err := tx.Exec(ctx, itemQuery, order.ID, i, item.MenuID, item.Description, item.Price); err != nil {
			return fmt.Errorf("create order item %d for %s: %w", i, order.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit create order %s: %w", order.ID, err)
	}

	return nil
}

func (r *orderRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Order, error) {
	query := `
		SELECT id, diner_id, franchise_id, store_id, status,
		       job_token, report_url, created_at, updated_at
		FROM orders
		WHERE id = $1
	`

	var order entity.Order
	err := r.db.QueryRow(ctx, query, id).Scan(
		&order.ID,
		&order.DinerID,
		&order.FranchiseID,
		&order.StoreID,
		&order.Status,
		&order.JobToken,
		&order.ReportURL,
		&order.CreatedAt,
		&order.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find order by ID",
			zap.Error(err),
			zap.String("order_id", id.String()),
		)
		return nil, fmt.Errorf("find order by ID %s: %w", id, err)
	}

	if order.Items, err = r.findItems(ctx, order.ID); err != nil {
		return nil, err
	}

	return &order, nil
}

func (r *orderRepository) FindByDinerID(ctx context.Context, dinerID uuid.UUID) ([]*entity.Order, error) {
	query := `
		SELECT id, diner_id, franchise_id, store_id, status,
		       job_token, report_url, created_at, updated_at
		FROM orders
		WHERE diner_id = $1
		ORDER BY seq
	`

	rows, err := r.db.Query(ctx, query, dinerID)
	if err != nil {
		r.log.Error("Failed to get diner orders",
			zap.Error(err),
			zap.String("diner_id", dinerID.String()),
		)
		return nil, fmt.Errorf("find orders by diner %s: %w", dinerID, err)
	}
	defer rows.Close()

	var orders []*entity.Order
	for rows.Next() {
		var order entity.Order
		if err := rows.Scan(
			&order.ID,
			&order.DinerID,
			&order.FranchiseID,
			&order.StoreID,
			&order.Status,
			&order.JobToken,
			&order.ReportURL,
			&order.CreatedAt,
			&order.UpdatedAt,
		); err != nil {
			r.log.Error("Failed to scan order row", zap.Error(err))
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, &order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order rows: %w", err)
	}
	rows.Close()

	for _, order := range orders {
		if order.Items, err = r.findItems(ctx, order.ID); err != nil {
			return nil, err
		}
	}

	return orders, nil
}

func (r *orderRepository) findItems(ctx context.Context, orderID uuid.UUID) ([]entity.OrderItem, error) {
	query := `
		SELECT menu_id, description, price
		FROM order_items
		WHERE order_id = $1
		ORDER BY position
	`

	rows, err := r.db.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("find items for order %s: %w", orderID, err)
	}
	defer rows.Close()

	var items []entity.OrderItem
	for rows.Next() {
		var item entity.OrderItem
		if err := rows.Scan(&item.MenuID, &item.Description, &item.Price); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

func (r *orderRepository) Resolve(ctx context.Context, id uuid.UUID, status entity.OrderStatus, jobToken, reportURL *string) error {
	if err := entity.CanTransition(entity.OrderStatusPending, status); err != nil {
		return err
	}

	query := `
		UPDATE orders
		SET status = $2, job_token = $3, report_url = $4, updated_at = $5
		WHERE id = $1 AND status = 'pending'
	`

	result, err := r.db.Exec(ctx, query, id, status, jobToken, reportURL, time.Now())
	if err != nil {
		r.log.Error("Failed to resolve order",
			zap.Error(err),
			zap.String("order_id", id.String()),
			zap.String("status", string(status)),
		)
		return fmt.Errorf("resolve order %s: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		existing, err := r.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return ErrNotFound
		}
		return ErrAlreadyResolved
	}

	return nil
}
