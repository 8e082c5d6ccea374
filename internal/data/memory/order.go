package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"pizza-service/internal/data/entity"
	"pizza-service/internal/data/repository"

	"github.com/google/uuid"
)

var errDuplicateOrder = errors.New("order id already recorded")

type orderEntry struct {
	mu    sync.RWMutex
	order *entity.Order
}

type dinerIndex struct {
	mu  sync.Mutex
	ids []uuid.UUID
}

// OrderRepository locks per order id for transitions and per diner for the
// creation-ordered index.
type OrderRepository struct {
	orders  sync.Map // uuid.UUID -> *orderEntry
	byDiner sync.Map // uuid.UUID -> *dinerIndex
}

func NewOrderRepository() *OrderRepository {
	return &OrderRepository{}
}

func (r *OrderRepository) Create(ctx context.Context, order *entity.Order) error {
	if _, loaded := r.orders.LoadOrStore(order.ID, &orderEntry{order: order.Clone()}); loaded {
		return errDuplicateOrder
	}

	v, _ := r.byDiner.LoadOrStore(order.DinerID, &dinerIndex{})
	idx := v.(*dinerIndex)
	idx.mu.Lock()
	idx.ids = append(idx.ids, order.ID)
	idx.mu.Unlock()
	return nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Order, error) {
	v, ok := r.orders.Load(id)
	if !ok {
		return nil, nil
	}

	e := v.(*orderEntry)
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.order.Clone(), nil
}

func (r *OrderRepository) FindByDinerID(ctx context.Context, dinerID uuid.UUID) ([]*entity.Order, error) {
	v, ok := r.byDiner.Load(dinerID)
	if !ok {
		return []*entity.Order{}, nil
	}

	idx := v.(*dinerIndex)
	idx.mu.Lock()
	ids := make([]uuid.UUID, len(idx.ids))
	copy(ids, idx.ids)
	idx.mu.Unlock()

	orders := make([]*entity.Order, 0, len(ids))
	for _, id := range ids {
		order, err := r.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if order != nil {
			orders = append(orders, order)
		}
	}
	return orders, nil
}

func (r *OrderRepository) Resolve(ctx context.Context, id uuid.UUID, status entity.OrderStatus, jobToken, reportURL *string) error {
	if err := entity.CanTransition(entity.OrderStatusPending, status); err != nil {
		return err
	}

	v, ok := r.orders.Load(id)
	if !ok {
		return repository.ErrNotFound
	}

	e := v.(*orderEntry)
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.order.Status != entity.OrderStatusPending {
		return repository.ErrAlreadyResolved
	}

	e.order.Status = status
	e.order.JobToken = jobToken
	e.order.ReportURL = reportURL
	e.order.UpdatedAt = time.Now()
	return nil
}
