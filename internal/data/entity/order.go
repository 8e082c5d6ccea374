package entity

import (
	"fmt"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderStatusPending         OrderStatus = "pending"
	OrderStatusFulfilled       OrderStatus = "fulfilled"
	OrderStatusFailedAtFactory OrderStatus = "failed_at_factory"
)

// IsTerminal reports whether no further transition is allowed.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusFulfilled || s == OrderStatusFailedAtFactory
}

// CanTransition allows only Pending -> Fulfilled and Pending -> FailedAtFactory.
func CanTransition(from, to OrderStatus) error {
	if from == OrderStatusPending && to.IsTerminal() {
		return nil
	}
	return fmt.Errorf("invalid order transition: %s -> %s", from, to)
}

type Order struct {
	BaseNoDelete
	DinerID     uuid.UUID   `db:"diner_id"`
	FranchiseID uuid.UUID   `db:"franchise_id"`
	StoreID     uuid.UUID   `db:"store_id"`
	Items       []OrderItem `db:"-"`
	Status      OrderStatus `db:"status"`
	JobToken    *string     `db:"job_token"`
	ReportURL   *string     `db:"report_url"`
}

// OrderItem snapshots the menu entry at the time of ordering.
type OrderItem struct {
	MenuID      uuid.UUID `db:"menu_id"`
	Description string    `db:"description"`
	Price       float64   `db:"price"`
}

func (o *Order) Total() float64 {
	var total float64
	for _, item := range o.Items {
		total += item.Price
	}
	return total
}

// Clone returns a deep copy safe to hand out of a store.
func (o *Order) Clone() *Order {
	c := *o
	c.Items = make([]OrderItem, len(o.Items))
	copy(c.Items, o.Items)
	if o.JobToken != nil {
		v := *o.JobToken
		c.JobToken = &v
	}
	if o.ReportURL != nil {
		v := *o.ReportURL
		c.ReportURL = &v
	}
	return &c
}
