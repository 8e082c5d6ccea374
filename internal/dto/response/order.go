package response

import (
	"time"

	"pizza-service/internal/data/entity"
)

type MenuItemResponse struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Image       string  `json:"image"`
	Price       float64 `json:"price"`
}

type OrderItemResponse struct {
	MenuID      string  `json:"menuId"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
}

type OrderResponse struct {
	ID          string              `json:"id"`
	FranchiseID string              `json:"franchiseId"`
	StoreID     string              `json:"storeId"`
	Status      entity.OrderStatus  `json:"status"`
	Items       []OrderItemResponse `json:"items"`
	Total       float64             `json:"total"`
	JobToken    *string             `json:"jobToken,omitempty"`
	ReportURL   *string             `json:"reportUrl,omitempty"`
	CreatedAt   time.Time           `json:"createdAt"`
}

// PlaceOrderResponse carries the factory's job token as jwt.
type PlaceOrderResponse struct {
	Order     OrderResponse `json:"order"`
	JWT       string        `json:"jwt"`
	ReportURL string        `json:"reportUrl,omitempty"`
}

type OrderListResponse struct {
	DinerID string          `json:"dinerId"`
	Orders  []OrderResponse `json:"orders"`
}

func MenuToResponse(items []*entity.MenuItem) []MenuItemResponse {
	resp := make([]MenuItemResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, MenuItemResponse{
			ID:          item.ID.String(),
			Title:       item.Title,
			Description: item.Description,
			Image:       item.Image,
			Price:       item.Price,
		})
	}
	return resp
}

func OrderToResponse(order *entity.Order) OrderResponse {
	resp := OrderResponse{
		ID:          order.ID.String(),
		FranchiseID: order.FranchiseID.String(),
		StoreID:     order.StoreID.String(),
		Status:      order.Status,
		Items:       make([]OrderItemResponse, 0, len(order.Items)),
		Total:       order.Total(),
		JobToken:    order.JobToken,
		ReportURL:   order.ReportURL,
		CreatedAt:   order.CreatedAt,
	}
	for _, item := range order.Items {
		resp.Items = append(resp.Items, OrderItemResponse{
			MenuID:      item.MenuID.String(),
			Description: item.Description,
			Price:       item.Price,
		})
	}
	return resp
}
