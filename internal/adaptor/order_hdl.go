package adaptor

import (
	"net/http"

	"pizza-service/internal/dto/request"
	"pizza-service/internal/usecase"
	"pizza-service/pkg/utils"

	"go.uber.org/zap"
)

type OrderHandler struct {
	service usecase.OrderService
	log     *zap.Logger
}

func NewOrderHandler(service usecase.OrderService, log *zap.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		log:     log.With(zap.String("handler", "order")),
	}
}

// GetMenu handles GET /api/order/menu
func (h *OrderHandler) GetMenu(w http.ResponseWriter, r *http.Request) {
	menu, err := h.service.GetMenu(r.Context())
	if err != nil {
		writeError(w, h.log, err, "get menu")
		return
	}
	utils.ResponseSuccess(w, "menu retrieved", menu)
}

// AddMenuItem handles PUT /api/order/menu
func (h *OrderHandler) AddMenuItem(w http.ResponseWriter, r *http.Request) {
	identity, ok := caller(w, r)
	if !ok {
		return
	}

	var req request.AddMenuItemRequest
	if !decodeJSON(w, r, &req, "Validation failed") {
		return
	}

	menu, err := h.service.AddMenuItem(r.Context(), identity, &req)
	if err != nil {
		writeError(w, h.log, err, "add menu item")
		return
	}
	utils.ResponseSuccess(w, "menu item added", menu)
}

// ListOrders handles GET /api/order
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	identity, ok := caller(w, r)
	if !ok {
		return
	}

	orders, err := h.service.ListOrders(r.Context(), identity)
	if err != nil {
		writeError(w, h.log, err, "list orders")
		return
	}
	utils.ResponseSuccess(w, "orders retrieved", orders)
}

// PlaceOrder handles POST /api/order
func (h *OrderHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	identity, ok := caller(w, r)
	if !ok {
		return
	}

	var req request.PlaceOrderRequest
	if !decodeJSON(w, r, &req, "Validation failed") {
		return
	}

	resp, err := h.service.PlaceOrder(r.Context(), identity, &req)
	if err != nil {
		writeError(w, h.log, err, "place order")
		return
	}
	utils.ResponseSuccess(w, "order placed", resp)
}
