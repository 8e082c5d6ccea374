package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"pizza-service/internal/authz"
	"pizza-service/internal/data/entity"
	"pizza-service/internal/data/repository"
	"pizza-service/internal/dto/request"
	"pizza-service/internal/dto/response"
	"pizza-service/internal/fulfillment"
	"pizza-service/internal/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// resolveTimeout bounds the terminal status write after the factory call.
const resolveTimeout = 5 * time.Second

type OrderService interface {
	GetMenu(ctx context.Context) ([]response.MenuItemResponse, error)
	// AddMenuItem returns the full menu after the insert.
	AddMenuItem(ctx context.Context, caller entity.Identity, req *request.AddMenuItemRequest) ([]response.MenuItemResponse, error)
	PlaceOrder(ctx context.Context, caller entity.Identity, req *request.PlaceOrderRequest) (*response.PlaceOrderResponse, error)
	ListOrders(ctx context.Context, caller entity.Identity) (*response.OrderListResponse, error)
}

type orderService struct {
	repo    *repository.Repository
	factory fulfillment.Service
	timeout time.Duration
	metrics *metrics.Registry
	log     *zap.Logger
}

func NewOrderService(
	repo *repository.Repository,
	factory fulfillment.Service,
	timeout time.Duration,
	registry *metrics.Registry,
	log *zap.Logger,
) OrderService {
	return &orderService{
		repo:    repo,
		factory: factory,
		timeout: timeout,
		metrics: registry,
		log:     log.With(zap.String("service", "order")),
	}
}

func (s *orderService) GetMenu(ctx context.Context) ([]response.MenuItemResponse, error) {
	items, err := s.repo.Menu.FindAll(ctx)
	if err != nil {
		s.log.Error("Failed to load menu", zap.Error(err))
		return nil, StoreError("failed to load menu", err)
	}
	return response.MenuToResponse(items), nil
}

func (s *orderService) AddMenuItem(ctx context.Context, caller entity.Identity, req *request.AddMenuItemRequest) ([]response.MenuItemResponse, error) {
	if !authz.CanAct(caller, authz.ActionAddMenuItem, authz.Platform()) {
		s.log.Warn("Add menu item denied", zap.String("caller_id", caller.UserID.String()))
		return nil, Forbidden("unable to add menu item")
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, ValidationError("menu item title is required", nil)
	}
	if req.Price < 0 {
		return nil, ValidationError("menu item price must not be negative", nil)
	}

	item := &entity.MenuItem{
		BaseSimple: entity.BaseSimple{
			ID:        uuid.New(),
			CreatedAt: time.Now(),
		},
		Title:       title,
		Description: req.Description,
		Image:       req.Image,
		Price:       req.Price,
	}

	if err := s.repo.Menu.Create(ctx, item); err != nil {
		s.log.Error("Failed to add menu item", zap.Error(err), zap.String("title", title))
		return nil, StoreError("failed to add menu item", err)
	}

	s.log.Info("Menu item added", zap.String("menu_id", item.ID.String()))
	return s.GetMenu(ctx)
}

// PlaceOrder persists the order as pending before calling the factory, and
// always moves it to a terminal status afterwards. The factory call and the
// final write are detached from the caller's cancellation.
func (s *orderService) PlaceOrder(ctx context.Context, caller entity.Identity, req *request.PlaceOrderRequest) (*response.PlaceOrderResponse, error) {
	order, verr := s.buildOrder(caller, req)
	if verr != nil {
		return nil, verr
	}

	if err := s.checkDestination(ctx, order.FranchiseID, order.StoreID); err != nil {
		return nil, err
	}

	if err := s.repo.Order.Create(ctx, order); err != nil {
		s.log.Error("Failed to persist order", zap.Error(err), zap.String("order_id", order.ID.String()))
		return nil, StoreError("failed to create order", err)
	}

	s.log.Info("Order pending",
		zap.String("order_id", order.ID.String()),
		zap.String("diner_id", caller.UserID.String()),
		zap.Int("items", len(order.Items)))

	detached := context.WithoutCancel(ctx)
	start := time.Now()

	callCtx, cancel := context.WithTimeout(detached, s.timeout)
	receipt, submitErr := s.factory.Submit(callCtx, fulfillment.Diner{
		ID:    caller.UserID,
		Name:  caller.Name,
		Email: caller.Email,
	}, order)
	cancel()

	if submitErr != nil {
		var reportURL string
		if failure, ok := fulfillment.AsFailure(submitErr); ok {
			reportURL = failure.ReportURL
		}

		s.metrics.OrderFailed(time.Since(start))
		if err := s.resolve(detached, order, entity.OrderStatusFailedAtFactory, nil, optional(reportURL)); err != nil {
			return nil, err
		}

		s.log.Warn("Order failed at factory",
			zap.String("order_id", order.ID.String()),
			zap.String("report_url", reportURL),
			zap.Error(submitErr))
		return nil, UpstreamFailure("Failed to fulfill order at factory", reportURL, submitErr)
	}

	if err := s.resolve(detached, order, entity.OrderStatusFulfilled, optional(receipt.JobToken), optional(receipt.ReportURL)); err != nil {
		return nil, err
	}
	s.metrics.OrderFulfilled(len(order.Items), order.Total(), time.Since(start))

	s.log.Info("Order fulfilled", zap.String("order_id", order.ID.String()))

	return &response.PlaceOrderResponse{
		Order:     response.OrderToResponse(order),
		JWT:       receipt.JobToken,
		ReportURL: receipt.ReportURL,
	}, nil
}

func (s *orderService) ListOrders(ctx context.Context, caller entity.Identity) (*response.OrderListResponse, error) {
	if !authz.CanAct(caller, authz.ActionListOrders, authz.UserResource(caller.UserID)) {
		return nil, Forbidden("unauthorized")
	}

	orders, err := s.repo.Order.FindByDinerID(ctx, caller.UserID)
	if err != nil {
		s.log.Error("Failed to list orders", zap.Error(err), zap.String("diner_id", caller.UserID.String()))
		return nil, StoreError("failed to list orders", err)
	}

	resp := &response.OrderListResponse{
		DinerID: caller.UserID.String(),
		Orders:  make([]response.OrderResponse, 0, len(orders)),
	}
	for _, order := range orders {
		resp.Orders = append(resp.Orders, response.OrderToResponse(order))
	}
	return resp, nil
}

func (s *orderService) buildOrder(caller entity.Identity, req *request.PlaceOrderRequest) (*entity.Order, error) {
	fields := make(map[string]string)

	franchiseID, err := uuid.Parse(req.FranchiseID)
	if err != nil {
		fields["franchiseId"] = "a valid franchise id is required"
	}
	storeID, err := uuid.Parse(req.StoreID)
	if err != nil {
		fields["storeId"] = "a valid store id is required"
	}
	if len(req.Items) == 0 {
		fields["items"] = "at least one item is required"
	}

	items := make([]entity.OrderItem, 0, len(req.Items))
	for i, item := range req.Items {
		menuID, err := uuid.Parse(item.MenuID)
		if err != nil {
			fields[fmt.Sprintf("items[%d].menuId", i)] = "a valid menu id is required"
			continue
		}
		if item.Price < 0 {
			fields[fmt.Sprintf("items[%d].price", i)] = "price must not be negative"
			continue
		}
		items = append(items, entity.OrderItem{
			MenuID:      menuID,
			Description: item.Description,
			Price:       item.Price,
		})
	}

	if len(fields) > 0 {
		return nil, ValidationError("invalid order request", fields)
	}

	now := time.Now()
	return &entity.Order{
		BaseNoDelete: entity.BaseNoDelete{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		DinerID:     caller.UserID,
		FranchiseID: franchiseID,
		StoreID:     storeID,
		Items:       items,
		Status:      entity.OrderStatusPending,
	}, nil
}

func (s *orderService) checkDestination(ctx context.Context, franchiseID, storeID uuid.UUID) error {
	franchise, err := s.repo.Franchise.FindByID(ctx, franchiseID)
	if err != nil {
		s.log.Error("Failed to find franchise", zap.Error(err), zap.String("franchise_id", franchiseID.String()))
		return StoreError("failed to create order", err)
	}
	if franchise == nil {
		return NotFound("franchise not found")
	}

	store, err := s.repo.Franchise.FindStore(ctx, storeID)
	if err != nil {
		s.log.Error("Failed to find store", zap.Error(err), zap.String("store_id", storeID.String()))
		return StoreError("failed to create order", err)
	}
	if store == nil || store.FranchiseID != franchiseID {
		return NotFound("store not found")
	}
	return nil
}

// resolve writes the terminal status and mirrors it onto order.
func (s *orderService) resolve(ctx context.Context, order *entity.Order, status entity.OrderStatus, jobToken, reportURL *string) error {
	writeCtx, cancel := context.WithTimeout(ctx, resolveTimeout)
	defer cancel()

	if err := s.repo.Order.Resolve(writeCtx, order.ID, status, jobToken, reportURL); err != nil {
		s.log.Error("Failed to resolve order",
			zap.Error(err),
			zap.String("order_id", order.ID.String()),
			zap.String("status", string(status)))
		return StoreError("failed to record order status", err)
	}

	order.Status = status
	order.JobToken = jobToken
	order.ReportURL = reportURL
	order.UpdatedAt = time.Now()
	return nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
