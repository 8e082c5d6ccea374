// Package fulfillment submits orders to the external pizza factory.
package fulfillment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"pizza-service/internal/data/entity"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxResponseBytes = 1 << 20

// Receipt is the factory's acknowledgement of an accepted order.
type Receipt struct {
	JobToken  string
	ReportURL string
}

// Failure is returned for every rejected or undelivered submission.
// ReportURL is set when the factory supplied one.
type Failure struct {
	StatusCode int
	ReportURL  string
	Err        error
}

func (f *Failure) Error() string {
	if f.StatusCode != 0 {
		return fmt.Sprintf("factory rejected order: status %d", f.StatusCode)
	}
	return fmt.Sprintf("factory unreachable: %v", f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

// AsFailure extracts the report URL carried by a submission error.
func AsFailure(err error) (*Failure, bool) {
	var failure *Failure
	if errors.As(err, &failure) {
		return failure, true
	}
	return nil, false
}

// Diner identifies who the order is for.
type Diner struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

// Service submits one order. On failure the error is a *Failure.
type Service interface {
	Submit(ctx context.Context, diner Diner, order *entity.Order) (*Receipt, error)
}

type orderItemPayload struct {
	MenuID      uuid.UUID `json:"menuId"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
}

type orderPayload struct {
	ID          uuid.UUID          `json:"id"`
	FranchiseID uuid.UUID          `json:"franchiseId"`
	StoreID     uuid.UUID          `json:"storeId"`
	Items       []orderItemPayload `json:"items"`
}

type submitRequest struct {
	Diner Diner        `json:"diner"`
	Order orderPayload `json:"order"`
}

type submitResponse struct {
	JWT       string `json:"jwt"`
	ReportURL string `json:"reportUrl"`
}

type client struct {
	endpoint string
	apiKey   string
	http     *http.Client
	log      *zap.Logger
}

// NewClient posts orders to {baseURL}/api/order. Every call is bounded by
// timeout in addition to the caller's context.
func NewClient(baseURL, apiKey string, timeout time.Duration, log *zap.Logger) Service {
	return &client{
		endpoint: strings.TrimRight(baseURL, "/") + "/api/order",
		apiKey:   apiKey,
		http:     &http.Client{Timeout: timeout},
		log:      log.With(zap.String("client", "fulfillment")),
	}
}

func (c *client) Submit(ctx context.Context, diner Diner, order *entity.Order) (*Receipt, error) {
	payload, err := json.Marshal(newSubmitRequest(diner, order))
	if err != nil {
		return nil, &Failure{Err: fmt.Errorf("encode order: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, &Failure{Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("Factory request failed",
			zap.String("order_id", order.ID.String()),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
		return nil, &Failure{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &Failure{StatusCode: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}

	var decoded submitResponse
	decodeErr := json.Unmarshal(body, &decoded)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Warn("Factory rejected order",
			zap.String("order_id", order.ID.String()),
			zap.Int("status", resp.StatusCode),
			zap.String("report_url", decoded.ReportURL))
		return nil, &Failure{StatusCode: resp.StatusCode, ReportURL: decoded.ReportURL}
	}

	if decodeErr != nil {
		return nil, &Failure{Err: fmt.Errorf("decode response: %w", decodeErr)}
	}
	if decoded.JWT == "" {
		return nil, &Failure{ReportURL: decoded.ReportURL, Err: errors.New("response carried no job token")}
	}

	c.log.Debug("Factory accepted order",
		zap.String("order_id", order.ID.String()),
		zap.Duration("duration", time.Since(start)))

	return &Receipt{JobToken: decoded.JWT, ReportURL: decoded.ReportURL}, nil
}

func newSubmitRequest(diner Diner, order *entity.Order) submitRequest {
	items := make([]orderItemPayload, len(order.Items))
	for i, item := range order.Items {
		items[i] = orderItemPayload{
			MenuID:      item.MenuID,
			Description: item.Description,
			Price:       item.Price,
		}
	}
	return submitRequest{
		Diner: diner,
		Order: orderPayload{
			ID:          order.ID,
			FranchiseID: order.FranchiseID,
			StoreID:     order.StoreID,
			Items:       items,
		},
	}
}
