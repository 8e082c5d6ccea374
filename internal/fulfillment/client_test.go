package fulfillment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pizza-service/internal/data/entity"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func testOrder() *entity.Order {
	order := &entity.Order{
		FranchiseID: uuid.New(),
		StoreID:     uuid.New(),
		Status:      entity.OrderStatusPending,
		Items: []entity.OrderItem{
			{MenuID: uuid.New(), Description: "Veggie", Price: 0.05},
		},
	}
	order.ID = uuid.New()
	return order
}

func TestSubmit_Success(t *testing.T) {
	diner := Diner{ID: uuid.New(), Name: "diner", Email: "d@test.com"}
	order := testOrder()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/order" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer factory-key" {
			t.Errorf("unexpected authorization header %q", got)
		}

		var body submitRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body.Diner.ID != diner.ID || body.Order.ID != order.ID || len(body.Order.Items) != 1 {
			t.Errorf("unexpected body %+v", body)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"jwt":"job-token","reportUrl":"http://factory/report/1"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", "factory-key", time.Second, zap.NewNop())
	receipt, err := c.Submit(context.Background(), diner, order)
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if receipt.JobToken != "job-token" || receipt.ReportURL != "http://factory/report/1" {
		t.Fatalf("unexpected receipt %+v", receipt)
	}
}

func TestSubmit_RejectedCarriesReportURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"message":"oven on fire","reportUrl":"http://factory/report/2"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", time.Second, zap.NewNop())
	_, err := c.Submit(context.Background(), Diner{}, testOrder())
	failure, ok := AsFailure(err)
	if !ok {
		t.Fatalf("expected *Failure, got %v", err)
	}
	if failure.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", failure.StatusCode)
	}
	if failure.ReportURL != "http://factory/report/2" {
		t.Fatalf("expected report url, got %q", failure.ReportURL)
	}
}

func TestSubmit_RejectedWithoutBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", time.Second, zap.NewNop())
	_, err := c.Submit(context.Background(), Diner{}, testOrder())
	failure, ok := AsFailure(err)
	if !ok || failure.ReportURL != "" {
		t.Fatalf("expected failure without report url, got %v", err)
	}
}

func TestSubmit_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := NewClient(srv.URL, "k", 50*time.Millisecond, zap.NewNop())
	_, err := c.Submit(context.Background(), Diner{}, testOrder())
	failure, ok := AsFailure(err)
	if !ok {
		t.Fatalf("expected *Failure, got %v", err)
	}
	if failure.StatusCode != 0 || failure.Err == nil {
		t.Fatalf("expected transport failure, got %+v", failure)
	}
}

func TestSubmit_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(url, "k", time.Second, zap.NewNop())
	_, err := c.Submit(context.Background(), Diner{}, testOrder())
	var failure *Failure
	if !errors.As(err, &failure) {
		t.Fatalf("expected *Failure, got %v", err)
	}
}

func TestSubmit_SuccessWithoutJobTokenFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"reportUrl":"http://factory/report/3"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", time.Second, zap.NewNop())
	_, err := c.Submit(context.Background(), Diner{}, testOrder())
	failure, ok := AsFailure(err)
	if !ok || failure.ReportURL != "http://factory/report/3" {
		t.Fatalf("expected failure with report url, got %v", err)
	}
}
