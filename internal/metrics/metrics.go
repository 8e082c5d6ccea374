// Package metrics keeps in-process service counters. A Registry is built
// once at startup and handed to whoever records into it.
package metrics

import (
	"net/http"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

type Registry struct {
	requests       atomic.Int64
	getRequests    atomic.Int64
	postRequests   atomic.Int64
	putRequests    atomic.Int64
	deleteRequests atomic.Int64

	activeSessions atomic.Int64
	goodAuth       atomic.Int64
	badAuth        atomic.Int64

	pizzasSold   atomic.Int64
	failedOrders atomic.Int64

	mu             sync.Mutex
	revenue        float64
	requestLatency latency
	orderLatency   latency
}

type latency struct {
	count int64
	total time.Duration
	max   time.Duration
}

func (l *latency) observe(d time.Duration) {
	l.count++
	l.total += d
	if d > l.max {
		l.max = d
	}
}

func (l latency) snapshot() LatencySnapshot {
	s := LatencySnapshot{Count: l.count, MaxMs: l.max.Milliseconds()}
	if l.count > 0 {
		s.AvgMs = float64(l.total.Microseconds()) / float64(l.count) / 1000
	}
	return s
}

func NewRegistry() *Registry {
	return &Registry{}
}

func (r *Registry) ObserveRequest(method string, d time.Duration) {
	r.requests.Add(1)
	switch method {
	case http.MethodGet:
		r.getRequests.Add(1)
	case http.MethodPost:
		r.postRequests.Add(1)
	case http.MethodPut:
		r.putRequests.Add(1)
	case http.MethodDelete:
		r.deleteRequests.Add(1)
	}

	r.mu.Lock()
	r.requestLatency.observe(d)
	r.mu.Unlock()
}

func (r *Registry) SessionOpened() { r.activeSessions.Add(1) }

func (r *Registry) SessionClosed() { r.activeSessions.Add(-1) }

// SessionsClosed records n sessions ended at once.
func (r *Registry) SessionsClosed(n int) { r.activeSessions.Add(-int64(n)) }

func (r *Registry) AuthSucceeded() { r.goodAuth.Add(1) }

func (r *Registry) AuthFailed() { r.badAuth.Add(1) }

// OrderFulfilled records a delivered order with its item count and total.
func (r *Registry) OrderFulfilled(items int, total float64, d time.Duration) {
	r.pizzasSold.Add(int64(items))

	r.mu.Lock()
	r.revenue += total
	r.orderLatency.observe(d)
	r.mu.Unlock()
}

func (r *Registry) OrderFailed(d time.Duration) {
	r.failedOrders.Add(1)

	r.mu.Lock()
	r.orderLatency.observe(d)
	r.mu.Unlock()
}

type LatencySnapshot struct {
	Count int64   `json:"count"`
	AvgMs float64 `json:"avgMs"`
	MaxMs int64   `json:"maxMs"`
}

type Snapshot struct {
	Requests struct {
		Total  int64 `json:"total"`
		Get    int64 `json:"get"`
		Post   int64 `json:"post"`
		Put    int64 `json:"put"`
		Delete int64 `json:"delete"`
	} `json:"requests"`
	ActiveSessions int64 `json:"activeSessions"`
	Auth           struct {
		Succeeded int64 `json:"succeeded"`
		Failed    int64 `json:"failed"`
	} `json:"auth"`
	Orders struct {
		PizzasSold int64   `json:"pizzasSold"`
		Failed     int64   `json:"failed"`
		Revenue    float64 `json:"revenue"`
	} `json:"orders"`
	Latency struct {
		Request LatencySnapshot `json:"request"`
		Order   LatencySnapshot `json:"order"`
	} `json:"latency"`
	System struct {
		Goroutines int    `json:"goroutines"`
		HeapBytes  uint64 `json:"heapBytes"`
	} `json:"system"`
}

func (r *Registry) Snapshot() Snapshot {
	var s Snapshot
	s.Requests.Total = r.requests.Load()
	s.Requests.Get = r.getRequests.Load()
	s.Requests.Post = r.postRequests.Load()
	s.Requests.Put = r.putRequests.Load()
	s.Requests.Delete = r.deleteRequests.Load()
	s.ActiveSessions = r.activeSessions.Load()
	s.Auth.Succeeded = r.goodAuth.Load()
	s.Auth.Failed = r.badAuth.Load()
	s.Orders.PizzasSold = r.pizzasSold.Load()
	s.Orders.Failed = r.failedOrders.Load()

	r.mu.Lock()
	s.Orders.Revenue = r.revenue
	s.Latency.Request = r.requestLatency.snapshot()
	s.Latency.Order = r.orderLatency.snapshot()
	r.mu.Unlock()

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	s.System.Goroutines = runtime.NumGoroutine()
	s.System.HeapBytes = mem.HeapAlloc
	return s
}
