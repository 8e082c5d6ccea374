package middleware

import (
	"net/http"
	"time"

	"pizza-service/internal/metrics"
)

// Metrics counts every request by method and records its latency.
func Metrics(registry *metrics.Registry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			registry.ObserveRequest(r.Method, time.Since(start))
		})
	}
}
