package wire

import (
	"net/http"

	"pizza-service/internal/adaptor"
	"pizza-service/internal/authz"
	"pizza-service/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireMetrics(r chi.Router, metricsHandler *adaptor.MetricsHandler, session func(http.Handler) http.Handler, log *zap.Logger) {
	r.With(session, middleware.Admin(authz.ActionReadMetrics, log)).Get("/api/metrics", metricsHandler.Snapshot)
}
