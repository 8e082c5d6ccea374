package adaptor

import (
	"net/http"

	"pizza-service/internal/metrics"
	"pizza-service/pkg/utils"

	"go.uber.org/zap"
)

type MetricsHandler struct {
	registry *metrics.Registry
	log      *zap.Logger
}

func NewMetricsHandler(registry *metrics.Registry, log *zap.Logger) *MetricsHandler {
	return &MetricsHandler{
		registry: registry,
		log:      log.With(zap.String("handler", "metrics")),
	}
}

// Snapshot handles GET /api/metrics
func (h *MetricsHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	utils.ResponseSuccess(w, "metrics retrieved", h.registry.Snapshot())
}
