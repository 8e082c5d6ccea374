package adaptor

import (
	"encoding/json"
	"net/http"

	"pizza-service/internal/data/entity"
	"pizza-service/internal/metrics"
	"pizza-service/internal/usecase"
	"pizza-service/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Handler struct {
	Auth      *AuthHandler
	Franchise *FranchiseHandler
	Order     *OrderHandler
	Metrics   *MetricsHandler
}

func NewHandler(service *usecase.Service, registry *metrics.Registry, log *zap.Logger) *Handler {
	return &Handler{
		Auth:      NewAuthHandler(service.Auth, log),
		Franchise: NewFranchiseHandler(service.Franchise, log),
		Order:     NewOrderHandler(service.Order, log),
		Metrics:   NewMetricsHandler(registry, log),
	}
}

// writeError maps a service error onto the response envelope.
func writeError(w http.ResponseWriter, log *zap.Logger, err error, operation string) {
	e, ok := usecase.AsError(err)
	if !ok {
		log.Error(operation+" failed", zap.Error(err))
		utils.ResponseInternalError(w, "internal server error")
		return
	}

	switch e.Kind {
	case usecase.KindValidation:
		log.Warn(operation+" validation failed", zap.String("message", e.Message))
		utils.ResponseError(w, http.StatusBadRequest, string(e.Kind), e.Message, "", fieldsOrNil(e.Fields))

	case usecase.KindUnauthenticated:
		log.Warn(operation+" failed - unauthenticated", zap.String("message", e.Message))
		utils.ResponseUnauthorized(w, e.Message)

	case usecase.KindForbidden:
		log.Warn(operation+" failed - forbidden", zap.String("message", e.Message))
		utils.ResponseForbidden(w, e.Message)

	case usecase.KindNotFound:
		log.Warn(operation+" failed - not found", zap.String("message", e.Message))
		utils.ResponseNotFound(w, e.Message)

	case usecase.KindConflict:
		log.Warn(operation+" failed - conflict", zap.String("message", e.Message))
		utils.ResponseConflict(w, e.Message)

	case usecase.KindUpstreamFailure:
		log.Error(operation+" failed - upstream", zap.Error(e.Err), zap.String("report_url", e.ReportURL))
		utils.ResponseError(w, http.StatusInternalServerError, string(e.Kind), e.Message, e.ReportURL, nil)

	default:
		log.Error(operation+" failed", zap.Error(err))
		utils.ResponseInternalError(w, e.Message)
	}
}

func fieldsOrNil(fields map[string]string) any {
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// decodeJSON reports false after writing a 400 when the body is unreadable
// or fails struct validation.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, message string) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		utils.ResponseBadRequest(w, message, nil)
		return false
	}
	if validationErrors := utils.ValidateStruct(dst); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, message, validationErrors)
		return false
	}
	return true
}

// pathID reads a UUID URL parameter, writing a 400 when it is malformed.
func pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := utils.ParseUUID(chi.URLParam(r, name))
	if err != nil {
		utils.ResponseBadRequest(w, "invalid "+name, nil)
		return uuid.Nil, false
	}
	return id, true
}

// caller returns the identity AuthSession stored on the request.
func caller(w http.ResponseWriter, r *http.Request) (entity.Identity, bool) {
	identity, ok := utils.GetIdentityFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "unauthorized")
	}
	return identity, ok
}
