package adaptor

import (
	"net/http"

	"pizza-service/internal/dto/request"
	"pizza-service/internal/usecase"
	"pizza-service/pkg/utils"

	"go.uber.org/zap"
)

type FranchiseHandler struct {
	service usecase.FranchiseService
	log     *zap.Logger
}

func NewFranchiseHandler(service usecase.FranchiseService, log *zap.Logger) *FranchiseHandler {
	return &FranchiseHandler{
		service: service,
		log:     log.With(zap.String("handler", "franchise")),
	}
}

// List handles GET /api/franchise
func (h *FranchiseHandler) List(w http.ResponseWriter, r *http.Request) {
	franchises, err := h.service.List(r.Context())
	if err != nil {
		writeError(w, h.log, err, "list franchises")
		return
	}
	utils.ResponseSuccess(w, "franchises retrieved", franchises)
}

// ListForUser handles GET /api/franchise/{userId}
func (h *FranchiseHandler) ListForUser(w http.ResponseWriter, r *http.Request) {
	identity, ok := caller(w, r)
	if !ok {
		return
	}
	userID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	franchises, err := h.service.ListForUser(r.Context(), identity, userID)
	if err != nil {
		writeError(w, h.log, err, "list user franchises")
		return
	}
	utils.ResponseSuccess(w, "franchises retrieved", franchises)
}

// Create handles POST /api/franchise
func (h *FranchiseHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := caller(w, r)
	if !ok {
		return
	}

	var req request.CreateFranchiseRequest
	if !decodeJSON(w, r, &req, "Validation failed") {
		return
	}

	franchise, err := h.service.Create(r.Context(), identity, &req)
	if err != nil {
		writeError(w, h.log, err, "create franchise")
		return
	}
	utils.ResponseSuccess(w, "franchise created", franchise)
}

// Delete handles DELETE /api/franchise/{franchiseId}
func (h *FranchiseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, ok := caller(w, r)
	if !ok {
		return
	}
	franchiseID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), identity, franchiseID); err != nil {
		writeError(w, h.log, err, "delete franchise")
		return
	}
	utils.ResponseSuccess(w, "franchise deleted", nil)
}

// CreateStore handles POST /api/franchise/{franchiseId}/store
func (h *FranchiseHandler) CreateStore(w http.ResponseWriter, r *http.Request) {
	identity, ok := caller(w, r)
	if !ok {
		return
	}
	franchiseID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req request.CreateStoreRequest
	if !decodeJSON(w, r, &req, "Validation failed") {
		return
	}

	store, err := h.service.CreateStore(r.Context(), identity, franchiseID, &req)
	if err != nil {
		writeError(w, h.log, err, "create store")
		return
	}
	utils.ResponseSuccess(w, "store created", store)
}

// DeleteStore handles DELETE /api/franchise/{franchiseId}/store/{storeId}
func (h *FranchiseHandler) DeleteStore(w http.ResponseWriter, r *http.Request) {
	identity, ok := caller(w, r)
	if !ok {
		return
	}
	franchiseID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	storeID, ok := pathID(w, r, "storeId")
	if !ok {
		return
	}

	if err := h.service.DeleteStore(r.Context(), identity, franchiseID, storeID); err != nil {
		writeError(w, h.log, err, "delete store")
		return
	}
	utils.ResponseSuccess(w, "store deleted", nil)
}
