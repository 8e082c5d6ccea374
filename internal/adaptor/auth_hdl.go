package adaptor

import (
	"net/http"

	"pizza-service/internal/dto/request"
	"pizza-service/internal/usecase"
	"pizza-service/pkg/middleware"
	"pizza-service/pkg/utils"

	"go.uber.org/zap"
)

type AuthHandler struct {
	service usecase.AuthService
	log     *zap.Logger
}

func NewAuthHandler(service usecase.AuthService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		log:     log.With(zap.String("handler", "auth")),
	}
}

// Register handles POST /api/auth
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req request.RegisterRequest
	if !decodeJSON(w, r, &req, "name, email, and password are required") {
		return
	}

	resp, err := h.service.Register(r.Context(), &req)
	if err != nil {
		writeError(w, h.log, err, "register")
		return
	}

	utils.ResponseSuccess(w, "registration successful", resp)
}

// Login handles PUT /api/auth
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req request.LoginRequest
	if !decodeJSON(w, r, &req, "email and password are required") {
		return
	}

	resp, err := h.service.Authenticate(r.Context(), &req)
	if err != nil {
		writeError(w, h.log, err, "login")
		return
	}

	utils.ResponseSuccess(w, "login successful", resp)
}

// Logout handles DELETE /api/auth. It sits outside AuthSession so that a
// second logout with the same token still succeeds.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := middleware.BearerToken(r)
	if token == "" {
		utils.ResponseUnauthorized(w, "unauthorized")
		return
	}

	if err := h.service.Revoke(r.Context(), token); err != nil {
		writeError(w, h.log, err, "logout")
		return
	}

	utils.ResponseSuccess(w, "logout successful", nil)
}

// UpdateUser handles PUT /api/auth/{userId}
func (h *AuthHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	identity, ok := caller(w, r)
	if !ok {
		return
	}
	userID, ok := pathID(w, r, "userId")
	if !ok {
		return
	}

	var req request.UpdateUserRequest
	if !decodeJSON(w, r, &req, "Validation failed") {
		return
	}

	resp, err := h.service.UpdateUser(r.Context(), identity, userID, &req)
	if err != nil {
		writeError(w, h.log, err, "update user")
		return
	}

	utils.ResponseSuccess(w, "user updated", resp)
}
