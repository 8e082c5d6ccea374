package middleware

import (
	"context"
	"net/http"
	"strings"

	"pizza-service/internal/authz"
	"pizza-service/internal/data/entity"
	"pizza-service/internal/usecase"
	"pizza-service/pkg/utils"

	"go.uber.org/zap"
)

// TokenResolver turns a bearer token into the caller's identity.
type TokenResolver interface {
	ResolveToken(ctx context.Context, token string) (entity.Identity, error)
}

// BearerToken returns the token of an "Authorization: Bearer <token>"
// header, or "" when there is none.
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// AuthSession resolves the bearer token and puts the identity into the
// request context. Store failures answer 500, anything else 401.
func AuthSession(resolver TokenResolver, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				utils.ResponseUnauthorized(w, "unauthorized")
				return
			}

			identity, err := resolver.ResolveToken(r.Context(), token)
			if err != nil {
				if usecase.KindOf(err) == usecase.KindStoreError {
					logger.Error("Failed to validate session", zap.Error(err))
					utils.ResponseInternalError(w, "Internal server error")
					return
				}
				logger.Debug("Rejected token",
					zap.String("token", utils.TokenFingerprint(token)),
					zap.String("path", r.URL.Path))
				utils.ResponseUnauthorized(w, "unauthorized")
				return
			}

			next.ServeHTTP(w, r.WithContext(utils.SetIdentityContext(r.Context(), identity)))
		})
	}
}

// Admin gates a platform-level action, which only admins may perform.
// It must run after AuthSession.
func Admin(action authz.Action, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := utils.GetIdentityFromContext(r.Context())
			if !ok {
				utils.ResponseUnauthorized(w, "Authentication required")
				return
			}

			if !authz.CanAct(identity, action, authz.Platform()) {
				logger.Warn("Admin check: non-admin access attempt",
					zap.String("user_id", identity.UserID.String()),
					zap.String("action", string(action)),
					zap.String("path", r.URL.Path))
				utils.ResponseForbidden(w, "Admin access required")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
