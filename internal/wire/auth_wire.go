package wire

import (
	"net/http"

	"pizza-service/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireAuth(r chi.Router, authHandler *adaptor.AuthHandler, session func(http.Handler) http.Handler) {
	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/", authHandler.Register)
		r.Put("/", authHandler.Login)
		// Logout reads the bearer itself so a repeated logout stays a success.
		r.Delete("/", authHandler.Logout)

		r.With(session).Put("/{userId}", authHandler.UpdateUser)
	})
}
