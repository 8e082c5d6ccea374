package wire

import (
	"net/http"

	"pizza-service/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

// The first segment after /api/franchise is a user id for GET and a
// franchise id otherwise; one param name keeps chi on a single node.
func wireFranchise(r chi.Router, franchiseHandler *adaptor.FranchiseHandler, session func(http.Handler) http.Handler) {
	r.Route("/api/franchise", func(r chi.Router) {
		r.Get("/", franchiseHandler.List)

		r.Group(func(r chi.Router) {
			r.Use(session)
			r.Post("/", franchiseHandler.Create)
			r.Get("/{id}", franchiseHandler.ListForUser)
			r.Delete("/{id}", franchiseHandler.Delete)
			r.Post("/{id}/store", franchiseHandler.CreateStore)
			r.Delete("/{id}/store/{storeId}", franchiseHandler.DeleteStore)
		})
	})
}
