package wire

import (
	"net/http"

	"pizza-service/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireOrder(r chi.Router, orderHandler *adaptor.OrderHandler, session func(http.Handler) http.Handler) {
	r.Route("/api/order", func(r chi.Router) {
		r.Get("/menu", orderHandler.GetMenu)

		r.Group(func(r chi.Router) {
			r.Use(session)
			r.Get("/", orderHandler.ListOrders)
			r.Post("/", orderHandler.PlaceOrder)
			r.Put("/menu", orderHandler.AddMenuItem)
		})
	})
}
