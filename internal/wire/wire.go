package wire

import (
	"net/http"

	"pizza-service/internal/adaptor"
	"pizza-service/internal/data/repository"
	"pizza-service/internal/usecase"
	"pizza-service/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// App holds the router and the services behind it.
type App struct {
	Router  *chi.Mux
	Service *usecase.Service
}

// Wiring builds services, handlers and routes. corsOrigins lists the browser
// origins the API answers.
func Wiring(repo *repository.Repository, deps usecase.Dependencies, corsOrigins []string, logger *zap.Logger) *App {
	service := usecase.NewService(repo, deps, logger)
	handler := adaptor.NewHandler(service, deps.Metrics, logger)

	router := setupRouter(handler, service, deps, corsOrigins, logger)

	return &App{
		Router:  router,
		Service: service,
	}
}

func setupRouter(
	handler *adaptor.Handler,
	service *usecase.Service,
	deps usecase.Dependencies,
	corsOrigins []string,
	logger *zap.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.CORS(corsOrigins))
	r.Use(middleware.Metrics(deps.Metrics))

	session := middleware.AuthSession(service.Auth, logger)

	wireAuth(r, handler.Auth, session)
	wireFranchise(r, handler.Franchise, session)
	wireOrder(r, handler.Order, session)
	wireMetrics(r, handler.Metrics, session, logger)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return r
}
