package usecase

import (
	"time"

	"pizza-service/internal/data/repository"
	"pizza-service/internal/fulfillment"
	"pizza-service/internal/metrics"
	"pizza-service/pkg/utils"

	"go.uber.org/zap"
)

type Service struct {
	Auth      AuthService
	Franchise FranchiseService
	Order     OrderService
}

// Dependencies are the collaborators built once per process.
type Dependencies struct {
	Signer         *utils.TokenSigner
	Hasher         utils.PasswordHasher
	Factory        fulfillment.Service
	FactoryTimeout time.Duration
	Metrics        *metrics.Registry
}

func NewService(repo *repository.Repository, deps Dependencies, log *zap.Logger) *Service {
	return &Service{
		Auth:      NewAuthService(repo, deps.Signer, deps.Hasher, deps.Metrics, log),
		Franchise: NewFranchiseService(repo, log),
		Order:     NewOrderService(repo, deps.Factory, deps.FactoryTimeout, deps.Metrics, log),
	}
}
