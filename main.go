package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"pizza-service/cmd"
	"pizza-service/internal/data/memory"
	"pizza-service/internal/data/repository"
	"pizza-service/internal/fulfillment"
	"pizza-service/internal/metrics"
	"pizza-service/internal/usecase"
	"pizza-service/internal/wire"
	"pizza-service/migrations"
	"pizza-service/pkg/database"
	"pizza-service/pkg/utils"

	"go.uber.org/zap"
)

const sessionSweepInterval = time.Hour

func main() {
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := utils.InitLogger(config.App.LogPath, config.App.Debug)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.String("store", config.Storage.Driver),
		zap.String("token_ledger", config.Storage.TokenLedger),
		zap.Bool("debug", config.App.Debug),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repos, closeStore := openStore(config, logger)
	defer closeStore()

	if config.Storage.TokenLedger == utils.LedgerRedis {
		sessions, err := repository.NewRedisSessionRepository(config.Redis.Addr, config.Redis.Password, config.Redis.DB, logger)
		if err != nil {
			logger.Fatal("Failed to connect to redis", zap.Error(err))
		}
		repos.Session = sessions
		logger.Info("Token ledger on redis", zap.String("addr", config.Redis.Addr))
	}

	expiry := time.Duration(config.JWT.ExpiryHours) * time.Hour
	factoryTimeout := time.Duration(config.Factory.TimeoutSeconds) * time.Second

	deps := usecase.Dependencies{
		Signer:         utils.NewTokenSigner(config.JWT.Secret, expiry),
		Hasher:         utils.NewBcryptHasher(0),
		Factory:        fulfillment.NewClient(config.Factory.URL, config.Factory.APIKey, factoryTimeout, logger),
		FactoryTimeout: factoryTimeout,
		Metrics:        metrics.NewRegistry(),
	}

	app := wire.Wiring(repos, deps, config.App.CORSOrigins, logger)

	if config.Admin.Email != "" {
		if err := app.Service.Auth.BootstrapAdmin(ctx, config.Admin.Name, config.Admin.Email, config.Admin.Password); err != nil {
			logger.Fatal("Failed to bootstrap admin", zap.Error(err))
		}
	}

	// revoked sessions pile up even when tokens never expire
	go sweepSessions(ctx, app.Service.Auth, logger)

	if err := cmd.APIServer(ctx, app.Router, config.App.Port, logger); err != nil {
		logger.Error("Server stopped with error", zap.Error(err))
	}
}

// openStore returns the configured repositories and a func releasing them.
func openStore(config *utils.Config, logger *zap.Logger) (*repository.Repository, func()) {
	if config.Storage.Driver == utils.DriverMemory {
		logger.Warn("Using in-memory store; data is lost on restart")
		return memory.NewRepository(), func() {}
	}

	db, err := database.InitDB(config.DB)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	logger.Info("Database connected successfully")

	migrateCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := database.Migrate(migrateCtx, db, migrations.FS, logger); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}

	return repository.NewRepository(db, logger), db.Close
}

func sweepSessions(ctx context.Context, auth usecase.AuthService, logger *zap.Logger) {
	ticker := time.NewTicker(sessionSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := auth.CleanExpiredSessions(ctx); err != nil {
				logger.Warn("Session sweep failed", zap.Error(err))
			}
		}
	}
}
