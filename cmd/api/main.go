package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/wallboard-service/internal/api/http"
	"github.com/spec-kit/wallboard-service/internal/api/http/handlers"
	"github.com/spec-kit/wallboard-service/internal/auth"
	"github.com/spec-kit/wallboard-service/internal/config"
	"github.com/spec-kit/wallboard-service/internal/domain"
	"github.com/spec-kit/wallboard-service/internal/events"
	"github.com/spec-kit/wallboard-service/internal/observability"
	"github.com/spec-kit/wallboard-service/internal/persistence"
	"github.com/spec-kit/wallboard-service/internal/repository"
	"github.com/spec-kit/wallboard-service/internal/service"
	"github.com/spec-kit/wallboard-service/internal/worker"
	apperrors "github.com/spec-kit/wallboard-service/pkg/util"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := observability.NewMetrics("wallboard")

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	var (
		accountRepo repository.AccountRepository
		teamRepo    repository.TeamRepository
	)
	if !pg.InMemory() {
		accountRepo = repository.NewAccountRepository(pg.Pool)
		teamRepo = repository.NewTeamRepository(pg.Pool)
	} else {
		store := repository.NewMemoryStore(
			domain.Team{ID: 1, Name: "Team Alpha", CreatedAt: time.Now().UTC()},
			domain.Team{ID: 2, Name: "Team Beta", CreatedAt: time.Now().UTC()},
			domain.Team{ID: 3, Name: "Team Gamma", CreatedAt: time.Now().UTC()},
		)
		accountRepo = store
		teamRepo = store
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()
	presenceCache := repository.NewRedisPresenceCache(redis.Client, cfg.Redis.PresenceTTL())

	mongo, err := persistence.NewMongo(ctx, cfg.Mongo, logger)
	if err != nil {
		logger.Fatal("failed to connect mongodb", zap.Error(err))
	}
	var presenceLogs repository.PresenceLogRepository
	if mongo != nil {
		defer mongo.Close(context.Background())
		if err := repository.EnsurePresenceIndexes(ctx, mongo.Database); err != nil {
			logger.Warn("failed to ensure presence indexes", zap.Error(err))
		}
		presenceLogs = repository.NewMongoPresenceLogRepository(mongo.Database)
	} else {
		logger.Warn("MONGODB_URI not provided; using in-memory presence log")
		presenceLogs = repository.NewMemoryPresenceLog()
	}

	dispatcher := events.NewInMemoryDispatcher()
	worker.StartAuditWorker(service.NewAuditService(dispatcher, logger))

	accountService := service.NewAccountService(service.AccountDependencies{
		Accounts:   accountRepo,
		Dispatcher: dispatcher,
		Logger:     logger,
		Metrics:    metrics,
	})
	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		Accounts:   accountRepo,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	presenceService := service.NewPresenceService(service.PresenceDependencies{
		Accounts:   accountRepo,
		Teams:      teamRepo,
		Cache:      presenceCache,
		Logs:       presenceLogs,
		Dispatcher: dispatcher,
		Logger:     logger,
	})

	if err := ensureBootstrapAdmin(ctx, accountService, cfg.Auth.BootstrapAdmin, logger); err != nil {
		logger.Fatal("failed to create bootstrap admin", zap.Error(err))
	}

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), accountRepo)

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, mongo),
		Auth:           handlers.NewAuthHandler(authService),
		Accounts:       handlers.NewAccountsHandler(accountService),
		Teams:          handlers.NewTeamsHandler(teamRepo),
		Presence:       handlers.NewPresenceHandler(presenceService),
		AuthMiddleware: authMiddleware,
		Metrics:        metrics,
	})

	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.App.Addr()), zap.String("env", cfg.App.Env))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
}

// ensureBootstrapAdmin creates the configured admin unless a live account
// already holds the username.
func ensureBootstrapAdmin(ctx context.Context, accounts *service.AccountService, username string, logger *zap.Logger) error {
	if username == "" {
		return nil
	}
	account, err := accounts.CreateAccount(ctx, domain.AccountDraft{
		Username: username,
		FullName: "Bootstrap Admin",
		Role:     domain.RoleAdmin,
	})
	if apperrors.HasCode(err, apperrors.CodeDuplicate) {
		return nil
	}
	if err != nil {
		return err
	}
	logger.Info("bootstrap admin created", zap.Int64("account_id", account.ID), zap.String("username", account.Username))
	return nil
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
