package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	httptransport "github.com/devhub/devhub-api/internal/api/http"
	"github.com/devhub/devhub-api/internal/api/http/handlers"
	"github.com/devhub/devhub-api/internal/auth"
	"github.com/devhub/devhub-api/internal/config"
	"github.com/devhub/devhub-api/internal/domain"
	"github.com/devhub/devhub-api/internal/events"
	"github.com/devhub/devhub-api/internal/observability"
	"github.com/devhub/devhub-api/internal/persistence"
	"github.com/devhub/devhub-api/internal/repository"
	"github.com/devhub/devhub-api/internal/service"
	"github.com/devhub/devhub-api/internal/worker"
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

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	pool := pg.PoolHandle()
	if pool == nil {
		logger.Fatal("project users require postgres; set POSTGRES_DSN")
	}

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pool, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	dependencies := map[string]handlers.Pinger{"postgres": pg}

	var redis *persistence.Redis
	if cfg.Auth.Strategy == domain.TokenStrategyOpaque && cfg.Auth.Backend == config.CredentialBackendRedis {
		redis = persistence.NewRedis(ctx, cfg.Redis, logger)
		defer redis.Close()
		dependencies["redis"] = redis
	}

	metrics := observability.NewMetrics("devhub")
	dispatcher := events.NewInMemoryDispatcher()
	service.NewAuditService(dispatcher, metrics, logger).RegisterHandlers()

	codec := auth.LoadTransportCodec(cfg.Auth.RSAPublicKeyPEM, cfg.Auth.RSAPrivateKeyPEM, logger)
	hasher := auth.NewArgon2idHasher(auth.Argon2Params{
		Time:      cfg.Auth.Argon2Time,
		MemoryKiB: cfg.Auth.Argon2MemoryKiB,
		Threads:   cfg.Auth.Argon2Threads,
	})

	credentials, err := newCredentialStore(cfg.Auth, pool, redis, logger)
	if err != nil {
		logger.Fatal("failed to configure credential store", zap.Error(err))
	}

	transport := service.NewTransportService(codec, logger)
	projectUsers := service.NewProjectUserService(repository.NewUserRepository(pool), transport, hasher, dispatcher, logger)
	authService := service.NewAuthService(service.AuthDependencies{
		Subjects:    projectUsers,
		Hasher:      hasher,
		Credentials: credentials,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})

	sweeper := worker.NewSweeper(authService, cfg.Auth.SweepInterval(), logger)
	sweeper.Start(ctx)
	defer sweeper.Stop()

	app := fiber.New(fiber.Config{AppName: cfg.App.Name, DisableStartupMessage: cfg.App.IsProduction()})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, dependencies),
		Auth:           handlers.NewAuthHandler(authService, transport),
		ProjectUsers:   handlers.NewProjectUsersHandler(projectUsers),
		AccessGate:     auth.NewAccessGate(authService.Credentials()),
		Metrics:        metrics,
		DebugEndpoints: cfg.Auth.DebugEndpoints,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
}

// newCredentialStore selects the token strategy, and for opaque tokens the backend holding them.
func newCredentialStore(cfg config.AuthConfig, pool *pgxpool.Pool, redis *persistence.Redis, logger *zap.Logger) (auth.CredentialStore, error) {
	switch cfg.Strategy {
	case domain.TokenStrategyJWT:
		if cfg.JWTSecret == "" {
			logger.Error("AUTH_JWT_SECRET not provided; every login will fail")
		}
		return auth.NewClaimTokenStore(cfg.JWTSecret, cfg.JWTTTL(), logger), nil
	case domain.TokenStrategyOpaque:
		var repo repository.CredentialRepository
		switch cfg.Backend {
		case config.CredentialBackendRedis:
			repo = repository.NewRedisCredentialRepository(redis.Client)
		case config.CredentialBackendPostgres:
			repo = repository.NewCredentialRepository(pool)
		default:
			return nil, fmt.Errorf("unsupported credential backend %q", cfg.Backend)
		}
		return auth.NewOpaqueTokenStore(repo, logger,
			auth.WithDefaultTTL(cfg.TokenTTL()),
			auth.WithStoreTimeout(cfg.StoreTimeout()),
		), nil
	default:
		return nil, fmt.Errorf("unsupported token strategy %q", cfg.Strategy)
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
