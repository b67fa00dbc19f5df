package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/rescue-service/internal/api/http"
	"github.com/spec-kit/rescue-service/internal/api/http/handlers"
	"github.com/spec-kit/rescue-service/internal/auth"
	"github.com/spec-kit/rescue-service/internal/board"
	"github.com/spec-kit/rescue-service/internal/config"
	"github.com/spec-kit/rescue-service/internal/countdown"
	"github.com/spec-kit/rescue-service/internal/events"
	"github.com/spec-kit/rescue-service/internal/observability"
	"github.com/spec-kit/rescue-service/internal/persistence"
	"github.com/spec-kit/rescue-service/internal/repository"
	"github.com/spec-kit/rescue-service/internal/service"
	"github.com/spec-kit/rescue-service/internal/storage"
	"github.com/spec-kit/rescue-service/internal/worker"
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

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	var blobs storage.Store
	if cfg.Blob.Bucket != "" {
		s3Store, err := storage.NewS3Store(ctx, cfg.Blob)
		if err != nil {
			logger.Fatal("failed to init blob store", zap.Error(err))
		}
		blobs = s3Store
	} else {
		logger.Warn("no blob bucket configured, uploads are kept in memory")
		blobs = storage.NewMemoryStore()
	}

	metrics := observability.NewMetrics()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	requestRepo := repository.NewRequestRepository(pool)
	tokenRepo := repository.NewTokenRepository(pool)

	var dispatcher events.Dispatcher = events.NewInMemoryDispatcher()
	var relay *events.RedisDispatcher
	if redis.Client != nil {
		relay = events.NewRedisDispatcher(dispatcher, redis.Client, cfg.Redis.EventChannel, logger)
		dispatcher = relay
	}

	pendingBoard := board.New(requestRepo, dispatcher, logger)

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:      userRepo,
		TokenRepo:     tokenRepo,
		Certification: service.StubCertificationVerifier{},
		Logger:        logger,
	})
	requestService := service.NewRequestService(service.RequestDependencies{
		RequestRepo: requestRepo,
		UserRepo:    userRepo,
		Dispatcher:  dispatcher,
		Metrics:     metrics,
	})
	profileService := service.NewProfileService(userRepo, blobs, logger)
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)

	worker.StartNotificationWorker(notificationService)
	worker.StartEventRelay(ctx, relay)
	pendingBoard.Start(ctx)

	countdowns := countdown.NewManager()

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo)

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: cfg.App.Env == "production",
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Users:          handlers.NewUsersHandler(authService),
		Requests:       handlers.NewRequestsHandler(requestService, countdowns, pendingBoard, logger),
		Missions:       handlers.NewMissionsHandler(requestService),
		Profile:        handlers.NewProfileHandler(profileService),
		AuthMiddleware: authMiddleware,
		Metrics:        metrics,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
