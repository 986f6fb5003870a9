package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/complaint-service/internal/api/http"
	"github.com/spec-kit/complaint-service/internal/api/http/handlers"
	"github.com/spec-kit/complaint-service/internal/auth"
	"github.com/spec-kit/complaint-service/internal/config"
	"github.com/spec-kit/complaint-service/internal/events"
	"github.com/spec-kit/complaint-service/internal/notify"
	"github.com/spec-kit/complaint-service/internal/observability"
	"github.com/spec-kit/complaint-service/internal/persistence"
	"github.com/spec-kit/complaint-service/internal/repository"
	"github.com/spec-kit/complaint-service/internal/service"
	"github.com/spec-kit/complaint-service/internal/worker"
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

	pool := pg.PoolHandle()
	complaintRepo := repository.NewComplaintRepository(pool)
	logRepo := repository.NewComplaintLogRepository(pool)
	workerRepo := repository.NewWorkerRepository(pool)
	teamRepo := repository.NewTeamRepository(pool)
	ratingRepo := repository.NewRatingRepository(pool)
	notificationRepo := repository.NewNotificationRepository(pool)

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	queue := notify.NewRedisQueue(redis.Client, cfg.Notifier.QueueKey, cfg.Notifier.DispatchTimeout, logger)

	resolver := service.NewAssignmentResolver(workerRepo, cfg.Engine.MaxAssignmentsPerWorker)
	engine := service.NewLifecycleService(cfg.Engine, service.LifecycleDependencies{
		ComplaintRepo: complaintRepo,
		LogRepo:       logRepo,
		WorkerRepo:    workerRepo,
		RatingRepo:    ratingRepo,
		Resolver:      resolver,
		Dispatcher:    dispatcher,
		Logger:        logger,
		Metrics:       metrics,
	})

	notificationService := service.NewNotificationService(dispatcher, notificationRepo, workerRepo, queue, logger)
	notificationService.RegisterHandlers()

	escalationWorker := worker.NewEscalationWorker(complaintRepo, engine, cfg.Engine, logger, nil)
	go escalationWorker.Run(ctx)

	notificationWorker := worker.NewNotificationWorker(queue, notificationRepo,
		&worker.LogSender{Logger: logger}, cfg.Notifier, logger, metrics)
	go notificationWorker.Run(ctx)

	actorMiddleware := auth.NewActorMiddleware(
		auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes))

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:          handlers.NewHealthHandler(pool),
		Complaints:      handlers.NewComplaintsHandler(engine),
		Teams:           handlers.NewTeamsHandler(teamRepo, workerRepo),
		ActorMiddleware: actorMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
