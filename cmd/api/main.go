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

	httptransport "github.com/adim-imoveis/imovel-certo/internal/api/http"
	"github.com/adim-imoveis/imovel-certo/internal/api/http/handlers"
	"github.com/adim-imoveis/imovel-certo/internal/auth"
	"github.com/adim-imoveis/imovel-certo/internal/cache"
	"github.com/adim-imoveis/imovel-certo/internal/config"
	"github.com/adim-imoveis/imovel-certo/internal/events"
	"github.com/adim-imoveis/imovel-certo/internal/observability"
	"github.com/adim-imoveis/imovel-certo/internal/persistence"
	"github.com/adim-imoveis/imovel-certo/internal/ratelimit"
	"github.com/adim-imoveis/imovel-certo/internal/repository"
	"github.com/adim-imoveis/imovel-certo/internal/service"
	"github.com/adim-imoveis/imovel-certo/internal/worker"
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
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher(logger)
	reportCache := cache.NewReportCache(cache.NewStore(ctx, redis.Handle()), cfg.Reports.CacheTTL(), logger)
	loginLimiter := ratelimit.NewRedis(redis.Handle(), time.Minute)

	pool := pg.PoolHandle()
	tx := repository.NewTransactor(pool)
	userRepo := repository.NewUserRepository(pool)
	demandRepo := repository.NewDemandRepository(pool)
	missionRepo := repository.NewMissionRepository(pool)
	interactionRepo := repository.NewInteractionRepository(pool)
	regionRepo := repository.NewRegionRepository(pool)
	reportRepo := repository.NewReportRepository(pool)

	regionService := service.NewRegionService(service.RegionDependencies{
		RegionRepo:    regionRepo,
		UserRepo:      userRepo,
		StaticRegions: cfg.Regions.Known,
		DefaultRegion: cfg.Regions.Default,
		Logger:        logger,
	})
	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo: userRepo,
		Limiter:  loginLimiter,
	})
	userService := service.NewUserService(service.UserDependencies{
		UserRepo:   userRepo,
		Regions:    regionService,
		BcryptCost: cfg.Auth.BcryptCost,
		Logger:     logger,
	})
	assignmentService := service.NewAssignmentService(service.AssignmentDependencies{
		MissionRepo: missionRepo,
		UserRepo:    userRepo,
		Dispatcher:  dispatcher,
		Metrics:     metrics,
		Logger:      logger,
	})
	intakeService := service.NewIntakeService(service.IntakeDependencies{
		Transactor: tx,
		DemandRepo: demandRepo,
		Regions:    regionService,
		Assigner:   assignmentService,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
	})
	missionService := service.NewMissionService(service.MissionDependencies{
		Transactor:            tx,
		MissionRepo:           missionRepo,
		DemandRepo:            demandRepo,
		InteractionRepo:       interactionRepo,
		UserRepo:              userRepo,
		Dispatcher:            dispatcher,
		Metrics:               metrics,
		Logger:                logger,
		AllowStatusRegression: cfg.Missions.AllowStatusRegression,
	})
	reportService := service.NewReportService(service.ReportDependencies{
		ReportRepo: reportRepo,
		DemandRepo: demandRepo,
		Cache:      reportCache,
	})
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)

	worker.StartNotificationWorker(notificationService)
	worker.StartReportInvalidation(dispatcher, reportCache)

	if seeded, err := userService.SeedDefaults(ctx, cfg.Seed); err != nil {
		logger.Error("failed to seed default users", zap.Error(err), zap.Int("created", seeded))
	}

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, metrics),
		Auth:           handlers.NewAuthHandler(authService),
		Demands:        handlers.NewDemandsHandler(intakeService),
		Missions:       handlers.NewMissionsHandler(missionService),
		Reports:        handlers.NewReportsHandler(reportService),
		Users:          handlers.NewUsersHandler(userService),
		Regions:        handlers.NewRegionsHandler(regionService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
