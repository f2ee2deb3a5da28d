package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/helpdesk/internal/api/http"
	"github.com/spec-kit/helpdesk/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/board"
	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/dashboard"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/intake"
	"github.com/spec-kit/helpdesk/internal/lifecycle"
	"github.com/spec-kit/helpdesk/internal/observability"
	"github.com/spec-kit/helpdesk/internal/persistence"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/internal/service"
	"github.com/spec-kit/helpdesk/internal/worker"
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

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(registry)

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()
	pool := pg.PoolHandle()
	if pool == nil {
		logger.Fatal("POSTGRES_DSN is required")
	}

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pool, os.DirFS(persistence.MigrationsDir), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	policy, err := lifecycle.PolicyByName(cfg.Lifecycle.Policy)
	if err != nil {
		logger.Fatal("invalid lifecycle policy", zap.Error(err))
	}
	machine := lifecycle.NewMachine(lifecycle.WithPolicy(policy))

	ticketRepo := repository.NewTicketRepository(pool)
	profileRepo := repository.NewProfileRepository(pool)
	historyRepo := repository.NewTicketHistoryRepository(pool)
	categoryRepo := repository.NewCategoryRepository(pool)

	dispatcher := events.NewInMemoryDispatcher(func(e events.Event) {
		metrics.RecordEvent(string(e.Type))
	})
	worker.StartHistoryWorker(service.NewHistoryService(dispatcher, historyRepo, logger))

	dashboards := dashboard.NewRegistry(service.NewTicketSource(ticketRepo), dashboard.WithIdleTTL(cfg.Dashboard.ViewIdleTTL()))

	authService := service.NewAuthService(cfg.Auth, profileRepo)
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:   ticketRepo,
		ProfileRepo:  profileRepo,
		CommentRepo:  repository.NewCommentRepository(pool),
		VoteRepo:     repository.NewVoteRepository(pool),
		CategoryRepo: categoryRepo,
		HistoryRepo:  historyRepo,
		Machine:      machine,
		Validator:    intake.NewValidator(nil),
		Limiter:      service.NewProfileLimiter(cfg.RateLimit.TicketsPerMinute, cfg.RateLimit.Burst),
		Dispatcher:   dispatcher,
		Dashboards:   dashboards,
		Metrics:      metrics,
		Logger:       logger,
	})
	assignmentService := service.NewAssignmentService(service.AssignmentDependencies{
		TicketRepo:  ticketRepo,
		ProfileRepo: profileRepo,
		Machine:     machine,
		Dispatcher:  dispatcher,
		Dashboards:  dashboards,
		Metrics:     metrics,
		Logger:      logger,
	})
	categoryService := service.NewCategoryService(categoryRepo, redis, cfg.Cache.CategoryTTL(), logger)
	profileService := service.NewProfileService(profileRepo, dashboards, logger)
	dashboardService := service.NewDashboardService(dashboards, metrics, logger)

	app := httptransport.NewApp(cfg.App.Name, logger, metrics, cfg.App.RequestTimeout())

	routes := httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, logger, map[string]handlers.Pinger{
			"postgres": pg,
			"redis":    redis,
		}),
		Auth:           handlers.NewAuthHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService, assignmentService, handlers.PageLimits{Default: cfg.Dashboard.DefaultPageSize, Max: cfg.Dashboard.MaxPageSize}),
		Dashboard:      handlers.NewDashboardHandler(dashboardService),
		Categories:     handlers.NewCategoriesHandler(categoryService),
		Admin:          handlers.NewAdminHandler(profileService),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), profileRepo),
		Gatherer:       registry,
	}
	if cfg.Board.Enabled {
		demo := board.New(board.WithNewMarkerDelay(cfg.Board.NewMarkerDelay()))
		defer demo.Stop()
		routes.Board = handlers.NewBoardHandler(demo, metrics)
	}
	httptransport.RegisterRoutes(app, routes)

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
