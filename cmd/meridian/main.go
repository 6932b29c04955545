package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/meridian-homes/meridian/internal/app"
	"github.com/meridian-homes/meridian/internal/audit"
	audithttp "github.com/meridian-homes/meridian/internal/audit/http"
	"github.com/meridian-homes/meridian/internal/auth"
	"github.com/meridian-homes/meridian/internal/menu"
	"github.com/meridian-homes/meridian/internal/platform/cache"
	"github.com/meridian-homes/meridian/internal/platform/db"
	"github.com/meridian-homes/meridian/internal/projects"
	"github.com/meridian-homes/meridian/internal/rbac"
	"github.com/meridian-homes/meridian/internal/scanner"
	"github.com/meridian-homes/meridian/internal/shared"
	"github.com/meridian-homes/meridian/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "meridian_session", cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	auditRepo := audit.NewRepository(pool)
	auditService := audit.NewService(auditRepo, logger, cfg.AuditKeepDays)
	auditHandler := audithttp.NewHandler(logger, auditService)

	menuRepo := menu.NewRepository(pool)
	menuService := menu.NewService(menuRepo, auditService, logger, menu.DeletePolicy(cfg.MenuDeletePolicy))
	menuHandler := menu.NewHandler(logger, menuService, rbac.CurrentActor)

	rbacRepo := rbac.NewRepository(pool)
	rbacService := rbac.NewService(rbacRepo, auditService, logger)
	rbacHandler := rbac.NewHandler(logger, rbacService)

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, sessionManager, csrfManager)

	rbacMiddleware := rbac.Middleware{
		Identities: authService,
		Service:    rbacService,
		Logger:     logger,
	}

	scannerService := scanner.NewService(rbacRepo, auditService, logger)
	scannerHandler := scanner.NewHandler(logger, scannerService)

	projectsRepo := projects.NewRepository(pool)
	projectsService := projects.NewService(projectsRepo)
	projectsHandler := projects.NewHandler(logger, projectsService)

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	jobClient, err := jobs.NewClient(redisOpts)
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(jobClient, inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		SessionManager:  sessionManager,
		CSRFManager:     csrfManager,
		AuthHandler:     authHandler,
		MenuHandler:     menuHandler,
		RBACHandler:     rbacHandler,
		ScannerHandler:  scannerHandler,
		AuditHandler:    auditHandler,
		ProjectsHandler: projectsHandler,
		JobHandler:      jobHandler,
		Pool:            pool,
		RBACMiddleware:  rbacMiddleware,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		logger.Error("server exited", slog.Any("error", err))
		os.Exit(1)
	}
}
