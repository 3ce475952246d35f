package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"simledger/internal/analytics"
	"simledger/internal/caching"
	"simledger/internal/common"
	"simledger/internal/config"
	"simledger/internal/handlers"
	"simledger/internal/jobs"
	"simledger/internal/jobs/background"
	"simledger/internal/middleware"
	"simledger/internal/repositories"
	"simledger/internal/services"
	"simledger/pkg/database"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load(os.Getenv("SECRETS_PATH"))
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := config.NewLogger(cfg.Server.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clock, err := common.NewClock(cfg.Server.Timezone)
	if err != nil {
		return err
	}

	// Database connection
	if cfg.Database.RunMigrations {
		if err := database.Migrate(cfg.Database.URL, logger); err != nil {
			return err
		}
	}
	pool, err := database.NewPool(ctx, cfg.Database.URL, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	// Redis: aggregate cache and operator sessions
	redisClient := caching.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	defer redisClient.Close()
	cacheSvc := caching.NewRedisCacheService(redisClient, logger.Named("cache"))

	// MinIO: monthly report archive
	reportStore, err := services.NewMinioService(cfg.Minio.Endpoint, cfg.Minio.AccessKey, cfg.Minio.SecretKey,
		cfg.Minio.Bucket, cfg.Minio.Region, cfg.Minio.UseSSL)
	if err != nil {
		return fmt.Errorf("failed to initialize report store: %w", err)
	}
	if err := reportStore.EnsureBucketExists(ctx); err != nil {
		// the archive is optional; the ledger keeps serving without it
		logger.Warn("report bucket unavailable", zap.String("bucket", cfg.Minio.Bucket), zap.Error(err))
	}

	// Repositories
	distributorRepo := repositories.NewDistributorRepository(pool)
	envioRepo := repositories.NewEnvioRepository(pool)
	historyRepo := repositories.NewHistoryRepository(pool)
	txRunner := repositories.NewTxRunner(pool)

	// Services
	distributorSvc := services.NewDistributorService(distributorRepo, cacheSvc, clock, logger.Named("distributors"))
	envioSvc := services.NewEnvioService(envioRepo, historyRepo, txRunner, cacheSvc, clock, logger.Named("envios"), cfg.Server.DefaultActor)
	sessionSvc := services.NewSessionService(cacheSvc, clock)
	analyticsSvc := analytics.NewAnalyticsService(envioRepo, distributorRepo, cacheSvc, clock, logger.Named("analytics"))

	// Background jobs
	archiver := jobs.NewReportArchiver(analyticsSvc, reportStore, clock, logger.Named("archive"))
	scheduler, err := background.NewJobScheduler(
		jobs.NewDashboardRefreshService(analyticsSvc, logger.Named("dashboard")),
		jobs.NewConsistencyCheckService(analyticsSvc, logger.Named("consistency")),
		archiver,
		background.DefaultIntervals,
		clock.Location(),
		logger.Named("scheduler"),
	)
	if err != nil {
		return err
	}
	scheduler.Start()
	defer func() {
		if err := scheduler.Stop(); err != nil {
			logger.Warn("scheduler shutdown failed", zap.Error(err))
		}
	}()

	// Token verification
	var jwks *keyfunc.JWKS
	if cfg.Auth.JWKSURL != "" {
		jwks, err = middleware.NewJWKS(cfg.Auth.JWKSURL, func(err error) {
			logger.Warn("jwks refresh failed", zap.Error(err))
		})
		if err != nil {
			return fmt.Errorf("failed to load jwks: %w", err)
		}
		defer jwks.EndBackground()
	}

	// Handlers
	healthHandlers := handlers.NewHealthHandlers(pool, cacheSvc, reportStore, version, logger.Named("health"))
	sessionHandlers := handlers.NewSessionHandlers(sessionSvc, distributorSvc, logger.Named("http"))
	distributorHandlers := handlers.NewDistributorHandlers(distributorSvc, logger.Named("http"))
	envioHandlers := handlers.NewEnvioHandlers(envioSvc, distributorSvc, sessionSvc, clock, logger.Named("http"))
	reportHandlers := handlers.NewReportHandlers(analyticsSvc, archiver, clock, logger.Named("http"))
	jobHandlers := handlers.NewJobHandlers(scheduler, archiver, logger.Named("jobs"))

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true

	// Global middleware
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	e.Use(echoMiddleware.RemoveTrailingSlash())
	e.Use(middleware.Metrics())

	// Health and metrics endpoints (no auth required)
	e.GET("/health", healthHandlers.HealthCheck)
	e.GET("/health/ready", healthHandlers.ReadinessCheck)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// API routes
	v1 := e.Group("/v1")
	v1.Use(middleware.JWTMiddleware(cfg.Auth.JWTSecret, jwks))
	v1.Use(middleware.SessionContext())
	v1.Use(middleware.NewAuditMiddleware(logger).AuditRequest())

	writer := middleware.RequireRole(middleware.RoleOperator, middleware.RoleAdmin)
	admin := middleware.RequireRole(middleware.RoleAdmin)

	// Operator sessions
	v1.POST("/sessions", sessionHandlers.OpenSession)
	v1.GET("/sessions/:id", sessionHandlers.GetSession)
	v1.DELETE("/sessions/:id", sessionHandlers.CloseSession)
	v1.PUT("/sessions/:id/distributor", sessionHandlers.SelectDistributor)
	v1.PUT("/sessions/:id/pending", sessionHandlers.SetPendingICCIDs)

	// Distributor directory
	v1.GET("/distributors", distributorHandlers.SearchDistributors)
	v1.GET("/distributors/all", distributorHandlers.ListAllDistributors)
	v1.GET("/distributors/next-code", distributorHandlers.NextCode)
	v1.GET("/distributors/stats", distributorHandlers.GetStatistics)
	v1.GET("/distributors/code/:code", distributorHandlers.GetDistributorByCode)
	v1.GET("/distributors/:id", distributorHandlers.GetDistributor)
	v1.POST("/distributors", distributorHandlers.CreateDistributor, writer)
	v1.PUT("/distributors/:id", distributorHandlers.UpdateDistributor, writer)
	v1.DELETE("/distributors/:id", distributorHandlers.DeleteDistributor, admin)

	// Assignment ledger
	v1.POST("/envios/capture", envioHandlers.Capture, writer)
	v1.GET("/envios/:iccid", envioHandlers.GetEnvio)
	v1.GET("/envios/:iccid/history", envioHandlers.GetHistory)
	v1.POST("/envios/candidates", envioHandlers.Candidates)
	v1.POST("/envios/corrections", envioHandlers.Correct, writer)
	v1.POST("/envios/corrections/bulk", envioHandlers.CorrectMany, writer)
	v1.POST("/envios/reassignments", envioHandlers.Reassign, writer)
	v1.POST("/envios/reassignments/bulk", envioHandlers.ReassignMany, writer)
	v1.POST("/envios/delete", envioHandlers.DeleteMany, admin)
	v1.POST("/envios/dates", envioHandlers.CorrectDates, writer)
	v1.POST("/envios/:iccid/cancel", envioHandlers.Cancel, writer)

	// Reports
	v1.GET("/reports/envios", reportHandlers.SearchEnvios)
	v1.GET("/reports/stats", reportHandlers.GetStatistics)
	v1.GET("/reports/dashboard", reportHandlers.GetDashboard)
	v1.GET("/reports/distributors/:code/envios", reportHandlers.DistributorEnvios)
	v1.GET("/reports/monthly", reportHandlers.MonthlySupply)
	v1.GET("/reports/period", reportHandlers.PeriodAnalysis)
	v1.GET("/reports/archive/:year/:month", reportHandlers.ArchivedReport)
	v1.POST("/reports/archive/:year/:month", jobHandlers.ArchiveMonth, admin)

	// Background jobs
	v1.GET("/jobs", jobHandlers.ListJobs, admin)
	v1.POST("/jobs/:name/run", jobHandlers.RunJob, admin)

	// Start server
	errCh := make(chan error, 1)
	go func() {
		logger.Info("simledger server starting",
			zap.String("version", version),
			zap.Int("port", cfg.Server.Port),
			zap.String("timezone", cfg.Server.Timezone))
		if err := e.Start(fmt.Sprintf(":%d", cfg.Server.Port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
