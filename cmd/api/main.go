package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dafibh/salesplan/salesplan-backend/internal/authz"
	"github.com/dafibh/salesplan/salesplan-backend/internal/config"
	"github.com/dafibh/salesplan/salesplan-backend/internal/domain"
	"github.com/dafibh/salesplan/salesplan-backend/internal/handler"
	"github.com/dafibh/salesplan/salesplan-backend/internal/lock"
	"github.com/dafibh/salesplan/salesplan-backend/internal/metrics"
	"github.com/dafibh/salesplan/salesplan-backend/internal/middleware"
	"github.com/dafibh/salesplan/salesplan-backend/internal/repository/catalog"
	"github.com/dafibh/salesplan/salesplan-backend/internal/repository/memory"
	"github.com/dafibh/salesplan/salesplan-backend/internal/repository/postgres"
	"github.com/dafibh/salesplan/salesplan-backend/internal/repository/sqlite"
	"github.com/dafibh/salesplan/salesplan-backend/internal/repository/storage"
	"github.com/dafibh/salesplan/salesplan-backend/internal/service"
	"github.com/dafibh/salesplan/salesplan-backend/internal/websocket"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Initialize zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("ENV") != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	ctx := context.Background()

	// Open the document store
	var store domain.DocumentStore
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer pool.Close()

		pgStore := postgres.NewDocumentStore(pool)
		if err := pgStore.Migrate(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to migrate database")
		}
		store = pgStore
		log.Info().Msg("Connected to database")
	case config.DriverSQLite:
		sqliteStore, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.SQLitePath).Msg("Failed to open store")
		}
		defer sqliteStore.Close()
		store = sqliteStore
		log.Info().Str("path", cfg.SQLitePath).Msg("Opened document store")
	default:
		log.Warn().Msg("Running without persistence, data is lost on restart")
	}

	// Reference data
	cat, err := catalog.LoadFile(cfg.CatalogFile)
	if err != nil {
		log.Fatal().Err(err).Str("file", cfg.CatalogFile).Msg("Failed to load catalog")
	}

	// One locker serializes planning edits and submissions, across instances when redis is set
	var locker lock.Locker = lock.NewKeyedMutex()
	if cfg.RedisURL != "" {
		rdb, err := lock.Connect(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to redis")
		}
		defer rdb.Close()
		locker = lock.NewRedisLocker(rdb, "salesplan")
		log.Info().Msg("Using redis locks")
	}

	// Initialize repositories
	mem := memory.NewStore()
	entityRepo := mem.Entities()
	workflowRepo := mem.Workflows()

	// Initialize services
	clock := domain.SystemClock{}
	table := authz.NewDefaultTable()
	aggregationService := service.NewAggregationService(cfg.FallbackRatio)
	planningService := service.NewPlanningService(entityRepo, workflowRepo, cat, store, locker, clock)
	workflowService := service.NewWorkflowService(entityRepo, workflowRepo, table, locker, clock)
	workflowService.OnChange(planningService.Persist)
	distributionService := service.NewDistributionService(clock)
	scenarioService := service.NewScenarioService()
	dashboardService := service.NewDashboardService(entityRepo, aggregationService, clock)
	exportService := service.NewExportService(entityRepo, aggregationService, clock)
	importService := service.NewImportService(planningService, cat, clock)

	if err := planningService.Load(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to load planning data")
	}

	// Export uploads (optional)
	if cfg.S3.Enabled() {
		exportStorage, err := storage.NewS3ExportStorage(ctx, cfg.S3)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize export storage")
		}
		exportService.SetStorage(exportStorage, cfg.S3.PresignExpiry)
		log.Info().Str("bucket", cfg.S3.Bucket).Msg("Export uploads enabled")
	}

	// Metrics
	m := metrics.New()
	workflowService.SetMetrics(m)
	exportService.SetMetrics(m)
	importService.SetMetrics(m)

	// WebSocket hub
	hub := websocket.NewHub()
	planningService.SetEventPublisher(hub)
	workflowService.SetEventPublisher(hub)

	// Authentication
	var jwtAuth *middleware.AuthMiddleware
	var tokenValidator websocket.TokenValidator
	if cfg.JWTEnabled() {
		jwtAuth, err = middleware.NewAuthMiddleware(cfg.Auth0Domain, cfg.Auth0Audience)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create auth middleware")
		}
		wsValidator, err := websocket.NewAuth0JWTValidator(cfg.Auth0Domain, cfg.Auth0Audience)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create WebSocket JWT validator")
		}
		tokenValidator = wsValidator
	}
	var headerAuth *middleware.HeaderAuthMiddleware
	if cfg.AuthHeaderMode {
		headerAuth = middleware.NewHeaderAuthMiddleware()
		log.Warn().Msg("Header authentication enabled, identities are not verified")
	}
	authenticate := middleware.NewDualAuthMiddleware(jwtAuth, headerAuth).Authenticate()

	rateLimiter := middleware.NewRateLimiterWithConfig(cfg.RateLimitPerMinute, cfg.RateLimitBurst)
	defer rateLimiter.Stop()

	// Initialize handlers
	handlers := handler.Handlers{
		Auth:      handler.NewAuthHandler(table),
		Dashboard: handler.NewDashboardHandler(dashboardService),
		Entity:    handler.NewEntityHandler(planningService, distributionService),
		Tools:     handler.NewPlanningToolsHandler(distributionService, scenarioService, planningService),
		Workflow:  handler.NewWorkflowHandler(workflowService),
		File:      handler.NewFileHandler(exportService, importService),
		Catalog:   handler.NewCatalogHandler(cat),
	}
	wsHandler := handler.NewWebSocketHandler(hub, tokenValidator, cfg.CORSOrigins)
	wsHandler.SetMetrics(m)
	if cfg.AuthHeaderMode {
		wsHandler.AllowQueryIdentity()
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewRequestValidator()

	// Request ID middleware
	e.Use(echomiddleware.RequestID())

	// CORS middleware
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, middleware.HeaderUser, middleware.HeaderRole},
		ExposeHeaders:    []string{echo.HeaderContentDisposition},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Security headers middleware (helmet-like)
	e.Use(echomiddleware.SecureWithConfig(echomiddleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            31536000,
		ContentSecurityPolicy: "default-src 'self'",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
	}))

	// Request logging middleware with zerolog
	e.Use(zerologMiddleware())
	e.Use(middleware.MetricsMiddleware(m))

	// Recovery middleware
	e.Use(echomiddleware.Recover())

	// Health check endpoint
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(m.Handler()))
	e.GET("/ws", wsHandler.HandleWS)

	// Register API routes
	handler.RegisterRoutes(e, authenticate, middleware.RateLimitMiddleware(rateLimiter), table, handlers)

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Port).Str("store", cfg.StoreDriver).Msg("Starting server")
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// flush the final state before the store closes
	if err := planningService.Save(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Failed to save planning data on shutdown")
	}

	log.Info().Msg("Server exited")
}

// zerologMiddleware returns a middleware that logs requests using zerolog
func zerologMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()

			log.Info().
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", res.Status).
				Dur("latency", time.Since(start)).
				Str("request_id", res.Header().Get(echo.HeaderXRequestID)).
				Msg("request")

			return nil
		}
	}
}
