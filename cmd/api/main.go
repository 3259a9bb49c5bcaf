package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/solcredito/prestamos-backend/internal/config"
	"github.com/solcredito/prestamos-backend/internal/handler"
	"github.com/solcredito/prestamos-backend/internal/middleware"
	"github.com/solcredito/prestamos-backend/internal/repository/postgres"
	"github.com/solcredito/prestamos-backend/internal/service"
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

	policy, err := cfg.LateFeePolicy()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid late fee policy")
	}

	// Connect to database
	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	// Verify database connection
	if err := pool.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Connected to database")

	// Initialize repositories
	txManager := postgres.NewTxManager(pool)
	loanRepo := postgres.NewLoanRepository(pool)
	paymentRepo := postgres.NewPaymentRepository(pool)
	scheduleRepo := postgres.NewScheduleRepository(pool)

	// Initialize services
	loanService := service.NewLoanService(txManager, loanRepo, scheduleRepo)
	paymentService := service.NewPaymentService(txManager, loanRepo, paymentRepo, scheduleRepo, policy)
	sweeperService := service.NewSweeperService(loanRepo, scheduleRepo)

	// Initialize handlers
	loanHandler := handler.NewLoanHandler(loanService)
	paymentHandler := handler.NewPaymentHandler(paymentService)
	sweepHandler := handler.NewSweepHandler(sweeperService)

	// Sweep auth middleware (shared secret for the external scheduler)
	sweepAuth := middleware.NewSweepAuthMiddleware(cfg.SweepToken)

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Request ID middleware
	e.Use(echomiddleware.RequestID())

	// CORS middleware
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, middleware.SweepTokenHeader},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Security headers middleware
	e.Use(echomiddleware.SecureWithConfig(echomiddleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            31536000,
		ContentSecurityPolicy: "default-src 'self'",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
	}))

	// Rate limiting per client IP
	rateLimiter := middleware.NewRateLimiterWithConfig(cfg.RateLimitPerMinute, cfg.RateLimitBurst)
	defer rateLimiter.Stop()
	e.Use(rateLimiter.Middleware())

	// Request logging middleware with zerolog
	e.Use(zerologMiddleware())

	// Recovery middleware
	e.Use(echomiddleware.Recover())

	// Health check endpoint
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// Register API routes
	handler.RegisterRoutes(e, sweepAuth, loanHandler, paymentHandler, sweepHandler)

	// Optional in-process sweep schedule; the sweep is idempotent, so running
	// it both here and from an external scheduler is harmless.
	if cfg.SweepSchedule != "" {
		scheduler := cron.New()
		_, err := scheduler.AddFunc(cfg.SweepSchedule, func() {
			result, err := sweeperService.Sweep()
			if err != nil {
				log.Error().Err(err).Msg("Scheduled overdue sweep failed")
				return
			}
			log.Info().Int64("affected", result.Affected).Msg("Scheduled overdue sweep completed")
		})
		if err != nil {
			log.Fatal().Err(err).Str("schedule", cfg.SweepSchedule).Msg("Invalid sweep schedule")
		}
		scheduler.Start()
		defer scheduler.Stop()
		log.Info().Str("schedule", cfg.SweepSchedule).Msg("Overdue sweep scheduled")
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
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
