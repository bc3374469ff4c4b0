package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/worktally/worktally-backend/internal/auth"
	authjwt "github.com/worktally/worktally-backend/internal/auth/jwt"
	"github.com/worktally/worktally-backend/internal/timesheet/events"
	"github.com/worktally/worktally-backend/internal/timesheet/handler"
	"github.com/worktally/worktally-backend/internal/timesheet/repository"
	"github.com/worktally/worktally-backend/internal/timesheet/service"
	"github.com/worktally/worktally-backend/pkg/config"
	"github.com/worktally/worktally-backend/pkg/database"
	"github.com/worktally/worktally-backend/pkg/httputil"
	"github.com/worktally/worktally-backend/pkg/logger"
	"github.com/worktally/worktally-backend/pkg/messaging"
)

func main() {
	// Load configuration
	cfg, err := config.LoadWithValidation("timesheet-service")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New("timesheet-service", cfg.Server.Environment)
	log.Info().Msg("starting Timesheet Service")

	// Resolve the tenant-facing timezone for day bucketing
	loc, err := time.LoadLocation(cfg.Timesheet.Timezone)
	if err != nil {
		log.Fatal().Err(err).Str("timezone", cfg.Timesheet.Timezone).Msg("invalid timesheet timezone")
	}

	// Connect to database
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Connect to RabbitMQ
	rmq, err := messaging.New(&cfg.RabbitMQ, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
	}
	defer rmq.Close()

	// Initialize event publisher
	msgPublisher, err := messaging.NewPublisher(rmq, messaging.ExchangeTimesheetEvents, "timesheet-service", log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create event publisher")
	}
	publisher := events.NewTimesheetEventPublisher(msgPublisher, log)

	// Initialize repositories
	recordRepo := repository.NewTimeRecordRepository(db)
	approvalRepo := repository.NewApprovalRepository(db)
	flagRepo := repository.NewFlagRepository(db)

	// Initialize service
	timesheetService := service.New(recordRepo, approvalRepo, flagRepo, publisher, loc, cfg.Timesheet.WindowDays, log)

	// Initialize handler
	timesheetHandler := handler.NewHandler(timesheetService, log)

	// Initialize JWT verification
	jwtManager := authjwt.NewManager(&cfg.JWT)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(auth.Middleware(jwtManager)) // Bearer auth with /health exception

	// Health check (no auth required - handled by middleware)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]interface{}{
			"status":   "healthy",
			"service":  "timesheet-service",
			"database": db.Health(r.Context()),
			"rabbitmq": rmq.Health(),
		})
	})

	// API routes (auth required)
	r.Route("/api/v1", func(r chi.Router) {
		timesheetHandler.RegisterRoutes(r)
	})

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}

	log.Info().Msg("server stopped")
}
