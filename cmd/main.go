// @title Fintrack Backend API
// @version 1.0
// @description Personal finance bookkeeping API: income and expense tracking with filtering, pagination and summaries
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url http://www.swagger.io/support
// @contact.email support@swagger.io

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/cors"

	_ "FINTRACK_BACK-END/docs" // This is required for swagger
	"FINTRACK_BACK-END/internal/config"
	"FINTRACK_BACK-END/internal/events"
	"FINTRACK_BACK-END/internal/handlers"
	"FINTRACK_BACK-END/internal/logger"
	"FINTRACK_BACK-END/internal/query"
	"FINTRACK_BACK-END/internal/routes"
	"FINTRACK_BACK-END/internal/services"
	"FINTRACK_BACK-END/internal/store"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", logger.FieldError, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	slog.SetDefault(log)
	appLog := logger.WithComponent(log, logger.ComponentApp)

	st, err := openStore(cfg, logger.WithComponent(log, logger.ComponentStorage))
	if err != nil {
		return err
	}
	defer st.Close()

	publisher, err := openPublisher(cfg, logger.WithComponent(log, logger.ComponentEvents))
	if err != nil {
		return err
	}
	defer publisher.Close()

	// --- Services ---
	authService := services.NewAuthService(st, &cfg.JWT, log)
	transactionService := services.NewTransactionService(st, query.Builder{MaxLimit: cfg.Pagination.MaxLimit}, publisher, log)

	// --- HTTP Handlers ---
	authHandler := handlers.NewAuthHandler(authService)
	healthHandler := handlers.NewHealthHandler(st, cfg.Database.Driver)
	googleAuthHandler := handlers.NewGoogleAuthHandler(authService, &cfg.GoogleOAuth)
	transactionsHandler := handlers.NewTransactionsHandler(transactionService)

	mux := http.NewServeMux()
	routes.SetupRoutes(mux, authHandler, healthHandler, googleAuthHandler, transactionsHandler, &cfg.JWT)

	// Setup CORS
	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   cfg.CORS.AllowedMethods,
		AllowedHeaders:   cfg.CORS.AllowedHeaders,
		AllowCredentials: cfg.CORS.AllowCredentials,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           logger.Middleware(log)(c.Handler(mux)),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		appLog.Info("HTTP server listening", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for SIGINT/SIGTERM to shut down gracefully
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		return fmt.Errorf("listen: %w", err)
	case <-quit:
	}
	appLog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Error("Server shutdown error", logger.FieldError, err)
	}
	appLog.Info("Server stopped.")
	return nil
}

func openStore(cfg *config.Config, log *slog.Logger) (store.Store, error) {
	if cfg.Database.Driver == config.DriverSQLite {
		log.Info("Opening SQLite database", "path", cfg.Database.SQLitePath)
		st, err := store.NewSQLiteStore(cfg.Database.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		return st, nil
	}

	dsn := cfg.GetDSN()
	if err := store.MigratePostgres(dsn); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	// Simple protocol is required behind PgBouncer in transaction mode
	pgCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	pgCfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	pgCfg.ConnConfig.RuntimeParams["application_name"] = "fintrack-backend"
	pgCfg.ConnConfig.RuntimeParams["statement_timeout"] = strconv.FormatInt(cfg.Database.QueryTimeout.Milliseconds(), 10)
	pgCfg.MaxConns = cfg.Database.MaxConns
	pgCfg.MinConns = cfg.Database.MinConns
	pgCfg.MaxConnLifetime = cfg.Database.MaxLifetime

	pool, err := pgxpool.NewWithConfig(context.Background(), pgCfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	log.Info("Connected to Postgres", "host", cfg.Database.Host, "db", cfg.Database.Name)

	return store.NewPostgresStore(pool, cfg.Database.QueryTimeout), nil
}

func openPublisher(cfg *config.Config, log *slog.Logger) (events.Publisher, error) {
	if !cfg.IsEventsConfigured() {
		log.Info("AMQP_URL not set, domain events are disabled")
		return events.NoopPublisher{}, nil
	}
	p, err := events.NewAMQPPublisher(cfg.Events.AMQPURL, cfg.Events.Exchange, cfg.Events.RoutingKey, log)
	if err != nil {
		return nil, fmt.Errorf("connect AMQP: %w", err)
	}
	log.Info("Publishing domain events", "exchange", cfg.Events.Exchange)
	return p, nil
}
