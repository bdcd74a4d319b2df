package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	httpDelivery "github.com/tair/prompt-favorites/internal/favorites/delivery/http"
	"github.com/tair/prompt-favorites/internal/favorites/repository"
	"github.com/tair/prompt-favorites/pkg/database"
	"github.com/tair/prompt-favorites/pkg/logger"
	"github.com/tair/prompt-favorites/pkg/tracing"
)

func main() {
	// Initialize logger
	serviceName := getEnv("OTEL_SERVICE_NAME", "favorites-service")
	isDevelopment := getEnv("ENVIRONMENT", "development") == "development"
	logger.Init(serviceName, isDevelopment)

	logLevel := getEnv("LOG_LEVEL", "info")
	logger.SetLevel(logLevel)

	logger.Logger.Info().
		Str("service", serviceName).
		Str("environment", getEnv("ENVIRONMENT", "development")).
		Str("log_level", logLevel).
		Msg("Starting favorites service")

	apiKey := os.Getenv("API_KEY")
	if apiKey == "" {
		logger.Logger.Fatal().Msg("API_KEY must be set")
	}

	// Initialize tracer
	tp, err := tracing.InitTracer(serviceName)
	if err != nil {
		logger.Logger.Error().Err(err).Msg("Failed to initialize tracer")
	} else {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracing.Shutdown(ctx, tp); err != nil {
				logger.Logger.Error().Err(err).Msg("Failed to shutdown tracer")
			}
		}()
	}

	// Load database configuration
	dbConfig := database.Config{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", "postgres"),
		DBName:   getEnv("DB_NAME", "favoritesdb"),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}

	// Connect to database
	db, err := database.NewPostgresConnection(dbConfig)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	// Reconcile the favorites schema before serving any writes. Failure
	// degrades the service to read-only rather than crashing it.
	reconciler := repository.NewSchemaReconciler(db)
	degraded := false
	if err := reconciler.Reconcile(context.Background()); err != nil {
		degraded = true
		logger.Logger.Error().Err(err).
			Msg("Schema reconciliation failed, starting in read-only degraded mode")
	} else {
		logger.Logger.Info().Msg("Favorites schema reconciled")
	}

	// Initialize repository and HTTP handler
	repo := repository.NewPostgresFavoriteRepository(db)
	favoriteHandler := httpDelivery.NewFavoriteHandler(repo)
	favoriteHandler.SetDegraded(degraded)

	// Setup router
	router := mux.NewRouter()
	router.Use(httpDelivery.LoggingMiddleware)
	router.Use(func(next http.Handler) http.Handler {
		return httpDelivery.TracingMiddleware("http-request", next)
	})

	gate := httpDelivery.APIKeyMiddleware(apiKey)
	favoriteHandler.RegisterRoutes(router, gate)

	// Health check endpoint (no API key required)
	favoriteHandler.RegisterHealthCheck(router, db)

	// Prometheus metrics endpoint
	router.Handle("/metrics", promhttp.Handler())

	// CORS middleware; preflight is answered here, ahead of the API key gate
	c := cors.New(cors.Options{
		AllowedOrigins:   splitOrigins(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	httpPort := getEnv("HTTP_PORT", "8080")
	srv := &http.Server{
		Addr:    ":" + httpPort,
		Handler: c.Handler(router),
	}

	go func() {
		logger.Logger.Info().
			Str("port", httpPort).
			Bool("degraded", degraded).
			Str("metrics_endpoint", "/metrics").
			Msg("HTTP server started")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Logger.Fatal().Err(err).Msg("Failed to start HTTP server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Logger.Error().Err(err).Msg("Failed to shut down HTTP server cleanly")
	}
}

func splitOrigins(origins string) []string {
	parts := strings.Split(origins, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
