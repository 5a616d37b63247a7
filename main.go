package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/your-username/ga-report-adapter/backend/internal/analytics"
	"github.com/your-username/ga-report-adapter/backend/internal/api"
	"github.com/your-username/ga-report-adapter/backend/internal/cache"
	"github.com/your-username/ga-report-adapter/backend/internal/config"
	"github.com/your-username/ga-report-adapter/backend/internal/report"
)

var version = "dev"

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("No .env file found")
	}

	// Setup logger
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("LOG_LEVEL") == "debug" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	log.Info().Str("version", version).Msg("Starting GA4 report adapter")

	// Load configuration
	cfg := config.Load()

	// Initialize the Data API client
	client, err := analytics.New(context.Background(), cfg.Analytics)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize analytics client")
	}

	// Result cache
	memCache := cache.NewMemoryCache(cfg.Cache.Size, time.Minute)
	defer memCache.Close()
	reportCache := cache.NewReportCache(memCache, cfg.Cache.TTL)

	service := report.NewService(client, reportCache)

	router := api.NewRouter(service, api.RouterOptions{
		Version:         version,
		DefaultProperty: cfg.Analytics.DefaultProperty,
		AllowedOrigins:  cfg.Server.AllowedOrigins,
		JWTSecret:       cfg.JWT.Secret,
		HealthTimeout:   cfg.Analytics.Timeout,
	})
	if cfg.JWT.Secret == "" {
		log.Warn().Msg("JWT_SECRET not set, API is unauthenticated")
	}

	// Start server
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	// Graceful shutdown
	done := make(chan bool, 1)
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		log.Info().Msg("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		srv.SetKeepAlivesEnabled(false)
		if err := srv.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("Server shutdown failed")
		}
		close(done)
	}()

	log.Info().Str("port", cfg.Server.Port).Msg("Server started")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("Server failed to start")
	}

	<-done
	log.Info().Msg("Server stopped")
}
