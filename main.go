// main.go
// daybook journaling API: structure versioning, daily entries and one-tap actions.

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"daybook/actions"
	"daybook/auth"
	"daybook/clock"
	"daybook/config"
	"daybook/db"
	"daybook/entries"
	"daybook/handlers"
	"daybook/logging"
	"daybook/middleware"
	"daybook/structure"
)

const version = "1.0.0"

func main() {
	if err := godotenv.Load(); err != nil {
		log.Info("no .env file found, using system environment variables")
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", "err", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		log.Fatal("failed to initialize logging", "err", err)
	}
	logger.Info("starting daybook API", "environment", cfg.Server.Environment, "port", cfg.Server.Port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg.Store)
	if err != nil {
		logger.Fatal("failed to open store", "driver", cfg.Store.Driver, "err", err)
	}
	defer store.Close()

	calendar, err := clock.NewZoneCalendar(cfg.Calendar.Timezone)
	if err != nil {
		logger.Fatal("failed to load calendar", "err", err)
	}

	registry := structure.NewRegistry(store)
	entryStore := entries.NewStore(store, registry)
	engine := actions.NewEngine(store, registry, entryStore, calendar, logger)

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window, cfg.RateLimit.TrustProxy)
	rateLimiter.CleanupOldLimiters(ctx, time.Hour)
	logger.Info("rate limiter initialized", "requests", cfg.RateLimit.Requests, "window", cfg.RateLimit.Window, "trustProxy", cfg.RateLimit.TrustProxy)

	router := handlers.NewRouter(handlers.Dependencies{
		JWT:            auth.NewJWTManager(cfg.Auth.Secret, cfg.Auth.Issuer, cfg.Auth.Expiration),
		Structures:     registry,
		Entries:        entryStore,
		Actions:        engine,
		RateLimiter:    rateLimiter,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Logger:         logger,
		Version:        version,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed to start", "err", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "err", err)
	}

	logger.Info("server stopped gracefully")
}

func openStore(ctx context.Context, cfg config.StoreConfig) (db.Store, error) {
	switch cfg.Driver {
	case config.DriverFirestore:
		return db.NewFirestoreDB(ctx, cfg.FirebaseProjectID, cfg.CredentialsPath, cfg.FirestoreCollection)
	case config.DriverSQLite:
		return db.NewSQLiteDB(ctx, cfg.SQLitePath)
	case config.DriverMemory:
		return db.NewMemoryDB(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
