package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mroshb/match_engine/internal/config"
	"github.com/mroshb/match_engine/internal/events"
	"github.com/mroshb/match_engine/internal/matching"
	"github.com/mroshb/match_engine/internal/ratelimit"
	"github.com/mroshb/match_engine/internal/services"
	"github.com/mroshb/match_engine/internal/storage"
	"github.com/mroshb/match_engine/pkg/logger"
)

func main() {
	consoleMode := flag.Bool("console", false, "read engine commands from stdin; type help for the list")
	flag.Parse()

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.InitWithLevel(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("Starting match engine...", "env", cfg.AppEnv, "storage", cfg.StorageDriver)

	// Validate production security settings
	if cfg.AppEnv == "production" {
		if err := cfg.ValidateProductionSecurity(); err != nil {
			logger.Fatal("Production security validation failed", err)
		}
		logger.Info("Production security validation passed")
	}

	backend, err := storage.Open(cfg)
	if err != nil {
		logger.Fatal("Failed to open storage", err)
	}
	defer backend.Close()

	notifier, err := events.NewNotifier(cfg.AMQPURL, cfg.MatchExchange)
	if err != nil {
		logger.Fatal("Failed to connect to message broker", err)
	}
	defer notifier.Close()

	eng := newEngine(cfg, backend, notifier)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		eng.sessions.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		eng.limiter.Run(ctx, cfg.GetSwipeWindow())
	}()

	server := &http.Server{
		Addr:              ":" + cfg.MetricsPort,
		Handler:           newMux(backend, eng.sessions),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("Metrics server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server failed", "error", err)
			stop()
		}
	}()

	if *consoleMode {
		// Not part of wg: the goroutine may stay blocked on stdin at shutdown.
		go func() {
			if err := newConsole(eng, backend.Store, os.Stdout).Run(ctx, os.Stdin); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Console failed", "error", err)
			}
			logger.Info("Console closed")
			stop()
		}()
	}

	logger.Info("Match engine started successfully")
	<-ctx.Done()

	logger.Info("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Metrics server shutdown failed", "error", err)
	}
	wg.Wait()
	logger.Info("Match engine stopped", "active_sessions", eng.sessions.ActiveSessions())
}

// engine holds the wired components. The console drives coordinator; the
// daemon runs the session sweeper and the limiter reset in the background.
type engine struct {
	sessions    *services.SessionService
	limiter     *ratelimit.RateLimiter
	coordinator *services.SwipeCoordinator
}

func newEngine(cfg *config.Config, store services.Storage, notifier events.Notifier) *engine {
	sessions := services.NewSessionService(services.SessionConfig{
		HistoryDepth:  cfg.HistoryDepth,
		IdleTimeout:   cfg.GetSessionIdleTimeout(),
		SweepInterval: cfg.GetSessionSweepInterval(),
	})
	limiter := ratelimit.NewRateLimiter(cfg.MaxSwipesPerWindow, cfg.GetSwipeWindow())
	finder := matching.NewCandidateFinder(store, matching.NewEvaluator())
	matchingService := services.NewMatchingService(store, store, notifier)

	return &engine{
		sessions:    sessions,
		limiter:     limiter,
		coordinator: services.NewSwipeCoordinator(sessions, matchingService, finder, limiter, cfg.GetUndoWindow()),
	}
}
