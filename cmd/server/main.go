// The Synchronicity Engine - attention accounting server
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/ovasilenko/synchro/internal/api"
	"github.com/ovasilenko/synchro/internal/config"
	"github.com/ovasilenko/synchro/internal/engine"
	"github.com/ovasilenko/synchro/internal/feed"
	"github.com/ovasilenko/synchro/internal/middleware"
	"github.com/ovasilenko/synchro/internal/session"
	"github.com/ovasilenko/synchro/internal/store"
	"github.com/ovasilenko/synchro/internal/web"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server", "port", cfg.Port, "policy", cfg.ClaimPolicy, "dev", cfg.IsDevelopment())

	// Initialize dependencies.
	repo, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(context.Background()); err != nil {
		slog.Error("Database health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database connected")

	// Build the in-memory engine, seed, and replay the journal.
	eng := engine.New(engine.Options{
		Policy:      engine.ClaimPolicy(cfg.ClaimPolicy),
		QuestPrefix: cfg.QuestPrefix,
	})
	if cfg.SeedDemo {
		eng.SeedDemo()
		slog.Info("Demo data seeded")
	}
	if cfg.Journal {
		entries, err := repo.LoadJournal(context.Background())
		if err != nil {
			slog.Error("Failed to load journal", "error", err)
			os.Exit(1)
		}
		if err := eng.Replay(entries); err != nil {
			slog.Error("Failed to replay journal", "error", err)
			os.Exit(1)
		}
		eng.AttachJournal(store.NewJournalSink(repo))
		slog.Info("Journal replayed", "entries", len(entries))
	}

	// Initialize services and handlers.
	hub := feed.NewHub()
	apiHandler := api.NewHandler(eng, repo, hub)
	webServer := web.NewServer(eng, repo, hub)
	wsHandler := feed.NewWebSocketHandler(hub, cfg.FrontendURL, cfg.IsDevelopment())

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(middleware.CORS([]string{"*"}))
	r.Use(session.Middleware(repo, cfg.IsDevelopment()))

	apiHandler.RegisterRoutes(r)
	webServer.RegisterRoutes(r)

	// WebSocket live feed.
	r.Get("/ws/feed", wsHandler.ServeHTTP)

	// Create server.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // live feed connections stay open indefinitely
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}
