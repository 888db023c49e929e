// SilayLearn - MOOC lesson assistant API server
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
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/silaylearn/silay-api/internal/account"
	"github.com/silaylearn/silay-api/internal/api"
	"github.com/silaylearn/silay-api/internal/chat"
	"github.com/silaylearn/silay-api/internal/config"
	"github.com/silaylearn/silay-api/internal/history"
	"github.com/silaylearn/silay-api/internal/mailer"
	"github.com/silaylearn/silay-api/internal/maintenance"
	"github.com/silaylearn/silay-api/internal/middleware"
	"github.com/silaylearn/silay-api/internal/provider"
	"github.com/silaylearn/silay-api/internal/store"
)

func main() {
	level := new(slog.LevelVar)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
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
	level.Set(cfg.SlogLevel())

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment(), "db_driver", cfg.Database.Driver)

	// Initialize dependencies.
	repo, err := store.Open(cfg.Database)
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

	// AI provider transports. A missing SDK client is not fatal; the
	// invoker falls back to REST.
	var sdk provider.SDKClient
	if cfg.Gemini.UseSDK {
		client, err := provider.NewGeminiSDK(context.Background(), cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.Gemini.Timeout)
		if err != nil {
			slog.Warn("Gemini SDK unavailable, REST fallback only", "error", err)
		} else {
			sdk = client
		}
	}
	rest := provider.NewGeminiREST(cfg.Gemini.RESTBaseURL, cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.Gemini.Timeout, logger)
	invoker := provider.NewInvoker(sdk, rest, cfg.Gemini.UseSDK, logger)
	slog.Info("AI provider initialized", "model", cfg.Gemini.Model, "use_sdk", cfg.Gemini.UseSDK, "sdk_ready", sdk != nil)

	var mail account.Mailer
	if cfg.Mail.Username == "" || cfg.Mail.Password == "" {
		slog.Warn("MAIL_USERNAME or MAIL_PASSWORD not set, reset links will only be logged")
		mail = mailer.NewLogMailer(logger)
	} else {
		mail = mailer.NewSMTPMailer(cfg.Mail, cfg.Account.ResetTokenTTL, logger)
	}

	// Initialize services.
	chatSvc := chat.NewService(history.NewAdapter(repo, logger), invoker, logger)
	accountSvc := account.NewService(repo, mail, cfg.Account, cfg.FrontendURL, logger)

	// Initialize handlers.
	healthHandler := api.NewHealthHandler(repo, 5*time.Second)
	chatHandler := api.NewChatHandler(chatSvc)
	accountHandler := api.NewAccountHandler(accountSvc)

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(middleware.Metrics)
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	healthHandler.RegisterRoutes(r)
	chatHandler.RegisterRoutes(r)
	accountHandler.RegisterRoutes(r)
	r.Handle("/metrics", promhttp.Handler())

	// Create server.
	// WriteTimeout covers an SDK attempt followed by the REST fallback.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2*cfg.Gemini.Timeout + 15*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start reset token cleanup worker.
	cleanupDone := maintenance.StartTokenCleanup(ctx, repo, cfg.Account.TokenCleanupInterval)

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
	<-cleanupDone

	slog.Info("Server stopped successfully")
}
