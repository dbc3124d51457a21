package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	goredis "github.com/redis/go-redis/v9"
	"github.com/riandyrn/otelchi"

	"github.com/neomorfeo/cinelist/internal/adapter/auth"
	"github.com/neomorfeo/cinelist/internal/adapter/fsm"
	rediscache "github.com/neomorfeo/cinelist/internal/adapter/redis"
	"github.com/neomorfeo/cinelist/internal/adapter/river"
	"github.com/neomorfeo/cinelist/internal/adapter/sqlite"
	"github.com/neomorfeo/cinelist/internal/adapter/tmdb"
	"github.com/neomorfeo/cinelist/internal/app"
	"github.com/neomorfeo/cinelist/internal/config"
	"github.com/neomorfeo/cinelist/internal/domain"

	handler "github.com/neomorfeo/cinelist/internal/adapter/http"
	telemetry "github.com/neomorfeo/cinelist/internal/adapter/otel"
)

const version = "0.1.0"

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadFromEnv(envOrDefault("CONFIG_PATH", "config.yaml"))
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	// --- Telemetry ---
	providers, err := telemetry.Setup(ctx, telemetry.ConfigFrom(cfg.Telemetry))
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout())
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			logger.Error("otel shutdown", "error", err)
		}
	}()

	// --- Adapters (out) ---
	db, err := telemetry.OpenDB(sqlite.WithPragmas(cfg.Database.Path))
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	store, err := sqlite.NewFromDB(db)
	if err != nil {
		db.Close()
		return fmt.Errorf("database: %w", err)
	}
	defer store.Close()

	riverClient, err := river.Setup(ctx, store.DB(), river.Options{
		Logger: logger,
		Purger: store.RefreshTokens(),
	})
	if err != nil {
		return fmt.Errorf("river: %w", err)
	}
	if err := riverClient.Start(ctx); err != nil {
		return fmt.Errorf("river start: %w", err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout())
		defer cancel()
		if err := riverClient.Stop(stopCtx); err != nil {
			logger.Error("river stop", "error", err)
		}
	}()
	publisher := river.NewPublisher(riverClient)

	retrying := tmdb.NewRetryClient(&http.Client{Timeout: cfg.TMDb.Timeout()}, cfg.TMDb.MaxRetries, tmdb.WithLogger(logger))
	var provider domain.MovieProvider = telemetry.NewTracingMovieProvider(
		tmdb.NewClient(retrying, cfg.TMDb.BaseURL, cfg.TMDb.APIKey),
	)

	var limiter handler.Limiter
	if cfg.Redis.Enabled() {
		rdb := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		provider = rediscache.NewCachingProvider(provider, rdb, cfg.Redis.TTL(), logger)
		limiter = rediscache.NewWindowLimiter(rdb, "cinelist:ratelimit:login:", cfg.RateLimit.LoginPerMinute, time.Minute)
	} else {
		limiter = handler.NewTokenBucket(ctx, cfg.RateLimit.LoginPerMinute, cfg.RateLimit.LoginBurst)
	}

	issuer := auth.NewJWTIssuer(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL(), cfg.Auth.RefreshTokenTTL())

	// --- Application ---
	events := app.NewEventDispatcher()
	app.LogEvents(events, logger)
	for _, name := range domain.EventNames() {
		events.On(name, telemetry.TraceSubscriber("river.publish", publisher.Publish))
	}

	tracing, err := telemetry.TracingBehavior()
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	dispatcher := app.NewDispatcher(
		tracing,
		app.LoggingBehavior(logger),
		app.UnitOfWorkBehavior(store, events),
	)
	err = app.Register(dispatcher, app.Deps{
		Users:         store.Users(),
		RefreshTokens: store.RefreshTokens(),
		Movies:        store.Movies(),
		Watchlist:     telemetry.NewTracingWatchlistRepository(store.Watchlist()),
		Provider:      provider,
		Tokens:        issuer,
		Hasher:        auth.BcryptHasher{Cost: cfg.Auth.BcryptCost},
		Transitions:   fsm.New(),
		Principal:     auth.ContextPrincipal{},
		UnitOfWork:    store,
	})
	if err != nil {
		return fmt.Errorf("registering handlers: %w", err)
	}

	// --- Adapters (in) ---
	trusted, err := cfg.Server.TrustedPrefixes()
	if err != nil {
		return err
	}

	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(handler.TrustedRealIP(trusted))
	router.Use(middleware.Recoverer)
	router.Use(otelchi.Middleware(cfg.Telemetry.ServiceName, otelchi.WithChiRoutes(router)))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	router.Use(handler.Authenticate(issuer))

	api := humachi.New(router, huma.DefaultConfig("cinelist", version))
	handler.Register(api, dispatcher, handler.Options{
		Limiter:      limiter,
		CookieSecure: cfg.Auth.CookieSecure,
		Logger:       logger,
	})
	handler.RegisterHealth(api, store.DB())

	// --- Server ---
	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("cinelist listening", "addr", srv.Addr, "docs", "/docs")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
	case <-ctx.Done():
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	logger.Info("stopped")
	return nil
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
