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

	"github.com/gamma-omg/lexi-spell/internal/pkg/middleware"
	"github.com/gamma-omg/lexi-spell/internal/pkg/router"
	"github.com/gamma-omg/lexi-spell/internal/services/vocab/internal/config"
	"github.com/gamma-omg/lexi-spell/internal/services/vocab/internal/rest"
	"github.com/gamma-omg/lexi-spell/internal/services/vocab/internal/service"
	"github.com/gamma-omg/lexi-spell/internal/services/vocab/internal/session"
	"github.com/gamma-omg/lexi-spell/internal/services/vocab/internal/store"
	"github.com/gamma-omg/lexi-spell/internal/services/vocab/internal/token"
	"github.com/joho/godotenv"
)

type readinessCheck func(ctx context.Context) error

func run(ctx context.Context) error {
	slog.Info("starting vocab service")

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := config.FromEnv()

	var checks []readinessCheck

	st, closeStore, check, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()
	if check != nil {
		checks = append(checks, check)
	}

	cursors, closeCursors, check := openCursors(cfg)
	defer closeCursors()
	if check != nil {
		checks = append(checks, check)
	}

	tokens := token.NewIssuer(token.Config{
		Secret: token.NewSecretString(cfg.Auth.Secret),
		Issuer: cfg.Auth.Issuer,
		TTL:    cfg.Auth.TokenTTL,
	})

	accounts := service.NewAccounts(st, tokens, service.AccountsConfig{
		CacheKeys: cfg.UsersCache.MaxKeys,
		CacheCost: cfg.UsersCache.MaxCost,
	})
	defer accounts.Close()

	practice := service.NewPractice(
		service.WithStore(st),
		service.WithMasteryThreshold(cfg.MasteryThreshold),
		service.WithOwnerCheck(true),
	)

	api := rest.NewAPI(rest.APIConfig{
		Practice: practice,
		Sessions: service.NewSessions(st, cursors),
		Accounts: accounts,
		Tokens:   tokens,
	})

	r := router.New()
	r.Use(middleware.Recover(), middleware.Log())
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		for _, check := range checks {
			if err := check(r.Context()); err != nil {
				slog.Warn("readiness check failed", "error", err)
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})
	r.Mount("/api/v1", api)

	httpSrv := &http.Server{
		Addr:         cfg.Http.ListenAddr,
		IdleTimeout:  cfg.Http.IdleTimeout,
		ReadTimeout:  cfg.Http.ReadTimeout,
		WriteTimeout: cfg.Http.WriteTimeout,
		Handler:      r,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server starting", "addr", httpSrv.Addr, "store", cfg.Store.Backend, "sessions", cfg.Session.Backend)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Http.ShutdownTimeout)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func openStore(cfg config.Config) (store.Store, func(), readinessCheck, error) {
	if cfg.Store.Backend != config.BackendPostgres {
		return store.NewMemoryStore(), func() {}, nil, nil
	}

	db, err := store.NewPostgresDB(store.PostgresConfig{
		Host:     cfg.DB.Host,
		Port:     cfg.DB.Port,
		User:     cfg.DB.User,
		Password: cfg.DB.Password,
		DB:       cfg.DB.Name,
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to connect to db: %w", err)
	}

	if cfg.DB.Migrations != "" {
		slog.Info("applying migrations", "folder", cfg.DB.Migrations)
		if err := store.Migrate(db, cfg.DB.Migrations); err != nil {
			db.Close()
			return nil, nil, nil, fmt.Errorf("failed to migrate db: %w", err)
		}
	}

	return store.NewPostgresStore(db), func() { db.Close() }, db.PingContext, nil
}

type cursorStore interface {
	Create(ctx context.Context, userID int64, sessionID string) error
	Advance(ctx context.Context, userID int64, sessionID string) (int64, error)
}

func openCursors(cfg config.Config) (cursorStore, func(), readinessCheck) {
	if cfg.Session.Backend != config.BackendRedis {
		return session.NewMemory(cfg.Session.TTL), func() {}, nil
	}

	rds := session.NewRedis(session.RedisConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		TTL:      cfg.Session.TTL,
	})

	return rds, func() { rds.Close() }, rds.Ping
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		slog.Error("vocab service terminated with error", "error", err)
		os.Exit(1)
	}
}
