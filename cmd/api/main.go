package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"prescription-ledger/internal/adapters/auth/jwtsession"
	"prescription-ledger/internal/adapters/credentials/bcrypt"
	pg "prescription-ledger/internal/adapters/storage/postgres"
	"prescription-ledger/internal/domain/actors"
	"prescription-ledger/internal/platform/config"
	"prescription-ledger/internal/platform/logger"
	"prescription-ledger/internal/platform/metrics"
	"prescription-ledger/internal/router"
)

// @title Prescription Ledger API
// @version 1.0
// @description Registro de recetas: prescriptores emiten, dispensadores despachan.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Bearer <token> devuelto por /login/*
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.FromConfig(cfg.Log)
	m := metrics.New()

	sessions, err := jwtsession.NewIssuer(jwtsession.Config{
		Secret: []byte(cfg.Session.Secret),
		Issuer: cfg.Session.Issuer,
		TTL:    cfg.Session.TTL,
		Leeway: cfg.Session.Leeway,
	})
	if err != nil {
		return fmt.Errorf("session issuer: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := router.Options{
		Sessions: sessions,
		Hasher:   bcrypt.NewHasher(cfg.BcryptCost),
		Logger:   log,
		Metrics:  m,
		Policy:   cfg.Policy,
	}

	// Sin DB_DSN se usa storage in-memory (modo dev)
	if cfg.DBDSN != "" {
		db, err := pg.Open(cfg.DBDSN)
		if err != nil {
			return fmt.Errorf("open postgres: %w", err)
		}
		defer db.Close()

		if err := pg.Migrate(ctx, db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		opts.DB = db
		log.Info("storage ready", map[string]any{"driver": "postgres"})
	} else {
		log.Warn("DB_DSN not set, using in-memory storage", nil)
	}

	if cfg.SeedFile != "" {
		seed, err := actors.LoadSeedFile(cfg.SeedFile)
		if err != nil {
			return err
		}
		opts.Seed = seed
	}

	h, err := router.NewRouter(opts)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      h,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", map[string]any{"addr": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
