package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"studyroom-backend/internal/account"
	"studyroom-backend/internal/api"
	"studyroom-backend/internal/auth"
	"studyroom-backend/internal/booking"
	"studyroom-backend/internal/catalog"
	"studyroom-backend/internal/metrics"
)

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE:  serveRun,
	}
}

func serveRun(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := commonRun()
	if err != nil {
		return err
	}

	appStore, gormDB, err := openStore(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer closeDB(gormDB)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Catalog.SeedFile != "" {
		descriptors, err := catalog.LoadSeed(cfg.Catalog.SeedFile)
		if err != nil {
			return fmt.Errorf("failed to load slot seed: %w", err)
		}
		created, err := catalog.Import(ctx, appStore.Slots(), descriptors)
		if err != nil {
			return fmt.Errorf("failed to import slot seed: %w", err)
		}
		logger.Info("slot seed imported", "file", cfg.Catalog.SeedFile, "created", created)
	}

	syncer := catalog.NewSyncer(cfg.Catalog, appStore.Slots(), logger)
	go syncer.Run(ctx)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	secret := []byte(cfg.Auth.Secret)
	issuer := auth.NewIssuer(secret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
	guard := auth.NewJWTGuard(secret, cfg.Auth.Issuer, time.Duration(cfg.Auth.LeewaySeconds)*time.Second)
	engine := booking.NewEngine(appStore,
		booking.WithLogger(logger),
		booking.WithMetrics(metrics.New(reg)),
	)
	accounts := account.NewService(appStore.Accounts(), issuer, cfg.Auth.BcryptCost, logger)

	router := api.NewRouter(api.NewHandler(engine, accounts, appStore, logger), guard, api.RouterOptions{
		RateLimit: rate.Limit(cfg.Server.RateLimitPerSec),
		Burst:     cfg.Server.RateLimitBurst,
		CacheTTL:  time.Duration(cfg.Server.CacheTTLSeconds) * time.Second,
		Gatherer:  reg,
	})
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server starting", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("HTTP server ListenAndServe: %w", err)
	case <-ctx.Done():
	}
	logger.Info("shutdown signal received, stopping services")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownSeconds)*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP server Shutdown: %w", err)
	}

	logger.Info("server gracefully stopped")
	return nil
}
