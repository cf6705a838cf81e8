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

	"riskdash/internal/config"
	"riskdash/internal/coordinator"
	"riskdash/internal/database"
	"riskdash/internal/engine"
	"riskdash/internal/riskclient"
	"riskdash/internal/server"
	"riskdash/internal/workspace"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	opts := coordinator.Options{
		Timeout:      cfg.RequestTimeout,
		RefreshOnAck: cfg.RefreshOnAck,
		Compliance: engine.AggregateOptions{
			ExcludeUntriggered:    cfg.ExcludeUntriggered,
			ModellingErrorsSuffix: cfg.ModellingErrorsSet,
		},
	}

	if cfg.DBDSN != "" {
		if err := database.Init(cfg.DBDSN, logger); err != nil {
			return err
		}
		defer database.Close()
		opts.Audit = database.CreateAuditLog
	} else {
		logger.Warn("DB_DSN is not set, audit log disabled")
	}

	client := riskclient.New(cfg.RiskServerURL, cfg.RequestTimeout, logger)
	reg := workspace.NewRegistry(client, opts, logger)

	r := server.NewRouter(cfg, reg)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.ServerPort),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", srv.Addr, "risk_server", cfg.RiskServerURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	// let in-flight control updates settle so their audit records land
	reg.Wait()
	return nil
}
