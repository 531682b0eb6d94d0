package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/redmonkez12/go-contacts-api/internal/config"
	"github.com/redmonkez12/go-contacts-api/internal/email"
	"github.com/redmonkez12/go-contacts-api/internal/logging"
	"github.com/redmonkez12/go-contacts-api/internal/mailqueue"
	"github.com/redmonkez12/go-contacts-api/internal/metrics"
)

const metricsAddr = ":9091"

func main() {
	if err := run(); err != nil {
		log.Fatalf("Worker error: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.NewLogger(cfg.Server.IsDevelopment())

	if cfg.Queue.Backend != config.BackendAMQP {
		return fmt.Errorf("worker requires MAIL_QUEUE_BACKEND=%s, got %q", config.BackendAMQP, cfg.Queue.Backend)
	}

	client, err := mailqueue.Dial(cfg.Queue, logger)
	if err != nil {
		return err
	}
	defer client.Close()

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	metricsServer := &http.Server{
		Addr:              metricsAddr,
		Handler:           metrics.Handler(registry),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", "error", err)
		}
	}()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(ctx)
	}()

	sender := email.NewService(cfg.Email, cfg.Auth.ConfirmationTokenDuration.String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx = logging.WithLogger(ctx, logger)
	logger.Info("mail worker started", "queue", cfg.Queue.QueueName, "metrics_addr", metricsAddr)

	if err := client.Consume(ctx, sender, collector); err != nil {
		return err
	}

	logger.Info("mail worker stopped")
	return nil
}
