package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kayvonkhosrowpour/jma-send/internal/api"
	"github.com/kayvonkhosrowpour/jma-send/internal/config"
	"github.com/kayvonkhosrowpour/jma-send/internal/email"
	"github.com/kayvonkhosrowpour/jma-send/internal/jobstore"
	"github.com/kayvonkhosrowpour/jma-send/internal/metrics"
	"github.com/kayvonkhosrowpour/jma-send/internal/orchestrator"
	"github.com/kayvonkhosrowpour/jma-send/internal/roster"
)

func main() {

	// ------------------------------------------------
	// Logger
	// ------------------------------------------------
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	// ------------------------------------------------
	// Config
	// ------------------------------------------------
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	// ------------------------------------------------
	// Root Context + Shutdown
	// ------------------------------------------------
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Info("shutdown signal received", zap.String("signal", sig.String()))
		cancel()
	}()

	// ------------------------------------------------
	// Job Store (retried: the database may come up after us)
	// ------------------------------------------------
	var store jobstore.Store

	connect := func() error {
		var err error
		store, err = jobstore.Open(ctx, cfg.StoreDriver, cfg.DatabaseURL, logger)
		return err
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = 30 * time.Second

	if err := backoff.Retry(connect, backoff.WithContext(b, ctx)); err != nil {
		logger.Fatal("job store connection failed", zap.Error(err))
	}
	defer store.Close()

	// ------------------------------------------------
	// Metrics + Ops API
	// ------------------------------------------------
	metrics.Init()

	opsHandler := &api.Handler{Store: store, Log: logger}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsMux.HandleFunc("/jobs/pending", opsHandler.PendingJobs)

	metricsServer := &http.Server{
		Addr:    ":" + cfg.MetricsPort,
		Handler: metricsMux,
	}

	go func() {
		logger.Info("metrics server started", zap.String("port", cfg.MetricsPort))
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("metrics server error", zap.Error(err))
		}
	}()

	// ------------------------------------------------
	// Sources + Transport
	// ------------------------------------------------
	recipients := &roster.CSVRecipientSource{Path: cfg.CustomersPath}
	timetable := &roster.CSVTimetableSource{Path: cfg.TimetablePath}

	sender := &email.Sender{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	}

	// ------------------------------------------------
	// Orchestrator
	// ------------------------------------------------
	orch := orchestrator.New(cfg, store, sender, recipients, timetable, logger)

	if err := orch.Start(ctx); err != nil {
		logger.Fatal("orchestrator start failed", zap.Error(err))
	}

	// ------------------------------------------------
	// Wait for shutdown
	// ------------------------------------------------
	<-ctx.Done()

	logger.Info("shutting down services...")

	orch.Wait()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics shutdown failed", zap.Error(err))
	}

	logger.Info("application shutdown complete")
}
