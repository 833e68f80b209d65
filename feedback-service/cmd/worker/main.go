package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"feedbackhub/feedback-service/internal/app/feedback/bootstrap"
	"feedbackhub/feedback-service/internal/app/feedback/config"
	"feedbackhub/feedback-service/internal/app/feedback/handler"
	"feedbackhub/feedback-service/internal/app/feedback/processor"
	"feedbackhub/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	serviceName := cfg.ServiceName + "-worker"
	logger.Init(serviceName, cfg.LogLevel)

	if cfg.LogstashAddr != "" {
		if err := logger.InitLogstash(cfg.LogstashAddr, serviceName, cfg.LogLevel); err != nil {
			logger.Warn().Err(err).Msg("Failed to connect to Logstash, using stdout only")
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	infra, err := bootstrap.Connect(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize infrastructure")
	}
	defer infra.Close()

	services := bootstrap.NewServices(cfg, infra)

	kafkaConsumer := processor.NewKafkaConsumer(
		cfg.Kafka.Brokers,
		cfg.Kafka.RequestsTopic,
		cfg.Kafka.GroupID,
		cfg.Kafka.MinBytes,
		cfg.Kafka.MaxBytes,
		services.Ingestion,
	)
	kafkaConsumer.Start(ctx)
	defer kafkaConsumer.Stop()

	cronScheduler := processor.NewCronScheduler(services.ProductRepo, services.Ingestion)
	if err := cronScheduler.Start(ctx, cfg.Cron); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start cron scheduler")
	}
	defer cronScheduler.Stop()

	healthHandler := handler.NewHealthCheckHandler(
		map[string]handler.HealthCheck{
			"mongodb":  infra.PingMongo,
			"postgres": infra.PingGorm,
			"pgx":      infra.PingPgx,
			"redis":    infra.PingRedis,
		},
		nil,
	)

	mux := http.NewServeMux()
	healthHandler.RegisterRoutes(mux)
	mux.Handle("/metrics", promhttp.Handler())

	httpServer := &http.Server{
		Addr:    cfg.Server.WorkerAddress(),
		Handler: mux,
	}

	go func() {
		logger.Info().Str("address", cfg.Server.WorkerAddress()).Msg("Starting healthcheck HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("HTTP server error")
		}
	}()

	logger.Info().
		Str("requests_topic", cfg.Kafka.RequestsTopic).
		Str("product_sync", cfg.Cron.ProductSync).
		Str("mailbox_sync", cfg.Cron.MailboxSync).
		Msg("Feedback worker is running")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down Feedback worker...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Healthcheck server forced to shutdown")
	}

	// отменяем текущие импорты, дальше отработают defer'ы
	cancel()

	logger.Info().Msg("Feedback worker stopped")
}
