package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"feedbackhub/feedback-service/internal/app/feedback/bootstrap"
	"feedbackhub/feedback-service/internal/app/feedback/config"
	"feedbackhub/feedback-service/internal/app/feedback/handler"
	"feedbackhub/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.ServiceName, cfg.LogLevel)

	if cfg.LogstashAddr != "" {
		if err := logger.InitLogstash(cfg.LogstashAddr, cfg.ServiceName, cfg.LogLevel); err != nil {
			logger.Warn().Err(err).Msg("Failed to connect to Logstash, using stdout only")
		} else {
			logger.Info().Str("logstash_addr", cfg.LogstashAddr).Msg("Connected to Logstash")
		}
	}

	ctx := context.Background()

	infra, err := bootstrap.Connect(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize infrastructure")
	}
	defer infra.Close()

	services := bootstrap.NewServices(cfg, infra)

	authMiddleware := handler.NewAuthMiddleware(cfg.JWT.Secret)
	router := handler.SetupRoutes(handler.Handlers{
		Ingestion: handler.NewIngestionHandler(services.Ingestion, services.Publisher),
		Reviews:   handler.NewReviewHandler(services.Reviews),
		Products:  handler.NewProductHandler(services.Products),
		Analytics: handler.NewAnalyticsHandler(services.Analytics),
		Mailbox:   handler.NewMailboxHandler(services.Mailbox),
	}, authMiddleware)

	// синхронный импорт с обогащением может идти минуты
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("Starting Feedback Service")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down Feedback Service...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Feedback Service stopped gracefully")
}
