package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"stripe-subscription-relay/internal/client"
	"stripe-subscription-relay/internal/config"
	"stripe-subscription-relay/internal/repository"
	"stripe-subscription-relay/internal/server"
	"stripe-subscription-relay/internal/service"
)

func main() {
	// load .env into os.Environ
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("no .env file found (ok in prod)")
	}

	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		log.Fatal().Err(err).Msg("failed to parse config")
	}

	setupLogger(&cfg.Log)

	ctx := context.Background()

	fs, err := client.InitFirestoreClient(ctx, &cfg.Firebase)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init firestore")
	}
	defer fs.Close()

	db, err := client.InitSqliteClient(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init local database")
	}

	stripeClient := client.NewStripeClient(cfg.Stripe.SecretKey)

	ledgerRepo := repository.NewLedgerRepository(fs)
	webhookEventRepo := repository.NewWebhookEventRepository(db)
	paymentLogRepo := repository.NewPaymentLogRepository(db)

	subscriptionService := service.NewSubscriptionService(stripeClient, ledgerRepo, paymentLogRepo)
	webhookService := service.NewWebhookService(cfg.Stripe.WebhookSecret, ledgerRepo, webhookEventRepo, paymentLogRepo)

	srv := server.NewServer(cfg, subscriptionService, webhookService)

	serverAddr := cfg.HTTP.Host + ":" + cfg.HTTP.Port
	log.Info().Str("addr", serverAddr).Msg("starting HTTP server")
	go func() {
		if err := srv.Start(serverAddr); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	<-sigChan
	log.Info().Msg("signal received, shutting down")

	if err := srv.Shutdown(); err != nil {
		log.Fatal().Err(err).Msg("HTTP server shutdown error")
	}
}

func setupLogger(cfg *config.Log) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}
