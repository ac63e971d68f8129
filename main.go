package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/Brayan1299/Restaurante-Api/internal/app"
	"github.com/Brayan1299/Restaurante-Api/internal/config"
	"github.com/Brayan1299/Restaurante-Api/internal/infrastructure/clients"
	"github.com/Brayan1299/Restaurante-Api/internal/interfaces/events"
	"github.com/Brayan1299/Restaurante-Api/internal/interfaces/http"
	"github.com/Brayan1299/Restaurante-Api/internal/observability"
)

func main() {
	cfg := config.Load()

	level := logrus.InfoLevel
	if cfg.Environment == "development" {
		level = logrus.DebugLevel
	}
	observability.InitLogging(level)
	watermillLogger := observability.NewWatermillLogger(logrus.NewEntry(logrus.StandardLogger()))

	db, err := sqlx.Open("postgres", cfg.PostgresURL)
	if err != nil {
		logrus.WithError(err).Fatal("failed to open postgres connection")
	}
	defer db.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
		DB:   cfg.RedisDB,
	})
	defer redisClient.Close()

	var notifier events.Notifier = clients.LogNotifier{}
	if cfg.NotifierURL != "" {
		notifier = clients.NewNotificationsClient(cfg.NotifierURL)
	}

	var gateway events.ChargeRequester = clients.NopChargeRequester{}
	if cfg.GatewayURL != "" {
		gateway = clients.NewPaymentsGatewayClient(cfg.GatewayURL)
	}

	var qr http.QREncoder
	if cfg.QRRendererURL != "" {
		qr = clients.NewQRRendererClient(cfg.QRRendererURL)
	} else {
		qr = clients.NewQRRendererClient("http://localhost:9200")
	}

	a, err := app.NewApp(cfg, watermillLogger, redisClient, db, notifier, gateway, qr)
	if err != nil {
		logrus.WithError(err).Fatal("failed to build application")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := a.Run(ctx); err != nil && ctx.Err() == nil {
		logrus.WithError(err).Fatal("application stopped with error")
	}
}
