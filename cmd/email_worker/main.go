package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/bike-resale-api/internal/config"
	"github.com/bike-resale-api/internal/infrastructure/mailgun"
	"github.com/bike-resale-api/internal/infrastructure/rabbitmq"
	"github.com/bike-resale-api/internal/infrastructure/smtp"
	"github.com/bike-resale-api/internal/metrics"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	var sender rabbitmq.Sender
	switch cfg.WorkerMailDriver {
	case "smtp":
		sender = smtp.NewMailer(cfg)
	case "mailgun":
		if cfg.MailgunDomain == "" || cfg.MailgunAPIKey == "" || cfg.MailgunSender == "" {
			fatal("config", fmt.Errorf("mailgun not configured"))
		}
		sender = mailgun.NewMailer(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunSender)
	default:
		fatal("config", fmt.Errorf("unknown WORKER_MAIL_DRIVER %q", cfg.WorkerMailDriver))
	}

	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)

	consumer, err := rabbitmq.NewConsumer(cfg.RabbitMQURL, cfg.RabbitMQQueue, sender, func(o rabbitmq.Outcome) {
		collector.RecordEmailJob(o.String())
	})
	if err != nil {
		fatal("rabbitmq consumer", err)
	}
	defer consumer.Close()

	// The worker exposes only /metrics, one port above the API.
	metricsSrv := &http.Server{Addr: ":" + metricsPort(cfg.AppPort), Handler: metrics.Handler(reg)}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Warn("metrics server stopped", "err", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("email worker listening", "queue", cfg.RabbitMQQueue, "driver", cfg.WorkerMailDriver)
	if err := consumer.Run(ctx); err != nil {
		slog.Error("email worker stopped", "err", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = metricsSrv.Shutdown(shutdownCtx)
	slog.Info("email worker stopped")
}

func metricsPort(apiPort string) string {
	n, err := strconv.Atoi(apiPort)
	if err != nil {
		return "9101"
	}
	return strconv.Itoa(n + 1)
}

func fatal(what string, err error) {
	slog.Error(what, "err", err)
	os.Exit(1)
}
