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

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/bike-resale-api/internal/config"
	"github.com/bike-resale-api/internal/infrastructure/dynamo"
	gcsinfra "github.com/bike-resale-api/internal/infrastructure/gcs"
	jwtinfra "github.com/bike-resale-api/internal/infrastructure/jwt"
	"github.com/bike-resale-api/internal/infrastructure/mailgun"
	"github.com/bike-resale-api/internal/infrastructure/memory"
	"github.com/bike-resale-api/internal/infrastructure/rabbitmq"
	redisinfra "github.com/bike-resale-api/internal/infrastructure/redis"
	s3infra "github.com/bike-resale-api/internal/infrastructure/s3"
	"github.com/bike-resale-api/internal/infrastructure/smtp"
	"github.com/bike-resale-api/internal/infrastructure/sns"
	"github.com/bike-resale-api/internal/metrics"
	transporthttp "github.com/bike-resale-api/internal/transport/http"
)

func main() {
	envErr := godotenv.Load()
	cfg := config.Load()
	logger := newLogger(cfg)
	slog.SetDefault(logger)
	if envErr != nil {
		slog.Info("no .env file found, reading from environment")
	}

	ctx := context.Background()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(reg)

	jwtProvider, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		fatal("jwt provider", err)
	}

	deps := &transporthttp.Deps{
		JWTProvider:    jwtProvider,
		Metrics:        collector,
		MetricsHandler: metrics.Handler(reg),
		Logger:         logger,
	}

	switch cfg.StoreDriver {
	case "memory":
		deps.UserRepo = memory.NewUserRepo()
		deps.BikeRepo = memory.NewBikeRepo()
	case "dynamo":
		stores, err := dynamo.Open(ctx, cfg)
		if err != nil {
			fatal("dynamodb", err)
		}
		deps.UserRepo = stores.Users
		deps.BikeRepo = stores.Bikes
	default:
		fatal("config", fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver))
	}

	switch cfg.ImageStore {
	case "s3":
		deps.ImageStore = s3infra.NewStore(s3infra.NewClient(cfg), cfg)
	case "gcs":
		client, err := gcsinfra.NewClient(ctx, cfg.GCSCredentials)
		if err != nil {
			fatal("gcs client", err)
		}
		defer client.Close()
		deps.ImageStore = gcsinfra.NewStore(client, cfg.GCSBucket)
	default:
		fatal("config", fmt.Errorf("unknown IMAGE_STORE %q", cfg.ImageStore))
	}

	switch cfg.MailDriver {
	case "smtp":
		deps.Mailer = smtp.NewMailer(cfg)
	case "mailgun":
		deps.Mailer = mailgun.NewMailer(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunSender)
	case "queue":
		pub, err := rabbitmq.NewPublisher(cfg.RabbitMQURL, cfg.RabbitMQQueue)
		if err != nil {
			fatal("rabbitmq publisher", err)
		}
		defer pub.Close()
		deps.Mailer = pub
	default:
		fatal("config", fmt.Errorf("unknown MAIL_DRIVER %q", cfg.MailDriver))
	}

	if cfg.RedisAddr != "" {
		rdb := redisinfra.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			slog.Warn("redis unreachable, listing cache will degrade to direct queries", "err", err)
		}
		deps.ListingCache = redisinfra.NewListingCache(rdb, cfg.ListingCacheTTL)
	}

	if cfg.ListingEventsTopicARN != "" {
		pub, err := sns.NewEventPublisher(cfg)
		if err != nil {
			slog.Warn("listing events disabled", "err", err)
		} else {
			deps.Events = pub
		}
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      transporthttp.NewRouter(cfg, deps),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.AppPort, "env", cfg.AppEnv,
			"store", cfg.StoreDriver, "images", cfg.ImageStore, "mail", cfg.MailDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal("server", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "err", err)
		return
	}
	slog.Info("server stopped")
}

func newLogger(cfg *config.Config) *slog.Logger {
	if cfg.IsDevelopment() {
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

func fatal(what string, err error) {
	slog.Error(what, "err", err)
	os.Exit(1)
}
