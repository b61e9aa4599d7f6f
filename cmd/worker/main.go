package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/jmoiron/sqlx"

	"github.com/salonkit/salon-api/internal/repository/postgres"
	"github.com/salonkit/salon-api/pkg/logger"
	"github.com/salonkit/salon-api/pkg/messaging/redis"
	"github.com/salonkit/salon-api/pkg/metrics"
	"github.com/salonkit/salon-api/pkg/worker"
)

// workerConfig is environment-driven so the worker can run standalone
// without a config file.
type workerConfig struct {
	DatabaseURL  string        `envconfig:"DATABASE_URL" required:"true"`
	RedisAddr    string        `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisDB      int           `envconfig:"REDIS_DB" default:"0"`
	BatchSize    int           `envconfig:"OUTBOX_BATCH_SIZE" default:"100"`
	PollInterval time.Duration `envconfig:"OUTBOX_POLL_INTERVAL" default:"5s"`
	HealthPort   int           `envconfig:"HEALTH_PORT" default:"8081"`
}

func setupHealthCheck(port int, appLogger *logger.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	go func() {
		if err := http.ListenAndServe(fmt.Sprintf(":%d", port), mux); err != nil {
			appLogger.Fatal(err, "health check server failed")
		}
	}()
}

func main() {
	var cfg workerConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	appLogger := logger.NewLogger(nil)

	db, err := sqlx.Connect("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	broker, err := redis.NewRedisBroker(redis.Config{
		Addr: cfg.RedisAddr,
		DB:   cfg.RedisDB,
	}, &log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create Redis broker")
	}
	defer broker.Close()

	outboxRepo := postgres.NewOutboxRepository(db)

	processor := worker.NewOutboxProcessor(
		outboxRepo,
		broker,
		worker.OutboxProcessorConfig{
			BatchSize:    cfg.BatchSize,
			PollInterval: cfg.PollInterval,
		},
		appLogger,
		metrics.NewMetrics("salon_worker"),
	)

	setupHealthCheck(cfg.HealthPort, appLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		appLogger.Info("shutting down...")
		cancel()
	}()

	processor.Start(ctx)
}
