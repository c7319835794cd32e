package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/V4T54L/docqa/internal/adapter/metrics"
	"github.com/V4T54L/docqa/internal/adapter/repository/postgres"
	redisrepo "github.com/V4T54L/docqa/internal/adapter/repository/redis"
	"github.com/V4T54L/docqa/internal/pkg/config"
	"github.com/V4T54L/docqa/internal/pkg/logger"
	"github.com/V4T54L/docqa/internal/usecase"
)

const processingInterval = 1 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)
	log.Info("starting audit consumer")

	if cfg.RedisAddr == "" || cfg.PostgresURL == "" {
		log.Error("REDIS_ADDR and POSTGRES_URL are required for the audit consumer")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to Redis
	redisOpts, err := redis.ParseURL(cfg.RedisAddr)
	if err != nil {
		log.Error("failed to parse redis url", "error", err)
		os.Exit(1)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	log.Info("connected to redis")

	// Connect to PostgreSQL
	db, err := sql.Open("postgres", cfg.PostgresURL)
	if err != nil {
		log.Error("failed to open postgres connection", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	log.Info("connected to postgres")

	// Create a unique consumer name for this instance
	consumerName, err := os.Hostname()
	if err != nil {
		log.Warn("could not get hostname for consumer name, using default", "error", err)
		consumerName = "audit-consumer-default"
	}

	// Instantiate repositories
	m := metrics.New(prometheus.NewRegistry())
	buffer := redisrepo.NewAuditRepository(redisClient, log, m, cfg.AuditStream, cfg.AuditDLQStream, cfg.AuditGroup, nil)
	sink := postgres.NewAuditRepository(db, log)
	if err := sink.EnsureSchema(ctx); err != nil {
		log.Error("failed to prepare audit schema", "error", err)
		os.Exit(1)
	}

	processor := usecase.NewProcessAuditUseCase(buffer, sink, log, cfg.AuditGroup, consumerName, cfg.ConsumerRetries, cfg.ConsumerRetryBackoff)
	processor.SetBatchSize(cfg.ConsumerBatchSize)

	ticker := time.NewTicker(processingInterval)
	defer ticker.Stop()

	log.Info("audit consumer started", "stream", cfg.AuditStream, "group", cfg.AuditGroup, "consumer", consumerName)

Loop:
	for {
		select {
		case <-ticker.C:
			// Drain everything available before waiting for the next tick.
			for {
				n, err := processor.ProcessBatch(ctx)
				if err != nil {
					log.Error("error processing audit batch", "error", err)
					break
				}
				if n == 0 {
					break
				}
			}
		case <-ctx.Done():
			log.Info("context cancelled, shutting down consumer loop")
			break Loop
		}
	}

	log.Info("audit consumer shut down gracefully")
}
