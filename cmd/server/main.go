package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/V4T54L/docqa/internal/adapter/api"
	"github.com/V4T54L/docqa/internal/adapter/metrics"
	"github.com/V4T54L/docqa/internal/adapter/pii"
	"github.com/V4T54L/docqa/internal/adapter/repository/postgres"
	redisrepo "github.com/V4T54L/docqa/internal/adapter/repository/redis"
	"github.com/V4T54L/docqa/internal/adapter/repository/wal"
	"github.com/V4T54L/docqa/internal/domain"
	"github.com/V4T54L/docqa/internal/pkg/config"
	"github.com/V4T54L/docqa/internal/pkg/logger"
	"github.com/V4T54L/docqa/internal/search"
	"github.com/V4T54L/docqa/internal/store"
	"github.com/V4T54L/docqa/internal/tenant"
	"github.com/V4T54L/docqa/internal/usecase"

	_ "github.com/lib/pq" // postgres driver for TENANT_SOURCE=postgres
)

const redisHealthInterval = 5 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logger.New(cfg.LogLevel)
	slog.SetDefault(logger)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// --- Graceful Shutdown Context ---
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Tenants and Documents ---
	table, err := loadTenantTable(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to load tenant table", "error", err)
		os.Exit(1)
	}
	registry, err := tenant.NewRegistry(table)
	if err != nil {
		logger.Error("invalid tenant table", "error", err)
		os.Exit(1)
	}
	logger.Info("tenant registry ready", "tenants", len(registry.TenantIDs()), "source", cfg.TenantSource)

	docs := store.New(cfg.DocumentsBasePath, logger, m)
	if err := docs.LoadAll(ctx, registry.TenantIDs(), cfg.LoadConcurrency); err != nil {
		logger.Error("failed to load tenant documents", "error", err)
		os.Exit(1)
	}

	var engine search.Engine
	switch cfg.SearchEngine {
	case config.EngineSemantic:
		engine = search.NewSemanticEngine(docs, cfg.SemanticMinSimilarity, logger, m)
	default:
		engine = search.NewKeywordEngine(docs, logger, m)
	}
	logger.Info("search engine selected", "engine", engine.Name())

	// --- Optional Redis Collaborators ---
	askOpts := []usecase.AskOption{usecase.WithMetrics(m)}
	var (
		publisher domain.ReloadPublisher
		bus       *redisrepo.ReloadBus
		streamUC  *usecase.AdminStreamUseCase
	)
	if cfg.RedisAddr != "" {
		redisOpts, err := redis.ParseURL(cfg.RedisAddr)
		if err != nil {
			logger.Error("failed to parse redis url", "error", err)
			os.Exit(1)
		}
		redisClient := redis.NewClient(redisOpts)
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn("could not connect to redis, audit events will go to the WAL", "error", err)
		}

		walRepo, err := wal.NewWALRepository(cfg.WALPath, cfg.WALSegmentSize, cfg.WALMaxDiskSize, logger)
		if err != nil {
			logger.Error("failed to initialize WAL repository", "error", err)
			os.Exit(1)
		}
		defer walRepo.Close()

		auditRepo := redisrepo.NewAuditRepository(redisClient, logger, m, cfg.AuditStream, cfg.AuditDLQStream, cfg.AuditGroup, walRepo)
		go auditRepo.StartHealthCheck(ctx, redisHealthInterval)

		redactor := pii.NewRedactor(cfg.AuditRedact, logger)
		askOpts = append(askOpts,
			usecase.WithAnswerCache(redisrepo.NewAnswerCache(redisClient), cfg.AnswerCacheTTL),
			usecase.WithAuditTrail(usecase.NewAuditTrailUseCase(auditRepo, redactor, logger)),
		)

		bus = redisrepo.NewReloadBus(redisClient, redisrepo.DefaultReloadChannel, logger)
		publisher = bus
		streamUC = usecase.NewAdminStreamUseCase(redisrepo.NewAdminRepository(redisClient, logger), cfg.AuditStream, cfg.AuditDLQStream)
	}

	reloadUC := usecase.NewReloadUseCase(docs, registry, publisher, logger)
	if bus != nil {
		go func() {
			if err := bus.Subscribe(ctx, reloadUC.ApplyRemote); err != nil {
				logger.Error("reload subscription stopped", "error", err)
			}
		}()
	}
	askUC := usecase.NewAskUseCase(engine, docs, logger, askOpts...)

	// --- Start Admin and Metrics Server ---
	adminServer := &http.Server{
		Addr:    cfg.AdminAddr,
		Handler: api.NewAdminRouter(reloadUC, streamUC, reg, cfg.AdminJWTSecret, logger),
	}
	go func() {
		logger.Info("starting admin & metrics server", "addr", adminServer.Addr)
		if err := adminServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("admin & metrics server failed", "error", err)
		}
	}()

	// --- Start API Server ---
	apiServer := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      api.NewRouter(cfg, logger, m, registry, docs, askUC),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		logger.Info("starting api server", "addr", apiServer.Addr, "tenants_loaded", docs.LoadedTenantCount())
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("api server failed", "error", err)
			stop() // Trigger shutdown on server error
		}
	}()

	// --- Wait for shutdown signal ---
	<-ctx.Done()
	logger.Info("shutting down servers...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := adminServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("admin server shutdown failed", "error", err)
	}
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("api server shutdown failed", "error", err)
	}

	logger.Info("servers shut down gracefully")
}

// loadTenantTable builds the credential table from the configured source and
// overlays the optional tenants file.
func loadTenantTable(ctx context.Context, cfg *config.Config, logger *slog.Logger) (tenant.Table, error) {
	var table tenant.Table

	switch cfg.TenantSource {
	case config.TenantSourcePostgres:
		db, err := sql.Open("postgres", cfg.PostgresURL)
		if err != nil {
			return tenant.Table{}, err
		}
		defer db.Close()

		repo := postgres.NewTenantRepository(db, logger)
		if err := repo.EnsureSchema(ctx); err != nil {
			return tenant.Table{}, err
		}
		if table, err = repo.LoadTable(ctx); err != nil {
			return tenant.Table{}, err
		}
	default:
		table = tenant.Table{Keys: cfg.TenantAPIKeys, DisplayNames: cfg.TenantDisplayNames}
	}

	if cfg.TenantsFile != "" {
		fileTable, err := tenant.LoadFile(cfg.TenantsFile)
		if err != nil {
			return tenant.Table{}, err
		}
		if err := table.Merge(fileTable); err != nil {
			return tenant.Table{}, err
		}
		logger.Info("merged tenants file", "path", cfg.TenantsFile, "keys", len(fileTable.Keys))
	}
	return table, nil
}
