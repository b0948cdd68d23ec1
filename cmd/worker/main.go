package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/nool-retail/backend-nool/internal/catalog"
	"github.com/nool-retail/backend-nool/internal/config"
	"github.com/nool-retail/backend-nool/internal/lock"
	"github.com/nool-retail/backend-nool/internal/obs"
	"github.com/nool-retail/backend-nool/internal/order"
	"github.com/nool-retail/backend-nool/internal/reconcile"
)

// The worker periodically sweeps all orders, validating stored pricing
// against the current catalog and repairing drifted orders when auto-repair
// is enabled.
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("component", "worker").Logger()

	obs.MustRegisterDomainMetrics(envOrDefault("OBS_METRICS_NAMESPACE", "nool"), nil)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool := mustInitDatabase(ctx, cfg, logger)
	defer pool.Close()

	redisClient := mustInitRedis(ctx, cfg, logger)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()

	svc := &reconcile.Service{
		Orders:      &order.Store{Pool: pool},
		Catalog:     catalog.NewStore(pool, catalog.NewCache(redisClient, cfg.SnapshotCacheTTL)),
		Locker:      lock.Locker{R: redisClient, TTL: 30 * time.Second},
		Tolerance:   toleranceFrom(cfg.PriceTolerance),
		Concurrency: cfg.AuditConcurrency,
		Logger:      logger,
	}

	logger.Info().
		Dur("interval", cfg.AuditInterval).
		Bool("auto_repair", cfg.AuditAutoRepair).
		Msg("audit worker starting")

	runSweep(ctx, svc, cfg, logger)

	ticker := time.NewTicker(cfg.AuditInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("audit worker shutdown complete")
			return
		case <-ticker.C:
			runSweep(ctx, svc, cfg, logger)
		}
	}
}

// runSweep pages through every order once.
func runSweep(ctx context.Context, svc *reconcile.Service, cfg *config.Config, logger zerolog.Logger) {
	start := time.Now()
	var checked, drifted, errored, repaired int
	cursor := ""
	for {
		result, err := svc.AuditBatch(ctx, cursor, cfg.AuditBatchSize, cfg.AuditAutoRepair, reconcile.Options{})
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				logger.Error().Err(err).Str("cursor", cursor).Msg("audit batch failed")
			}
			return
		}
		checked += result.Checked
		drifted += result.Drifted
		errored += result.Errored
		repaired += result.Repaired
		if result.Checked == 0 || result.NextCursor == "" {
			break
		}
		cursor = result.NextCursor
	}
	logger.Info().
		Int("checked", checked).
		Int("drifted", drifted).
		Int("errored", errored).
		Int("repaired", repaired).
		Dur("took", time.Since(start)).
		Msg("audit sweep complete")
}

func toleranceFrom(v float64) decimal.Decimal {
	if v <= 0 {
		return decimal.Decimal{}
	}
	return decimal.NewFromFloat(v)
}

func mustInitDatabase(ctx context.Context, cfg *config.Config, logger zerolog.Logger) *pgxpool.Pool {
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse database config")
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = "nool-worker"
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	if err := pool.Ping(ctx); err != nil {
		logger.Fatal().Err(err).Msg("ping database")
	}
	return pool
}

func mustInitRedis(ctx context.Context, cfg *config.Config, logger zerolog.Logger) *redis.Client {
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisotel.InstrumentTracing(redisClient); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}
	return redisClient
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}
