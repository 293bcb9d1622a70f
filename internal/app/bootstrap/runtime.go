package bootstrap

import (
	"context"
	"crypto/tls"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/wellness-companion/internal/api/router"
	appconfig "github.com/wolfman30/wellness-companion/internal/config"
	"github.com/wolfman30/wellness-companion/pkg/logging"
)

// Runtime holds the process-wide connections. Any of them may be nil when the
// matching setting is empty or the backend was unreachable at startup.
type Runtime struct {
	Pool  *pgxpool.Pool
	SQLDB *sql.DB
	Redis *redis.Client
}

// BuildRuntime opens Postgres (pgx pool and database/sql handle) and Redis.
func BuildRuntime(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) *Runtime {
	if logger == nil {
		logger = logging.Default()
	}
	rt := &Runtime{
		Pool:  BuildPostgresPool(ctx, cfg, logger),
		Redis: BuildRedisClient(ctx, cfg, logger, true),
	}
	if rt.Pool != nil {
		sqlDB, err := OpenSQLDB(cfg)
		if err != nil {
			logger.Warn("database/sql handle unavailable", "error", err)
		} else {
			rt.SQLDB = sqlDB
		}
	}
	return rt
}

// HealthChecks returns a ping per configured backend.
func (rt *Runtime) HealthChecks() map[string]router.HealthCheck {
	checks := map[string]router.HealthCheck{}
	if rt == nil {
		return checks
	}
	if rt.Pool != nil {
		checks["postgres"] = func(ctx context.Context) error { return rt.Pool.Ping(ctx) }
	}
	if rt.Redis != nil {
		checks["redis"] = func(ctx context.Context) error { return rt.Redis.Ping(ctx).Err() }
	}
	return checks
}

// Close releases every open connection.
func (rt *Runtime) Close() {
	if rt == nil {
		return
	}
	if rt.Redis != nil {
		_ = rt.Redis.Close()
	}
	if rt.SQLDB != nil {
		_ = rt.SQLDB.Close()
	}
	if rt.Pool != nil {
		rt.Pool.Close()
	}
}

// BuildPostgresPool connects a pgx pool or returns nil when DATABASE_URL is
// empty or the database cannot be reached.
func BuildPostgresPool(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) *pgxpool.Pool {
	if cfg == nil || strings.TrimSpace(cfg.DatabaseURL) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(connectCtx, cfg.DatabaseURL)
	if err != nil {
		logger.Warn("postgres pool not created", "error", err)
		return nil
	}
	if err := pool.Ping(connectCtx); err != nil {
		logger.Warn("postgres not available", "error", err)
		pool.Close()
		return nil
	}
	return pool
}

// OpenSQLDB opens the database/sql handle used by the safety stores.
func OpenSQLDB(cfg *appconfig.Config) (*sql.DB, error) {
	if cfg == nil || strings.TrimSpace(cfg.DatabaseURL) == "" {
		return nil, fmt.Errorf("bootstrap: DATABASE_URL is empty")
	}
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: open sql db: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return db, nil
}

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}
