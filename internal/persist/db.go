package persist

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/l1jgo/uiasset/internal/config"
	"go.uber.org/zap"
)

const (
	// 一條給 goose（OpenDBFromPool 會佔用），至少一條給 blob 讀取。
	minBlobConns = 2
	// blob 讀取是突發的（開場預載、切場景），閒置連線不需要長留。
	blobConnIdleTime = 5 * time.Minute
	blobHealthCheck  = time.Minute

	applicationName = "uiasset"
)

// DB 包裝 blob 倉儲使用的 pgx 連線池。
type DB struct {
	Pool *pgxpool.Pool
	log  *zap.Logger
}

func NewDB(ctx context.Context, cfg config.DatabaseConfig, log *zap.Logger) (*DB, error) {
	poolCfg, err := poolConfig(cfg)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to db: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	log.Info("blob store connected",
		zap.Int32("max_conns", poolCfg.MaxConns),
		zap.Int32("min_conns", poolCfg.MinConns),
		zap.Duration("conn_max_lifetime", poolCfg.MaxConnLifetime),
		zap.Duration("conn_max_idle", poolCfg.MaxConnIdleTime),
	)
	return &DB{Pool: pool, log: log}, nil
}

// poolConfig 依設定調整連線池大小。
// MinConns 不得超過 MaxConns；MaxConns 至少 minBlobConns，
// 否則 migration 期間 blob 讀取會卡住。
func poolConfig(cfg config.DatabaseConfig) (*pgxpool.Config, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	maxConns := cfg.MaxOpenConns
	if maxConns < minBlobConns {
		maxConns = minBlobConns
	}
	minConns := cfg.MaxIdleConns
	if minConns < 0 {
		minConns = 0
	}
	if minConns > maxConns {
		minConns = maxConns
	}
	poolCfg.MaxConns = int32(maxConns)
	poolCfg.MinConns = int32(minConns)
	if cfg.ConnMaxLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime
	}
	poolCfg.MaxConnIdleTime = blobConnIdleTime
	poolCfg.HealthCheckPeriod = blobHealthCheck

	// 方便在 pg_stat_activity 分辨 UI 資源連線
	if _, ok := poolCfg.ConnConfig.RuntimeParams["application_name"]; !ok {
		poolCfg.ConnConfig.RuntimeParams["application_name"] = applicationName
	}
	return poolCfg, nil
}

func (db *DB) Close() {
	db.Pool.Close()
}
