package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wonny/kairos/pkg/config"
)

// connectTimeout bounds the startup ping.
const connectTimeout = 5 * time.Second

// DB owns the connection pool shared by every repository.
// ⭐ SSOT: DB 연결은 이 패키지에서만 생성
type DB struct {
	Pool *pgxpool.Pool
}

// New opens the pool and verifies the connection before returning.
// ⭐ SSOT: 유일하게 pgxpool.New()를 호출하는 함수
func New(cfg *config.Config) (*DB, error) {
	pc, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	pc.MaxConns = int32(cfg.Database.MaxConns)
	pc.MinConns = int32(cfg.Database.MinConns)
	pc.MaxConnLifetime = cfg.Database.MaxConnLifetime
	pc.MaxConnIdleTime = cfg.Database.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(context.Background(), pc)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// 기동 시점에 연결 불가면 바로 실패시킨다
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.Pool != nil {
		db.Pool.Close()
	}
}

// Ping checks if the database is reachable
func (db *DB) Ping(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}

// Health is a point-in-time view of the pool for the doctor command.
type Health struct {
	Latency time.Duration `json:"latency"`
	InUse   int32         `json:"in_use"`
	Idle    int32         `json:"idle"`
	Max     int32         `json:"max"`
}

// Health pings the database and reports connection usage.
func (db *DB) Health(ctx context.Context) (Health, error) {
	start := time.Now()
	if err := db.Pool.Ping(ctx); err != nil {
		return Health{}, err
	}

	stats := db.Pool.Stat()
	return Health{
		Latency: time.Since(start),
		InUse:   stats.AcquiredConns(),
		Idle:    stats.IdleConns(),
		Max:     stats.MaxConns(),
	}, nil
}
