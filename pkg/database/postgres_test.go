package database

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/wonny/kairos/pkg/config"
)

// openTestDB connects using the environment, or skips when no database
// is available (로컬 개발 환경에서만 도는 통합 테스트).
func openTestDB(t *testing.T) *DB {
	t.Helper()

	if os.Getenv("DATABASE_URL") == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	db, err := New(cfg)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(db.Close)

	return db
}

func TestNew_PingsOnStartup(t *testing.T) {
	db := openTestDB(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.Ping(ctx); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}

func TestNew_InvalidURL(t *testing.T) {
	cfg := &config.Config{
		Database: config.DatabaseConfig{
			URL:             "invalid://url",
			MaxConns:        10,
			MinConns:        2,
			MaxConnLifetime: time.Hour,
			MaxConnIdleTime: 30 * time.Minute,
		},
	}

	if _, err := New(cfg); err == nil {
		t.Error("New() with invalid URL returned nil error")
	}
}

func TestHealth_ReportsPoolUsage(t *testing.T) {
	db := openTestDB(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	h, err := db.Health(ctx)
	if err != nil {
		t.Fatalf("Health() error = %v", err)
	}
	if h.Max == 0 {
		t.Error("Health().Max = 0, want configured pool size")
	}
	if h.Latency <= 0 {
		t.Errorf("Health().Latency = %v, want > 0", h.Latency)
	}
}

func TestClose_Idempotent(t *testing.T) {
	db := openTestDB(t)

	// Cleanup과 중복 호출되어도 패닉 없이 끝나야 함
	db.Close()
	db.Close()
}
