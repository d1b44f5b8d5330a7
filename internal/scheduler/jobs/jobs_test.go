package jobs

import (
	"testing"
	"time"

	"github.com/wonny/kairos/internal/strategyconfig"
	"github.com/wonny/kairos/pkg/config"
	"github.com/wonny/kairos/pkg/logger"
)

func testEngine() config.EngineConfig {
	return config.EngineConfig{
		ScanInterval: 5 * time.Minute,
		MarketOpen:   "09:30",
		MarketClose:  "16:00",
	}
}

func TestScanJobSchedule(t *testing.T) {
	job, err := NewScanJob(nil, strategyconfig.Default(), testEngine(), nil, logger.NewNop())
	if err != nil {
		t.Fatalf("NewScanJob: %v", err)
	}

	if got := job.Schedule(); got != "0 */5 * * * 1-5" {
		t.Errorf("Schedule() = %q", got)
	}
}

func TestScanJobScheduleMinimumInterval(t *testing.T) {
	eng := testEngine()
	eng.ScanInterval = 10 * time.Second

	job, err := NewScanJob(nil, strategyconfig.Default(), eng, nil, logger.NewNop())
	if err != nil {
		t.Fatalf("NewScanJob: %v", err)
	}

	if got := job.Schedule(); got != "0 */1 * * * 1-5" {
		t.Errorf("Schedule() = %q", got)
	}
}

func TestWithinMarketHours(t *testing.T) {
	job, err := NewScanJob(nil, strategyconfig.Default(), testEngine(), nil, logger.NewNop())
	if err != nil {
		t.Fatalf("NewScanJob: %v", err)
	}

	ny := job.location

	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"mid session", time.Date(2026, 3, 2, 11, 0, 0, 0, ny), true},  // Monday
		{"at open", time.Date(2026, 3, 2, 9, 30, 0, 0, ny), true},
		{"before open", time.Date(2026, 3, 2, 9, 29, 0, 0, ny), false},
		{"at close", time.Date(2026, 3, 2, 16, 0, 0, 0, ny), false},
		{"saturday", time.Date(2026, 3, 7, 11, 0, 0, 0, ny), false},
		{"sunday", time.Date(2026, 3, 8, 11, 0, 0, 0, ny), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := job.withinMarketHours(tt.at); got != tt.want {
				t.Errorf("withinMarketHours(%s) = %v, want %v", tt.at, got, tt.want)
			}
		})
	}
}

func TestRolloverJobSchedule(t *testing.T) {
	job, err := NewRolloverJob(nil, strategyconfig.Default(), testEngine(), logger.NewNop())
	if err != nil {
		t.Fatalf("NewRolloverJob: %v", err)
	}

	want := "CRON_TZ=America/New_York 0 30 9 * * 1-5"
	if got := job.Schedule(); got != want {
		t.Errorf("Schedule() = %q, want %q", got, want)
	}
}
