package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/kairos/internal/pipeline"
	"github.com/wonny/kairos/internal/strategyconfig"
	"github.com/wonny/kairos/pkg/config"
	"github.com/wonny/kairos/pkg/logger"
	"github.com/wonny/kairos/pkg/redis"
)

// ScanJob runs one decision cycle on the configured interval.
// 장중에만 실행, 장외 틱은 조용히 스킵
type ScanJob struct {
	pipeline *pipeline.Pipeline
	rules    *strategyconfig.Config
	engine   config.EngineConfig
	cache    *redis.Cache
	logger   *logger.Logger

	location *time.Location
}

// NewScanJob creates a scan job. The rules timezone must already be
// validated by strategyconfig.
func NewScanJob(p *pipeline.Pipeline, rules *strategyconfig.Config, engine config.EngineConfig, cache *redis.Cache, log *logger.Logger) (*ScanJob, error) {
	loc, err := time.LoadLocation(rules.Meta.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %s: %w", rules.Meta.Timezone, err)
	}

	return &ScanJob{
		pipeline: p,
		rules:    rules,
		engine:   engine,
		cache:    cache,
		logger:   log,
		location: loc,
	}, nil
}

// Name returns the job name
func (j *ScanJob) Name() string {
	return "decision_scan"
}

// Schedule returns the cron schedule derived from the scan interval
func (j *ScanJob) Schedule() string {
	minutes := int(j.engine.ScanInterval.Minutes())
	if minutes < 1 {
		minutes = 1
	}
	return fmt.Sprintf("0 */%d * * * 1-5", minutes)
}

// Run executes one cycle if the exchange is open
func (j *ScanJob) Run(ctx context.Context) error {
	now := time.Now().In(j.location)

	if !j.withinMarketHours(now) {
		j.logger.WithField("time", now.Format("15:04")).Debug("Outside market hours, skipping scan")
		return nil
	}

	result, err := j.pipeline.RunCycle(ctx, now)
	if err != nil {
		return fmt.Errorf("run cycle: %w", err)
	}

	// 마지막 사이클 요약은 캐시에만 (상세는 DB)
	if err := j.cache.Set(ctx, redis.KeyLastCycle, result, redis.TTLLastCycle); err != nil {
		j.logger.WithError(err).Warn("Failed to cache cycle summary")
	}

	j.logger.WithFields(map[string]interface{}{
		"cycle_id": result.CycleID,
		"mode":     result.Mode,
		"accepted": result.Accepted,
		"rejected": result.Rejected,
		"exits":    result.Exits,
	}).Info("Scan cycle completed")

	return nil
}

// withinMarketHours checks the clock against the configured session
func (j *ScanJob) withinMarketHours(now time.Time) bool {
	if now.Weekday() == time.Saturday || now.Weekday() == time.Sunday {
		return false
	}

	open, err := parseClock(j.engine.MarketOpen, now, j.location)
	if err != nil {
		j.logger.WithError(err).Error("Invalid market open time")
		return false
	}
	close_, err := parseClock(j.engine.MarketClose, now, j.location)
	if err != nil {
		j.logger.WithError(err).Error("Invalid market close time")
		return false
	}

	return !now.Before(open) && now.Before(close_)
}

// parseClock anchors an "HH:MM" string to the given day
func parseClock(clock string, day time.Time, loc *time.Location) (time.Time, error) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, loc), nil
}
