package jobs

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wonny/kairos/internal/pipeline"
	"github.com/wonny/kairos/internal/strategyconfig"
	"github.com/wonny/kairos/pkg/config"
	"github.com/wonny/kairos/pkg/logger"
)

// RolloverJob marks the start of each trading day.
// 일일 손실 브레이커 해제와 기준 자산 리셋은 여기서만 트리거된다.
type RolloverJob struct {
	pipeline *pipeline.Pipeline
	engine   config.EngineConfig
	timezone string
	logger   *logger.Logger

	location *time.Location
}

// NewRolloverJob creates a day rollover job
func NewRolloverJob(p *pipeline.Pipeline, rules *strategyconfig.Config, engine config.EngineConfig, log *logger.Logger) (*RolloverJob, error) {
	loc, err := time.LoadLocation(rules.Meta.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %s: %w", rules.Meta.Timezone, err)
	}

	return &RolloverJob{
		pipeline: p,
		engine:   engine,
		timezone: rules.Meta.Timezone,
		logger:   log,
		location: loc,
	}, nil
}

// Name returns the job name
func (j *RolloverJob) Name() string {
	return "day_rollover"
}

// Schedule fires at market open in the exchange timezone
func (j *RolloverJob) Schedule() string {
	parts := strings.SplitN(j.engine.MarketOpen, ":", 2)
	if len(parts) != 2 {
		// 설정 오류는 AddJob 단계에서 cron 파서가 거부하게 둔다
		return "invalid"
	}
	hour := strings.TrimLeft(parts[0], "0")
	if hour == "" {
		hour = "0"
	}
	minute := strings.TrimLeft(parts[1], "0")
	if minute == "" {
		minute = "0"
	}
	return fmt.Sprintf("CRON_TZ=%s 0 %s %s * * 1-5", j.timezone, minute, hour)
}

// Run rolls the risk manager over to a new trading day
func (j *RolloverJob) Run(ctx context.Context) error {
	day := time.Now().In(j.location)
	j.pipeline.Rollover(ctx, day)

	j.logger.WithField("day", day.Format("2006-01-02")).Info("Trading day started")
	return nil
}
