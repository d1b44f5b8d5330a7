package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/wonny/kairos/pkg/logger"
)

// jobState pairs a job with its execution bookkeeping.
type jobState struct {
	job      Job
	runs     int
	failures int
	lastRun  *JobRun
}

// Scheduler drives registered jobs off cron expressions and keeps
// per-job run statistics for the status surface.
// ⭐ SSOT: 스케줄 관리는 이 스케줄러에서만
type Scheduler struct {
	cron   *cron.Cron
	logger *logger.Logger
	states map[string]*jobState
	mu     sync.RWMutex

	maxAttempts int
	retryDelay  time.Duration
}

// New creates a scheduler. 실패한 실행은 30초 간격으로 최대 3회 시도.
func New(log *logger.Logger) *Scheduler {
	return &Scheduler{
		cron:        cron.New(cron.WithSeconds()),
		logger:      log,
		states:      make(map[string]*jobState),
		maxAttempts: 3,
		retryDelay:  30 * time.Second,
	}
}

// AddJob registers a job under its cron schedule.
func (s *Scheduler) AddJob(job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := job.Name()
	if _, exists := s.states[name]; exists {
		return fmt.Errorf("job %s already registered", name)
	}

	state := &jobState{job: job}
	if _, err := s.cron.AddFunc(job.Schedule(), func() {
		s.execute(state)
	}); err != nil {
		return fmt.Errorf("failed to schedule job %s: %w", name, err)
	}
	s.states[name] = state

	s.logger.WithFields(map[string]interface{}{
		"job":      name,
		"schedule": job.Schedule(),
	}).Info("Job registered")

	return nil
}

// Start begins firing schedules.
func (s *Scheduler) Start() {
	s.logger.Info("Starting scheduler")
	s.cron.Start()
}

// Stop halts the schedule and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler")
	<-s.cron.Stop().Done()
	s.logger.Info("Scheduler stopped")
}

// RunNow triggers a job outside its schedule. 수동 스캔 트리거용;
// 실행은 비동기, 결과는 Snapshot으로 확인한다.
func (s *Scheduler) RunNow(name string) error {
	s.mu.RLock()
	state, exists := s.states[name]
	s.mu.RUnlock()

	if !exists {
		return fmt.Errorf("job %s not found", name)
	}

	go s.execute(state)
	return nil
}

// Snapshot returns the run statistics of every registered job,
// sorted by name.
func (s *Scheduler) Snapshot() []JobStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	statuses := make([]JobStatus, 0, len(s.states))
	for name, state := range s.states {
		status := JobStatus{
			Name:     name,
			Schedule: state.job.Schedule(),
			Runs:     state.runs,
			Failures: state.failures,
		}
		if state.lastRun != nil {
			run := *state.lastRun
			status.LastRun = &run
		}
		statuses = append(statuses, status)
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].Name < statuses[j].Name })

	return statuses
}

// execute runs one job with retries and records the outcome.
func (s *Scheduler) execute(state *jobState) {
	name := state.job.Name()
	started := time.Now()

	s.logger.WithField("job", name).Info("Job started")

	run := JobRun{StartedAt: started}
	var lastErr error

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		run.Attempts = attempt

		if lastErr = state.job.Run(context.Background()); lastErr == nil {
			run.Success = true
			break
		}

		s.logger.WithFields(map[string]interface{}{
			"job":     name,
			"attempt": attempt,
			"error":   lastErr.Error(),
		}).Warn("Job execution failed")

		if attempt < s.maxAttempts {
			time.Sleep(s.retryDelay)
		}
	}

	run.Duration = time.Since(started)
	if !run.Success {
		run.Error = lastErr.Error()
	}

	s.mu.Lock()
	state.runs++
	if !run.Success {
		state.failures++
	}
	state.lastRun = &run
	s.mu.Unlock()

	if run.Success {
		s.logger.WithFields(map[string]interface{}{
			"job":      name,
			"duration": run.Duration,
			"attempts": run.Attempts,
		}).Info("Job completed")
	} else {
		s.logger.WithFields(map[string]interface{}{
			"job":      name,
			"duration": run.Duration,
			"error":    run.Error,
		}).Error("Job failed after all attempts")
	}
}
