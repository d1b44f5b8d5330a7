package scheduler

import (
	"context"
	"time"
)

// Job is a unit of scheduled work.
// ⭐ SSOT: 스케줄 작업 인터페이스는 여기서만 정의
type Job interface {
	// Name returns the job name
	Name() string

	// Run executes the job
	Run(ctx context.Context) error

	// Schedule returns the cron expression, seconds field included.
	// 예: "0 */5 * * * 1-5" (주중 5분 간격)
	Schedule() string
}

// JobRun records one execution, retries included.
type JobRun struct {
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Attempts  int           `json:"attempts"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
}

// JobStatus is the operator-facing snapshot of one registered job.
// /api/jobs와 status 표면이 소비
type JobStatus struct {
	Name     string  `json:"name"`
	Schedule string  `json:"schedule"`
	Runs     int     `json:"runs"`
	Failures int     `json:"failures"`
	LastRun  *JobRun `json:"last_run,omitempty"`
}

// Failing reports whether the most recent run ended in failure.
func (s JobStatus) Failing() bool {
	return s.LastRun != nil && !s.LastRun.Success
}
