package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/kairos/internal/risk"
	"github.com/wonny/kairos/internal/scheduler"
	"github.com/wonny/kairos/internal/store"
	"github.com/wonny/kairos/pkg/logger"
	"github.com/wonny/kairos/pkg/redis"
)

// JobReporter is the slice of the scheduler the API consumes.
// api 커맨드처럼 스케줄러 없는 프로세스는 nil로 둔다.
type JobReporter interface {
	Snapshot() []scheduler.JobStatus
	RunNow(name string) error
}

// StatusHandler exposes engine state to operators
// ⭐ SSOT: 상태 조회 API 핸들러는 이 구조체에서만
type StatusHandler struct {
	risk    *risk.Manager
	cache   *redis.Cache
	intents *store.IntentRepository
	events  *store.EventRepository
	jobs    JobReporter
	logger  *logger.Logger
}

// NewStatusHandler creates a status handler
func NewStatusHandler(rm *risk.Manager, cache *redis.Cache, intents *store.IntentRepository, events *store.EventRepository, jobs JobReporter, log *logger.Logger) *StatusHandler {
	return &StatusHandler{
		risk:    rm,
		cache:   cache,
		intents: intents,
		events:  events,
		jobs:    jobs,
		logger:  log,
	}
}

// GetStatus returns breaker mode, risk level and portfolio totals
// GET /api/status
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	view := h.risk.View()

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"mode":             h.risk.Mode(),
		"risk_status":      h.risk.Status(),
		"equity":           view.Equity,
		"cash":             view.Cash,
		"day_start_equity": view.DayStartEquity,
		"daily_pnl":        view.DailyPnL,
		"peak_equity":      view.PeakEquity,
		"drawdown":         view.Drawdown,
		"positions":        view.TotalPositions(),
		"stock_positions":  view.StockCount,
		"option_positions": view.OptionCount,
	})
}

// GetPositions returns the open book
// GET /api/positions
func (h *StatusHandler) GetPositions(w http.ResponseWriter, r *http.Request) {
	view := h.risk.View()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"positions":       view.Positions,
		"sector_notional": view.SectorNotional,
	})
}

// GetLastCycle returns the most recent cycle summary from cache
// GET /api/cycles/last
func (h *StatusHandler) GetLastCycle(w http.ResponseWriter, r *http.Request) {
	var summary json.RawMessage
	found, err := h.cache.Get(r.Context(), redis.KeyLastCycle, &summary)
	if err != nil {
		h.logger.WithError(err).Error("Failed to read cycle cache")
		respondError(w, http.StatusInternalServerError, "cache unavailable")
		return
	}
	if !found {
		respondError(w, http.StatusNotFound, "no cycle recorded yet")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(summary)
}

// GetIntents returns every intent for one cycle
// GET /api/intents/{cycle}
func (h *StatusHandler) GetIntents(w http.ResponseWriter, r *http.Request) {
	cycleID := mux.Vars(r)["cycle"]

	intents, err := h.intents.IntentsByCycle(r.Context(), cycleID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to query intents")
		respondError(w, http.StatusInternalServerError, "query failed")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"cycle_id": cycleID,
		"intents":  intents,
	})
}

// GetEvents returns risk events, default last 24h
// GET /api/events?since=RFC3339
func (h *StatusHandler) GetEvents(w http.ResponseWriter, r *http.Request) {
	since := time.Now().Add(-24 * time.Hour)
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "since must be RFC3339")
			return
		}
		since = parsed
	}

	events, err := h.events.EventsSince(r.Context(), since)
	if err != nil {
		h.logger.WithError(err).Error("Failed to query events")
		respondError(w, http.StatusInternalServerError, "query failed")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"since":  since,
		"events": events,
	})
}

// GetJobs returns the scheduler's per-job run statistics
// GET /api/jobs
func (h *StatusHandler) GetJobs(w http.ResponseWriter, r *http.Request) {
	if h.jobs == nil {
		respondError(w, http.StatusNotFound, "no scheduler in this process")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"jobs": h.jobs.Snapshot(),
	})
}

// RunJob triggers a registered job outside its schedule.
// 장중 수동 스캔 등 운영자 트리거; 실행은 비동기이고 결과는 /api/jobs로 확인
// POST /api/admin/jobs/{name}/run
func (h *StatusHandler) RunJob(w http.ResponseWriter, r *http.Request) {
	if h.jobs == nil {
		respondError(w, http.StatusNotFound, "no scheduler in this process")
		return
	}

	name := mux.Vars(r)["name"]
	if err := h.jobs.RunNow(name); err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	h.logger.WithField("job", name).Info("Job triggered via API")
	respondJSON(w, http.StatusAccepted, map[string]string{
		"job": name,
	})
}

// ResetDrawdown clears a terminal drawdown halt.
// 수동 운영자 개입 전용 엔드포인트
// POST /api/admin/reset-drawdown
func (h *StatusHandler) ResetDrawdown(w http.ResponseWriter, r *http.Request) {
	if !h.risk.ResetDrawdownHalt() {
		respondError(w, http.StatusConflict, "engine is not drawdown-halted")
		return
	}

	h.logger.Warn("Drawdown halt reset via API")
	respondJSON(w, http.StatusOK, map[string]string{
		"mode": string(h.risk.Mode()),
	})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
