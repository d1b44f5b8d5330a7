package contracts

import "time"

// EventType is the closed set of risk events the engine emits
type EventType string

const (
	EventBreakerDaily    EventType = "BREAKER_DAILY"
	EventBreakerDrawdown EventType = "BREAKER_DRAWDOWN"
	EventDrawdownWarning EventType = "DRAWDOWN_WARNING"
	EventDayRollover     EventType = "DAY_ROLLOVER"
	EventLargePosition   EventType = "LARGE_POSITION"
	EventStopLoss        EventType = "STOP_LOSS"
)

// EventSeverity mirrors log levels for external alerting
type EventSeverity string

const (
	SeverityInfo     EventSeverity = "INFO"
	SeverityWarning  EventSeverity = "WARNING"
	SeverityCritical EventSeverity = "CRITICAL"
)

// RiskEvent is a discrete fact emitted for external alerting.
// 전달은 fire-and-forget: 코어는 전송 실패에 개입하지 않음
type RiskEvent struct {
	Type     EventType     `json:"type"`
	Severity EventSeverity `json:"severity"`
	Symbol   string        `json:"symbol,omitempty"`
	Message  string        `json:"message"`
	Value    float64       `json:"value,omitempty"` // drawdown, P&L pct 등
	At       time.Time     `json:"at"`
}
