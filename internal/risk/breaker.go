package risk

// BreakerMode is the circuit breaker state machine.
//
//	ACTIVE ──(일일 손실 한도)──▶ DAILY_HALTED ──(날짜 롤오버)──▶ ACTIVE
//	ACTIVE ──(최대 드로다운)──▶ DRAWDOWN_HALTED (터미널, 수동 해제만)
type BreakerMode string

const (
	ModeActive         BreakerMode = "ACTIVE"
	ModeDailyHalted    BreakerMode = "DAILY_HALTED"
	ModeDrawdownHalted BreakerMode = "DRAWDOWN_HALTED"
)

// Halted reports whether new entries are frozen
func (m BreakerMode) Halted() bool {
	return m == ModeDailyHalted || m == ModeDrawdownHalted
}

// RiskStatus is the coarse risk level exposed to operators
type RiskStatus string

const (
	StatusLow      RiskStatus = "LOW"
	StatusMedium   RiskStatus = "MEDIUM"
	StatusHigh     RiskStatus = "HIGH"
	StatusCritical RiskStatus = "CRITICAL"
)
