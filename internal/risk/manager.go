// Package risk owns the portfolio state and the circuit breakers.
// 포트폴리오 상태의 유일한 소유자: 모든 읽기는 View() 스냅샷, 모든
// 변경은 뮤텍스 아래에서만 일어난다.
package risk

import (
	"fmt"
	"sync"
	"time"

	"github.com/wonny/kairos/internal/contracts"
	"github.com/wonny/kairos/internal/sizing"
	"github.com/wonny/kairos/internal/strategyconfig"
	"github.com/wonny/kairos/pkg/logger"
)

// Manager is the single writer of portfolio state.
// ⭐ SSOT: 자본/포지션/브레이커 상태는 여기서만 변경
type Manager struct {
	mu     sync.RWMutex
	rules  *strategyconfig.Config
	sizer  *sizing.Sizer
	logger *logger.Logger

	mode BreakerMode

	cash           float64
	dayStartEquity float64
	peakEquity     float64
	positions      map[string]contracts.Position

	// 드로다운 경고는 임계 구간 재진입 시에만 다시 발화
	warnedDrawdown bool
}

// NewManager creates a risk manager seeded with opening cash.
// 포지션 없는 상태에서 시작: equity == cash
func NewManager(rules *strategyconfig.Config, log *logger.Logger, openingCash float64) *Manager {
	return &Manager{
		rules:          rules,
		sizer:          sizing.NewSizer(rules),
		logger:         log,
		mode:           ModeActive,
		cash:           openingCash,
		dayStartEquity: openingCash,
		peakEquity:     openingCash,
		positions:      make(map[string]contracts.Position),
	}
}

// Mode returns the current breaker mode
func (m *Manager) Mode() BreakerMode {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.mode
}

// StartTradingDay rolls the daily anchors over to a new session.
// DAILY_HALTED는 해제되고 DRAWDOWN_HALTED는 유지된다 — 드로다운 정지는
// 날짜가 바뀌어도 풀리지 않는 터미널 상태.
func (m *Manager) StartTradingDay(day time.Time) []contracts.RiskEvent {
	m.mu.Lock()
	defer m.mu.Unlock()

	equity := m.equityLocked()
	m.dayStartEquity = equity

	events := []contracts.RiskEvent{{
		Type:     contracts.EventDayRollover,
		Severity: contracts.SeverityInfo,
		Message:  fmt.Sprintf("trading day %s: opening equity %.2f", day.Format("2006-01-02"), equity),
		Value:    equity,
		At:       day,
	}}

	if m.mode == ModeDailyHalted {
		m.mode = ModeActive
		m.logger.WithField("equity", equity).Info("Daily halt cleared on rollover")
	}

	return events
}

// MarkToMarket updates position prices and the equity peak.
// 인용이 없는 심볼은 직전 가격 유지
func (m *Manager) MarkToMarket(prices map[string]float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for sym, pos := range m.positions {
		if px, ok := prices[sym]; ok && px > 0 {
			pos.CurrentPrice = px
			m.positions[sym] = pos
		}
	}

	if eq := m.equityLocked(); eq > m.peakEquity {
		m.peakEquity = eq
	}
}

// Evaluate runs the breaker thresholds and returns the mode plus any
// transition events. 호출 순서: MarkToMarket 이후, 진입 평가 이전.
func (m *Manager) Evaluate(now time.Time) (BreakerMode, []contracts.RiskEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// 터미널 상태: 더 평가하지 않음
	if m.mode == ModeDrawdownHalted {
		return m.mode, nil
	}

	var events []contracts.RiskEvent
	equity := m.equityLocked()
	dd := m.drawdownLocked(equity)
	limit := m.rules.Breakers.MaxDrawdownPct

	switch {
	case dd >= limit:
		m.mode = ModeDrawdownHalted
		events = append(events, contracts.RiskEvent{
			Type:     contracts.EventBreakerDrawdown,
			Severity: contracts.SeverityCritical,
			Message:  fmt.Sprintf("max drawdown breached: %.2f%% >= %.0f%%", dd*100, limit*100),
			Value:    dd,
			At:       now,
		})
		m.logger.WithFields(map[string]interface{}{
			"drawdown": dd,
			"equity":   equity,
			"peak":     m.peakEquity,
		}).Error("DRAWDOWN_HALTED: trading frozen until manual reset")
		return m.mode, events

	case dd >= limit*m.rules.Breakers.WarnFraction:
		if !m.warnedDrawdown {
			m.warnedDrawdown = true
			events = append(events, contracts.RiskEvent{
				Type:     contracts.EventDrawdownWarning,
				Severity: contracts.SeverityWarning,
				Message:  fmt.Sprintf("drawdown %.2f%% approaching %.0f%% limit", dd*100, limit*100),
				Value:    dd,
				At:       now,
			})
		}

	default:
		m.warnedDrawdown = false
	}

	// 일일 손실 한도 (드로다운보다 후순위: 둘 다 깨지면 드로다운이 우선)
	if m.mode == ModeActive && m.dayStartEquity > 0 {
		frac := (equity - m.dayStartEquity) / m.dayStartEquity
		if frac <= -m.rules.Breakers.DailyLossPct {
			m.mode = ModeDailyHalted
			events = append(events, contracts.RiskEvent{
				Type:     contracts.EventBreakerDaily,
				Severity: contracts.SeverityCritical,
				Message:  fmt.Sprintf("daily loss %.2f%% breached %.0f%% limit", -frac*100, m.rules.Breakers.DailyLossPct*100),
				Value:    frac,
				At:       now,
			})
			m.logger.WithFields(map[string]interface{}{
				"daily_pnl_pct": frac,
				"equity":        equity,
			}).Error("DAILY_HALTED: new entries frozen for the session")
		}
	}

	return m.mode, events
}

// Reserve atomically re-validates caps and opens the position.
// 사이징 시점과 체결 시점 사이에 다른 intent가 한도를 소진했을 수
// 있으므로 락 아래에서 전체 한도를 다시 검사한다.
func (m *Manager) Reserve(p *contracts.TradeProposal, qty int, now time.Time) (contracts.RejectReason, string, []contracts.RiskEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.mode {
	case ModeDailyHalted:
		return contracts.RejectBreakerDaily, "daily loss breaker active", nil
	case ModeDrawdownHalted:
		return contracts.RejectBreakerDrawdown, "drawdown breaker active", nil
	}

	res := m.sizer.Size(p, m.viewLocked())
	if !res.OK {
		return res.Reason, res.Detail, nil
	}
	if res.Qty < qty {
		return contracts.RejectPositionCap,
			fmt.Sprintf("capacity shrank mid-cycle: %d available, %d requested", res.Qty, qty), nil
	}

	unit := p.UnitCost(entryPrice(p))
	pos := newPosition(p, qty, now, m.rules)
	m.positions[p.Symbol] = pos
	m.cash -= float64(qty) * unit

	var events []contracts.RiskEvent
	equity := m.equityLocked()
	if notional := pos.Notional(); equity > 0 && notional >= equity*m.rules.Alerts.LargePositionPct {
		events = append(events, contracts.RiskEvent{
			Type:     contracts.EventLargePosition,
			Severity: contracts.SeverityInfo,
			Symbol:   p.Symbol,
			Message:  fmt.Sprintf("%s opened at %.1f%% of equity", p.Symbol, notional/equity*100),
			Value:    notional,
			At:       now,
		})
	}

	return contracts.RejectNone, "", events
}

// Release closes a position at the given price and returns realized P&L.
// 청산은 브레이커 상태와 무관하게 항상 회계 처리된다.
func (m *Manager) Release(symbol string, price float64, now time.Time) (float64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pos, ok := m.positions[symbol]
	if !ok {
		return 0, false
	}

	market := price * float64(pos.Qty) * float64(pos.Multiplier)
	realized := market - pos.CostBasis()
	if pos.Short() {
		// 숏 커버: 손익 부호 반전, 진입 시 잠긴 담보금과 함께 회수
		realized = pos.CostBasis() - market
	}
	m.cash += pos.CostBasis() + realized
	delete(m.positions, symbol)

	m.logger.WithFields(map[string]interface{}{
		"symbol":   symbol,
		"realized": realized,
		"price":    price,
	}).Info("Position released")

	return realized, true
}

// ResetDrawdownHalt clears the terminal drawdown halt.
// 운영자 수동 개입 전용: 자동 경로에서는 절대 호출하지 않는다.
func (m *Manager) ResetDrawdownHalt() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.mode != ModeDrawdownHalted {
		return false
	}
	m.mode = ModeActive
	m.peakEquity = m.equityLocked() // 새로운 기준점에서 다시 측정
	m.warnedDrawdown = false
	m.logger.Warn("Drawdown halt manually reset")
	return true
}

// Status maps current loss fractions onto a coarse operator level
func (m *Manager) Status() RiskStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.mode.Halted() {
		return StatusCritical
	}

	equity := m.equityLocked()
	dd := m.drawdownLocked(equity)
	ddLimit := m.rules.Breakers.MaxDrawdownPct

	dailyFrac := 0.0
	if m.dayStartEquity > 0 {
		dailyFrac = (m.dayStartEquity - equity) / m.dayStartEquity
	}
	dailyLimit := m.rules.Breakers.DailyLossPct

	warn := m.rules.Breakers.WarnFraction
	switch {
	case dd >= ddLimit*warn || dailyFrac >= dailyLimit*warn:
		return StatusHigh
	case dd >= ddLimit*0.5 || dailyFrac >= dailyLimit*0.5:
		return StatusMedium
	}
	return StatusLow
}

// View returns a deep-copied snapshot of the portfolio
func (m *Manager) View() contracts.PortfolioView {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.viewLocked()
}

func (m *Manager) viewLocked() contracts.PortfolioView {
	equity := m.equityLocked()

	positions := make(map[string]contracts.Position, len(m.positions))
	sectors := make(map[string]float64)
	stocks, options := 0, 0

	for sym, pos := range m.positions {
		positions[sym] = pos
		sectors[pos.Sector] += pos.Notional()
		if pos.Class == contracts.AssetStock {
			stocks++
		} else {
			options++
		}
	}

	return contracts.PortfolioView{
		Equity:         equity,
		Cash:           m.cash,
		DayStartEquity: m.dayStartEquity,
		PeakEquity:     m.peakEquity,
		DailyPnL:       equity - m.dayStartEquity,
		Drawdown:       m.drawdownLocked(equity),
		Positions:      positions,
		SectorNotional: sectors,
		StockCount:     stocks,
		OptionCount:    options,
	}
}

// equityLocked = 현금 + 모든 포지션의 평가액 (숏은 담보금 + 평가손익)
func (m *Manager) equityLocked() float64 {
	equity := m.cash
	for _, pos := range m.positions {
		equity += pos.MarketValue()
	}
	return equity
}

func (m *Manager) drawdownLocked(equity float64) float64 {
	if m.peakEquity <= 0 {
		return 0
	}
	dd := (m.peakEquity - equity) / m.peakEquity
	if dd < 0 {
		return 0
	}
	return dd
}

// newPosition builds the book entry for an accepted proposal
func newPosition(p *contracts.TradeProposal, qty int, now time.Time, rules *strategyconfig.Config) contracts.Position {
	pos := contracts.Position{
		Symbol:     p.Symbol,
		Class:      p.Class,
		Structure:  p.Structure,
		Direction:  p.Direction,
		Qty:        qty,
		Sector:     p.Sector,
		Multiplier: 1,
		OpenedAt:   now,
	}

	switch p.Structure {
	case contracts.StructureStock:
		pos.EntryPrice = p.Stock.Entry
		pos.CurrentPrice = p.Stock.Entry
		pos.Stop = p.Stock.Stop
		pos.Target = p.Stock.Target

	case contracts.StructureLongCall, contracts.StructureLongPut:
		pos.EntryPrice = p.Option.Premium
		pos.CurrentPrice = p.Option.Premium
		pos.Multiplier = p.Option.Multiplier
		expiry := p.Option.Expiry
		pos.Expiry = &expiry

	case contracts.StructureVerticalSpread:
		pos.EntryPrice = p.Spread.NetDebit
		pos.CurrentPrice = p.Spread.NetDebit
		pos.Multiplier = p.Spread.Long.Multiplier
		expiry := p.Spread.Long.Expiry
		pos.Expiry = &expiry
	}

	return pos
}

func entryPrice(p *contracts.TradeProposal) float64 {
	if p.Stock != nil {
		return p.Stock.Entry
	}
	return 0
}
