// Package pipeline runs the per-cycle decision flow:
// 신호 집계 → 전략 선택 → 사이징 → 리스크 게이트 → 주문 intent.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/kairos/internal/contracts"
	"github.com/wonny/kairos/internal/execution"
	"github.com/wonny/kairos/internal/metrics"
	"github.com/wonny/kairos/internal/risk"
	"github.com/wonny/kairos/internal/signals"
	"github.com/wonny/kairos/internal/sizing"
	"github.com/wonny/kairos/internal/strategy"
	"github.com/wonny/kairos/internal/strategyconfig"
	"github.com/wonny/kairos/pkg/logger"
)

// Deps wires the pipeline collaborators
type Deps struct {
	Rules     *strategyconfig.Config
	Market    MarketData
	Sentiment SentimentProvider
	Predictor Predictor
	Regime    RegimeClassifier
	Quotes    strategy.OptionQuotes

	Risk   *risk.Manager
	Broker execution.Broker

	Signals SignalStore
	Intents IntentStore
	Events  EventStore

	Notifier Notifier
	Metrics  *metrics.Metrics
	Logger   *logger.Logger
}

// Pipeline is the scan cycle orchestrator
// ⭐ SSOT: 의사결정 플로우는 여기서만 조립
type Pipeline struct {
	deps       Deps
	aggregator *signals.Aggregator
	selector   *strategy.Selector
	sizer      *sizing.Sizer
	exits      *strategy.ExitEvaluator
	logger     *logger.Logger
}

// New creates a pipeline from its dependencies
func New(deps Deps) *Pipeline {
	return &Pipeline{
		deps:       deps,
		aggregator: signals.New(deps.Rules),
		selector:   strategy.NewSelector(deps.Rules, deps.Quotes, deps.Logger),
		sizer:      sizing.NewSizer(deps.Rules),
		exits:      strategy.NewExitEvaluator(deps.Rules),
		logger:     deps.Logger,
	}
}

// CycleResult summarizes one completed scan cycle
type CycleResult struct {
	CycleID   string           `json:"cycle_id"`
	StartedAt time.Time        `json:"started_at"`
	Duration  time.Duration    `json:"duration"`
	Mode      risk.BreakerMode `json:"mode"`

	Universe int `json:"universe"`
	Accepted int `json:"accepted"`
	Rejected int `json:"rejected"`
	Exits    int `json:"exits"`

	Signals []contracts.CompositeSignal `json:"signals"`
	Intents []contracts.OrderIntent    `json:"intents"`
	Events  []contracts.RiskEvent      `json:"events"`
}

// RunCycle executes one full decision cycle.
// 순서 고정: 시세 반영 → 브레이커 평가 → 청산 → 진입.
// 청산이 진입보다 먼저다 — 풀린 자본을 같은 사이클에서 쓸 수 있게.
func (p *Pipeline) RunCycle(ctx context.Context, now time.Time) (*CycleResult, error) {
	started := time.Now()
	result := &CycleResult{
		CycleID:   "cycle-" + now.UTC().Format("20060102T150405Z"),
		StartedAt: now,
	}

	universe, err := p.deps.Market.Universe(ctx)
	if err != nil {
		return nil, fmt.Errorf("load universe: %w", err)
	}
	result.Universe = len(universe)

	prices, err := p.markToMarket(ctx, universe)
	if err != nil {
		return nil, err
	}

	mode, events := p.deps.Risk.Evaluate(now)
	result.Mode = mode
	result.Events = append(result.Events, events...)

	p.runExits(ctx, result, prices, mode, now)

	// 진입 게이트: 정지 모드에서도 intent는 거부 사유와 함께 기록된다
	regime := p.regimeScore(ctx)
	for _, inst := range universe {
		px, ok := prices[inst.Symbol]
		if !ok || px <= 0 {
			p.logger.WithField("symbol", inst.Symbol).Warn("No price this cycle, skipping")
			continue
		}
		p.runEntry(ctx, result, inst, px, regime, mode, now)
	}

	p.persist(ctx, result)
	p.notify(ctx, result.Events)

	result.Duration = time.Since(started)
	p.record(result)

	p.logger.WithFields(map[string]interface{}{
		"cycle":    result.CycleID,
		"mode":     string(result.Mode),
		"universe": result.Universe,
		"accepted": result.Accepted,
		"rejected": result.Rejected,
		"exits":    result.Exits,
		"duration": result.Duration,
	}).Info("Cycle complete")

	return result, nil
}

// Rollover starts a new trading day and clears a daily halt
func (p *Pipeline) Rollover(ctx context.Context, day time.Time) {
	events := p.deps.Risk.StartTradingDay(day)
	if p.deps.Events != nil && len(events) > 0 {
		if err := p.deps.Events.SaveEvents(ctx, events); err != nil {
			p.logger.WithError(err).Error("Failed to persist rollover events")
		}
	}
	p.notify(ctx, events)
}

// markToMarket prices the open book plus the scan universe
func (p *Pipeline) markToMarket(ctx context.Context, universe []Instrument) (map[string]float64, error) {
	view := p.deps.Risk.View()

	symbols := make([]string, 0, len(universe)+len(view.Positions))
	seen := make(map[string]bool, len(universe))
	for _, inst := range universe {
		symbols = append(symbols, inst.Symbol)
		seen[inst.Symbol] = true
	}
	for sym := range view.Positions {
		if !seen[sym] {
			symbols = append(symbols, sym)
		}
	}

	prices, err := p.deps.Market.Prices(ctx, symbols)
	if err != nil {
		return nil, fmt.Errorf("fetch prices: %w", err)
	}

	p.deps.Risk.MarkToMarket(prices)
	return prices, nil
}

// runExits evaluates every open position against the exit rules.
// DRAWDOWN_HALTED에서는 청산을 평가하되 주문은 동결 — intent는
// 거부 사유와 함께 기록되어 운영자 개입을 드러낸다.
func (p *Pipeline) runExits(ctx context.Context, result *CycleResult, prices map[string]float64, mode risk.BreakerMode, now time.Time) {
	view := p.deps.Risk.View()

	for sym, pos := range view.Positions {
		px, ok := prices[sym]
		if !ok || px <= 0 {
			px = pos.CurrentPrice
		}

		sig, exit := p.exits.Evaluate(pos, px, now)
		if !exit {
			continue
		}

		intent := exitIntent(result.CycleID, pos, sig, now)

		if mode == risk.ModeDrawdownHalted {
			intent.Reject(contracts.RejectBreakerDrawdown, "exit frozen: drawdown halt requires manual intervention")
			result.Intents = append(result.Intents, *intent)
			result.Rejected++
			continue
		}

		fill, err := p.deps.Broker.Submit(ctx, intent)
		if err != nil {
			p.logger.WithError(err).WithField("symbol", sym).Error("Exit order failed")
			intent.Reject(contracts.RejectBroker, err.Error())
			result.Intents = append(result.Intents, *intent)
			result.Rejected++
			continue
		}

		realized, _ := p.deps.Risk.Release(sym, fill.Price, now)
		result.Intents = append(result.Intents, *intent)
		result.Exits++

		if sig.Reason == strategy.ExitStopLoss {
			result.Events = append(result.Events, contracts.RiskEvent{
				Type:     contracts.EventStopLoss,
				Severity: contracts.SeverityWarning,
				Symbol:   sym,
				Message:  fmt.Sprintf("%s stopped out: realized %.2f", sym, realized),
				Value:    realized,
				At:       now,
			})
		}
	}
}

// runEntry produces exactly one intent (accepted or rejected) per instrument
func (p *Pipeline) runEntry(ctx context.Context, result *CycleResult, inst Instrument, price float64, regime contracts.SubScore, mode risk.BreakerMode, now time.Time) {
	sig := p.aggregate(ctx, inst, price, regime, now)
	result.Signals = append(result.Signals, sig)

	intent := &contracts.OrderIntent{
		ID:        fmt.Sprintf("%s-%s", result.CycleID, inst.Symbol),
		CycleID:   result.CycleID,
		Symbol:    inst.Symbol,
		Sector:    inst.Sector,
		Class:     inst.Class,
		Side:      contracts.OrderSideBuy,
		OrderType: contracts.OrderTypeLimit,
		Score:     sig.Total,
		Result:    contracts.IntentAccepted,
		CreatedAt: now,
	}

	reject := func(reason contracts.RejectReason, detail string) {
		intent.Reject(reason, detail)
		result.Intents = append(result.Intents, *intent)
		result.Rejected++
	}

	// 브레이커 게이트: 신호는 기록하되 진입은 동결
	switch mode {
	case risk.ModeDailyHalted:
		reject(contracts.RejectBreakerDaily, "daily loss breaker active")
		return
	case risk.ModeDrawdownHalted:
		reject(contracts.RejectBreakerDrawdown, "drawdown breaker active")
		return
	}

	proposal, reason, detail := p.selector.Select(ctx, sig, inst.Class)
	if proposal == nil {
		reject(reason, detail)
		return
	}
	intent.Structure = proposal.Structure
	if proposal.Direction == contracts.DirectionBearish && proposal.Class == contracts.AssetStock {
		intent.Side = contracts.OrderSideSell
	}

	sized := p.sizer.Size(proposal, p.deps.Risk.View())
	if !sized.OK {
		reject(sized.Reason, sized.Detail)
		return
	}
	intent.Qty = sized.Qty
	intent.Notional = sized.Notional
	intent.LimitPrice = unitQuote(proposal)
	if proposal.Stock != nil {
		intent.StopPrice = proposal.Stock.Stop
	}

	// 락 아래 재검증 + 자본 예약 (사이징과 체결 사이의 레이스 차단)
	reason, detail, events := p.deps.Risk.Reserve(proposal, sized.Qty, now)
	if reason != contracts.RejectNone {
		reject(reason, detail)
		return
	}
	result.Events = append(result.Events, events...)

	if _, err := p.deps.Broker.Submit(ctx, intent); err != nil {
		// 예약 롤백: 진입가 청산은 정확히 원금을 반환한다
		p.deps.Risk.Release(inst.Symbol, unitQuote(proposal), now)
		p.logger.WithError(err).WithField("symbol", inst.Symbol).Error("Entry order failed")
		reject(contracts.RejectBroker, err.Error())
		return
	}

	result.Intents = append(result.Intents, *intent)
	result.Accepted++
}

// aggregate collects sub-scores, degrading failed sources to zero
func (p *Pipeline) aggregate(ctx context.Context, inst Instrument, price float64, regime contracts.SubScore, now time.Time) contracts.CompositeSignal {
	in := contracts.SignalInputs{
		Symbol: inst.Symbol,
		Sector: inst.Sector,
		Price:  price,
		Regime: regime,
	}

	var err error
	if in.Technical, in.TechnicalDirection, err = p.deps.Market.TechnicalScore(ctx, inst.Symbol); err != nil {
		p.logger.WithError(err).WithField("symbol", inst.Symbol).Warn("Technical score unavailable")
		in.Technical = contracts.SubScore{}
	}
	if in.Sentiment, in.SentimentDirection, err = p.deps.Sentiment.SentimentScore(ctx, inst.Symbol); err != nil {
		p.logger.WithError(err).WithField("symbol", inst.Symbol).Warn("Sentiment score unavailable")
		in.Sentiment = contracts.SubScore{}
	}
	if in.Model, in.ModelDirection, err = p.deps.Predictor.ModelScore(ctx, inst.Symbol); err != nil {
		p.logger.WithError(err).WithField("symbol", inst.Symbol).Warn("Model score unavailable")
		in.Model = contracts.SubScore{}
	}

	return p.aggregator.Aggregate(in, now)
}

// regimeScore fetches the cycle-wide regime adjustment once
func (p *Pipeline) regimeScore(ctx context.Context) contracts.SubScore {
	score, err := p.deps.Regime.RegimeScore(ctx)
	if err != nil {
		p.logger.WithError(err).Warn("Regime score unavailable")
		return contracts.SubScore{}
	}
	return score
}

// persist writes cycle facts; storage failures never abort the cycle
func (p *Pipeline) persist(ctx context.Context, result *CycleResult) {
	if p.deps.Signals != nil && len(result.Signals) > 0 {
		if err := p.deps.Signals.SaveSignals(ctx, result.Signals); err != nil {
			p.logger.WithError(err).Error("Failed to persist signals")
		}
	}
	if p.deps.Intents != nil && len(result.Intents) > 0 {
		if err := p.deps.Intents.SaveIntents(ctx, result.Intents); err != nil {
			p.logger.WithError(err).Error("Failed to persist intents")
		}
	}
	if p.deps.Events != nil && len(result.Events) > 0 {
		if err := p.deps.Events.SaveEvents(ctx, result.Events); err != nil {
			p.logger.WithError(err).Error("Failed to persist events")
		}
	}
}

func (p *Pipeline) notify(ctx context.Context, events []contracts.RiskEvent) {
	if p.deps.Notifier == nil {
		return
	}
	for _, e := range events {
		p.deps.Notifier.Notify(ctx, e)
	}
}

// record updates the Prometheus collectors
func (p *Pipeline) record(result *CycleResult) {
	m := p.deps.Metrics
	if m == nil {
		return
	}

	m.CyclesTotal.Inc()
	m.CycleDuration.Observe(result.Duration.Seconds())
	m.ExitsTotal.Add(float64(result.Exits))
	for _, intent := range result.Intents {
		m.IntentsTotal.WithLabelValues(string(intent.Result), string(intent.Reason)).Inc()
	}

	switch result.Mode {
	case risk.ModeDailyHalted:
		m.BreakerMode.Set(1)
	case risk.ModeDrawdownHalted:
		m.BreakerMode.Set(2)
	default:
		m.BreakerMode.Set(0)
	}

	view := p.deps.Risk.View()
	m.Equity.Set(view.Equity)
	m.Drawdown.Set(view.Drawdown)
	m.OpenPositions.Set(float64(view.TotalPositions()))
}

// exitIntent builds the closing intent for a triggered exit.
// 롱 청산은 SELL, 숏 커버는 BUY
func exitIntent(cycleID string, pos contracts.Position, sig *strategy.ExitSignal, now time.Time) *contracts.OrderIntent {
	side := contracts.OrderSideSell
	if pos.Short() {
		side = contracts.OrderSideBuy
	}
	return &contracts.OrderIntent{
		ID:         fmt.Sprintf("%s-%s-exit", cycleID, pos.Symbol),
		CycleID:    cycleID,
		Symbol:     pos.Symbol,
		Sector:     pos.Sector,
		Class:      pos.Class,
		Structure:  pos.Structure,
		Side:       side,
		Qty:        pos.Qty,
		OrderType:  contracts.OrderTypeLimit,
		LimitPrice: sig.Price,
		Notional:   sig.Price * float64(pos.Qty) * float64(pos.Multiplier),
		Result:     contracts.IntentAccepted,
		Detail:     fmt.Sprintf("%s: %s", sig.Reason, sig.Detail),
		CreatedAt:  now,
	}
}

// unitQuote returns the per-unit limit price for a proposal
func unitQuote(p *contracts.TradeProposal) float64 {
	switch p.Structure {
	case contracts.StructureStock:
		return p.Stock.Entry
	case contracts.StructureLongCall, contracts.StructureLongPut:
		return p.Option.Premium
	case contracts.StructureVerticalSpread:
		return p.Spread.NetDebit
	}
	return 0
}
