package strategy

import (
	"fmt"
	"time"

	"github.com/wonny/kairos/internal/contracts"
	"github.com/wonny/kairos/internal/strategyconfig"
)

// ExitReason classifies why a position gets closed
type ExitReason string

const (
	ExitStopLoss     ExitReason = "STOP_LOSS"
	ExitTarget       ExitReason = "TARGET"
	ExitMaxHold      ExitReason = "MAX_HOLD"
	ExitExpiryWindow ExitReason = "EXPIRY_WINDOW"
)

// ExitSignal is the decision to close an open position.
// 진입 임계값과 무관 — 브레이커의 진입 게이트도 우회하되
// 자본 release 회계는 반드시 거침
type ExitSignal struct {
	Symbol string     `json:"symbol"`
	Reason ExitReason `json:"reason"`
	Detail string     `json:"detail"`
	Price  float64    `json:"price"`
}

// ExitEvaluator checks open positions against exit rules
// ⭐ SSOT: 청산 판정은 여기서만
type ExitEvaluator struct {
	rules *strategyconfig.Config
}

// NewExitEvaluator creates an exit evaluator
func NewExitEvaluator(rules *strategyconfig.Config) *ExitEvaluator {
	return &ExitEvaluator{rules: rules}
}

// Evaluate returns an exit signal when the position should be closed.
// 조건: 손절/목표가 도달, 최대 보유기간 초과, 옵션 만기 근접
func (e *ExitEvaluator) Evaluate(pos contracts.Position, price float64, now time.Time) (*ExitSignal, bool) {
	switch pos.Class {
	case contracts.AssetStock:
		return e.evaluateStock(pos, price, now)
	case contracts.AssetOption:
		return e.evaluateOption(pos, price, now)
	}
	return nil, false
}

func (e *ExitEvaluator) evaluateStock(pos contracts.Position, price float64, now time.Time) (*ExitSignal, bool) {
	if pos.Short() {
		return e.evaluateShortStock(pos, price, now)
	}
	if pos.Stop > 0 && price <= pos.Stop {
		return &ExitSignal{
			Symbol: pos.Symbol,
			Reason: ExitStopLoss,
			Detail: fmt.Sprintf("stop loss: %.2f <= %.2f", price, pos.Stop),
			Price:  price,
		}, true
	}
	if pos.Target > 0 && price >= pos.Target {
		return &ExitSignal{
			Symbol: pos.Symbol,
			Reason: ExitTarget,
			Detail: fmt.Sprintf("profit target: %.2f >= %.2f", price, pos.Target),
			Price:  price,
		}, true
	}

	// 최대 보유기간
	if held := now.Sub(pos.OpenedAt); held >= time.Duration(e.rules.Exits.MaxHoldDays)*24*time.Hour {
		return &ExitSignal{
			Symbol: pos.Symbol,
			Reason: ExitMaxHold,
			Detail: fmt.Sprintf("max holding period: %d days", e.rules.Exits.MaxHoldDays),
			Price:  price,
		}, true
	}

	return nil, false
}

// evaluateShortStock mirrors the long rules with inverted levels:
// 손절은 진입가 위, 목표가는 진입가 아래 (셀렉터가 그렇게 설정)
func (e *ExitEvaluator) evaluateShortStock(pos contracts.Position, price float64, now time.Time) (*ExitSignal, bool) {
	if pos.Stop > 0 && price >= pos.Stop {
		return &ExitSignal{
			Symbol: pos.Symbol,
			Reason: ExitStopLoss,
			Detail: fmt.Sprintf("short stop loss: %.2f >= %.2f", price, pos.Stop),
			Price:  price,
		}, true
	}
	if pos.Target > 0 && price <= pos.Target {
		return &ExitSignal{
			Symbol: pos.Symbol,
			Reason: ExitTarget,
			Detail: fmt.Sprintf("short profit target: %.2f <= %.2f", price, pos.Target),
			Price:  price,
		}, true
	}

	if held := now.Sub(pos.OpenedAt); held >= time.Duration(e.rules.Exits.MaxHoldDays)*24*time.Hour {
		return &ExitSignal{
			Symbol: pos.Symbol,
			Reason: ExitMaxHold,
			Detail: fmt.Sprintf("max holding period: %d days", e.rules.Exits.MaxHoldDays),
			Price:  price,
		}, true
	}

	return nil, false
}

func (e *ExitEvaluator) evaluateOption(pos contracts.Position, price float64, now time.Time) (*ExitSignal, bool) {
	// 만기 근접: 설정된 일수 이내면 무조건 청산.
	// 음수 DTE(이미 만기 경과)도 포함 — 스캔 공백으로 창을 놓친 포지션이
	// 장부에 영원히 남지 않도록.
	if dte := pos.DTE(now); pos.Expiry != nil && dte <= e.rules.Exits.OptionCloseOutDTE {
		return &ExitSignal{
			Symbol: pos.Symbol,
			Reason: ExitExpiryWindow,
			Detail: fmt.Sprintf("expiry window: %dDTE <= %d", dte, e.rules.Exits.OptionCloseOutDTE),
			Price:  price,
		}, true
	}

	if pos.Stop > 0 && price <= pos.Stop {
		return &ExitSignal{
			Symbol: pos.Symbol,
			Reason: ExitStopLoss,
			Detail: fmt.Sprintf("premium stop: %.2f <= %.2f", price, pos.Stop),
			Price:  price,
		}, true
	}
	if pos.Target > 0 && price >= pos.Target {
		return &ExitSignal{
			Symbol: pos.Symbol,
			Reason: ExitTarget,
			Detail: fmt.Sprintf("premium target: %.2f >= %.2f", price, pos.Target),
			Price:  price,
		}, true
	}

	return nil, false
}
