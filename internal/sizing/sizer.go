// Package sizing converts a trade proposal into an integer quantity
// under every portfolio cap, or rejects it with a typed reason.
package sizing

import (
	"fmt"
	"math"

	"github.com/wonny/kairos/internal/contracts"
	"github.com/wonny/kairos/internal/strategyconfig"
)

// Result is the sizing outcome for one proposal.
// OK=false면 Reason/Detail이 구속 제약을 설명
type Result struct {
	Qty      int                    `json:"qty"`
	Notional float64                `json:"notional"`
	OK       bool                   `json:"ok"`
	Reason   contracts.RejectReason `json:"reason,omitempty"`
	Detail   string                 `json:"detail,omitempty"`
}

// Sizer applies position, sector, allocation and cash caps
// ⭐ SSOT: 수량 결정은 여기서만
type Sizer struct {
	rules *strategyconfig.Config
}

// NewSizer creates a position sizer
func NewSizer(rules *strategyconfig.Config) *Sizer {
	return &Sizer{rules: rules}
}

// Size returns the integer quantity for a proposal against the current
// portfolio snapshot. 모든 한도의 교집합에서 내림(floor) — 절대 올림 금지.
//
// 적용 순서: 중복 보유 → 종목 수 한도 → 예산 교집합 → 최소 명목가
func (s *Sizer) Size(p *contracts.TradeProposal, view contracts.PortfolioView) Result {
	// 이미 보유 중인 심볼에는 추가 진입 금지 (피라미딩 없음)
	if view.HasPosition(p.Symbol) {
		return reject(contracts.RejectDuplicate, fmt.Sprintf("%s already held", p.Symbol))
	}

	if r, ok := s.checkCounts(p.Class, view); !ok {
		return r
	}

	unit := p.UnitCost(entryPrice(p))
	if unit <= 0 {
		return reject(contracts.RejectNoStructure, "non-positive unit cost")
	}

	budget, binding, detail := s.budget(p, view)
	if budget < unit {
		return reject(binding, detail)
	}

	qty := int(math.Floor(budget / unit))
	notional := float64(qty) * unit

	// 최소 명목가 미달은 제안 자체를 거부 (수량 올림으로 회피 금지)
	if notional < s.rules.Sizing.MinNotionalUSD {
		return reject(contracts.RejectMinNotional,
			fmt.Sprintf("notional %.2f below minimum %.0f", notional, s.rules.Sizing.MinNotionalUSD))
	}

	return Result{Qty: qty, Notional: notional, OK: true}
}

// checkCounts enforces the total and per-class position count limits
func (s *Sizer) checkCounts(class contracts.AssetClass, view contracts.PortfolioView) (Result, bool) {
	if view.TotalPositions() >= s.rules.Sizing.MaxPositions {
		return reject(contracts.RejectMaxPositions,
			fmt.Sprintf("%d open positions at limit %d", view.TotalPositions(), s.rules.Sizing.MaxPositions)), false
	}
	switch class {
	case contracts.AssetStock:
		if view.StockCount >= s.rules.Sizing.MaxStockPositions {
			return reject(contracts.RejectMaxPositions,
				fmt.Sprintf("%d stock positions at limit %d", view.StockCount, s.rules.Sizing.MaxStockPositions)), false
		}
	case contracts.AssetOption:
		if view.OptionCount >= s.rules.Sizing.MaxOptionPositions {
			return reject(contracts.RejectMaxPositions,
				fmt.Sprintf("%d option positions at limit %d", view.OptionCount, s.rules.Sizing.MaxOptionPositions)), false
		}
	}
	return Result{}, true
}

// budget returns the dollar budget for this proposal: the minimum of
// the per-position cap, remaining class allocation, sector headroom and
// spendable cash. 구속 제약(가장 작은 한도)의 거부 사유를 함께 반환.
func (s *Sizer) budget(p *contracts.TradeProposal, view contracts.PortfolioView) (float64, contracts.RejectReason, string) {
	positionCap := view.Equity * s.positionPct(p.Class)
	budget := positionCap
	reason := contracts.RejectPositionCap
	detail := fmt.Sprintf("position cap %.2f (%.0f%% of equity)", positionCap, s.positionPct(p.Class)*100)

	// 자산군 배분 잔여
	classCap := view.Equity*s.allocationPct(p.Class) - view.ClassNotional(p.Class)
	if classCap < budget {
		budget = classCap
		reason = contracts.RejectPositionCap
		detail = fmt.Sprintf("class allocation headroom %.2f", classCap)
	}

	// 섹터 잔여: 제안 포함 기준으로 30% 한도
	sectorCap := view.Equity*s.rules.Sizing.MaxSectorPct - view.SectorNotional[p.Sector]
	if sectorCap < budget {
		budget = sectorCap
		reason = contracts.RejectSectorCap
		detail = fmt.Sprintf("sector %q headroom %.2f", p.Sector, sectorCap)
	}

	// 현금 유보: 체결 후에도 현금이 유보율 밑으로 내려가면 안 됨
	spendable := view.Cash - view.Equity*s.rules.Allocation.CashReservePct
	if spendable < budget {
		budget = spendable
		reason = contracts.RejectCashReserve
		detail = fmt.Sprintf("spendable cash %.2f after %.0f%% reserve",
			spendable, s.rules.Allocation.CashReservePct*100)
	}

	return budget, reason, detail
}

func (s *Sizer) positionPct(class contracts.AssetClass) float64 {
	if class == contracts.AssetOption {
		return s.rules.Sizing.OptionPositionPct
	}
	return s.rules.Sizing.StockPositionPct
}

func (s *Sizer) allocationPct(class contracts.AssetClass) float64 {
	if class == contracts.AssetOption {
		return s.rules.Allocation.OptionPct
	}
	return s.rules.Allocation.StockPct
}

func entryPrice(p *contracts.TradeProposal) float64 {
	if p.Stock != nil {
		return p.Stock.Entry
	}
	return 0 // 옵션/스프레드는 UnitCost가 프리미엄에서 계산
}

func reject(reason contracts.RejectReason, detail string) Result {
	return Result{Reason: reason, Detail: detail}
}
