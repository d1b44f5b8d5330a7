package sizing

import (
	"testing"

	"github.com/wonny/kairos/internal/contracts"
	"github.com/wonny/kairos/internal/strategyconfig"
)

func emptyView(equity, cash float64) contracts.PortfolioView {
	return contracts.PortfolioView{
		Equity:         equity,
		Cash:           cash,
		Positions:      map[string]contracts.Position{},
		SectorNotional: map[string]float64{},
	}
}

func stockProposal(symbol, sector string, entry float64) *contracts.TradeProposal {
	return &contracts.TradeProposal{
		Symbol: symbol, Sector: sector,
		Class: contracts.AssetStock, Structure: contracts.StructureStock,
		Direction: contracts.DirectionBullish,
		Stock:     &contracts.StockLeg{Entry: entry, Stop: entry * 0.92, Target: entry * 1.15},
	}
}

func callProposal(symbol, sector string, premium float64) *contracts.TradeProposal {
	return &contracts.TradeProposal{
		Symbol: symbol, Sector: sector,
		Class: contracts.AssetOption, Structure: contracts.StructureLongCall,
		Direction: contracts.DirectionBullish,
		Option:    &contracts.OptionLeg{Type: contracts.OptionCall, Premium: premium, Multiplier: 100, DTE: 37},
	}
}

func TestSize_StockPositionCap(t *testing.T) {
	sz := NewSizer(strategyconfig.Default())

	// 자본 100,000 → 주식 한 종목 10% = 10,000 → $200 주식 50주
	res := sz.Size(stockProposal("AAPL", "tech", 200), emptyView(100_000, 100_000))
	if !res.OK {
		t.Fatalf("rejected: %s %s", res.Reason, res.Detail)
	}
	if res.Qty != 50 || res.Notional != 10_000 {
		t.Errorf("Qty=%d Notional=%.2f, want 50/10000", res.Qty, res.Notional)
	}
}

func TestSize_FloorNeverRoundsUp(t *testing.T) {
	sz := NewSizer(strategyconfig.Default())

	// 10,000 / 333 = 30.03 → 30주 (내림)
	res := sz.Size(stockProposal("AAPL", "tech", 333), emptyView(100_000, 100_000))
	if !res.OK || res.Qty != 30 {
		t.Errorf("Qty=%d ok=%v, want 30", res.Qty, res.OK)
	}
}

func TestSize_OptionPositionCap(t *testing.T) {
	sz := NewSizer(strategyconfig.Default())

	// 옵션 5% = 5,000 → 프리미엄 $3.00 x100 = $300/계약 → 16계약
	res := sz.Size(callProposal("AAPL", "tech", 3.0), emptyView(100_000, 100_000))
	if !res.OK || res.Qty != 16 {
		t.Errorf("Qty=%d ok=%v reason=%s, want 16", res.Qty, res.OK, res.Reason)
	}
	if res.Notional != 4800 {
		t.Errorf("Notional=%.2f, want 4800", res.Notional)
	}
}

func TestSize_DuplicateSymbol(t *testing.T) {
	sz := NewSizer(strategyconfig.Default())

	view := emptyView(100_000, 50_000)
	view.Positions["AAPL"] = contracts.Position{Symbol: "AAPL", Class: contracts.AssetStock, Qty: 10, CurrentPrice: 200, Multiplier: 1}

	res := sz.Size(stockProposal("AAPL", "tech", 200), view)
	if res.OK || res.Reason != contracts.RejectDuplicate {
		t.Errorf("duplicate symbol: ok=%v reason=%s, want %s", res.OK, res.Reason, contracts.RejectDuplicate)
	}
}

func TestSize_SectorCap(t *testing.T) {
	sz := NewSizer(strategyconfig.Default())

	// tech 섹터에 이미 29,900 → 잔여 100으로는 한 주도 못 삼
	view := emptyView(100_000, 100_000)
	view.SectorNotional["tech"] = 29_900
	view.Positions["MSFT"] = contracts.Position{Symbol: "MSFT", Class: contracts.AssetStock, Sector: "tech"}

	res := sz.Size(stockProposal("AAPL", "tech", 200), view)
	if res.OK {
		t.Fatalf("expected sector rejection, got qty=%d", res.Qty)
	}
	if res.Reason != contracts.RejectSectorCap {
		t.Errorf("Reason=%s, want %s", res.Reason, contracts.RejectSectorCap)
	}

	// 다른 섹터는 영향 없음
	res = sz.Size(stockProposal("XOM", "energy", 100), view)
	if !res.OK {
		t.Errorf("other sector rejected: %s %s", res.Reason, res.Detail)
	}
}

func TestSize_CashReserve(t *testing.T) {
	sz := NewSizer(strategyconfig.Default())

	// 현금 5,100, 유보 5% = 5,000 → 사용 가능 100으로는 한 주도 못 삼
	view := emptyView(100_000, 5_100)

	res := sz.Size(stockProposal("AAPL", "tech", 200), view)
	if res.OK || res.Reason != contracts.RejectCashReserve {
		t.Errorf("ok=%v reason=%s, want %s", res.OK, res.Reason, contracts.RejectCashReserve)
	}
}

func TestSize_CashConstrainsQty(t *testing.T) {
	sz := NewSizer(strategyconfig.Default())

	// 현금 8,000 - 유보 5,000 = 3,000 → $200 주식 15주 (포지션 한도 50주보다 작음)
	view := emptyView(100_000, 8_000)

	res := sz.Size(stockProposal("AAPL", "tech", 200), view)
	if !res.OK || res.Qty != 15 {
		t.Errorf("Qty=%d ok=%v reason=%s, want 15", res.Qty, res.OK, res.Reason)
	}
}

func TestSize_MinNotional(t *testing.T) {
	sz := NewSizer(strategyconfig.Default())

	// 자본 9,000 → 주식 한도 900 < 1,000 → 거부
	res := sz.Size(stockProposal("AAPL", "tech", 150), emptyView(9_000, 9_000))
	if res.OK || res.Reason != contracts.RejectMinNotional {
		t.Errorf("ok=%v reason=%s, want %s", res.OK, res.Reason, contracts.RejectMinNotional)
	}
}

func TestSize_MaxPositions(t *testing.T) {
	rules := strategyconfig.Default()
	sz := NewSizer(rules)

	view := emptyView(1_000_000, 500_000)
	for i := 0; i < rules.Sizing.MaxPositions; i++ {
		sym := string(rune('A' + i))
		view.Positions[sym] = contracts.Position{Symbol: sym, Class: contracts.AssetStock}
	}

	res := sz.Size(stockProposal("AAPL", "tech", 200), view)
	if res.OK || res.Reason != contracts.RejectMaxPositions {
		t.Errorf("ok=%v reason=%s, want %s", res.OK, res.Reason, contracts.RejectMaxPositions)
	}
}

func TestSize_ClassSubcaps(t *testing.T) {
	rules := strategyconfig.Default()
	sz := NewSizer(rules)

	// 주식 8개 보유 → 주식 추가 거부, 옵션은 허용
	view := emptyView(1_000_000, 500_000)
	view.StockCount = rules.Sizing.MaxStockPositions
	for i := 0; i < rules.Sizing.MaxStockPositions; i++ {
		sym := string(rune('A' + i))
		view.Positions[sym] = contracts.Position{Symbol: sym, Class: contracts.AssetStock}
	}

	res := sz.Size(stockProposal("AAPL", "tech", 200), view)
	if res.OK || res.Reason != contracts.RejectMaxPositions {
		t.Errorf("stock subcap: ok=%v reason=%s", res.OK, res.Reason)
	}

	res = sz.Size(callProposal("AAPL", "tech", 3.0), view)
	if !res.OK {
		t.Errorf("option should pass stock subcap: %s %s", res.Reason, res.Detail)
	}
}

func TestSize_ClassAllocationBudget(t *testing.T) {
	sz := NewSizer(strategyconfig.Default())

	// 주식 배분 50% = 50,000 중 49,900 사용 → 잔여 100으로는 한 주도 못 삼
	view := emptyView(100_000, 100_000)
	view.Positions["MSFT"] = contracts.Position{
		Symbol: "MSFT", Class: contracts.AssetStock, Sector: "tech",
		Qty: 499, CurrentPrice: 100, Multiplier: 1,
	}

	res := sz.Size(stockProposal("AAPL", "semis", 200), view)
	if res.OK {
		t.Fatalf("expected allocation rejection, got qty=%d", res.Qty)
	}
	if res.Reason != contracts.RejectPositionCap {
		t.Errorf("Reason=%s, want %s", res.Reason, contracts.RejectPositionCap)
	}
}
