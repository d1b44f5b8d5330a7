package contracts

import (
	"testing"
	"time"
)

func TestPosition_Notional(t *testing.T) {
	stock := Position{
		Symbol: "AAPL", Class: AssetStock, Qty: 30,
		EntryPrice: 180, CurrentPrice: 190, Multiplier: 1,
	}
	if got := stock.Notional(); got != 30*190.0 {
		t.Errorf("stock Notional() = %v, want %v", got, 30*190.0)
	}
	if got := stock.UnrealizedPnL(); got != 30*10.0 {
		t.Errorf("stock UnrealizedPnL() = %v, want %v", got, 30*10.0)
	}

	// 옵션은 계약 승수 반영
	option := Position{
		Symbol: "NVDA", Class: AssetOption, Qty: 2,
		EntryPrice: 4.20, CurrentPrice: 5.00, Multiplier: 100,
	}
	if got := option.Notional(); got != 2*5.00*100 {
		t.Errorf("option Notional() = %v, want %v", got, 2*5.00*100)
	}
}

func TestPosition_DTE(t *testing.T) {
	now := time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)

	expiry := now.AddDate(0, 0, 35)
	option := Position{Expiry: &expiry}
	if got := option.DTE(now); got != 35 {
		t.Errorf("DTE() = %d, want 35", got)
	}

	stock := Position{}
	if got := stock.DTE(now); got != -1 {
		t.Errorf("non-expiring DTE() = %d, want -1", got)
	}
}

func TestPortfolioView_ClassNotional(t *testing.T) {
	view := PortfolioView{
		Positions: map[string]Position{
			"AAPL": {Class: AssetStock, Qty: 10, CurrentPrice: 200, Multiplier: 1},
			"MSFT": {Class: AssetStock, Qty: 5, CurrentPrice: 400, Multiplier: 1},
			"NVDA": {Class: AssetOption, Qty: 1, CurrentPrice: 6, Multiplier: 100},
		},
	}

	if got := view.ClassNotional(AssetStock); got != 4000.0 {
		t.Errorf("stock ClassNotional() = %v, want 4000", got)
	}
	if got := view.ClassNotional(AssetOption); got != 600.0 {
		t.Errorf("option ClassNotional() = %v, want 600", got)
	}
	if !view.HasPosition("AAPL") || view.HasPosition("TSLA") {
		t.Error("HasPosition lookup incorrect")
	}
}
