package contracts

import "time"

// Position is one open holding. Owned exclusively by the risk manager's
// PortfolioState; everything else sees copies through PortfolioView.
type Position struct {
	Symbol     string     `json:"symbol"`
	Class      AssetClass `json:"class"`
	Structure  Structure  `json:"structure"`
	Direction  Direction  `json:"direction"`
	Qty        int        `json:"qty"`
	EntryPrice float64    `json:"entry_price"` // per share
	Stop       float64    `json:"stop"`
	Target     float64    `json:"target"`
	Sector     string     `json:"sector"`
	Multiplier int        `json:"multiplier"` // 1 for stock, 100 for options
	OpenedAt   time.Time  `json:"opened_at"`

	// 옵션 포지션만
	Expiry *time.Time `json:"expiry,omitempty"`

	CurrentPrice float64 `json:"current_price"`
}

// Notional returns the current market value of the position
func (p Position) Notional() float64 {
	return p.CurrentPrice * float64(p.Qty) * float64(p.Multiplier)
}

// CostBasis returns the entry value of the position
func (p Position) CostBasis() float64 {
	return p.EntryPrice * float64(p.Qty) * float64(p.Multiplier)
}

// Short reports whether the position is a short equity holding.
// 옵션은 방향이 BEARISH여도(롱 풋) 프리미엄 매수 포지션이다.
func (p Position) Short() bool {
	return p.Class == AssetStock && p.Direction == DirectionBearish
}

// UnrealizedPnL returns the open profit/loss of the position
func (p Position) UnrealizedPnL() float64 {
	if p.Short() {
		return p.CostBasis() - p.Notional()
	}
	return p.Notional() - p.CostBasis()
}

// MarketValue returns the position's contribution to account equity.
// 숏은 담보금 + 평가손익으로 계상 (진입 시 명목가만큼 현금이 담보로 잠김)
func (p Position) MarketValue() float64 {
	return p.CostBasis() + p.UnrealizedPnL()
}

// DTE returns days to expiry, or -1 for non-expiring positions
func (p Position) DTE(now time.Time) int {
	if p.Expiry == nil {
		return -1
	}
	return int(p.Expiry.Sub(now).Hours() / 24)
}

// PortfolioView is a read-only snapshot of portfolio state handed to the
// sizer and the API. 파생값 포함, 변경 불가 (복사본)
type PortfolioView struct {
	Equity         float64 `json:"equity"`
	Cash           float64 `json:"cash"`
	DayStartEquity float64 `json:"day_start_equity"`
	PeakEquity     float64 `json:"peak_equity"`
	DailyPnL       float64 `json:"daily_pnl"`
	Drawdown       float64 `json:"drawdown"` // (peak - equity) / peak

	Positions      map[string]Position `json:"positions"`       // key: symbol
	SectorNotional map[string]float64  `json:"sector_notional"` // key: sector

	StockCount  int `json:"stock_count"`
	OptionCount int `json:"option_count"`
}

// TotalPositions returns the number of open positions
func (v PortfolioView) TotalPositions() int {
	return len(v.Positions)
}

// HasPosition reports whether a symbol is already held
func (v PortfolioView) HasPosition(symbol string) bool {
	_, ok := v.Positions[symbol]
	return ok
}

// ClassNotional returns the total notional held in one asset class
func (v PortfolioView) ClassNotional(class AssetClass) float64 {
	total := 0.0
	for _, p := range v.Positions {
		if p.Class == class {
			total += p.Notional()
		}
	}
	return total
}
