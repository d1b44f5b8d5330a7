package strategyconfig

// Config는 트레이딩 룰 전체 설정
// ⭐ SSOT: 모든 임계값/한도는 이 설정에서만 읽음
type Config struct {
	Meta       Meta       `yaml:"meta" json:"meta"`
	Entry      Entry      `yaml:"entry" json:"entry"`
	Allocation Allocation `yaml:"allocation" json:"allocation"`
	Sizing     Sizing     `yaml:"sizing" json:"sizing"`
	Exits      Exits      `yaml:"exits" json:"exits"`
	Options    Options    `yaml:"options" json:"options"`
	Breakers   Breakers   `yaml:"breakers" json:"breakers"`
	Alerts     Alerts     `yaml:"alerts" json:"alerts"`
}

// Meta 메타 정보
type Meta struct {
	StrategyID string `yaml:"strategy_id" json:"strategy_id"`
	Version    string `yaml:"version" json:"version"`
	Timezone   string `yaml:"timezone" json:"timezone"` // 거래소 기준 (America/New_York)
}

// Entry 진입 조건
type Entry struct {
	ScoreThreshold   float64 `yaml:"score_threshold" json:"score_threshold"`     // 기본 60
	HighConviction   float64 `yaml:"high_conviction" json:"high_conviction"`     // 기본 75, 옵션 아웃라이트 기준
	ConfidenceHigh   float64 `yaml:"confidence_high" json:"confidence_high"`     // 기본 85
	ConfidenceMedium float64 `yaml:"confidence_medium" json:"confidence_medium"` // 기본 70
	AllowShort       bool    `yaml:"allow_short" json:"allow_short"`             // 기본 false, 약세 주식 신호는 풋으로 우회
}

// Allocation 자산군별 배분
type Allocation struct {
	StockPct       float64 `yaml:"stock_pct" json:"stock_pct"`               // 기본 0.50
	OptionPct      float64 `yaml:"option_pct" json:"option_pct"`             // 기본 0.50
	CashReservePct float64 `yaml:"cash_reserve_pct" json:"cash_reserve_pct"` // 기본 0.05
}

// Sizing 포지션 사이징 한도
type Sizing struct {
	StockPositionPct   float64 `yaml:"stock_position_pct" json:"stock_position_pct"`     // 기본 0.10
	OptionPositionPct  float64 `yaml:"option_position_pct" json:"option_position_pct"`   // 기본 0.05
	MaxSectorPct       float64 `yaml:"max_sector_pct" json:"max_sector_pct"`             // 기본 0.30
	MinNotionalUSD     float64 `yaml:"min_notional_usd" json:"min_notional_usd"`         // 기본 1000
	MaxPositions       int     `yaml:"max_positions" json:"max_positions"`               // 기본 15
	MaxStockPositions  int     `yaml:"max_stock_positions" json:"max_stock_positions"`   // 기본 8
	MaxOptionPositions int     `yaml:"max_option_positions" json:"max_option_positions"` // 기본 12
}

// Exits 청산 규칙
type Exits struct {
	StockStopLossPct     float64 `yaml:"stock_stop_loss_pct" json:"stock_stop_loss_pct"`         // 기본 0.08
	StockProfitTargetPct float64 `yaml:"stock_profit_target_pct" json:"stock_profit_target_pct"` // 기본 0.15
	MaxHoldDays          int     `yaml:"max_hold_days" json:"max_hold_days"`                     // 기본 30
	OptionCloseOutDTE    int     `yaml:"option_close_out_dte" json:"option_close_out_dte"`       // 기본 7
}

// Options 옵션 구조 선택 조건
type Options struct {
	MinDTE             int     `yaml:"min_dte" json:"min_dte"`                         // 기본 30
	MaxDTE             int     `yaml:"max_dte" json:"max_dte"`                         // 기본 45
	MinRewardRisk      float64 `yaml:"min_reward_risk" json:"min_reward_risk"`         // 기본 2.0 (1:2)
	ContractMultiplier int     `yaml:"contract_multiplier" json:"contract_multiplier"` // 기본 100
}

// Breakers 서킷 브레이커 한도
type Breakers struct {
	DailyLossPct   float64 `yaml:"daily_loss_pct" json:"daily_loss_pct"`     // 기본 0.03
	MaxDrawdownPct float64 `yaml:"max_drawdown_pct" json:"max_drawdown_pct"` // 기본 0.40
	WarnFraction   float64 `yaml:"warn_fraction" json:"warn_fraction"`       // 기본 0.75 (한도의 75%에서 경고)
}

// Alerts 알림 임계값
type Alerts struct {
	LargePositionPct float64 `yaml:"large_position_pct" json:"large_position_pct"` // 기본 0.08
}

// Default returns the documented default rule set
// SSOT: config/trading/us_equity_options_v1.yaml
func Default() *Config {
	return &Config{
		Meta: Meta{
			StrategyID: "us_equity_options_v1",
			Version:    "1.0.0",
			Timezone:   "America/New_York",
		},
		Entry: Entry{
			ScoreThreshold:   60,
			HighConviction:   75,
			ConfidenceHigh:   85,
			ConfidenceMedium: 70,
			AllowShort:       false,
		},
		Allocation: Allocation{
			StockPct:       0.50,
			OptionPct:      0.50,
			CashReservePct: 0.05,
		},
		Sizing: Sizing{
			StockPositionPct:   0.10,
			OptionPositionPct:  0.05,
			MaxSectorPct:       0.30,
			MinNotionalUSD:     1000,
			MaxPositions:       15,
			MaxStockPositions:  8,
			MaxOptionPositions: 12,
		},
		Exits: Exits{
			StockStopLossPct:     0.08,
			StockProfitTargetPct: 0.15,
			MaxHoldDays:          30,
			OptionCloseOutDTE:    7,
		},
		Options: Options{
			MinDTE:             30,
			MaxDTE:             45,
			MinRewardRisk:      2.0,
			ContractMultiplier: 100,
		},
		Breakers: Breakers{
			DailyLossPct:   0.03,
			MaxDrawdownPct: 0.40,
			WarnFraction:   0.75,
		},
		Alerts: Alerts{
			LargePositionPct: 0.08,
		},
	}
}
