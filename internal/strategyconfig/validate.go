package strategyconfig

import (
	"fmt"
	"math"
	"time"
)

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks all required constraints
// 실패 시 error 반환 (프로그램 중단)
func Validate(cfg *Config) error {
	// === Meta ===
	if cfg.Meta.StrategyID == "" {
		return ValidationError{"meta.strategy_id", "required"}
	}
	if _, err := time.LoadLocation(cfg.Meta.Timezone); err != nil {
		return ValidationError{"meta.timezone", err.Error()}
	}

	// === Entry ===
	if cfg.Entry.ScoreThreshold < 0 || cfg.Entry.ScoreThreshold > 100 {
		return ValidationError{"entry.score_threshold", "must be in [0, 100]"}
	}
	if cfg.Entry.HighConviction < cfg.Entry.ScoreThreshold {
		return ValidationError{"entry.high_conviction", "must be >= entry.score_threshold"}
	}
	if cfg.Entry.ConfidenceHigh <= cfg.Entry.ConfidenceMedium {
		return ValidationError{"entry.confidence_high", "must be > entry.confidence_medium"}
	}

	// === Allocation ===
	// stock + option 배분은 정확히 100%
	if sum := cfg.Allocation.StockPct + cfg.Allocation.OptionPct; math.Abs(sum-1.0) > 1e-9 {
		return ValidationError{"allocation", fmt.Sprintf("stock_pct + option_pct must sum to 1.0, got %.4f", sum)}
	}
	if cfg.Allocation.CashReservePct < 0 || cfg.Allocation.CashReservePct >= 1 {
		return ValidationError{"allocation.cash_reserve_pct", "must be in [0, 1)"}
	}

	// === Sizing ===
	if cfg.Sizing.StockPositionPct <= 0 || cfg.Sizing.StockPositionPct > 1 {
		return ValidationError{"sizing.stock_position_pct", "must be in (0, 1]"}
	}
	if cfg.Sizing.OptionPositionPct <= 0 || cfg.Sizing.OptionPositionPct > 1 {
		return ValidationError{"sizing.option_position_pct", "must be in (0, 1]"}
	}
	if cfg.Sizing.MaxSectorPct <= 0 || cfg.Sizing.MaxSectorPct > 1 {
		return ValidationError{"sizing.max_sector_pct", "must be in (0, 1]"}
	}
	if cfg.Sizing.MaxPositions <= 0 {
		return ValidationError{"sizing.max_positions", "must be > 0"}
	}
	if cfg.Sizing.MaxStockPositions+cfg.Sizing.MaxOptionPositions < cfg.Sizing.MaxPositions {
		return ValidationError{"sizing", "class subcaps must cover max_positions"}
	}

	// === Exits ===
	if cfg.Exits.StockStopLossPct <= 0 || cfg.Exits.StockStopLossPct >= 1 {
		return ValidationError{"exits.stock_stop_loss_pct", "must be in (0, 1)"}
	}
	if cfg.Exits.MaxHoldDays <= 0 {
		return ValidationError{"exits.max_hold_days", "must be > 0"}
	}

	// === Options ===
	if cfg.Options.MinDTE >= cfg.Options.MaxDTE {
		return ValidationError{"options", "min_dte must be < max_dte"}
	}
	if cfg.Exits.OptionCloseOutDTE >= cfg.Options.MinDTE {
		return ValidationError{"exits.option_close_out_dte", "must be < options.min_dte"}
	}
	if cfg.Options.MinRewardRisk < 1 {
		return ValidationError{"options.min_reward_risk", "must be >= 1"}
	}
	if cfg.Options.ContractMultiplier <= 0 {
		return ValidationError{"options.contract_multiplier", "must be > 0"}
	}

	// === Breakers ===
	if cfg.Breakers.DailyLossPct <= 0 || cfg.Breakers.DailyLossPct >= 1 {
		return ValidationError{"breakers.daily_loss_pct", "must be in (0, 1)"}
	}
	if cfg.Breakers.MaxDrawdownPct <= cfg.Breakers.DailyLossPct {
		return ValidationError{"breakers.max_drawdown_pct", "must be > breakers.daily_loss_pct"}
	}
	if cfg.Breakers.WarnFraction <= 0 || cfg.Breakers.WarnFraction >= 1 {
		return ValidationError{"breakers.warn_fraction", "must be in (0, 1)"}
	}

	return nil
}
