package strategyconfig

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault_Validates(t *testing.T) {
	cfg := Default()
	if err := Validate(cfg); err != nil {
		t.Fatalf("default config failed validation: %v", err)
	}

	// 문서화된 기본값 확인
	if cfg.Entry.ScoreThreshold != 60 {
		t.Errorf("score_threshold = %v, want 60", cfg.Entry.ScoreThreshold)
	}
	if cfg.Sizing.StockPositionPct != 0.10 || cfg.Sizing.OptionPositionPct != 0.05 {
		t.Errorf("position caps = %v/%v, want 0.10/0.05",
			cfg.Sizing.StockPositionPct, cfg.Sizing.OptionPositionPct)
	}
	if cfg.Breakers.DailyLossPct != 0.03 || cfg.Breakers.MaxDrawdownPct != 0.40 {
		t.Errorf("breakers = %v/%v, want 0.03/0.40",
			cfg.Breakers.DailyLossPct, cfg.Breakers.MaxDrawdownPct)
	}
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"threshold above 100", func(c *Config) { c.Entry.ScoreThreshold = 101 }},
		{"conviction below threshold", func(c *Config) { c.Entry.HighConviction = 50 }},
		{"allocation not summing to 1", func(c *Config) { c.Allocation.StockPct = 0.6 }},
		{"inverted DTE window", func(c *Config) { c.Options.MinDTE = 50 }},
		{"close-out inside entry window", func(c *Config) { c.Exits.OptionCloseOutDTE = 35 }},
		{"reward/risk below 1", func(c *Config) { c.Options.MinRewardRisk = 0.5 }},
		{"drawdown below daily loss", func(c *Config) { c.Breakers.MaxDrawdownPct = 0.01 }},
		{"bad timezone", func(c *Config) { c.Meta.Timezone = "Mars/Olympus" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := Validate(cfg); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestHash_Deterministic(t *testing.T) {
	cfg := Default()

	hash1, err := Hash(cfg)
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if len(hash1) != 64 {
		t.Errorf("expected 64 char hash, got %d", len(hash1))
	}

	// 동일 설정 → 동일 해시
	hash2, _ := Hash(cfg)
	if hash1 != hash2 {
		t.Error("hash not deterministic")
	}

	// 설정 변경 → 해시 변경
	cfg.Entry.ScoreThreshold = 65
	hash3, _ := Hash(cfg)
	if hash1 == hash3 {
		t.Error("hash did not change with config")
	}
}

func TestLoad_StrictFields(t *testing.T) {
	dir := t.TempDir()

	// 오타 필드는 즉시 실패해야 함
	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("meta:\n  strategy_idd: oops\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := Load(bad); err == nil {
		t.Error("expected error for unknown field, got nil")
	}

	good := filepath.Join(dir, "good.yaml")
	yaml := `
meta:
  strategy_id: test_v1
  version: 0.1.0
  timezone: America/New_York
entry:
  score_threshold: 60
  high_conviction: 75
  confidence_high: 85
  confidence_medium: 70
  allow_short: false
allocation:
  stock_pct: 0.5
  option_pct: 0.5
  cash_reserve_pct: 0.05
sizing:
  stock_position_pct: 0.10
  option_position_pct: 0.05
  max_sector_pct: 0.30
  min_notional_usd: 1000
  max_positions: 15
  max_stock_positions: 8
  max_option_positions: 12
exits:
  stock_stop_loss_pct: 0.08
  stock_profit_target_pct: 0.15
  max_hold_days: 30
  option_close_out_dte: 7
options:
  min_dte: 30
  max_dte: 45
  min_reward_risk: 2.0
  contract_multiplier: 100
breakers:
  daily_loss_pct: 0.03
  max_drawdown_pct: 0.40
  warn_fraction: 0.75
alerts:
  large_position_pct: 0.08
`
	if err := os.WriteFile(good, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, raw, err := Load(good)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Meta.StrategyID != "test_v1" {
		t.Errorf("strategy_id = %s, want test_v1", cfg.Meta.StrategyID)
	}
	if len(raw) == 0 {
		t.Error("raw yaml bytes not returned")
	}
}
