package contracts

import "testing"

func TestClampScore(t *testing.T) {
	tests := []struct {
		name string
		raw  float64
		want float64
	}{
		{"all maxed plus regime clamps at 100", 40 + 25 + 25 + 10, 100},
		{"negative regime pulls below 100", 40 + 25 + 25 - 10, 80},
		{"negative sum clamps at 0", -5, 0},
		{"mid range passes through", 62.5, 62.5},
		{"exact upper bound", 100, 100},
		{"exact lower bound", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClampScore(tt.raw); got != tt.want {
				t.Errorf("ClampScore(%v) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestSubScore_Score(t *testing.T) {
	valid := SubScore{Value: 18.5, Valid: true}
	if got := valid.Score(); got != 18.5 {
		t.Errorf("valid Score() = %v, want 18.5", got)
	}

	// 업스트림 실패 → 기여 0
	degraded := SubScore{Value: 18.5, Valid: false}
	if got := degraded.Score(); got != 0 {
		t.Errorf("degraded Score() = %v, want 0", got)
	}
}

func TestCompositeSignal_IsDegraded(t *testing.T) {
	clean := &CompositeSignal{}
	if clean.IsDegraded() {
		t.Error("signal without degraded sources reported degraded")
	}

	flagged := &CompositeSignal{Degraded: []string{"model"}}
	if !flagged.IsDegraded() {
		t.Error("signal with degraded source not reported degraded")
	}
}
