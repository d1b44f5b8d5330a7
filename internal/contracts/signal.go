package contracts

import "time"

// 서브 점수 범위 (상류 계약)
// Technical 0~40, Sentiment 0~25, Model 0~25, Regime -10~+10
const (
	TechnicalMax = 40.0
	SentimentMax = 25.0
	ModelMax     = 25.0
	RegimeMin    = -10.0
	RegimeMax    = 10.0

	CompositeMin = 0.0
	CompositeMax = 100.0
)

// Direction represents the directional bias of a signal
type Direction string

const (
	DirectionBullish Direction = "BULLISH"
	DirectionBearish Direction = "BEARISH"
	DirectionNeutral Direction = "NEUTRAL"
)

// Confidence represents conviction bands derived from the composite total
// SSOT: config/trading/us_equity_options_v1.yaml entry.confidence
type Confidence string

const (
	ConfidenceHigh   Confidence = "HIGH"   // total >= 85
	ConfidenceMedium Confidence = "MEDIUM" // total >= 70
	ConfidenceLow    Confidence = "LOW"    // total >= 60
)

// SubScore is a component score that may be missing when its upstream
// producer failed. 실패한 소스는 0점 처리 + degraded 플래그
type SubScore struct {
	Value float64 `json:"value"`
	Valid bool    `json:"valid"`
}

// Score returns the contribution of this sub-score (0 when degraded)
func (s SubScore) Score() float64 {
	if !s.Valid {
		return 0
	}
	return s.Value
}

// SignalInputs carries the per-instrument raw sub-scores for one scan cycle
// ⭐ SSOT: 상류(collaborator) → Aggregator 데이터 전달
type SignalInputs struct {
	Symbol string  `json:"symbol"`
	Sector string  `json:"sector"`
	Price  float64 `json:"price"`

	Technical SubScore `json:"technical"` // 0~40
	Sentiment SubScore `json:"sentiment"` // 0~25
	Model     SubScore `json:"model"`     // 0~25
	Regime    SubScore `json:"regime"`    // -10~+10, 사이클 공통

	// 기술적 방향은 상류에서 판정되어 내려옴 (점수 derivation에 포함)
	TechnicalDirection Direction `json:"technical_direction"`
	SentimentDirection Direction `json:"sentiment_direction"`
	ModelDirection     Direction `json:"model_direction"`
}

// CompositeSignal is the aggregated score for one instrument in one cycle.
// Immutable once produced; persisted as a write-once fact.
// Invariant: Total = clamp(Technical+Sentiment+Model+Regime, 0, 100)
type CompositeSignal struct {
	Symbol    string    `json:"symbol"`
	Sector    string    `json:"sector"`
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`

	Technical float64 `json:"technical"`
	Sentiment float64 `json:"sentiment"`
	Model     float64 `json:"model"`
	Regime    float64 `json:"regime"`
	Total     float64 `json:"total"`

	Direction  Direction  `json:"direction"`
	Confidence Confidence `json:"confidence"`

	// Degraded lists the sources that failed upstream this cycle
	Degraded []string `json:"degraded,omitempty"`
}

// IsDegraded reports whether any sub-score producer failed
func (c *CompositeSignal) IsDegraded() bool {
	return len(c.Degraded) > 0
}

// ClampScore clamps a composite total into [0, 100]
func ClampScore(v float64) float64 {
	if v < CompositeMin {
		return CompositeMin
	}
	if v > CompositeMax {
		return CompositeMax
	}
	return v
}
