package signals

import (
	"time"

	"github.com/wonny/kairos/internal/contracts"
	"github.com/wonny/kairos/internal/strategyconfig"
)

// Aggregator combines the four sub-scores into one composite signal
// ⭐ SSOT: 종합점수 산출은 여기서만
//
// Pure transform: 같은 입력 → 같은 출력, 공유 상태/부수효과 없음.
// 실패하지 않음 — 결측 서브점수는 0점 처리 + degraded 플래그.
type Aggregator struct {
	confidenceHigh   float64
	confidenceMedium float64
}

// New creates an aggregator from trading rules
func New(rules *strategyconfig.Config) *Aggregator {
	return &Aggregator{
		confidenceHigh:   rules.Entry.ConfidenceHigh,
		confidenceMedium: rules.Entry.ConfidenceMedium,
	}
}

// Aggregate produces the composite signal for one instrument.
// Invariant: Total = clamp(tech + sent + model + regime, 0, 100).
// 서브점수는 상류에서 이미 범위 내로 클램프되어 오지만, 생산자 오동작에
// 대비해 합계를 방어적으로 재클램프한다.
func (a *Aggregator) Aggregate(in contracts.SignalInputs, at time.Time) contracts.CompositeSignal {
	tech := in.Technical.Score()
	sent := in.Sentiment.Score()
	model := in.Model.Score()
	regime := in.Regime.Score()

	total := contracts.ClampScore(tech + sent + model + regime)

	sig := contracts.CompositeSignal{
		Symbol:    in.Symbol,
		Sector:    in.Sector,
		Price:     in.Price,
		Timestamp: at,
		Technical: tech,
		Sentiment: sent,
		Model:     model,
		Regime:    regime,
		Total:     total,
		Direction: a.vote(in),
		Degraded:  degradedSources(in),
	}
	sig.Confidence = a.confidence(total)
	return sig
}

// vote decides the overall direction by majority of the directional sources
// 동수일 때는 기술적 방향을 따름 (가장 큰 가중치)
func (a *Aggregator) vote(in contracts.SignalInputs) contracts.Direction {
	bull, bear := 0, 0
	for _, d := range []contracts.Direction{in.TechnicalDirection, in.SentimentDirection, in.ModelDirection} {
		switch d {
		case contracts.DirectionBullish:
			bull++
		case contracts.DirectionBearish:
			bear++
		}
	}

	switch {
	case bull > bear:
		return contracts.DirectionBullish
	case bear > bull:
		return contracts.DirectionBearish
	case in.TechnicalDirection != "":
		return in.TechnicalDirection
	default:
		return contracts.DirectionNeutral
	}
}

func (a *Aggregator) confidence(total float64) contracts.Confidence {
	switch {
	case total >= a.confidenceHigh:
		return contracts.ConfidenceHigh
	case total >= a.confidenceMedium:
		return contracts.ConfidenceMedium
	default:
		return contracts.ConfidenceLow
	}
}

func degradedSources(in contracts.SignalInputs) []string {
	var out []string
	if !in.Technical.Valid {
		out = append(out, "technical")
	}
	if !in.Sentiment.Valid {
		out = append(out, "sentiment")
	}
	if !in.Model.Valid {
		out = append(out, "model")
	}
	if !in.Regime.Valid {
		out = append(out, "regime")
	}
	return out
}
