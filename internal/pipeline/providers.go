package pipeline

import (
	"context"

	"github.com/wonny/kairos/internal/contracts"
)

// Instrument is one tradeable entry in the scan universe
type Instrument struct {
	Symbol string               `json:"symbol"`
	Sector string               `json:"sector"`
	Class  contracts.AssetClass `json:"class"`
}

// MarketData supplies the universe, prices and technical scores.
// 의존성 역전: 시세 수집/지표 계산은 collaborator 소관
type MarketData interface {
	// Universe returns the instruments to evaluate this cycle
	Universe(ctx context.Context) ([]Instrument, error)

	// Prices returns last prices for the given symbols.
	// 누락된 심볼은 맵에서 빠질 수 있다 (직전 가격 유지)
	Prices(ctx context.Context, symbols []string) (map[string]float64, error)

	// TechnicalScore returns the 0-40 technical sub-score and its direction
	TechnicalScore(ctx context.Context, symbol string) (contracts.SubScore, contracts.Direction, error)
}

// SentimentProvider supplies the 0-25 sentiment sub-score
type SentimentProvider interface {
	SentimentScore(ctx context.Context, symbol string) (contracts.SubScore, contracts.Direction, error)
}

// Predictor supplies the 0-25 model sub-score
type Predictor interface {
	ModelScore(ctx context.Context, symbol string) (contracts.SubScore, contracts.Direction, error)
}

// RegimeClassifier supplies the cycle-wide -10..+10 regime adjustment.
// 사이클당 한 번 조회하여 전 종목에 동일 적용
type RegimeClassifier interface {
	RegimeScore(ctx context.Context) (contracts.SubScore, error)
}

// SignalStore persists composite signals (write-once)
type SignalStore interface {
	SaveSignals(ctx context.Context, signals []contracts.CompositeSignal) error
}

// IntentStore persists order intents (write-once)
type IntentStore interface {
	SaveIntents(ctx context.Context, intents []contracts.OrderIntent) error
}

// EventStore persists risk events
type EventStore interface {
	SaveEvents(ctx context.Context, events []contracts.RiskEvent) error
}

// Notifier delivers risk events externally.
// fire-and-forget: 실패해도 사이클은 계속
type Notifier interface {
	Notify(ctx context.Context, event contracts.RiskEvent)
}
