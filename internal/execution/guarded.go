package execution

import (
	"context"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"github.com/wonny/kairos/internal/contracts"
	"github.com/wonny/kairos/pkg/logger"
)

// GuardedBroker wraps a Broker with a circuit breaker.
// 브로커 장애가 반복되면 회로를 열어 빠르게 실패시킨다 — 코어는
// 재시도하지 않고 거부 intent로 기록할 뿐.
type GuardedBroker struct {
	inner   Broker
	breaker *gobreaker.CircuitBreaker
	logger  *logger.Logger
}

// NewGuardedBroker wraps a broker with failure protection
func NewGuardedBroker(inner Broker, log *logger.Logger) *GuardedBroker {
	settings := gobreaker.Settings{
		Name:     "broker",
		Interval: 60 * time.Second,
		Timeout:  60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.WithFields(map[string]interface{}{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Broker circuit state changed")
		},
	}
	return &GuardedBroker{
		inner:   inner,
		breaker: gobreaker.NewCircuitBreaker(settings),
		logger:  log,
	}
}

// Submit forwards to the inner broker through the circuit
func (g *GuardedBroker) Submit(ctx context.Context, intent *contracts.OrderIntent) (*Fill, error) {
	result, err := g.breaker.Execute(func() (interface{}, error) {
		return g.inner.Submit(ctx, intent)
	})
	if err != nil {
		return nil, fmt.Errorf("broker submit %s: %w", intent.Symbol, err)
	}
	return result.(*Fill), nil
}
