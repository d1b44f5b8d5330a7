// Package metrics exposes Prometheus collectors for the decision engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the engine collectors
// ⭐ SSOT: 지표 등록은 여기서만
type Metrics struct {
	CycleDuration prometheus.Histogram
	CyclesTotal   prometheus.Counter
	IntentsTotal  *prometheus.CounterVec
	ExitsTotal    prometheus.Counter
	BreakerMode   prometheus.Gauge
	Equity        prometheus.Gauge
	Drawdown      prometheus.Gauge
	OpenPositions prometheus.Gauge
}

// New registers the collectors on the given registerer
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		CycleDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "kairos",
			Name:      "cycle_duration_seconds",
			Help:      "Scan cycle wall time",
			Buckets:   prometheus.DefBuckets,
		}),
		CyclesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "kairos",
			Name:      "cycles_total",
			Help:      "Completed scan cycles",
		}),
		IntentsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kairos",
			Name:      "intents_total",
			Help:      "Order intents by result and reason",
		}, []string{"result", "reason"}),
		ExitsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "kairos",
			Name:      "exits_total",
			Help:      "Positions closed by exit rules",
		}),
		BreakerMode: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "kairos",
			Name:      "breaker_mode",
			Help:      "Circuit breaker mode (0=active 1=daily 2=drawdown)",
		}),
		Equity: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "kairos",
			Name:      "equity_usd",
			Help:      "Current account equity",
		}),
		Drawdown: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "kairos",
			Name:      "drawdown_ratio",
			Help:      "Drawdown from peak equity",
		}),
		OpenPositions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "kairos",
			Name:      "open_positions",
			Help:      "Number of open positions",
		}),
	}
}
