// internal/utils/metrics/collector.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector держит метрики торгового движка.
// Nil *Collector допустим: все методы записи становятся no-op.
type Collector struct {
	subOrders     *prometheus.CounterVec
	submitLatency *prometheus.HistogramVec
	confirmations *prometheus.CounterVec
	confirmTime   prometheus.Histogram
	tradeEvents   *prometheus.CounterVec
}

// NewCollector создаёт метрики и регистрирует их в reg (если reg не nil).
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		subOrders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pump_trader_sub_orders_total",
			Help: "Sub-orders processed by the executor, by phase, side and result",
		}, []string{"phase", "side", "result"}),
		submitLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pump_trader_submit_duration_seconds",
			Help:    "Time spent building, signing and submitting one sub-order",
			Buckets: prometheus.LinearBuckets(0, 0.1, 10),
		}, []string{"phase"}),
		confirmations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pump_trader_confirmations_total",
			Help: "Confirmation poller terminal states",
		}, []string{"state"}),
		confirmTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pump_trader_confirmation_attempts",
			Help:    "Status queries used before a terminal state",
			Buckets: prometheus.LinearBuckets(1, 2, 10),
		}),
		tradeEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pump_trader_trade_events_total",
			Help: "Decoded trade events from the program log stream",
		}, []string{"side"}),
	}

	if reg != nil {
		for _, m := range []prometheus.Collector{c.subOrders, c.submitLatency, c.confirmations, c.confirmTime, c.tradeEvents} {
			if err := reg.Register(m); err != nil {
				return nil, err
			}
		}
	}
	return c, nil
}
