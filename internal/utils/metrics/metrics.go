// internal/utils/metrics/metrics.go
package metrics

import (
	"time"
)

// RecordSubOrder записывает результат одного под-ордера.
func (c *Collector) RecordSubOrder(phase, side string, duration time.Duration, err error) {
	if c == nil {
		return
	}
	result := "submitted"
	if err != nil {
		result = "failed"
	}
	c.subOrders.WithLabelValues(phase, side, result).Inc()
	c.submitLatency.WithLabelValues(phase).Observe(duration.Seconds())
}

// RecordConfirmation записывает терминальное состояние поллера.
func (c *Collector) RecordConfirmation(state string, attempts int) {
	if c == nil {
		return
	}
	c.confirmations.WithLabelValues(state).Inc()
	c.confirmTime.Observe(float64(attempts))
}

// RecordTradeEvent считает декодированные события.
func (c *Collector) RecordTradeEvent(isBuy bool) {
	if c == nil {
		return
	}
	side := "sell"
	if isBuy {
		side = "buy"
	}
	c.tradeEvents.WithLabelValues(side).Inc()
}
