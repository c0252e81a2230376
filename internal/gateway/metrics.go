package gateway

import "sync/atomic"

// Metrics tracks gateway-level counters using atomic operations for lock-free
// concurrency. They back GET /status; Prometheus export lives in telemetry.
type Metrics struct {
	deliveries atomic.Int64
	rejected   atomic.Int64
	failures   atomic.Int64
}

// RecordDelivery records an accepted webhook delivery.
func (m *Metrics) RecordDelivery() {
	m.deliveries.Add(1)
}

// RecordRejected records a delivery refused before reaching a trigger.
func (m *Metrics) RecordRejected() {
	m.rejected.Add(1)
}

// RecordFailure records a delivery the trigger failed to process.
func (m *Metrics) RecordFailure() {
	m.failures.Add(1)
}

// Snapshot returns a point-in-time view of the counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Deliveries: m.deliveries.Load(),
		Rejected:   m.rejected.Load(),
		Failures:   m.failures.Load(),
	}
}

// MetricsSnapshot is a serializable point-in-time metrics view.
type MetricsSnapshot struct {
	Deliveries int64 `json:"deliveries"`
	Rejected   int64 `json:"rejected"`
	Failures   int64 `json:"failures"`
}
