package service

import (
	"sync/atomic"
	"time"
)

// Metrics tracks generator call metrics
type Metrics struct {
	batches         atomic.Int64
	requests        atomic.Int64
	failures        atomic.Int64
	noImage         atomic.Int64
	latencyNanos    atomic.Int64
	persistFailures atomic.Int64
}

// MetricsSnapshot is a point-in-time copy of Metrics
type MetricsSnapshot struct {
	Batches          int64   `json:"batches"`
	Requests         int64   `json:"requests"`
	Failures         int64   `json:"failures"`
	NoImageProduced  int64   `json:"no_image_produced"`
	PersistFailures  int64   `json:"persist_failures"`
	AvgLatencyMillis float64 `json:"avg_latency_ms"`
	ErrorRate        float64 `json:"error_rate"`
}

func (m *Metrics) recordRequest(d time.Duration, err error, noImage bool) {
	m.requests.Add(1)
	m.latencyNanos.Add(d.Nanoseconds())
	if err != nil {
		m.failures.Add(1)
	}
	if noImage {
		m.noImage.Add(1)
	}
}

// Snapshot returns the current counters
func (m *Metrics) Snapshot() MetricsSnapshot {
	s := MetricsSnapshot{
		Batches:         m.batches.Load(),
		Requests:        m.requests.Load(),
		Failures:        m.failures.Load(),
		NoImageProduced: m.noImage.Load(),
		PersistFailures: m.persistFailures.Load(),
	}
	if s.Requests > 0 {
		s.AvgLatencyMillis = float64(m.latencyNanos.Load()) / float64(s.Requests) / 1e6
		s.ErrorRate = float64(s.Failures) / float64(s.Requests) * 100
	}
	return s
}
