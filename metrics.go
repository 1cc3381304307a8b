package goSession

import (
	"sync/atomic"
	"time"
)

// MetricID identifies an in-process counter or histogram.
type MetricID uint16

const (
	// MetricValidationSuccess counts primary validations that returned a user.
	MetricValidationSuccess MetricID = iota
	// MetricValidationFailureNetwork counts primary validations failed by transport errors.
	MetricValidationFailureNetwork
	// MetricValidationFailureExpired counts primary validations rejected as expired.
	MetricValidationFailureExpired
	// MetricValidationFailureInvalid counts primary validations rejected as invalid.
	MetricValidationFailureInvalid
	// MetricValidationFailureMalformed counts undecodable validation responses.
	MetricValidationFailureMalformed
	// MetricValidationFailureUnknown counts unclassified validation failures.
	MetricValidationFailureUnknown
	// MetricFallbackAttempt counts current-user lookups issued after a failed validation.
	MetricFallbackAttempt
	// MetricFallbackSuccess counts fallback lookups that returned a user.
	MetricFallbackSuccess
	// MetricFallbackFailure counts fallback lookups that failed.
	MetricFallbackFailure
	// MetricFallbackSkipped counts fallbacks skipped because the token was locally expired.
	MetricFallbackSkipped
	// MetricStaleDiscarded counts settlements dropped by the last-initiated-wins rule.
	MetricStaleDiscarded
	// MetricCoalesced counts revalidation requests that joined an in-flight call.
	MetricCoalesced
	// MetricRevalidationScheduled counts revalidations fired by the interval schedule.
	MetricRevalidationScheduled
	// MetricRevalidationFocus counts revalidations fired by window focus.
	MetricRevalidationFocus
	// MetricLogout counts effective logouts.
	MetricLogout
	// MetricSignInSuccess counts successful sign-ins.
	MetricSignInSuccess
	// MetricSignInFailure counts failed sign-ins.
	MetricSignInFailure
	// MetricAdminSignInRejected counts admin-portal sign-ins rejected for role.
	MetricAdminSignInRejected
	// MetricValidateLatency is the primary validation latency histogram.
	MetricValidateLatency
	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds lock-free counters and the validation latency histogram.
//
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time copy of every counter and histogram.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics creates a metrics set honouring cfg.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled reports whether counters are recorded.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// LatencyEnabled reports whether the latency histogram is recorded.
func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc adds one to id.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records d in the histogram for id. Only [MetricValidateLatency] has one.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id >= metricIDCount {
		return
	}
	if id != MetricValidateLatency {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

// Value returns the current count for id.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies every counter and histogram.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 1),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		if id == MetricValidateLatency {
			continue
		}
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := 0; i < histBucketCount; i++ {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricValidateLatency].buckets[i])
		}
		s.Histograms[MetricValidateLatency] = buckets
	}

	return s
}

func failureMetric(reason FailureReason) MetricID {
	switch reason {
	case ReasonNetwork:
		return MetricValidationFailureNetwork
	case ReasonExpired:
		return MetricValidationFailureExpired
	case ReasonInvalid:
		return MetricValidationFailureInvalid
	case ReasonMalformed:
		return MetricValidationFailureMalformed
	default:
		return MetricValidationFailureUnknown
	}
}

func bucketIndex(d time.Duration) int {
	ms := d.Milliseconds()

	switch {
	case ms <= 5:
		return 0
	case ms <= 10:
		return 1
	case ms <= 25:
		return 2
	case ms <= 50:
		return 3
	case ms <= 100:
		return 4
	case ms <= 250:
		return 5
	case ms <= 500:
		return 6
	default:
		return 7
	}
}
