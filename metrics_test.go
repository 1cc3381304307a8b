package goSession

import (
	"sync"
	"testing"
	"time"
)

func TestMetricsDisabledNoIncrement(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: false})
	m.Inc(MetricValidationSuccess)

	if got := m.Value(MetricValidationSuccess); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
	if s := m.Snapshot(); len(s.Counters) != 0 || len(s.Histograms) != 0 {
		t.Fatalf("expected empty snapshot, got %+v", s)
	}
}

func TestMetricsNilIsSafe(t *testing.T) {
	var m *Metrics
	m.Inc(MetricLogout)
	m.Observe(MetricValidateLatency, time.Millisecond)
	if m.Value(MetricLogout) != 0 || m.Enabled() {
		t.Fatal("nil metrics must record nothing")
	}
}

func TestMetricsConcurrentIncrementSafe(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	const goroutines = 32
	const perG = 4000

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perG; j++ {
				m.Inc(MetricCoalesced)
			}
		}()
	}
	wg.Wait()

	want := uint64(goroutines * perG)
	if got := m.Value(MetricCoalesced); got != want {
		t.Fatalf("expected %d, got %d", want, got)
	}
}

func TestMetricsHistogramBucketCorrectness(t *testing.T) {
	m := NewMetrics(MetricsConfig{
		Enabled:                 true,
		EnableLatencyHistograms: true,
	})

	observations := []time.Duration{
		3 * time.Millisecond,
		8 * time.Millisecond,
		20 * time.Millisecond,
		40 * time.Millisecond,
		90 * time.Millisecond,
		200 * time.Millisecond,
		400 * time.Millisecond,
		2 * time.Second,
	}
	for _, d := range observations {
		m.Observe(MetricValidateLatency, d)
	}

	got := m.Snapshot().Histograms[MetricValidateLatency]
	if len(got) != histBucketCount {
		t.Fatalf("expected %d buckets, got %d", histBucketCount, len(got))
	}
	for i, v := range got {
		if v != 1 {
			t.Fatalf("bucket %d = %d, want 1", i, v)
		}
	}
}

func TestMetricsHistogramDisabled(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	m.Observe(MetricValidateLatency, time.Millisecond)

	s := m.Snapshot()
	if _, ok := s.Histograms[MetricValidateLatency]; ok {
		t.Fatal("histogram should be absent when latency histograms are off")
	}
	if _, ok := s.Counters[MetricValidateLatency]; ok {
		t.Fatal("latency id must not appear as a counter")
	}
	if _, ok := s.Counters[MetricAdminSignInRejected]; !ok {
		t.Fatal("expected every counter in the snapshot")
	}
}

func TestFailureMetricMapping(t *testing.T) {
	want := map[FailureReason]MetricID{
		ReasonNetwork:   MetricValidationFailureNetwork,
		ReasonExpired:   MetricValidationFailureExpired,
		ReasonInvalid:   MetricValidationFailureInvalid,
		ReasonMalformed: MetricValidationFailureMalformed,
		ReasonUnknown:   MetricValidationFailureUnknown,
	}
	for reason, id := range want {
		if got := failureMetric(reason); got != id {
			t.Fatalf("failureMetric(%v) = %d, want %d", reason, got, id)
		}
	}
}

func BenchmarkMetricsInc(b *testing.B) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			m.Inc(MetricValidationSuccess)
		}
	})
}
