package prometheus

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	goSession "github.com/MrEthical07/goSession"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type fakeSource struct {
	snapshot goSession.MetricsSnapshot
	dropped  uint64
}

func (f fakeSource) MetricsSnapshot() goSession.MetricsSnapshot { return f.snapshot }
func (f fakeSource) NotificationsDropped() uint64              { return f.dropped }

func TestCollectEmptyWhenMetricsDisabled(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: goSession.MetricsSnapshot{
			Counters:   map[goSession.MetricID]uint64{},
			Histograms: map[goSession.MetricID][]uint64{},
		},
	})

	if n := testutil.CollectAndCount(exp); n != 0 {
		t.Fatalf("expected no metrics for disabled source, got %d", n)
	}
}

func TestCollectCountersAndHistogram(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: goSession.MetricsSnapshot{
			Counters: map[goSession.MetricID]uint64{
				goSession.MetricValidationSuccess: 7,
				goSession.MetricFallbackAttempt:   2,
			},
			Histograms: map[goSession.MetricID][]uint64{
				goSession.MetricValidateLatency: {1, 2, 3, 4, 5, 6, 7, 8},
			},
		},
		dropped: 2,
	})

	expected := `
# HELP gosession_validation_success_total Token validations that returned a user.
# TYPE gosession_validation_success_total counter
gosession_validation_success_total 7
# HELP gosession_fallback_attempt_total Current-user lookups after a failed validation.
# TYPE gosession_fallback_attempt_total counter
gosession_fallback_attempt_total 2
# HELP gosession_notifications_dropped_total Toasts dropped due to dispatcher backpressure.
# TYPE gosession_notifications_dropped_total counter
gosession_notifications_dropped_total 2
`
	err := testutil.CollectAndCompare(exp, strings.NewReader(expected),
		"gosession_validation_success_total",
		"gosession_fallback_attempt_total",
		"gosession_notifications_dropped_total",
	)
	if err != nil {
		t.Fatalf("unexpected exposition: %v", err)
	}

	want := len(exp.counters) + len(exp.histograms) + 1
	if n := testutil.CollectAndCount(exp); n != want {
		t.Fatalf("expected %d metrics, got %d", want, n)
	}
}

func TestHandlerServesExposition(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: goSession.MetricsSnapshot{
			Counters: map[goSession.MetricID]uint64{goSession.MetricLogout: 1},
			Histograms: map[goSession.MetricID][]uint64{
				goSession.MetricValidateLatency: {1, 0, 0, 0, 0, 0, 0, 3},
			},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	exp.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); !strings.Contains(got, "text/plain") {
		t.Fatalf("expected text exposition content type, got %q", got)
	}
	body, _ := io.ReadAll(rec.Body)
	out := string(body)
	if !strings.Contains(out, "gosession_logout_total 1") {
		t.Fatalf("expected logout counter, got:\n%s", out)
	}
	if !strings.Contains(out, `gosession_validate_latency_seconds_bucket{le="0.005"} 1`) {
		t.Fatalf("expected first bucket, got:\n%s", out)
	}
	if !strings.Contains(out, `gosession_validate_latency_seconds_bucket{le="+Inf"} 4`) {
		t.Fatalf("expected +Inf bucket, got:\n%s", out)
	}
	if !strings.Contains(out, "gosession_validate_latency_seconds_count 4") {
		t.Fatalf("expected histogram count, got:\n%s", out)
	}
}

func TestExporterLintsClean(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: goSession.MetricsSnapshot{
			Counters: map[goSession.MetricID]uint64{goSession.MetricLogout: 1},
		},
	})
	problems, err := testutil.CollectAndLint(exp)
	if err != nil {
		t.Fatalf("lint: %v", err)
	}
	if len(problems) != 0 {
		t.Fatalf("lint problems: %+v", problems)
	}
}

func BenchmarkCollect(b *testing.B) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: goSession.MetricsSnapshot{
			Counters: map[goSession.MetricID]uint64{
				goSession.MetricValidationSuccess:        1000,
				goSession.MetricValidationFailureNetwork: 40,
				goSession.MetricFallbackAttempt:          40,
				goSession.MetricFallbackSuccess:          38,
				goSession.MetricStaleDiscarded:           3,
			},
			Histograms: map[goSession.MetricID][]uint64{
				goSession.MetricValidateLatency: {10, 20, 30, 40, 50, 60, 70, 80},
			},
		},
	})

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = testutil.CollectAndCount(exp)
	}
}
