package internaldefs

import (
	goSession "github.com/MrEthical07/goSession"
)

// CounterDef names one counter for every exporter.
type CounterDef struct {
	ID   goSession.MetricID
	Name string
	Help string
}

// HistogramDef names one histogram for every exporter.
type HistogramDef struct {
	ID   goSession.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter.
var CounterDefs = []CounterDef{
	{ID: goSession.MetricValidationSuccess, Name: "gosession_validation_success_total", Help: "Token validations that returned a user."},
	{ID: goSession.MetricValidationFailureNetwork, Name: "gosession_validation_failure_network_total", Help: "Token validations failed by transport errors."},
	{ID: goSession.MetricValidationFailureExpired, Name: "gosession_validation_failure_expired_total", Help: "Token validations rejected as expired."},
	{ID: goSession.MetricValidationFailureInvalid, Name: "gosession_validation_failure_invalid_total", Help: "Token validations rejected as invalid."},
	{ID: goSession.MetricValidationFailureMalformed, Name: "gosession_validation_failure_malformed_total", Help: "Token validations with undecodable responses."},
	{ID: goSession.MetricValidationFailureUnknown, Name: "gosession_validation_failure_unknown_total", Help: "Token validations failed for an unclassified reason."},
	{ID: goSession.MetricFallbackAttempt, Name: "gosession_fallback_attempt_total", Help: "Current-user lookups after a failed validation."},
	{ID: goSession.MetricFallbackSuccess, Name: "gosession_fallback_success_total", Help: "Current-user lookups that returned a user."},
	{ID: goSession.MetricFallbackFailure, Name: "gosession_fallback_failure_total", Help: "Current-user lookups that failed."},
	{ID: goSession.MetricFallbackSkipped, Name: "gosession_fallback_skipped_total", Help: "Fallbacks skipped for a locally expired token."},
	{ID: goSession.MetricStaleDiscarded, Name: "gosession_stale_discarded_total", Help: "Validation results discarded as superseded."},
	{ID: goSession.MetricCoalesced, Name: "gosession_revalidation_coalesced_total", Help: "Revalidation requests joined to an in-flight call."},
	{ID: goSession.MetricRevalidationScheduled, Name: "gosession_revalidation_scheduled_total", Help: "Revalidations fired by the interval schedule."},
	{ID: goSession.MetricRevalidationFocus, Name: "gosession_revalidation_focus_total", Help: "Revalidations fired by window focus."},
	{ID: goSession.MetricLogout, Name: "gosession_logout_total", Help: "Logout operations."},
	{ID: goSession.MetricSignInSuccess, Name: "gosession_sign_in_success_total", Help: "Successful sign-ins."},
	{ID: goSession.MetricSignInFailure, Name: "gosession_sign_in_failure_total", Help: "Failed sign-ins."},
	{ID: goSession.MetricAdminSignInRejected, Name: "gosession_admin_sign_in_rejected_total", Help: "Admin portal sign-ins rejected for role."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: goSession.MetricValidateLatency, Name: "gosession_validate_latency_seconds", Help: "Token validation latency histogram."},
}

// NotificationsDroppedName is the counter for toasts dropped by the async dispatcher.
const NotificationsDroppedName = "gosession_notifications_dropped_total"

// NotificationsDroppedHelp describes [NotificationsDroppedName].
const NotificationsDroppedHelp = "Toasts dropped due to dispatcher backpressure."

// UpperBounds are the histogram bucket bounds in seconds, without +Inf.
var UpperBounds = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5}

// HistogramBounds are the bucket labels in exposition order.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix are the bucket labels usable in instrument names.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets pads or truncates raw to eight buckets.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
