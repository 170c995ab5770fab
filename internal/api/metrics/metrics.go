// Package metrics defines and registers all custom Prometheus metrics for the
// Neumonitor triage API. It is the single source of truth for metric names,
// labels, and help strings.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "neumonitor"

// LoginsTotal counts login attempts.
// Label:
//   - outcome: "success", "rejected", or "error"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by outcome.",
	},
	[]string{"outcome"},
)

// RegistrationsTotal counts completed registrations, labelled by the
// vulnerability tier computed from the intake.
var RegistrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of completed registrations, by vulnerability tier.",
	},
	[]string{"tier"},
)

// AnalysesTotal counts stored radiograph analyses.
// Labels:
//   - diagnosis: "NORMAL" or "NEUMONIA"
//   - tier: vulnerability tier of the patient, or "none" without a profile
var AnalysesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "analyses_total",
		Help:      "Total number of radiograph analyses stored, by diagnosis and vulnerability tier.",
	},
	[]string{"diagnosis", "tier"},
)

// SessionRejectionsTotal counts bearer credentials rejected by the auth
// middleware.
// Label:
//   - reason: "missing", "malformed", or "revoked"
var SessionRejectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_rejections_total",
		Help:      "Total number of rejected bearer credentials, by reason.",
	},
	[]string{"reason"},
)

// InferenceDuration measures the latency of calls to the model service.
// Label:
//   - outcome: the diagnosis returned, or "error" on failure
var InferenceDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "inference_duration_seconds",
		Help:      "Duration of inference calls to the model service.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"outcome"},
)
