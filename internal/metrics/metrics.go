// Package metrics exposes the engine's Prometheus instrumentation.
// Collectors are registered on the default registry; the HTTP layer serves
// them on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	decisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "approval_decisions_total",
		Help: "Approver decisions processed, by decision and resulting workflow status.",
	}, []string{"decision", "status"})

	ruleMatchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "approval_rule_matches_total",
		Help: "Rule match outcomes: matched, fallback (built-in default), or ambiguous (overlapping brackets).",
	}, []string{"outcome"})

	escalationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "approval_escalations_total",
		Help: "Workflow instances flagged as escalated by the SLA sweep.",
	})

	conversionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "approval_currency_conversion_duration_seconds",
		Help:    "Latency of external exchange-rate lookups.",
		Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	})
)

// Rule match outcome labels.
const (
	RuleMatched   = "matched"
	RuleFallback  = "fallback"
	RuleAmbiguous = "ambiguous"
)

// RecordDecision counts one processed decision and the status it produced.
func RecordDecision(decision, status string) {
	decisionsTotal.WithLabelValues(decision, status).Inc()
}

// RecordRuleMatch counts one rule-matching outcome.
func RecordRuleMatch(outcome string) {
	ruleMatchesTotal.WithLabelValues(outcome).Inc()
}

// RecordEscalation counts one newly escalated instance.
func RecordEscalation() {
	escalationsTotal.Inc()
}

// ObserveConversion records the latency of one exchange-rate lookup.
func ObserveConversion(d time.Duration) {
	conversionDuration.Observe(d.Seconds())
}
