// Package metrics holds the Prometheus counters for rate-limited interactions
// and verification codes. A nil *Metrics is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "togetherdo"

type Metrics struct {
	interactionsSent      *prometheus.CounterVec
	interactionRejections *prometheus.CounterVec
	codesIssued           *prometheus.CounterVec
	redemptions           *prometheus.CounterVec
	usageConsumed         *prometheus.CounterVec
	sweepDeleted          *prometheus.CounterVec
}

// New registers the counters on reg. Pass prometheus.NewRegistry() in tests
// to avoid duplicate registration on the default registry.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		interactionsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "interactions_sent_total",
			Help:      "Interactions committed, by feature.",
		}, []string{"feature"}),
		interactionRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "interaction_rejections_total",
			Help:      "Interactions rejected before commit, by feature and reason.",
		}, []string{"feature", "reason"}),
		codesIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verification_codes_issued_total",
			Help:      "Verification codes issued, by type.",
		}, []string{"type"}),
		redemptions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verification_redemptions_total",
			Help:      "Verification code redemption attempts, by type and outcome.",
		}, []string{"type", "outcome"}),
		usageConsumed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "usage_consumed_total",
			Help:      "Metered actions recorded against daily quotas, by feature.",
		}, []string{"feature"}),
		sweepDeleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweep_deleted_total",
			Help:      "Rows removed by the maintenance sweep, by kind.",
		}, []string{"kind"}),
	}
	if reg != nil {
		reg.MustRegister(
			m.interactionsSent,
			m.interactionRejections,
			m.codesIssued,
			m.redemptions,
			m.usageConsumed,
			m.sweepDeleted,
		)
	}
	return m
}

func (m *Metrics) InteractionSent(feature string) {
	if m == nil {
		return
	}
	m.interactionsSent.WithLabelValues(feature).Inc()
}

func (m *Metrics) InteractionRejected(feature string, reason string) {
	if m == nil {
		return
	}
	m.interactionRejections.WithLabelValues(feature, reason).Inc()
}

func (m *Metrics) CodeIssued(tokenType string) {
	if m == nil {
		return
	}
	m.codesIssued.WithLabelValues(tokenType).Inc()
}

func (m *Metrics) Redemption(tokenType string, outcome string) {
	if m == nil {
		return
	}
	m.redemptions.WithLabelValues(tokenType, outcome).Inc()
}

func (m *Metrics) UsageConsumed(feature string) {
	if m == nil {
		return
	}
	m.usageConsumed.WithLabelValues(feature).Inc()
}

func (m *Metrics) SweepDeleted(kind string, n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.sweepDeleted.WithLabelValues(kind).Add(float64(n))
}
