package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for password policy evaluation.
type Metrics struct {
	EvaluationsTotal    prometheus.Counter
	RejectionsTotal     *prometheus.CounterVec
	GoodStrengthWaivers prometheus.Counter
	PolicyUpdatesTotal  prometheus.Counter
	EvaluationSeconds   prometheus.Histogram
}

func New() *Metrics {
	return &Metrics{
		EvaluationsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "passgate_policy_evaluations_total",
			Help: "Total number of password evaluations performed",
		}),
		RejectionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "passgate_policy_rejections_total",
			Help: "Total number of rejected passwords by violated rule kind",
		}, []string{"kind"}),
		GoodStrengthWaivers: promauto.NewCounter(prometheus.CounterOpts{
			Name: "passgate_policy_good_strength_waivers_total",
			Help: "Total number of passwords accepted through the good-strength waiver",
		}),
		PolicyUpdatesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "passgate_policy_updates_total",
			Help: "Total number of active policy replacements",
		}),
		EvaluationSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "passgate_policy_evaluation_seconds",
			Help:    "Password evaluation latency",
			Buckets: prometheus.ExponentialBuckets(0.00001, 10, 6),
		}),
	}
}

func (m *Metrics) ObserveEvaluation(seconds float64) {
	m.EvaluationsTotal.Inc()
	m.EvaluationSeconds.Observe(seconds)
}

func (m *Metrics) IncrementRejection(kind string) {
	m.RejectionsTotal.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncrementGoodStrengthWaivers() {
	m.GoodStrengthWaivers.Inc()
}

func (m *Metrics) IncrementPolicyUpdates() {
	m.PolicyUpdatesTotal.Inc()
}
