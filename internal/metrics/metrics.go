package metrics

import "github.com/prometheus/client_golang/prometheus"

// Label values shared by the tracking counters.
const (
	ResultOK       = "ok"
	ResultInvalid  = "invalid"
	ResultDeduped  = "deduped"
	ResultDropped  = "dropped"
	ResultNotFound = "not_found"

	AssignmentNew      = "new"
	AssignmentExisting = "existing"
	AssignmentRaceLost = "race_lost"
	AssignmentInactive = "inactive"
)

// Metrics holds the counters of the tracking write paths. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	views         *prometheus.CounterVec
	events        *prometheus.CounterVec
	rateLimited   *prometheus.CounterVec
	assignments   *prometheus.CounterVec
	limiterErrors prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		views: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tracking",
			Name:      "views_total",
			Help:      "Total number of view calls by kind and result.",
		}, []string{"kind", "result"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tracking",
			Name:      "events_total",
			Help:      "Total number of recorded events by result.",
		}, []string{"result"}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tracking",
			Name:      "rate_limited_total",
			Help:      "Total number of requests rejected by the rate limiter.",
		}, []string{"scope"}),
		assignments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "experiment",
			Name:      "assignments_total",
			Help:      "Total number of variant lookups by outcome.",
		}, []string{"result"}),
		limiterErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tracking",
			Name:      "limiter_errors_total",
			Help:      "Total number of rate limiter backend failures that failed open.",
		}),
	}

	if reg != nil {
		for _, c := range []prometheus.Collector{m.views, m.events, m.rateLimited, m.assignments, m.limiterErrors} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}

	return m, nil
}

func (m *Metrics) RecordView(kind, result string) {
	if m == nil {
		return
	}
	m.views.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) RecordEvent(result string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordRateLimited(scope string) {
	if m == nil {
		return
	}
	m.rateLimited.WithLabelValues(scope).Inc()
}

func (m *Metrics) RecordAssignment(result string) {
	if m == nil {
		return
	}
	m.assignments.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordLimiterError() {
	if m == nil {
		return
	}
	m.limiterErrors.Inc()
}
