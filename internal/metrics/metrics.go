package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "boardclient"

// Refresh outcomes used as the "outcome" label.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics groups the client side counters for the gateway and the refresh
// coordinator. A nil *Metrics is valid and records nothing.
type Metrics struct {
	Requests         *prometheus.CounterVec
	Unauthorized     prometheus.Counter
	Replays          prometheus.Counter
	RefreshExchanges *prometheus.CounterVec
	RefreshWaiters   prometheus.Counter
}

// New creates the collectors and registers them on reg. Pass
// prometheus.NewRegistry() in tests to avoid clashing with the default one.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "requests_total",
			Help:      "Outbound API requests by method and status code.",
		}, []string{"method", "code"}),
		Unauthorized: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "unauthorized_total",
			Help:      "Responses rejected with 401.",
		}),
		Replays: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "replays_total",
			Help:      "Requests replayed after a token refresh.",
		}),
		RefreshExchanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "refresh",
			Name:      "exchanges_total",
			Help:      "Refresh token exchanges sent to the server by outcome.",
		}, []string{"outcome"}),
		RefreshWaiters: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "refresh",
			Name:      "waiters_total",
			Help:      "Callers queued behind an in-flight refresh.",
		}),
	}

	for _, c := range []prometheus.Collector{m.Requests, m.Unauthorized, m.Replays, m.RefreshExchanges, m.RefreshWaiters} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) ObserveRequest(method, code string) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(method, code).Inc()
}

func (m *Metrics) ObserveUnauthorized() {
	if m == nil {
		return
	}
	m.Unauthorized.Inc()
}

func (m *Metrics) ObserveReplay() {
	if m == nil {
		return
	}
	m.Replays.Inc()
}

func (m *Metrics) ObserveRefresh(outcome string) {
	if m == nil {
		return
	}
	m.RefreshExchanges.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveWaiter() {
	if m == nil {
		return
	}
	m.RefreshWaiters.Inc()
}
