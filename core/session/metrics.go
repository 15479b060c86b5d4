package session

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposes session lifecycle counters for Prometheus scraping.
// All methods are safe on a nil receiver, so an unmetered manager pays only a
// nil check.
type Metrics struct {
	logins        *prometheus.CounterVec
	refreshes     *prometheus.CounterVec
	logouts       *prometheus.CounterVec
	timeouts      prometheus.Counter
	authenticated prometheus.Gauge
}

// NewMetrics registers the session collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		logins: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sessionkit",
			Name:      "logins_total",
			Help:      "Login attempts by result.",
		}, []string{"result"}),
		refreshes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sessionkit",
			Name:      "token_refreshes_total",
			Help:      "Token refresh attempts by result; callers joining an in-flight refresh count as coalesced.",
		}, []string{"result"}),
		logouts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sessionkit",
			Name:      "logouts_total",
			Help:      "Session teardowns by cause.",
		}, []string{"cause"}),
		timeouts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "sessionkit",
			Name:      "inactivity_timeouts_total",
			Help:      "Sessions expired by the inactivity timeout.",
		}),
		authenticated: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "sessionkit",
			Name:      "authenticated",
			Help:      "1 while a user is authenticated, 0 otherwise.",
		}),
	}
}

func (m *Metrics) login(ok bool) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(result(ok)).Inc()
	if ok {
		m.authenticated.Set(1)
	}
}

func (m *Metrics) refresh(ok bool) {
	if m == nil {
		return
	}
	m.refreshes.WithLabelValues(result(ok)).Inc()
}

func (m *Metrics) refreshCoalesced() {
	if m == nil {
		return
	}
	m.refreshes.WithLabelValues("coalesced").Inc()
}

func (m *Metrics) logout(cause logoutCause) {
	if m == nil {
		return
	}
	m.logouts.WithLabelValues(string(cause)).Inc()
	m.authenticated.Set(0)
}

func (m *Metrics) timeout() {
	if m == nil {
		return
	}
	m.timeouts.Inc()
}

func result(ok bool) string {
	if ok {
		return "ok"
	}
	return "failed"
}
