package resilience

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/noah-isme/backend-quote/internal/obs"
)

// Metrics holds breaker collectors. A nil *Metrics disables recording.
type Metrics struct {
	State       *prometheus.GaugeVec
	Transitions *prometheus.CounterVec
	Opened      *prometheus.CounterVec
}

// NewMetrics registers breaker collectors on reg, reusing any already registered.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		State: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "breaker_state",
			Help:      "Current breaker state: 0=closed,1=open,2=half-open",
		}, []string{"target"}),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "breaker_transition_total",
			Help:      "Count of breaker state transitions",
		}, []string{"target", "from", "to"}),
		Opened: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "breaker_open_total",
			Help:      "Number of times a breaker transitioned into open state",
		}, []string{"target"}),
	}
	m.State = obs.Register(reg, m.State)
	m.Transitions = obs.Register(reg, m.Transitions)
	m.Opened = obs.Register(reg, m.Opened)
	return m
}
