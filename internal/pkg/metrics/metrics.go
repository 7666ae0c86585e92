package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "acinfinity"

type Metrics struct {
	PollsTotal        prometheus.Counter
	PollFailuresTotal prometheus.Counter
	ReloadsTotal      prometheus.Counter
	StatesPublished   prometheus.Counter
	LastPoll          prometheus.Gauge
	Controllers       prometheus.Gauge
	Entities          *prometheus.GaugeVec

	gatherer prometheus.Gatherer
}

func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		PollsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "polls_total",
			Help:      "Number of property store refreshes attempted",
		}),
		PollFailuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_failures_total",
			Help:      "Number of property store refreshes that failed",
		}),
		ReloadsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reloads_total",
			Help:      "Number of completed entry loads",
		}),
		StatesPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "states_published_total",
			Help:      "Number of changed entity states handed to publishers",
		}),
		LastPoll: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_poll_timestamp_seconds",
			Help:      "Unix time of the last successful refresh",
		}),
		Controllers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "controllers",
			Help:      "Controllers reported by the API",
		}),
		Entities: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "entities",
			Help:      "Materialized entities by platform",
		}, []string{"platform"}),
		gatherer: reg,
	}

	reg.MustRegister(
		m.PollsTotal,
		m.PollFailuresTotal,
		m.ReloadsTotal,
		m.StatesPublished,
		m.LastPoll,
		m.Controllers,
		m.Entities,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
