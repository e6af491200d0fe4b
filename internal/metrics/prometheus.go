package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const promNamespace = "funding_arb_bot"

type promCounter struct {
	counter prometheus.Counter
}

func (p promCounter) Inc() {
	p.counter.Inc()
}

type Prometheus struct {
	Metrics *Metrics

	registry              *prometheus.Registry
	ordersPlaced          prometheus.Counter
	ordersFailed          prometheus.Counter
	compensations         prometheus.Counter
	compensationsFailed   prometheus.Counter
	positionsClosed       prometheus.Counter
	closeFailed           prometheus.Counter
	opportunitiesRejected prometheus.Counter
}

func NewPrometheus() *Prometheus {
	registry := prometheus.NewRegistry()
	ordersPlaced := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      "orders_placed_total",
		Help:      "Total number of orders placed.",
	})
	ordersFailed := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      "orders_failed_total",
		Help:      "Total number of order placement failures.",
	})
	compensations := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      "compensations_total",
		Help:      "Total number of first-leg unwinds after a failed second leg.",
	})
	compensationsFailed := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      "compensations_failed_total",
		Help:      "Total number of failed unwinds leaving naked exposure.",
	})
	positionsClosed := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      "positions_closed_total",
		Help:      "Total number of positions closed by reconciliation.",
	})
	closeFailed := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      "close_failed_total",
		Help:      "Total number of failed reconciliation closes.",
	})
	opportunitiesRejected := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      "opportunities_rejected_total",
		Help:      "Total number of pair checks that did not pass the entry gates.",
	})

	registry.MustRegister(ordersPlaced, ordersFailed, compensations, compensationsFailed, positionsClosed, closeFailed, opportunitiesRejected)

	m := &Metrics{
		OrdersPlaced:          promCounter{ordersPlaced},
		OrdersFailed:          promCounter{ordersFailed},
		Compensations:         promCounter{compensations},
		CompensationsFailed:   promCounter{compensationsFailed},
		PositionsClosed:       promCounter{positionsClosed},
		CloseFailed:           promCounter{closeFailed},
		OpportunitiesRejected: promCounter{opportunitiesRejected},
	}

	return &Prometheus{
		Metrics:               m,
		registry:              registry,
		ordersPlaced:          ordersPlaced,
		ordersFailed:          ordersFailed,
		compensations:         compensations,
		compensationsFailed:   compensationsFailed,
		positionsClosed:       positionsClosed,
		closeFailed:           closeFailed,
		opportunitiesRejected: opportunitiesRejected,
	}
}

func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}
