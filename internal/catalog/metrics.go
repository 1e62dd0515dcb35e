package catalog

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// StoreMetrics exports mutation outcomes and the catalog size.
type StoreMetrics struct {
	Mutations *prometheus.CounterVec
	Products  prometheus.Gauge
}

func NewStoreMetrics(reg prometheus.Registerer) *StoreMetrics {
	m := &StoreMetrics{
		Mutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_mutations_total",
				Help: "Catalog mutations by operation and result",
			},
			[]string{"op", "result"},
		),
		Products: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "catalog_products",
			Help: "Products currently in the catalog",
		}),
	}

	reg.MustRegister(m.Mutations, m.Products)
	return m
}

func (m *StoreMetrics) Mutation(op string, err error, products int) {
	m.Products.Set(float64(products))
	if op == "open" {
		return
	}
	m.Mutations.WithLabelValues(op, resultLabel(err)).Inc()
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrOutOfRange):
		return "out_of_range"
	case errors.Is(err, ErrInvalidArgument):
		return "invalid"
	case errors.Is(err, ErrConflict):
		return "conflict"
	default:
		return "error"
	}
}
