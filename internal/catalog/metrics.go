package catalog

import "github.com/prometheus/client_golang/prometheus"

// Metrics tracks catalog activity. A nil *Metrics records nothing.
type Metrics struct {
	Mutations          *prometheus.CounterVec
	ValidationFailures *prometheus.CounterVec
	PersistFailures    prometheus.Counter
	Products           prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return nil
	}

	m := &Metrics{
		Mutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_mutations_total",
				Help: "Catalog writes by operation",
			},
			[]string{"op"},
		),
		ValidationFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_validation_failures_total",
				Help: "Rejected submissions by field",
			},
			[]string{"field"},
		),
		PersistFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "catalog_persist_failures_total",
			Help: "Slot writes that failed",
		}),
		Products: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "catalog_products",
			Help: "Products currently in the catalog",
		}),
	}

	reg.MustRegister(m.Mutations, m.ValidationFailures, m.PersistFailures, m.Products)
	return m
}

func (m *Metrics) mutated(op string) {
	if m == nil {
		return
	}
	m.Mutations.WithLabelValues(op).Inc()
}

func (m *Metrics) rejected(errs FieldErrors) {
	if m == nil {
		return
	}
	for field := range errs {
		m.ValidationFailures.WithLabelValues(field).Inc()
	}
}

func (m *Metrics) persistFailed() {
	if m == nil {
		return
	}
	m.PersistFailures.Inc()
}

func (m *Metrics) setProducts(n int) {
	if m == nil {
		return
	}
	m.Products.Set(float64(n))
}
