package kit

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// unmatchedRoute labels requests no route claimed, so probing random paths
// cannot grow the label set.
const unmatchedRoute = "unmatched"

type Metrics struct {
	Requests      *prometheus.CounterVec
	Latency       *prometheus.HistogramVec
	ResponseBytes *prometheus.HistogramVec
	InFlight      *prometheus.GaugeVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	route := []string{"service", "method", "route"}

	m := &Metrics{
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total HTTP requests",
			},
			append(route, "status"),
		),
		Latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP latency",
				Buckets: []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			route,
		),
		ResponseBytes: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_response_size_bytes",
				Help:    "HTTP response body size",
				Buckets: prometheus.ExponentialBuckets(64, 4, 7),
			},
			route,
		),
		InFlight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Requests currently being served",
			},
			[]string{"service"},
		),
	}

	reg.MustRegister(m.Requests, m.Latency, m.ResponseBytes, m.InFlight)
	return m
}

// Middleware records every request under the label returned by routeLabel,
// which runs after the router has matched.
func (m *Metrics) Middleware(service string, routeLabel func(*http.Request) string) func(http.Handler) http.Handler {
	inFlight := m.InFlight.WithLabelValues(service)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			inFlight.Inc()
			start := time.Now()
			defer func() {
				inFlight.Dec()

				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}
				route := routeLabel(r)

				m.Latency.WithLabelValues(service, r.Method, route).Observe(time.Since(start).Seconds())
				m.ResponseBytes.WithLabelValues(service, r.Method, route).Observe(float64(ww.BytesWritten()))
				m.Requests.WithLabelValues(service, r.Method, route, strconv.Itoa(status)).Inc()
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

// ChiRoutePattern labels a request with its matched route pattern.
func ChiRoutePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if rp := rc.RoutePattern(); rp != "" && rp != "/*" {
			return rp
		}
	}
	return unmatchedRoute
}
