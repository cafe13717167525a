package catalog

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"ProductCatalog/pkg/kit"
)

// writeWindow is the span WriteLimitPerMin is counted over.
const writeWindow = time.Minute

type HTTPDeps struct {
	Log      *zap.Logger
	Service  string
	Registry *prometheus.Registry

	MetricsEnabled bool
	MetricsToken   string

	// WriteLimitPerMin caps mutating requests per client IP; 0 disables it.
	WriteLimitPerMin int
}

// NewHandler wraps the catalog routes with request ids, panic recovery,
// access logs, request metrics and the write limiter.
func NewHandler(s *Server, deps HTTPDeps) http.Handler {
	if s.Log == nil {
		s.Log = deps.Log
	}
	if s.WriteLimit == nil && deps.WriteLimitPerMin > 0 {
		s.WriteLimit = kit.NewIPRateLimiter(deps.WriteLimitPerMin, writeWindow).Middleware
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID, kit.Recoverer)
	if deps.Log != nil {
		r.Use(kit.Logging(deps.Log))
	}

	if deps.Registry != nil {
		r.Use(kit.NewMetrics(deps.Registry).Middleware(deps.Service, kit.ChiRoutePattern))
		if deps.MetricsEnabled {
			scrape := promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{Registry: deps.Registry})
			r.With(kit.MetricsAuth(deps.MetricsToken)).Handle("/metrics", scrape)
		}
	}

	r.Mount("/", s.Routes())
	return r
}
