package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bryanwahyu/medscan/internal/observability"
)

// MetricsMiddleware tracks request count, latency and in-flight requests.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		observability.HTTPRequestsInFlight.Inc()
		defer observability.HTTPRequestsInFlight.Dec()

		start := time.Now()
		wrapped := wrapWriter(w)
		next.ServeHTTP(wrapped, r)

		observability.HTTPRequestsTotal.WithLabelValues(r.Method, statusClass(wrapped.statusCode)).Inc()
		observability.HTTPRequestDuration.WithLabelValues(r.Method, routePattern(r)).Observe(time.Since(start).Seconds())
	})
}

// MetricsHandler exposes the Prometheus registry
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

func statusClass(code int) string {
	return strconv.Itoa(code/100) + "xx"
}

// routePattern keeps label cardinality bounded (no raw ids).
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
