package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/miniforvaltaren/api/internal/metrics"
)

// Metrics records request count, latency and in-flight requests. Paths are
// labelled by chi route pattern so ids do not explode the label set.
func Metrics(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			m.InFlight.Inc()
			defer m.InFlight.Dec()

			rw := wrapResponseWriter(w)
			next.ServeHTTP(rw, r)

			path := routePattern(r)
			status := strconv.Itoa(rw.statusCode)
			m.Requests.WithLabelValues(r.Method, path, status).Inc()
			m.Duration.WithLabelValues(r.Method, path, status).Observe(time.Since(start).Seconds())
		})
	}
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}
