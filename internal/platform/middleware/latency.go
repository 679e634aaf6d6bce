package middleware

import (
	"net/http"
	"time"

	"passgate/internal/platform/metrics"
)

// LatencyMiddleware records request counts and latency per route.
func LatencyMiddleware(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m == nil {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(recorder, r)
			m.ObserveRequest(r.URL.Path, recorder.status, time.Since(start).Seconds())
		})
	}
}
