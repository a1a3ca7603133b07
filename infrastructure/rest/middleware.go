package rest

import (
	"log/slog"
	"net/http"
	"pairchat/observability"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// Logger writes one line per request and feeds the request counters.
func Logger(log *slog.Logger, monitoring *observability.MonitoringManager) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}
				if monitoring != nil {
					monitoring.Observe(status >= http.StatusBadRequest)
				}
				level := slog.LevelInfo
				if status >= http.StatusInternalServerError {
					level = slog.LevelError
				}
				log.Log(r.Context(), level, "HTTP request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", status,
					"latency", time.Since(start),
					"request_id", chimw.GetReqID(r.Context()))
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
