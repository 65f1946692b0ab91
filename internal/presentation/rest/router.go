package rest

import (
	"log/slog"
	"net/http"
)

// NewRouter serves the health endpoints and, when metrics is non-nil,
// GET /metrics.
func NewRouter(health *HealthHandler, metrics http.Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	health.RegisterRoutes(mux)
	if metrics != nil {
		mux.Handle("GET /metrics", metrics)
	}
	return recoverer(mux, logger)
}

func recoverer(next http.Handler, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.ErrorContext(r.Context(), "panic recovered",
					"error", rec,
					"method", r.Method,
					"path", r.URL.Path,
				)
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
