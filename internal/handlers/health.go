package handlers

import (
	"context"
	"net/http"
	"time"
)

// Pinger checks one backing store.
type Pinger func(ctx context.Context) error

// Health reports "healthy" when every dependency answers and "degraded"
// with 503 otherwise.
func Health(deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := "healthy"
		code := http.StatusOK
		checks := make(map[string]string, len(deps))
		for name, ping := range deps {
			if err := ping(ctx); err != nil {
				checks[name] = "down"
				status = "degraded"
				code = http.StatusServiceUnavailable
				continue
			}
			checks[name] = "up"
		}

		writeJSON(w, code, map[string]interface{}{
			"status": status,
			"checks": checks,
		})
	}
}
