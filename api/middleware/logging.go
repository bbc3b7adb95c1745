package middleware

import (
	"net/http"
	"time"

	"github.com/hangarops/hangar-backend/pkg/logger"
)

// quietPaths are polled by probes and scrapers and would drown the request log.
var quietPaths = map[string]struct{}{
	"/health/live":  {},
	"/health/ready": {},
	"/metrics":      {},
}

func Logging(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, quiet := quietPaths[r.URL.Path]; quiet || logg == nil {
				next.ServeHTTP(w, r)
				return
			}

			fields := map[string]any{
				"method": r.Method,
				"path":   r.URL.Path,
			}
			if key := r.Header.Get(idempotencyHeader); key != "" {
				fields["idempotency_key"] = key
			}
			ctx := logg.WithFields(r.Context(), fields)
			logg.Info(ctx, "request.start")

			rec := &statusRecorder{ResponseWriter: w}
			start := time.Now()
			next.ServeHTTP(rec, r.WithContext(ctx))
			if rec.status == 0 {
				rec.status = http.StatusOK
			}

			ctx = logg.WithFields(ctx, map[string]any{
				"status":      rec.status,
				"duration_ms": time.Since(start).Milliseconds(),
			})
			if rec.status >= http.StatusInternalServerError {
				logg.Warn(ctx, "request.complete")
				return
			}
			logg.Info(ctx, "request.complete")
		})
	}
}
