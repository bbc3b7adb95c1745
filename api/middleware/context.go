package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/hangarops/hangar-backend/api/validators"
	"github.com/hangarops/hangar-backend/pkg/logger"
)

type contextKey string

const (
	ctxClientID contextKey = "client_id"

	clientIDHeader  = "X-Client-Id"
	requestIDHeader = "X-Request-Id"
	maxClientIDLen  = 64
	maxRequestIDLen = 128
)

// ClientIDFromContext returns the calling client's identifier, if any.
func ClientIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxClientID).(string); ok {
		return v
	}
	return ""
}

// WithClientID injects the client identifier into the context.
func WithClientID(ctx context.Context, clientID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxClientID, clientID)
}

// ClientID reads X-Client-Id so idempotency keys from different hangar
// terminals never collide.
func ClientID(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientID := validators.SanitizeString(r.Header.Get(clientIDHeader), maxClientIDLen)
			if clientID == "" {
				next.ServeHTTP(w, r)
				return
			}
			ctx := WithClientID(r.Context(), clientID)
			if logg != nil {
				ctx = logg.WithField(ctx, "client_id", clientID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestID echoes a caller-supplied X-Request-Id or mints one, and tags every
// log line of the request with it.
func RequestID(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := validators.SanitizeString(r.Header.Get(requestIDHeader), maxRequestIDLen)
			if reqID == "" {
				reqID = uuid.NewString()
			}
			w.Header().Set(requestIDHeader, reqID)

			ctx := r.Context()
			if logg != nil {
				ctx = logg.WithRequestID(ctx, reqID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
