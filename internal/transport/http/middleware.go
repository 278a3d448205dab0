package http

import (
	"context"
	"net/http"
	"time"

	"github.com/cimillas/asset-reservations/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type (
	loggerKey    struct{}
	principalKey struct{}
)

// RequestLogger logs method, path, status and latency for every request and
// makes a request-scoped logger available to handlers.
func RequestLogger(next http.Handler, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)

		reqLogger := logger.With(zap.String("request_id", requestID))
		ctx := context.WithValue(r.Context(), loggerKey{}, reqLogger)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(ctx))

		reqLogger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func loggerFrom(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*zap.Logger); ok {
		return l
	}
	return zap.NewNop()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// PrincipalResolver turns an Authorization header value into a principal.
type PrincipalResolver interface {
	Principal(token string) (domain.Principal, error)
}

// RequireAuth rejects requests without a valid bearer token.
func RequireAuth(resolver PrincipalResolver, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, err := resolver.Principal(r.Header.Get("Authorization"))
		if err != nil {
			loggerFrom(r.Context()).Debug("authentication failed", zap.Error(err))
			writeError(w, http.StatusUnauthorized, codeUnauthenticated, "authentication required")
			return
		}
		ctx := context.WithValue(r.Context(), principalKey{}, p)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func principalFrom(ctx context.Context) (domain.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(domain.Principal)
	return p, ok
}
