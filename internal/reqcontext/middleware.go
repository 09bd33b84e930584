package reqcontext

import (
	"net/http"

	"go.uber.org/zap"
)

// RequestIDMiddleware keeps a valid client X-Request-Id or generates one,
// stores it in the context and sets the response header before calling next
// so it is present even if the handler panics.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := GetOrGenerateRequestID(r.Header.Get(RequestIDHeader))
		w.Header().Set(RequestIDHeader, requestID)
		next.ServeHTTP(w, r.WithContext(WithRequestID(r.Context(), requestID)))
	})
}

// LoggerMiddleware stores a logger carrying request_id in the context.
// Register it after RequestIDMiddleware.
func LoggerMiddleware(logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestLogger := logger.With("request_id", GetRequestID(ctx))
			next.ServeHTTP(w, r.WithContext(WithLogger(ctx, requestLogger)))
		})
	}
}
