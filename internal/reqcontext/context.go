package reqcontext

import (
	"context"

	"go.uber.org/zap"
)

// ContextKey is the type for context keys to avoid collisions
type ContextKey string

const (
	RequestIDKey ContextKey = "request_id"
	LoggerKey    ContextKey = "logger"
	UserKey      ContextKey = "user"
)

// User is the signed-in user attached by the auth middleware
type User struct {
	ID    string
	Email string
	Name  string
}

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

// GetRequestID returns the request ID or ""
func GetRequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

// WithLogger adds a logger to the context
func WithLogger(ctx context.Context, logger *zap.SugaredLogger) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// GetLogger returns the request logger, or a nop logger if none is set
func GetLogger(ctx context.Context) *zap.SugaredLogger {
	if ctx == nil {
		return zap.NewNop().Sugar()
	}
	if logger, ok := ctx.Value(LoggerKey).(*zap.SugaredLogger); ok && logger != nil {
		return logger
	}
	return zap.NewNop().Sugar()
}

// WithUser attaches the signed-in user
func WithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, UserKey, u)
}

// GetUser returns the signed-in user, or nil for anonymous requests
func GetUser(ctx context.Context) *User {
	if ctx == nil {
		return nil
	}
	if u, ok := ctx.Value(UserKey).(*User); ok {
		return u
	}
	return nil
}
