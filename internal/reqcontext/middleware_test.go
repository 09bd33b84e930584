package reqcontext

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	h := RequestIDMiddleware(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	t.Run("keeps valid client ID", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "client-id-1")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		assert.Equal(t, "client-id-1", seen)
		assert.Equal(t, "client-id-1", w.Header().Get(RequestIDHeader))
	})

	t.Run("replaces invalid client ID", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "bad id")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		assert.NotEqual(t, "bad id", seen)
		assert.True(t, IsValidRequestID(seen))
		assert.Equal(t, seen, w.Header().Get(RequestIDHeader))
	})
}

func TestRequestIDHeaderSurvivesPanic(t *testing.T) {
	h := RequestIDMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	w := httptest.NewRecorder()
	assert.Panics(t, func() { h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil)) })
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestLoggerMiddleware(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := zap.New(core).Sugar()

	h := RequestIDMiddleware(LoggerMiddleware(logger)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		GetLogger(r.Context()).Info("handled")
	})))

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	h.ServeHTTP(httptest.NewRecorder(), req)

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "abc-123", logs.All()[0].ContextMap()["request_id"])
}

func TestContextDefaults(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetRequestID(ctx))
	assert.Nil(t, GetUser(ctx))
	assert.NotNil(t, GetLogger(ctx))
	//nolint:staticcheck // nil context is tolerated
	assert.NotNil(t, GetLogger(nil))

	u := &User{ID: "user_1", Email: "a@example.com"}
	assert.Same(t, u, GetUser(WithUser(ctx, u)))
}
