package routes

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brewandbeans/kaizen/internal/config"
)

func textHandler(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, body)
	}
}

func fullRegistry() *Registry {
	reg := NewRegistry()
	for _, id := range []string{
		HandlerHome, HandlerSignIn, HandlerSignUp, HandlerPricing, HandlerSuccess,
		HandlerSubscriptionRequired, HandlerDashboard, HandlerDashboardSettings, HandlerDashboardChat,
		APIHealth, APISentryWebhook, APIPlans, APICheckout, APIPortal, APISubscription,
		APIPolarWebhook, APIEmailTest, APIResendWebhook, APIChat,
	} {
		reg.HandleFunc(id, textHandler(id))
	}
	reg.Layout(LayoutDashboard, func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Layout", "dashboard")
			next.ServeHTTP(w, r)
		})
	})
	return reg
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestMountServesTable(t *testing.T) {
	cfg := config.DefaultConfig()
	require.NoError(t, config.ApplyPreset(cfg, config.PresetFullSaaS))

	r := chi.NewRouter()
	require.NoError(t, Mount(r, Build(cfg), fullRegistry()))

	w := get(t, r, "/")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, HandlerHome, w.Body.String())
	assert.Empty(t, w.Header().Get("X-Layout"))

	w = get(t, r, "/sign-in/factor-one")
	assert.Equal(t, HandlerSignIn, w.Body.String())

	w = get(t, r, "/dashboard/chat")
	assert.Equal(t, HandlerDashboardChat, w.Body.String())
	assert.Equal(t, "dashboard", w.Header().Get("X-Layout"))
}

func TestMountOmitsDisabledRoutes(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.UI = config.UIConfig{}

	r := chi.NewRouter()
	require.NoError(t, Mount(r, Build(cfg), fullRegistry()))

	assert.Equal(t, http.StatusOK, get(t, r, "/").Code)
	assert.Equal(t, http.StatusNotFound, get(t, r, "/pricing").Code)
	assert.Equal(t, http.StatusNotFound, get(t, r, "/dashboard").Code)
	assert.Equal(t, http.StatusNotFound, get(t, r, "/sign-in").Code)
}

func TestMountMissingHandler(t *testing.T) {
	reg := NewRegistry().HandleFunc(HandlerHome, textHandler("home"))

	err := Mount(chi.NewRouter(), Build(config.DefaultConfig()), reg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), HandlerDashboard)
}

func TestMountMissingLayout(t *testing.T) {
	reg := NewRegistry()
	for _, id := range []string{HandlerHome, HandlerDashboard, HandlerDashboardSettings, HandlerDashboardChat} {
		reg.HandleFunc(id, textHandler(id))
	}

	err := Mount(chi.NewRouter(), Build(config.DefaultConfig()), reg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), LayoutDashboard)
}

func TestMountAPI(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Features.Email = true

	r := chi.NewRouter()
	require.NoError(t, MountAPI(r, BuildAPI(cfg), fullRegistry()))

	w := get(t, r, "/api/health")
	assert.Equal(t, APIHealth, w.Body.String())

	req := httptest.NewRequest(http.MethodPost, "/api/email/test", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, APIEmailTest, rec.Body.String())

	// Wrong method
	assert.Equal(t, http.StatusMethodNotAllowed, get(t, r, "/api/email/test").Code)
	// Payments disabled
	assert.Equal(t, http.StatusNotFound, get(t, r, "/api/plans").Code)

	err := MountAPI(chi.NewRouter(), BuildAPI(cfg), NewRegistry())
	assert.Error(t, err)
}
