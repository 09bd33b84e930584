package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsFromEmptyEnv(t *testing.T) {
	cfg, err := Load(LoadOptions{Env: MapEnv{}})
	require.NoError(t, err)

	expected := DefaultConfig()
	assert.Equal(t, expected.Features, cfg.Features)
	assert.Equal(t, expected.UI, cfg.UI)
	assert.Equal(t, expected.Listen, cfg.Listen)
	assert.NotEmpty(t, cfg.DataDir)
	assert.Empty(t, cfg.Services.Clerk.PublishableKey)
}

func TestLoadReadsEnvironment(t *testing.T) {
	env := MapEnv{
		"KAIZEN_FEATURE_AUTH":           "true",
		"KAIZEN_FEATURE_PAYMENTS":       "1",
		"KAIZEN_FEATURE_EMAIL":          "false",
		"KAIZEN_SERVICE_CLERK_ENABLED":  "yes",
		"KAIZEN_SERVICE_POLAR_ENABLED":  "TRUE",
		"KAIZEN_UI_SHOW_PRICING":        "true",
		"KAIZEN_UI_SHOW_CHAT":           "off",
		"VITE_CLERK_PUBLISHABLE_KEY":    "pk_test_123",
		"CLERK_SECRET_KEY":              "sk_test_123",
		"POLAR_ACCESS_TOKEN":            "polar_tok",
		"POLAR_ORGANIZATION_ID":         "org_1",
		"VITE_CONVEX_URL":               "https://brew.convex.cloud",
		"SENTRY_DSN":                    "https://key@sentry.io/1",
		"SENTRY_TRACES_SAMPLE_RATE":     "0.5",
		"NODE_ENV":                      "production",
		"KAIZEN_LISTEN":                 ":9000",
		"KAIZEN_DATA_DIR":               "/tmp/kaizen-test",
		"OPENAI_MODEL":                  "gpt-4o-mini",
		"KAIZEN_SERVICE_STRIPE_ENABLED": "true",
	}

	cfg, err := Load(LoadOptions{Env: env})
	require.NoError(t, err)

	assert.True(t, cfg.Features.Auth)
	assert.True(t, cfg.Features.Payments)
	assert.False(t, cfg.Features.Email)
	assert.True(t, cfg.IsServiceEnabled(ServiceClerk))
	assert.True(t, cfg.IsServiceEnabled(ServicePolar))
	assert.False(t, cfg.IsServiceEnabled(ServiceResend))
	assert.True(t, cfg.UI.ShowPricing)
	assert.False(t, cfg.UI.ShowChat)
	assert.True(t, cfg.UI.ShowDashboard)

	assert.Equal(t, "pk_test_123", cfg.Services.Clerk.PublishableKey)
	assert.Equal(t, "sk_test_123", cfg.Services.Clerk.SecretKey)
	assert.Equal(t, "polar_tok", cfg.Services.Polar.AccessToken)
	assert.Equal(t, "org_1", cfg.Services.Polar.OrganizationID)
	assert.Equal(t, "https://brew.convex.cloud", cfg.Services.Convex.URL)
	assert.Equal(t, "https://key@sentry.io/1", cfg.Services.Sentry.DSN)
	assert.InDelta(t, 0.5, cfg.Services.Sentry.TracesSampleRate, 1e-9)
	assert.Equal(t, "gpt-4o-mini", cfg.Services.OpenAI.Model)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, ":9000", cfg.Listen)
	assert.Equal(t, "/tmp/kaizen-test", cfg.DataDir)
}

func TestLoadIgnoresUnparseableBooleans(t *testing.T) {
	cfg, err := Load(LoadOptions{Env: MapEnv{
		"KAIZEN_FEATURE_AUTH":       "maybe",
		"KAIZEN_UI_SHOW_DASHBOARD":  "",
		"KAIZEN_FEATURE_MONITORING": " true ",
	}})
	require.NoError(t, err)
	assert.False(t, cfg.Features.Auth)
	assert.True(t, cfg.UI.ShowDashboard)
	assert.True(t, cfg.Features.Monitoring)
}

func TestLoadSentryDSNPrecedence(t *testing.T) {
	cfg, err := Load(LoadOptions{Env: MapEnv{
		"VITE_SENTRY_DSN": "https://public@sentry.io/1",
		"SENTRY_DSN":      "https://server@sentry.io/1",
	}})
	require.NoError(t, err)
	assert.Equal(t, "https://public@sentry.io/1", cfg.Services.Sentry.DSN)

	cfg, err = Load(LoadOptions{Env: MapEnv{"SENTRY_DSN": "https://server@sentry.io/1"}})
	require.NoError(t, err)
	assert.Equal(t, "https://server@sentry.io/1", cfg.Services.Sentry.DSN)
}

func TestLoadPreset(t *testing.T) {
	t.Run("from env", func(t *testing.T) {
		cfg, err := Load(LoadOptions{Env: MapEnv{"KAIZEN_PRESET": "payments-only"}})
		require.NoError(t, err)
		assert.Equal(t, PresetPaymentsOnly, cfg.Preset)
		assert.True(t, cfg.Features.Payments)
		assert.True(t, cfg.IsServiceEnabled(ServicePolar))
		assert.False(t, cfg.UI.ShowChat)
	})

	t.Run("option wins over env and env overrides booleans", func(t *testing.T) {
		cfg, err := Load(LoadOptions{
			Preset: "static",
			Env: MapEnv{
				"KAIZEN_PRESET":             "full-saas",
				"KAIZEN_UI_SHOW_DASHBOARD":  "true",
				"RESEND_API_KEY":            "re_123",
				"KAIZEN_FEATURE_MONITORING": "true",
			},
		})
		require.NoError(t, err)
		assert.Equal(t, PresetStatic, cfg.Preset)
		assert.False(t, cfg.Features.Auth)
		assert.True(t, cfg.UI.ShowDashboard)
		assert.True(t, cfg.Features.Monitoring)
		assert.Equal(t, "re_123", cfg.Services.Resend.APIKey)
	})

	t.Run("unknown preset", func(t *testing.T) {
		_, err := Load(LoadOptions{Env: MapEnv{"KAIZEN_PRESET": "enterprise"}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown preset")
	})
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kaizen.yaml")
	content := `
listen: ":7000"
features:
  email: true
services:
  resend:
    enabled: true
    sender-email: hello@brewandbeans.com
ui:
  show-pricing: true
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := Load(LoadOptions{ConfigFile: path, Env: MapEnv{"KAIZEN_LISTEN": ":7100"}})
	require.NoError(t, err)

	assert.True(t, cfg.Features.Email)
	assert.True(t, cfg.IsServiceEnabled(ServiceResend))
	assert.Equal(t, "hello@brewandbeans.com", cfg.Services.Resend.SenderEmail)
	assert.True(t, cfg.UI.ShowPricing)
	// File values merge over defaults
	assert.True(t, cfg.UI.ShowDashboard)
	assert.Equal(t, "debug", cfg.Logging.Level)
	// Environment wins over the file
	assert.Equal(t, ":7100", cfg.Listen)
}

func TestLoadEmptyConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0600))

	cfg, err := Load(LoadOptions{ConfigFile: path, Env: MapEnv{}})
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Features, cfg.Features)
}

func TestLoadMissingConfigFile(t *testing.T) {
	_, err := Load(LoadOptions{ConfigFile: filepath.Join(t.TempDir(), "nope.yaml"), Env: MapEnv{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config file")
}

func TestFeatureAndServiceEnvVars(t *testing.T) {
	assert.Equal(t, "KAIZEN_FEATURE_AUTH", FeatureEnvVar(FeatureAuth))
	assert.Equal(t, "KAIZEN_SERVICE_OPENSTATUS_ENABLED", ServiceEnvVar(ServiceOpenStatus))
}
