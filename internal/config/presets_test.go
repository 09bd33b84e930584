package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresetNames(t *testing.T) {
	assert.Equal(t, []string{"auth-only", "frontend-only", "full-saas", "payments-only", "static"}, PresetNames())
}

func TestPresetContents(t *testing.T) {
	tests := []struct {
		preset   string
		features []string
		services []string
		ui       UIConfig
	}{
		{
			preset:   PresetFullSaaS,
			features: []string{"auth", "convex", "email", "monitoring", "payments"},
			services: []string{"clerk", "convex", "openai", "polar", "resend"},
			ui:       UIConfig{ShowPricing: true, ShowDashboard: true, ShowChat: true, ShowAuth: true},
		},
		{
			preset: PresetFrontendOnly,
			ui:     UIConfig{ShowDashboard: true},
		},
		{
			preset:   PresetAuthOnly,
			features: []string{"auth", "convex"},
			services: []string{"clerk", "convex", "openai"},
			ui:       UIConfig{ShowDashboard: true, ShowChat: true, ShowAuth: true},
		},
		{
			preset:   PresetPaymentsOnly,
			features: []string{"convex", "payments"},
			services: []string{"convex", "polar"},
			ui:       UIConfig{ShowPricing: true, ShowDashboard: true},
		},
		{
			preset: PresetStatic,
		},
	}

	for _, tt := range tests {
		t.Run(tt.preset, func(t *testing.T) {
			cfg := DefaultConfig()
			// Start from everything on so the preset must switch things off
			cfg.Features = FeatureFlags{Auth: true, Payments: true, Convex: true, Email: true, Monitoring: true}
			for _, s := range AllServices {
				cfg.Services.setServiceEnabled(s, true)
			}

			require.NoError(t, ApplyPreset(cfg, tt.preset))
			assert.Equal(t, tt.features, cfg.EnabledFeatures())
			assert.Equal(t, tt.services, cfg.EnabledServices())
			assert.Equal(t, tt.ui, cfg.UI)
			assert.Equal(t, tt.preset, cfg.Preset)
		})
	}
}

func TestPresetKeepsCredentials(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Services.Polar.AccessToken = "tok"
	require.NoError(t, ApplyPreset(cfg, " Payments-Only "))
	assert.Equal(t, "tok", cfg.Services.Polar.AccessToken)
}

func TestApplyUnknownPreset(t *testing.T) {
	err := ApplyPreset(DefaultConfig(), "enterprise")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "full-saas")
}
