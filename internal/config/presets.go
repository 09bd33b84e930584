package config

import (
	"fmt"
	"sort"
	"strings"
)

// Preset names
const (
	PresetFullSaaS     = "full-saas"
	PresetFrontendOnly = "frontend-only"
	PresetAuthOnly     = "auth-only"
	PresetPaymentsOnly = "payments-only"
	PresetStatic       = "static"
)

// Preset is a named bundle of feature, service and UI booleans.
// Credentials always come from the environment.
type Preset struct {
	Name     string
	Features FeatureFlags
	Services map[Service]bool
	UI       UIConfig
}

var presets = map[string]Preset{
	PresetFullSaaS: {
		Name:     PresetFullSaaS,
		Features: FeatureFlags{Auth: true, Payments: true, Convex: true, Email: true, Monitoring: true},
		Services: map[Service]bool{
			ServiceClerk: true, ServicePolar: true, ServiceConvex: true, ServiceResend: true, ServiceOpenAI: true,
		},
		UI: UIConfig{ShowPricing: true, ShowDashboard: true, ShowChat: true, ShowAuth: true},
	},
	PresetFrontendOnly: {
		Name:     PresetFrontendOnly,
		Services: map[Service]bool{},
		UI:       UIConfig{ShowDashboard: true},
	},
	PresetAuthOnly: {
		Name:     PresetAuthOnly,
		Features: FeatureFlags{Auth: true, Convex: true},
		Services: map[Service]bool{ServiceClerk: true, ServiceConvex: true, ServiceOpenAI: true},
		UI:       UIConfig{ShowDashboard: true, ShowChat: true, ShowAuth: true},
	},
	PresetPaymentsOnly: {
		Name:     PresetPaymentsOnly,
		Features: FeatureFlags{Payments: true, Convex: true},
		Services: map[Service]bool{ServicePolar: true, ServiceConvex: true},
		UI:       UIConfig{ShowPricing: true, ShowDashboard: true},
	},
	PresetStatic: {
		Name:     PresetStatic,
		Services: map[Service]bool{},
	},
}

// LookupPreset returns the preset registered under name
func LookupPreset(name string) (Preset, bool) {
	p, ok := presets[strings.ToLower(strings.TrimSpace(name))]
	return p, ok
}

// PresetNames returns all preset names, sorted
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Apply overwrites the booleans of cfg with the preset's values.
// Services not named by the preset are disabled.
func (p Preset) Apply(cfg *Config) {
	cfg.Features = p.Features
	cfg.UI = p.UI
	for _, s := range AllServices {
		cfg.Services.setServiceEnabled(s, p.Services[s])
	}
	cfg.Preset = p.Name
}

// ApplyPreset applies the named preset, failing on unknown names
func ApplyPreset(cfg *Config, name string) error {
	p, ok := LookupPreset(name)
	if !ok {
		return fmt.Errorf("unknown preset %q (available: %s)", name, strings.Join(PresetNames(), ", "))
	}
	p.Apply(cfg)
	return nil
}
