package routes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/brewandbeans/kaizen/internal/config"
)

func allOff() *config.Config {
	cfg := config.DefaultConfig()
	cfg.UI = config.UIConfig{}
	return cfg
}

func TestBuildAllOffReturnsOnlyHome(t *testing.T) {
	table := Build(allOff())
	assert.Equal(t, Table{{Pattern: "/", Handler: HandlerHome}}, table)
}

func TestBuildDefaultConfig(t *testing.T) {
	table := Build(config.DefaultConfig())
	assert.Equal(t, []string{"/", "/dashboard", "/dashboard/settings", "/dashboard/chat"}, table.Patterns())
	for _, r := range table[1:] {
		assert.Equal(t, LayoutDashboard, r.Layout)
	}
}

func TestBuildFullSaaS(t *testing.T) {
	cfg := config.DefaultConfig()
	assert.NoError(t, config.ApplyPreset(cfg, config.PresetFullSaaS))

	assert.Equal(t, []string{
		"/",
		"/sign-in/*",
		"/sign-up/*",
		"/pricing",
		"/success",
		"/subscription-required",
		"/dashboard",
		"/dashboard/settings",
		"/dashboard/chat",
	}, Build(cfg).Patterns())
}

func TestBuildRequiresFeatureAndToggle(t *testing.T) {
	cfg := allOff()
	cfg.Features.Auth = true
	assert.False(t, Build(cfg).Has(HandlerSignIn), "feature without UI toggle")

	cfg = allOff()
	cfg.UI.ShowAuth = true
	assert.False(t, Build(cfg).Has(HandlerSignIn), "UI toggle without feature")

	cfg = allOff()
	cfg.UI.ShowPricing = true
	assert.False(t, Build(cfg).Has(HandlerPricing))
	cfg.Features.Payments = true
	assert.True(t, Build(cfg).Has(HandlerPricing))

	cfg = allOff()
	cfg.UI.ShowChat = true
	assert.False(t, Build(cfg).Has(HandlerDashboardChat), "chat is nested under the dashboard")
}

func TestBuildAPI(t *testing.T) {
	handlers := func(eps []Endpoint) []string {
		var out []string
		for _, e := range eps {
			out = append(out, e.Handler)
		}
		return out
	}

	assert.Equal(t, []string{APIHealth, APISentryWebhook}, handlers(BuildAPI(allOff())))

	cfg := allOff()
	cfg.Features.Payments = true
	cfg.Features.Email = true
	cfg.UI.ShowDashboard = true
	cfg.UI.ShowChat = true
	assert.Equal(t, []string{
		APIHealth, APISentryWebhook,
		APIPlans, APICheckout, APIPortal, APISubscription, APIPolarWebhook,
		APIEmailTest, APIResendWebhook,
		APIChat,
	}, handlers(BuildAPI(cfg)))
}

func genConfig(t *rapid.T) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Features = config.FeatureFlags{
		Auth:       rapid.Bool().Draw(t, "auth"),
		Payments:   rapid.Bool().Draw(t, "payments"),
		Convex:     rapid.Bool().Draw(t, "convex"),
		Email:      rapid.Bool().Draw(t, "email"),
		Monitoring: rapid.Bool().Draw(t, "monitoring"),
	}
	cfg.UI = config.UIConfig{
		ShowPricing:   rapid.Bool().Draw(t, "showPricing"),
		ShowDashboard: rapid.Bool().Draw(t, "showDashboard"),
		ShowChat:      rapid.Bool().Draw(t, "showChat"),
		ShowAuth:      rapid.Bool().Draw(t, "showAuth"),
	}
	cfg.Services.Clerk.Enabled = rapid.Bool().Draw(t, "clerk")
	cfg.Services.Polar.Enabled = rapid.Bool().Draw(t, "polar")
	return cfg
}

func TestBuildIsPure(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cfg := genConfig(t)
		before := cfg.Clone()

		first := Build(cfg)
		second := Build(cfg)

		if !assert.ObjectsAreEqual(first, second) {
			t.Fatalf("Build not deterministic: %v vs %v", first, second)
		}
		if !assert.ObjectsAreEqual(before, cfg) {
			t.Fatalf("Build mutated its input")
		}
		if !assert.ObjectsAreEqual(BuildAPI(cfg), BuildAPI(cfg)) {
			t.Fatalf("BuildAPI not deterministic")
		}
	})
}

func TestDisabledFeatureRoutesNeverAppear(t *testing.T) {
	gated := map[config.Feature][]string{
		config.FeatureAuth:     {HandlerSignIn, HandlerSignUp},
		config.FeaturePayments: {HandlerPricing, HandlerSuccess, HandlerSubscriptionRequired},
	}
	gatedAPI := map[config.Feature][]string{
		config.FeaturePayments: {APIPlans, APICheckout, APIPortal, APISubscription, APIPolarWebhook},
		config.FeatureEmail:    {APIEmailTest, APIResendWebhook},
	}

	rapid.Check(t, func(t *rapid.T) {
		cfg := genConfig(t)
		table := Build(cfg)
		api := BuildAPI(cfg)

		if table[0].Handler != HandlerHome {
			t.Fatalf("home route must come first, got %v", table[0])
		}
		for feature, handlers := range gated {
			if cfg.IsFeatureEnabled(feature) {
				continue
			}
			for _, h := range handlers {
				if table.Has(h) {
					t.Fatalf("%s routed while %s disabled", h, feature)
				}
			}
		}
		for feature, handlers := range gatedAPI {
			if cfg.IsFeatureEnabled(feature) {
				continue
			}
			for _, h := range handlers {
				for _, e := range api {
					if e.Handler == h {
						t.Fatalf("%s routed while %s disabled", h, feature)
					}
				}
			}
		}
		seen := map[string]bool{}
		for _, r := range table {
			if seen[r.Pattern] {
				t.Fatalf("duplicate pattern %s", r.Pattern)
			}
			seen[r.Pattern] = true
		}
	})
}
