package gate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brewandbeans/kaizen/internal/config"
)

func paymentsConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Features.Payments = true
	cfg.Features.Convex = true
	cfg.UI.ShowPricing = true
	cfg.Services.Polar.Enabled = true
	cfg.Services.Polar.AccessToken = "polar_oat_token"
	cfg.Services.Polar.OrganizationID = "org_123"
	cfg.Services.Convex.Enabled = true
	return cfg
}

func TestPricingRequiresBillingService(t *testing.T) {
	cfg := paymentsConfig()
	cfg.Services.Polar.Enabled = false

	for _, g := range []Gate{Pricing, Success, SubscriptionStatus, CustomerPortal} {
		d := g.Check(cfg)
		assert.Equal(t, Disabled, d.State, g.Name)
	}
	assert.Equal(t, "Pricing Not Available", Pricing.Check(cfg).Placeholder.Title)
	assert.Equal(t, "Pricing functionality is currently disabled.", Pricing.Check(cfg).Placeholder.Message)
}

func TestPricingRequiresBackend(t *testing.T) {
	cfg := paymentsConfig()
	cfg.Features.Convex = false

	d := Pricing.Check(cfg)
	assert.Equal(t, Disabled, d.State)
	assert.Equal(t, Placeholder{Title: "Service Unavailable", Message: "Pricing functionality requires backend services."}, *d.Placeholder)

	d = SubscriptionStatus.Check(cfg)
	assert.Equal(t, "Subscription data requires backend services.", d.Placeholder.Message)

	d = Success.Check(cfg)
	assert.Equal(t, "Thank you for your purchase. Backend services are currently unavailable.", d.Placeholder.Message)
}

func TestPricingRequiresBackendService(t *testing.T) {
	cfg := paymentsConfig()
	cfg.Services.Convex.Enabled = false
	require.True(t, cfg.Features.Convex)

	for _, g := range []Gate{Pricing, Success, SubscriptionStatus, CustomerPortal} {
		calls := 0
		out := Run(context.Background(), g, cfg, func(context.Context) (int, error) {
			calls++
			return 0, nil
		})
		assert.Equal(t, Disabled, out.State, g.Name)
		assert.Zero(t, calls, g.Name)
	}
	assert.Equal(t, "Service Unavailable", Pricing.Check(cfg).Placeholder.Title)
}

func TestPricingMisconfigured(t *testing.T) {
	cfg := paymentsConfig()
	cfg.Services.Polar.OrganizationID = ""

	d := Pricing.Check(cfg)
	assert.Equal(t, Misconfigured, d.State)
	assert.ErrorIs(t, d.Cause, ErrNoBillingCreds)
}

func TestPricingLiveMakesExactlyOneCall(t *testing.T) {
	calls := 0
	out := Run(context.Background(), Pricing, paymentsConfig(), func(context.Context) ([]string, error) {
		calls++
		return []string{"starter", "pro"}, nil
	})
	assert.Equal(t, Ready, out.State)
	assert.Equal(t, []string{"starter", "pro"}, out.Value)
	assert.Equal(t, 1, calls)
}

func TestSubscriptionStatusDisabledCopy(t *testing.T) {
	d := SubscriptionStatus.Check(config.DefaultConfig())
	assert.Equal(t, Placeholder{Title: "Subscription Status", Message: "Subscription functionality is currently disabled."}, *d.Placeholder)
}

func TestChatGate(t *testing.T) {
	t.Run("backend disabled makes no call", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.UI.ShowChat = true

		calls := 0
		out := Run(context.Background(), Chat, cfg, func(context.Context) (string, error) {
			calls++
			return "", nil
		})
		assert.Equal(t, Disabled, out.State)
		assert.Equal(t, "Chat Not Available", out.Placeholder.Title)
		assert.Equal(t, "Chat functionality is currently disabled or requires backend services.", out.Placeholder.Message)
		assert.Zero(t, calls)
	})

	t.Run("backend service off makes no call", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.UI.ShowChat = true
		cfg.Features.Convex = true
		cfg.Services.Convex.Enabled = false
		cfg.Services.Convex.URL = "https://brew.convex.cloud"
		cfg.Services.OpenAI.Enabled = true
		cfg.Services.OpenAI.APIKey = "sk-test"

		calls := 0
		out := Run(context.Background(), Chat, cfg, func(context.Context) (string, error) {
			calls++
			return "", nil
		})
		assert.Equal(t, Disabled, out.State)
		assert.Equal(t, "Chat Not Available", out.Placeholder.Title)
		assert.Zero(t, calls)
	})

	t.Run("missing backend url", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Features.Convex = true
		cfg.Services.Convex.Enabled = true

		d := Chat.Check(cfg)
		assert.Equal(t, Misconfigured, d.State)
		assert.Equal(t, "Chat Configuration Error", d.Placeholder.Title)
		assert.ErrorIs(t, d.Cause, ErrNoChatEndpoint)
	})

	t.Run("missing AI provider", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Features.Convex = true
		cfg.Services.Convex.Enabled = true
		cfg.Services.Convex.URL = "https://brew.convex.cloud"

		d := Chat.Check(cfg)
		assert.Equal(t, Misconfigured, d.State)
		assert.ErrorIs(t, d.Cause, ErrNoChatProvider)
	})

	t.Run("ready", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Features.Convex = true
		cfg.Services.Convex.Enabled = true
		cfg.Services.Convex.URL = "https://brew.convex.cloud"
		cfg.Services.OpenAI.Enabled = true
		cfg.Services.OpenAI.APIKey = "sk-test"

		assert.Equal(t, Loading, Chat.Check(cfg).State)
	})
}

func TestChatEndpoint(t *testing.T) {
	tests := []struct {
		url      string
		expected string
	}{
		{"https://brew.convex.cloud", "https://brew.convex.site/api/chat"},
		{"https://brew.convex.cloud/", "https://brew.convex.site/api/chat"},
		{"http://127.0.0.1:3210", "http://127.0.0.1:3210/api/chat"},
	}
	for _, tt := range tests {
		cfg := config.DefaultConfig()
		cfg.Services.Convex.URL = tt.url
		got, err := ChatEndpoint(cfg)
		require.NoError(t, err)
		assert.Equal(t, tt.expected, got)
	}

	_, err := ChatEndpoint(config.DefaultConfig())
	assert.ErrorIs(t, err, ErrNoChatEndpoint)
}

func TestEmailTestGate(t *testing.T) {
	cfg := config.DefaultConfig()
	assert.Equal(t, Disabled, EmailTest.Check(cfg).State)

	cfg.Features.Email = true
	assert.Equal(t, Disabled, EmailTest.Check(cfg).State, "email provider must also be on")

	cfg.Services.Resend.Enabled = true
	assert.Equal(t, Misconfigured, EmailTest.Check(cfg).State)

	cfg.Services.Resend.APIKey = "re_key"
	assert.Equal(t, Loading, EmailTest.Check(cfg).State)
}

func TestNavGates(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.UI = config.UIConfig{}
	assert.False(t, NavAuth.Check(cfg).Allowed())
	assert.False(t, NavPricing.Check(cfg).Allowed())

	cfg.Features.Auth = true
	cfg.UI.ShowAuth = true
	assert.True(t, NavAuth.Check(cfg).Allowed())
}
