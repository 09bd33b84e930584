package gate

import (
	"errors"
	"strings"

	"github.com/brewandbeans/kaizen/internal/config"
)

var (
	ErrNoChatEndpoint     = errors.New("backend URL is not set, chat endpoint cannot be derived")
	ErrNoChatProvider     = errors.New("AI provider is disabled or has no API key")
	ErrNoBillingCreds     = errors.New("billing provider credentials are missing")
	ErrNoEmailCredentials = errors.New("email provider API key is missing")
)

func pricingVisible(cfg *config.Config) bool {
	return cfg.IsFeatureEnabled(config.FeaturePayments) && cfg.UI.ShowPricing &&
		cfg.IsServiceEnabled(config.ServicePolar)
}

func billingCredentials(cfg *config.Config) error {
	p := cfg.Services.Polar
	if p == nil || p.AccessToken == "" || p.OrganizationID == "" {
		return ErrNoBillingCreds
	}
	return nil
}

// Pricing governs the plan list and checkout
var Pricing = Gate{
	Name:     "pricing",
	Enabled:  pricingVisible,
	Disabled: Placeholder{Title: "Pricing Not Available", Message: "Pricing functionality is currently disabled."},
	Requires: []Requirement{{
		Name:        "backend",
		Met:         (*config.Config).BackendActive,
		Placeholder: Placeholder{Title: "Service Unavailable", Message: "Pricing functionality requires backend services."},
	}},
	Resolve:       billingCredentials,
	Misconfigured: Placeholder{Title: "Pricing Configuration Error", Message: "Pricing functionality requires billing provider credentials."},
}

// Success governs the post-checkout page
var Success = Gate{
	Name:     "success",
	Enabled:  pricingVisible,
	Disabled: Placeholder{Title: "Success!", Message: "Thank you for your interest. Payment functionality is currently disabled."},
	Requires: []Requirement{{
		Name:        "backend",
		Met:         (*config.Config).BackendActive,
		Placeholder: Placeholder{Title: "Success!", Message: "Thank you for your purchase. Backend services are currently unavailable."},
	}},
}

// SubscriptionStatus governs the dashboard subscription card
var SubscriptionStatus = Gate{
	Name:     "subscription_status",
	Enabled:  pricingVisible,
	Disabled: Placeholder{Title: "Subscription Status", Message: "Subscription functionality is currently disabled."},
	Requires: []Requirement{{
		Name:        "backend",
		Met:         (*config.Config).BackendActive,
		Placeholder: Placeholder{Title: "Subscription Status", Message: "Subscription data requires backend services."},
	}},
}

// CustomerPortal governs the "manage subscription" action
var CustomerPortal = Gate{
	Name:          "customer_portal",
	Enabled:       pricingVisible,
	Disabled:      SubscriptionStatus.Disabled,
	Requires:      SubscriptionStatus.Requires,
	Resolve:       billingCredentials,
	Misconfigured: Pricing.Misconfigured,
}

// Chat governs the dashboard chat view and the completion endpoint
var Chat = Gate{
	Name: "chat",
	Enabled: func(cfg *config.Config) bool {
		return cfg.UI.ShowChat && cfg.BackendActive()
	},
	Disabled: Placeholder{Title: "Chat Not Available", Message: "Chat functionality is currently disabled or requires backend services."},
	Resolve: func(cfg *config.Config) error {
		if _, err := ChatEndpoint(cfg); err != nil {
			return err
		}
		ai := cfg.Services.OpenAI
		if !ai.IsEnabled() || ai.APIKey == "" {
			return ErrNoChatProvider
		}
		return nil
	},
	Misconfigured: Placeholder{Title: "Chat Configuration Error", Message: "Chat functionality requires proper backend configuration."},
}

// EmailTest governs the dashboard test email form
var EmailTest = Gate{
	Name:     "email_test",
	Enabled:  func(cfg *config.Config) bool { return cfg.EmailActive() },
	Disabled: Placeholder{Title: "Email Not Available", Message: "Email functionality is currently disabled."},
	Resolve: func(cfg *config.Config) error {
		if cfg.Services.Resend == nil || cfg.Services.Resend.APIKey == "" {
			return ErrNoEmailCredentials
		}
		return nil
	},
	Misconfigured: Placeholder{Title: "Email Configuration Error", Message: "Email functionality requires an email provider API key."},
}

// NavAuth governs the navbar sign-in, sign-up and dashboard links
var NavAuth = Gate{
	Name: "nav_auth",
	Enabled: func(cfg *config.Config) bool {
		return cfg.IsFeatureEnabled(config.FeatureAuth) && cfg.UI.ShowAuth
	},
}

// NavPricing governs the navbar pricing link
var NavPricing = Gate{
	Name: "nav_pricing",
	Enabled: func(cfg *config.Config) bool {
		return cfg.IsFeatureEnabled(config.FeaturePayments) && cfg.UI.ShowPricing
	},
}

// All lists every gate, for status reporting
var All = []Gate{Pricing, Success, SubscriptionStatus, CustomerPortal, Chat, EmailTest, NavAuth, NavPricing}

// ChatEndpoint derives the backend chat URL: the ".cloud" host suffix of
// the backend URL becomes ".site" and "/api/chat" is appended.
func ChatEndpoint(cfg *config.Config) (string, error) {
	c := cfg.Services.Convex
	if c == nil || strings.TrimSpace(c.URL) == "" {
		return "", ErrNoChatEndpoint
	}
	base := strings.TrimRight(strings.TrimSpace(c.URL), "/")
	if strings.HasSuffix(base, ".cloud") {
		base = strings.TrimSuffix(base, ".cloud") + ".site"
	}
	return base + "/api/chat", nil
}
