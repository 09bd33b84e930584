// Package routes builds the page and API route tables from the loaded
// configuration and mounts them on a chi router.
package routes

import (
	"net/http"

	"github.com/brewandbeans/kaizen/internal/config"
)

// Handler identifiers. They are stable names resolved to http.Handlers by Mount.
const (
	HandlerHome                 = "routes/home"
	HandlerSignIn               = "routes/sign-in"
	HandlerSignUp               = "routes/sign-up"
	HandlerPricing              = "routes/pricing"
	HandlerSuccess              = "routes/success"
	HandlerSubscriptionRequired = "routes/subscription-required"
	HandlerDashboard            = "routes/dashboard/index"
	HandlerDashboardSettings    = "routes/dashboard/settings"
	HandlerDashboardChat        = "routes/dashboard/chat"

	LayoutDashboard = "routes/dashboard/layout"
)

// API handler identifiers
const (
	APIHealth        = "api/health"
	APISentryWebhook = "api/webhooks/sentry"
	APICheckout      = "api/checkout"
	APIPortal        = "api/portal"
	APIPlans         = "api/plans"
	APISubscription  = "api/subscription"
	APIPolarWebhook  = "payments/webhook"
	APIEmailTest     = "api/email/test"
	APIResendWebhook = "resend-webhook"
	APIChat          = "api/chat"
)

// Route is a page route: path pattern, handler and optional parent layout
type Route struct {
	Pattern string `json:"pattern"`
	Handler string `json:"handler"`
	Layout  string `json:"layout,omitempty"`
}

// Table is the ordered page route list
type Table []Route

// Endpoint is an API route
type Endpoint struct {
	Method  string `json:"method"`
	Pattern string `json:"pattern"`
	Handler string `json:"handler"`
}

// Build returns the page routes enabled by cfg. Same input, same output,
// same order.
func Build(cfg *config.Config) Table {
	t := Table{{Pattern: "/", Handler: HandlerHome}}

	if cfg.IsFeatureEnabled(config.FeatureAuth) && cfg.UI.ShowAuth {
		t = append(t,
			Route{Pattern: "/sign-in/*", Handler: HandlerSignIn},
			Route{Pattern: "/sign-up/*", Handler: HandlerSignUp},
		)
	}

	if cfg.IsFeatureEnabled(config.FeaturePayments) && cfg.UI.ShowPricing {
		t = append(t,
			Route{Pattern: "/pricing", Handler: HandlerPricing},
			Route{Pattern: "/success", Handler: HandlerSuccess},
			Route{Pattern: "/subscription-required", Handler: HandlerSubscriptionRequired},
		)
	}

	if cfg.UI.ShowDashboard {
		t = append(t,
			Route{Pattern: "/dashboard", Handler: HandlerDashboard, Layout: LayoutDashboard},
			Route{Pattern: "/dashboard/settings", Handler: HandlerDashboardSettings, Layout: LayoutDashboard},
		)
		if cfg.UI.ShowChat {
			t = append(t, Route{Pattern: "/dashboard/chat", Handler: HandlerDashboardChat, Layout: LayoutDashboard})
		}
	}

	return t
}

// BuildAPI returns the JSON and webhook endpoints enabled by cfg
func BuildAPI(cfg *config.Config) []Endpoint {
	e := []Endpoint{
		{Method: http.MethodGet, Pattern: "/api/health", Handler: APIHealth},
		{Method: http.MethodPost, Pattern: "/api/webhooks/sentry", Handler: APISentryWebhook},
	}

	if cfg.IsFeatureEnabled(config.FeaturePayments) {
		e = append(e,
			Endpoint{Method: http.MethodGet, Pattern: "/api/plans", Handler: APIPlans},
			Endpoint{Method: http.MethodPost, Pattern: "/api/checkout", Handler: APICheckout},
			Endpoint{Method: http.MethodPost, Pattern: "/api/portal", Handler: APIPortal},
			Endpoint{Method: http.MethodGet, Pattern: "/api/subscription", Handler: APISubscription},
			Endpoint{Method: http.MethodPost, Pattern: "/payments/webhook", Handler: APIPolarWebhook},
		)
	}

	if cfg.IsFeatureEnabled(config.FeatureEmail) {
		e = append(e,
			Endpoint{Method: http.MethodPost, Pattern: "/api/email/test", Handler: APIEmailTest},
			Endpoint{Method: http.MethodPost, Pattern: "/resend-webhook", Handler: APIResendWebhook},
		)
	}

	if cfg.UI.ShowDashboard && cfg.UI.ShowChat {
		e = append(e, Endpoint{Method: http.MethodPost, Pattern: "/api/chat", Handler: APIChat})
	}

	return e
}

// Patterns lists the table's path patterns in order
func (t Table) Patterns() []string {
	out := make([]string, len(t))
	for i, r := range t {
		out[i] = r.Pattern
	}
	return out
}

// Has reports whether a route with the given handler is present
func (t Table) Has(handler string) bool {
	for _, r := range t {
		if r.Handler == handler {
			return true
		}
	}
	return false
}
