package config

import "sort"

// Feature names a functional area that can be switched on or off. Only the
// Feature* values below exist; the zero Feature names nothing and is never
// enabled.
type Feature struct{ name string }

// String returns the lower-case feature name, e.g. "auth"
func (f Feature) String() string { return f.name }

// Service names a third-party integration backing a feature. Only the
// Service* values below exist.
type Service struct{ name string }

// String returns the lower-case service name, e.g. "clerk"
func (s Service) String() string { return s.name }

var (
	FeatureAuth       = Feature{"auth"}
	FeaturePayments   = Feature{"payments"}
	FeatureConvex     = Feature{"convex"}
	FeatureEmail      = Feature{"email"}
	FeatureMonitoring = Feature{"monitoring"}
)

var (
	ServiceClerk      = Service{"clerk"}      // identity provider
	ServicePolar      = Service{"polar"}      // billing provider
	ServiceConvex     = Service{"convex"}     // backend platform
	ServiceResend     = Service{"resend"}     // email provider
	ServiceOpenAI     = Service{"openai"}     // AI provider
	ServiceSentry     = Service{"sentry"}     // error reporting
	ServiceOpenStatus = Service{"openstatus"} // uptime monitor
)

// AllFeatures lists every feature in declaration order
var AllFeatures = []Feature{FeatureAuth, FeaturePayments, FeatureConvex, FeatureEmail, FeatureMonitoring}

// AllServices lists every service in declaration order
var AllServices = []Service{ServiceClerk, ServicePolar, ServiceConvex, ServiceResend, ServiceOpenAI, ServiceSentry, ServiceOpenStatus}

// FeatureFlags represents the feature toggles of the application
type FeatureFlags struct {
	Auth       bool `json:"auth" yaml:"auth" mapstructure:"auth"`
	Payments   bool `json:"payments" yaml:"payments" mapstructure:"payments"`
	Convex     bool `json:"convex" yaml:"convex" mapstructure:"convex"`
	Email      bool `json:"email" yaml:"email" mapstructure:"email"`
	Monitoring bool `json:"monitoring" yaml:"monitoring" mapstructure:"monitoring"`
}

// IsFeatureEnabled checks if a specific feature is enabled
func (ff *FeatureFlags) IsFeatureEnabled(feature Feature) bool {
	if ff == nil {
		return false
	}
	switch feature {
	case FeatureAuth:
		return ff.Auth
	case FeaturePayments:
		return ff.Payments
	case FeatureConvex:
		return ff.Convex
	case FeatureEmail:
		return ff.Email
	case FeatureMonitoring:
		return ff.Monitoring
	default:
		return false
	}
}

func (ff *FeatureFlags) set(feature Feature, enabled bool) {
	switch feature {
	case FeatureAuth:
		ff.Auth = enabled
	case FeaturePayments:
		ff.Payments = enabled
	case FeatureConvex:
		ff.Convex = enabled
	case FeatureEmail:
		ff.Email = enabled
	case FeatureMonitoring:
		ff.Monitoring = enabled
	}
}

// IsFeatureEnabled reports whether the feature flag is on.
// The zero Feature and a nil config report false.
func (c *Config) IsFeatureEnabled(feature Feature) bool {
	if c == nil {
		return false
	}
	return c.Features.IsFeatureEnabled(feature)
}

// IsServiceEnabled reports whether the service is configured and enabled
func (c *Config) IsServiceEnabled(service Service) bool {
	settings := c.ServiceConfig(service)
	return settings != nil && settings.IsEnabled()
}

// ServiceConfig returns the settings for a service, or nil for the zero
// Service or when the service is not configured.
func (c *Config) ServiceConfig(service Service) ServiceSettings {
	if c == nil {
		return nil
	}
	s := c.Services
	// Typed nil pointers must not leak out as non-nil interfaces.
	switch service {
	case ServiceClerk:
		if s.Clerk != nil {
			return s.Clerk
		}
	case ServicePolar:
		if s.Polar != nil {
			return s.Polar
		}
	case ServiceConvex:
		if s.Convex != nil {
			return s.Convex
		}
	case ServiceResend:
		if s.Resend != nil {
			return s.Resend
		}
	case ServiceOpenAI:
		if s.OpenAI != nil {
			return s.OpenAI
		}
	case ServiceSentry:
		if s.Sentry != nil {
			return s.Sentry
		}
	case ServiceOpenStatus:
		if s.OpenStatus != nil {
			return s.OpenStatus
		}
	}
	return nil
}

// AuthActive reports auth feature and identity provider both on
func (c *Config) AuthActive() bool {
	return c.IsFeatureEnabled(FeatureAuth) && c.IsServiceEnabled(ServiceClerk)
}

// PaymentsActive reports payments feature and billing provider both on
func (c *Config) PaymentsActive() bool {
	return c.IsFeatureEnabled(FeaturePayments) && c.IsServiceEnabled(ServicePolar)
}

// BackendActive reports backend feature and backend platform both on
func (c *Config) BackendActive() bool {
	return c.IsFeatureEnabled(FeatureConvex) && c.IsServiceEnabled(ServiceConvex)
}

// EmailActive reports email feature and email provider both on
func (c *Config) EmailActive() bool {
	return c.IsFeatureEnabled(FeatureEmail) && c.IsServiceEnabled(ServiceResend)
}

// EnabledFeatures returns the names of enabled features, sorted
func (c *Config) EnabledFeatures() []string {
	var out []string
	for _, f := range AllFeatures {
		if c.IsFeatureEnabled(f) {
			out = append(out, f.String())
		}
	}
	sort.Strings(out)
	return out
}

// EnabledServices returns the names of enabled services, sorted
func (c *Config) EnabledServices() []string {
	var out []string
	for _, s := range AllServices {
		if c.IsServiceEnabled(s) {
			out = append(out, s.String())
		}
	}
	sort.Strings(out)
	return out
}

// setServiceEnabled flips the enabled flag, creating the settings if needed
func (s *ServicesConfig) setServiceEnabled(service Service, enabled bool) {
	switch service {
	case ServiceClerk:
		if s.Clerk == nil {
			s.Clerk = &ClerkConfig{}
		}
		s.Clerk.Enabled = enabled
	case ServicePolar:
		if s.Polar == nil {
			s.Polar = &PolarConfig{}
		}
		s.Polar.Enabled = enabled
	case ServiceConvex:
		if s.Convex == nil {
			s.Convex = &ConvexConfig{}
		}
		s.Convex.Enabled = enabled
	case ServiceResend:
		if s.Resend == nil {
			s.Resend = &ResendConfig{}
		}
		s.Resend.Enabled = enabled
	case ServiceOpenAI:
		if s.OpenAI == nil {
			s.OpenAI = &OpenAIConfig{}
		}
		s.OpenAI.Enabled = enabled
	case ServiceSentry:
		if s.Sentry == nil {
			s.Sentry = &SentryConfig{}
		}
		s.Sentry.Enabled = enabled
	case ServiceOpenStatus:
		if s.OpenStatus == nil {
			s.OpenStatus = &OpenStatusConfig{}
		}
		s.OpenStatus.Enabled = enabled
	}
}
