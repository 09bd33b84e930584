package config

import (
	"fmt"
	"net"
	"strings"
)

// ValidationError represents a single missing or invalid setting
type ValidationError struct {
	Field   string `json:"field"`
	EnvVar  string `json:"env_var,omitempty"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationResult is the outcome of Validate
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

type credentialRule struct {
	feature Feature
	service Service
	// label is the feature name used in messages
	label    string
	required []requiredField
}

type requiredField struct {
	field  string
	envVar string
	value  func(*ServicesConfig) string
}

var credentialRules = []credentialRule{
	{
		feature: FeatureAuth,
		service: ServiceClerk,
		label:   "auth",
		required: []requiredField{
			{"services.clerk.publishable_key", EnvClerkPublishableKey, func(s *ServicesConfig) string { return s.Clerk.PublishableKey }},
			{"services.clerk.secret_key", EnvClerkSecretKey, func(s *ServicesConfig) string { return s.Clerk.SecretKey }},
		},
	},
	{
		feature: FeatureConvex,
		service: ServiceConvex,
		label:   "convex",
		required: []requiredField{
			{"services.convex.deployment", EnvConvexDeployment, func(s *ServicesConfig) string { return s.Convex.Deployment }},
			{"services.convex.url", EnvConvexURL, func(s *ServicesConfig) string { return s.Convex.URL }},
		},
	},
	{
		feature: FeatureMonitoring,
		service: ServiceSentry,
		label:   "monitoring",
		required: []requiredField{
			{"services.sentry.dsn", EnvSentryDSN, func(s *ServicesConfig) string { return s.Sentry.DSN }},
		},
	},
	{
		feature: FeaturePayments,
		service: ServicePolar,
		label:   "payments",
		required: []requiredField{
			{"services.polar.access_token", EnvPolarAccessToken, func(s *ServicesConfig) string { return s.Polar.AccessToken }},
			{"services.polar.organization_id", EnvPolarOrganizationID, func(s *ServicesConfig) string { return s.Polar.OrganizationID }},
		},
	},
	{
		feature: FeatureEmail,
		service: ServiceResend,
		label:   "email",
		required: []requiredField{
			{"services.resend.api_key", EnvResendAPIKey, func(s *ServicesConfig) string { return s.Resend.APIKey }},
		},
	},
}

// ValidateDetailed returns one error per missing credential of every
// enabled feature whose backing service is also enabled. It does not
// modify the configuration.
func (c *Config) ValidateDetailed() []ValidationError {
	if c == nil {
		return nil
	}
	var errs []ValidationError
	for _, rule := range credentialRules {
		if !c.IsFeatureEnabled(rule.feature) || !c.IsServiceEnabled(rule.service) {
			continue
		}
		for _, req := range rule.required {
			if strings.TrimSpace(req.value(&c.Services)) != "" {
				continue
			}
			errs = append(errs, ValidationError{
				Field:   req.field,
				EnvVar:  req.envVar,
				Message: fmt.Sprintf("%s is required when %s is enabled", req.envVar, rule.label),
			})
		}
	}

	if c.Listen != "" && !isValidListenAddr(c.Listen) {
		errs = append(errs, ValidationError{
			Field:   "listen",
			EnvVar:  EnvListen,
			Message: fmt.Sprintf("invalid listen address %q", c.Listen),
		})
	}
	if c.Logging != nil && c.Logging.Level != "" && !isValidLogLevel(c.Logging.Level) {
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			EnvVar:  EnvLogLevel,
			Message: fmt.Sprintf("invalid log level %q", c.Logging.Level),
		})
	}
	return errs
}

// Validate checks that every enabled feature has its credentials
func (c *Config) Validate() ValidationResult {
	detailed := c.ValidateDetailed()
	result := ValidationResult{Valid: len(detailed) == 0, Errors: []string{}}
	for _, e := range detailed {
		result.Errors = append(result.Errors, e.Message)
	}
	return result
}

func isValidListenAddr(addr string) bool {
	_, _, err := net.SplitHostPort(addr)
	return err == nil
}

func isValidLogLevel(level string) bool {
	switch strings.ToLower(level) {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}
