package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func enabledConfig() *Config {
	cfg := DefaultConfig()
	if err := ApplyPreset(cfg, PresetFullSaaS); err != nil {
		panic(err)
	}
	return cfg
}

func TestValidateDetailed(t *testing.T) {
	tests := []struct {
		name           string
		mutate         func(*Config)
		expectedErrors int
		errorEnvVars   []string
	}{
		{
			name:           "defaults are valid",
			mutate:         func(c *Config) { *c = *DefaultConfig() },
			expectedErrors: 0,
		},
		{
			name: "fully configured is valid",
			mutate: func(c *Config) {
				c.Services.Clerk.PublishableKey = "pk"
				c.Services.Clerk.SecretKey = "sk"
				c.Services.Convex.Deployment = "dev:brew"
				c.Services.Convex.URL = "https://brew.convex.cloud"
				c.Services.Polar.AccessToken = "tok"
				c.Services.Polar.OrganizationID = "org"
				c.Services.Resend.APIKey = "re"
			},
			expectedErrors: 0,
		},
		{
			name: "auth without publishable key",
			mutate: func(c *Config) {
				*c = *DefaultConfig()
				c.Features.Auth = true
				c.Services.Clerk.Enabled = true
				c.Services.Clerk.SecretKey = "sk"
			},
			expectedErrors: 1,
			errorEnvVars:   []string{EnvClerkPublishableKey},
		},
		{
			name: "auth feature with identity provider disabled is not checked",
			mutate: func(c *Config) {
				*c = *DefaultConfig()
				c.Features.Auth = true
			},
			expectedErrors: 0,
		},
		{
			name: "convex missing both settings",
			mutate: func(c *Config) {
				*c = *DefaultConfig()
				c.Features.Convex = true
				c.Services.Convex.Enabled = true
			},
			expectedErrors: 2,
			errorEnvVars:   []string{EnvConvexDeployment, EnvConvexURL},
		},
		{
			name: "monitoring with sentry and no dsn",
			mutate: func(c *Config) {
				*c = *DefaultConfig()
				c.Features.Monitoring = true
				c.Services.Sentry.Enabled = true
			},
			expectedErrors: 1,
			errorEnvVars:   []string{EnvSentryDSN},
		},
		{
			name: "payments missing organization",
			mutate: func(c *Config) {
				*c = *DefaultConfig()
				c.Features.Payments = true
				c.Services.Polar.Enabled = true
				c.Services.Polar.AccessToken = "tok"
			},
			expectedErrors: 1,
			errorEnvVars:   []string{EnvPolarOrganizationID},
		},
		{
			name: "email without api key",
			mutate: func(c *Config) {
				*c = *DefaultConfig()
				c.Features.Email = true
				c.Services.Resend.Enabled = true
			},
			expectedErrors: 1,
			errorEnvVars:   []string{EnvResendAPIKey},
		},
		{
			name: "whitespace credential counts as missing",
			mutate: func(c *Config) {
				*c = *DefaultConfig()
				c.Features.Email = true
				c.Services.Resend.Enabled = true
				c.Services.Resend.APIKey = "   "
			},
			expectedErrors: 1,
			errorEnvVars:   []string{EnvResendAPIKey},
		},
		{
			name: "invalid listen and log level",
			mutate: func(c *Config) {
				*c = *DefaultConfig()
				c.Listen = "not-an-address"
				c.Logging.Level = "verbose"
			},
			expectedErrors: 2,
			errorEnvVars:   []string{EnvListen, EnvLogLevel},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := enabledConfig()
			tt.mutate(cfg)

			errors := cfg.ValidateDetailed()
			assert.Equal(t, tt.expectedErrors, len(errors), "Expected %d errors, got %d: %v", tt.expectedErrors, len(errors), errors)

			envVarMap := make(map[string]bool)
			for _, err := range errors {
				envVarMap[err.EnvVar] = true
			}
			for _, expected := range tt.errorEnvVars {
				assert.True(t, envVarMap[expected], "Expected error for %s", expected)
			}
		})
	}
}

func TestValidateMessages(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Features.Auth = true
	cfg.Services.Clerk.Enabled = true

	result := cfg.Validate()
	assert.False(t, result.Valid)
	assert.Equal(t, []string{
		"VITE_CLERK_PUBLISHABLE_KEY is required when auth is enabled",
		"CLERK_SECRET_KEY is required when auth is enabled",
	}, result.Errors)

	cfg = DefaultConfig()
	cfg.Features.Monitoring = true
	cfg.Services.Sentry.Enabled = true
	assert.Equal(t, []string{"SENTRY_DSN is required when monitoring is enabled"}, cfg.Validate().Errors)
}

func TestValidateDoesNotMutate(t *testing.T) {
	cfg := enabledConfig()
	before := cfg.Clone()
	_ = cfg.Validate()
	assert.Equal(t, before, cfg)
}

func TestValidResultHasEmptyErrors(t *testing.T) {
	result := DefaultConfig().Validate()
	assert.True(t, result.Valid)
	assert.NotNil(t, result.Errors)
	assert.Empty(t, result.Errors)
}

func TestValidationError(t *testing.T) {
	err := ValidationError{
		Field:   "test_field",
		Message: "test message",
	}

	assert.Equal(t, "test_field: test message", err.Error())
}

func TestIsValidListenAddr(t *testing.T) {
	tests := []struct {
		name  string
		addr  string
		valid bool
	}{
		{"empty", "", false},
		{"port only", ":5173", true},
		{"host and port", "127.0.0.1:5173", true},
		{"localhost", "localhost:8080", true},
		{"missing port", "localhost", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, isValidListenAddr(tt.addr))
		})
	}
}
