package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	DefaultDataDir = ".kaizen"
	EnvPrefix      = "KAIZEN"
)

// Input variable names
const (
	EnvPreset   = "KAIZEN_PRESET"
	EnvListen   = "KAIZEN_LISTEN"
	EnvDataDir  = "KAIZEN_DATA_DIR"
	EnvLogLevel = "KAIZEN_LOG_LEVEL"

	EnvNodeEnv     = "NODE_ENV"
	EnvFrontendURL = "FRONTEND_URL"

	EnvClerkPublishableKey = "VITE_CLERK_PUBLISHABLE_KEY"
	EnvClerkSecretKey      = "CLERK_SECRET_KEY"
	EnvClerkJWTKey         = "CLERK_JWT_KEY"

	EnvPolarAccessToken    = "POLAR_ACCESS_TOKEN"
	EnvPolarOrganizationID = "POLAR_ORGANIZATION_ID"
	EnvPolarWebhookSecret  = "POLAR_WEBHOOK_SECRET"
	EnvPolarServer         = "POLAR_SERVER"

	EnvConvexDeployment = "CONVEX_DEPLOYMENT"
	EnvConvexURL        = "VITE_CONVEX_URL"

	EnvResendAPIKey        = "RESEND_API_KEY"
	EnvResendWebhookSecret = "RESEND_WEBHOOK_SECRET"
	EnvSenderEmail         = "SENDER_EMAIL"
	EnvCompanyName         = "COMPANY_NAME"

	EnvOpenAIAPIKey = "OPENAI_API_KEY"
	EnvOpenAIModel  = "OPENAI_MODEL"

	EnvSentryDSN              = "SENTRY_DSN"
	EnvSentryDSNPublic        = "VITE_SENTRY_DSN"
	EnvSentryEnvironment      = "SENTRY_ENVIRONMENT"
	EnvSentryTracesSampleRate = "SENTRY_TRACES_SAMPLE_RATE"

	EnvOpenStatusAPIKey     = "OPENSTATUS_API_KEY"
	EnvOpenStatusProjectID  = "OPENSTATUS_PROJECT_ID"
	EnvOpenStatusWebhookURL = "OPENSTATUS_WEBHOOK_URL"
)

// FeatureEnvVar returns the input variable for a feature flag, e.g. KAIZEN_FEATURE_AUTH
func FeatureEnvVar(f Feature) string {
	return EnvPrefix + "_FEATURE_" + strings.ToUpper(f.String())
}

// ServiceEnvVar returns the input variable for a service flag, e.g. KAIZEN_SERVICE_CLERK_ENABLED
func ServiceEnvVar(s Service) string {
	return EnvPrefix + "_SERVICE_" + strings.ToUpper(s.String()) + "_ENABLED"
}

var uiEnvVars = map[string]func(*UIConfig) *bool{
	EnvPrefix + "_UI_SHOW_PRICING":   func(u *UIConfig) *bool { return &u.ShowPricing },
	EnvPrefix + "_UI_SHOW_DASHBOARD": func(u *UIConfig) *bool { return &u.ShowDashboard },
	EnvPrefix + "_UI_SHOW_CHAT":      func(u *UIConfig) *bool { return &u.ShowChat },
	EnvPrefix + "_UI_SHOW_AUTH":      func(u *UIConfig) *bool { return &u.ShowAuth },
}

// LoadOptions controls where Load reads from
type LoadOptions struct {
	// ConfigFile is an optional YAML, JSON or TOML file
	ConfigFile string
	// Preset overrides KAIZEN_PRESET and the file's preset key
	Preset string
	// Env defaults to a LayeredEnv over the process and DefaultEnvFiles
	Env Env
}

// Load builds the configuration: defaults, then preset, then config file,
// then environment. Reading is the only side effect.
func Load(opts LoadOptions) (*Config, error) {
	env := opts.Env
	if env == nil {
		layered, err := NewLayeredEnv(DefaultEnvFiles...)
		if err != nil {
			return nil, err
		}
		env = layered
	}

	cfg := DefaultConfig()

	var v *viper.Viper
	if opts.ConfigFile != "" {
		var err error
		v, err = readConfigFile(opts.ConfigFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", opts.ConfigFile, err)
		}
	}

	preset := opts.Preset
	if preset == "" {
		preset = getString(env, EnvPreset)
	}
	if preset == "" && v != nil {
		preset = v.GetString("preset")
	}
	if preset != "" {
		if err := ApplyPreset(cfg, preset); err != nil {
			return nil, err
		}
	}

	if v != nil {
		if err := v.Unmarshal(cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
		// The file must not rename the applied preset.
		if preset != "" {
			cfg.Preset = strings.ToLower(strings.TrimSpace(preset))
		}
	}

	applyEnv(cfg, env)

	if cfg.DataDir == "" {
		cfg.DataDir = defaultDataDir()
	}

	return cfg, nil
}

func readConfigFile(path string) (*viper.Viper, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	v := viper.New()
	// Empty file (including /dev/null) is treated as no configuration
	if info.Size() == 0 {
		return v, nil
	}
	v.SetConfigFile(path)
	if filepath.Ext(path) == "" {
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	return v, nil
}

// applyEnv overlays every recognised variable onto cfg
func applyEnv(cfg *Config, env Env) {
	for _, f := range AllFeatures {
		if b, ok := getBool(env, FeatureEnvVar(f)); ok {
			cfg.Features.set(f, b)
		}
	}
	for _, s := range AllServices {
		if b, ok := getBool(env, ServiceEnvVar(s)); ok {
			cfg.Services.setServiceEnabled(s, b)
		}
	}
	for name, field := range uiEnvVars {
		if b, ok := getBool(env, name); ok {
			*field(&cfg.UI) = b
		}
	}

	setString(&cfg.Listen, env, EnvListen)
	setString(&cfg.DataDir, env, EnvDataDir)
	setString(&cfg.NodeEnv, env, EnvNodeEnv)
	setString(&cfg.FrontendURL, env, EnvFrontendURL)
	if cfg.Logging != nil {
		setString(&cfg.Logging.Level, env, EnvLogLevel)
	}

	svc := &cfg.Services
	ensureServices(svc)

	setString(&svc.Clerk.PublishableKey, env, EnvClerkPublishableKey)
	setString(&svc.Clerk.SecretKey, env, EnvClerkSecretKey)
	setString(&svc.Clerk.JWTKey, env, EnvClerkJWTKey)

	setString(&svc.Polar.AccessToken, env, EnvPolarAccessToken)
	setString(&svc.Polar.OrganizationID, env, EnvPolarOrganizationID)
	setString(&svc.Polar.WebhookSecret, env, EnvPolarWebhookSecret)
	setString(&svc.Polar.Server, env, EnvPolarServer)

	setString(&svc.Convex.Deployment, env, EnvConvexDeployment)
	setString(&svc.Convex.URL, env, EnvConvexURL)

	setString(&svc.Resend.APIKey, env, EnvResendAPIKey)
	setString(&svc.Resend.WebhookSecret, env, EnvResendWebhookSecret)
	setString(&svc.Resend.SenderEmail, env, EnvSenderEmail)
	setString(&svc.Resend.CompanyName, env, EnvCompanyName)

	setString(&svc.OpenAI.APIKey, env, EnvOpenAIAPIKey)
	setString(&svc.OpenAI.Model, env, EnvOpenAIModel)

	setString(&svc.Sentry.DSN, env, EnvSentryDSNPublic, EnvSentryDSN)
	setString(&svc.Sentry.Environment, env, EnvSentryEnvironment)
	if rate, ok := getFloat(env, EnvSentryTracesSampleRate); ok {
		svc.Sentry.TracesSampleRate = rate
	}

	setString(&svc.OpenStatus.APIKey, env, EnvOpenStatusAPIKey)
	setString(&svc.OpenStatus.ProjectID, env, EnvOpenStatusProjectID)
	setString(&svc.OpenStatus.WebhookURL, env, EnvOpenStatusWebhookURL)
}

// ensureServices allocates settings for services a config file nulled out
func ensureServices(s *ServicesConfig) {
	defaults := DefaultServicesConfig()
	if s.Clerk == nil {
		s.Clerk = defaults.Clerk
	}
	if s.Polar == nil {
		s.Polar = defaults.Polar
	}
	if s.Convex == nil {
		s.Convex = defaults.Convex
	}
	if s.Resend == nil {
		s.Resend = defaults.Resend
	}
	if s.OpenAI == nil {
		s.OpenAI = defaults.OpenAI
	}
	if s.Sentry == nil {
		s.Sentry = defaults.Sentry
	}
	if s.OpenStatus == nil {
		s.OpenStatus = defaults.OpenStatus
	}
}

func setString(dst *string, env Env, names ...string) {
	if v := getString(env, names...); v != "" {
		*dst = v
	}
}

func defaultDataDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return DefaultDataDir
	}
	return filepath.Join(homeDir, DefaultDataDir)
}
