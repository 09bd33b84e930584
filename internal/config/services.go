package config

// ServiceSettings is implemented by every per-service settings struct
type ServiceSettings interface {
	IsEnabled() bool
}

// ServicesConfig holds the settings for each third-party integration.
// A nil entry means the service is not configured at all.
type ServicesConfig struct {
	Clerk      *ClerkConfig      `json:"clerk,omitempty" yaml:"clerk,omitempty" mapstructure:"clerk"`
	Polar      *PolarConfig      `json:"polar,omitempty" yaml:"polar,omitempty" mapstructure:"polar"`
	Convex     *ConvexConfig     `json:"convex,omitempty" yaml:"convex,omitempty" mapstructure:"convex"`
	Resend     *ResendConfig     `json:"resend,omitempty" yaml:"resend,omitempty" mapstructure:"resend"`
	OpenAI     *OpenAIConfig     `json:"openai,omitempty" yaml:"openai,omitempty" mapstructure:"openai"`
	Sentry     *SentryConfig     `json:"sentry,omitempty" yaml:"sentry,omitempty" mapstructure:"sentry"`
	OpenStatus *OpenStatusConfig `json:"openstatus,omitempty" yaml:"openstatus,omitempty" mapstructure:"openstatus"`
}

// ClerkConfig configures the identity provider
type ClerkConfig struct {
	Enabled        bool   `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	PublishableKey string `json:"publishable_key,omitempty" yaml:"publishable_key,omitempty" mapstructure:"publishable-key"`
	SecretKey      string `json:"-" yaml:"-" mapstructure:"secret-key"`
	// JWTKey is the PEM encoded public key used to verify session tokens
	JWTKey string `json:"-" yaml:"-" mapstructure:"jwt-key"`
}

// PolarConfig configures the billing provider
type PolarConfig struct {
	Enabled        bool   `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	AccessToken    string `json:"-" yaml:"-" mapstructure:"access-token"`
	OrganizationID string `json:"organization_id,omitempty" yaml:"organization_id,omitempty" mapstructure:"organization-id"`
	WebhookSecret  string `json:"-" yaml:"-" mapstructure:"webhook-secret"`
	Server         string `json:"server,omitempty" yaml:"server,omitempty" mapstructure:"server"` // sandbox | production
}

// ConvexConfig configures the backend platform
type ConvexConfig struct {
	Enabled    bool   `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	Deployment string `json:"deployment,omitempty" yaml:"deployment,omitempty" mapstructure:"deployment"`
	URL        string `json:"url,omitempty" yaml:"url,omitempty" mapstructure:"url"`
}

// ResendConfig configures the transactional email provider
type ResendConfig struct {
	Enabled       bool   `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	APIKey        string `json:"-" yaml:"-" mapstructure:"api-key"`
	WebhookSecret string `json:"-" yaml:"-" mapstructure:"webhook-secret"`
	SenderEmail   string `json:"sender_email,omitempty" yaml:"sender_email,omitempty" mapstructure:"sender-email"`
	CompanyName   string `json:"company_name,omitempty" yaml:"company_name,omitempty" mapstructure:"company-name"`
}

// OpenAIConfig configures the chat completion provider
type OpenAIConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	APIKey  string `json:"-" yaml:"-" mapstructure:"api-key"`
	Model   string `json:"model,omitempty" yaml:"model,omitempty" mapstructure:"model"`
}

// SentryConfig configures error reporting
type SentryConfig struct {
	Enabled          bool    `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	DSN              string  `json:"dsn,omitempty" yaml:"dsn,omitempty" mapstructure:"dsn"`
	TracesSampleRate float64 `json:"traces_sample_rate" yaml:"traces_sample_rate" mapstructure:"traces-sample-rate"`
	Environment      string  `json:"environment,omitempty" yaml:"environment,omitempty" mapstructure:"environment"`
}

// OpenStatusConfig configures the uptime monitor
type OpenStatusConfig struct {
	Enabled    bool   `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	APIKey     string `json:"-" yaml:"-" mapstructure:"api-key"`
	ProjectID  string `json:"project_id,omitempty" yaml:"project_id,omitempty" mapstructure:"project-id"`
	WebhookURL string `json:"webhook_url,omitempty" yaml:"webhook_url,omitempty" mapstructure:"webhook-url"`
}

func (c *ClerkConfig) IsEnabled() bool      { return c != nil && c.Enabled }
func (c *PolarConfig) IsEnabled() bool      { return c != nil && c.Enabled }
func (c *ConvexConfig) IsEnabled() bool     { return c != nil && c.Enabled }
func (c *ResendConfig) IsEnabled() bool     { return c != nil && c.Enabled }
func (c *OpenAIConfig) IsEnabled() bool     { return c != nil && c.Enabled }
func (c *SentryConfig) IsEnabled() bool     { return c != nil && c.Enabled }
func (c *OpenStatusConfig) IsEnabled() bool { return c != nil && c.Enabled }

// DefaultServicesConfig returns every service present but disabled
func DefaultServicesConfig() ServicesConfig {
	return ServicesConfig{
		Clerk:      &ClerkConfig{},
		Polar:      &PolarConfig{Server: "sandbox"},
		Convex:     &ConvexConfig{},
		Resend:     &ResendConfig{},
		OpenAI:     &OpenAIConfig{Model: defaultOpenAIModel},
		Sentry:     &SentryConfig{TracesSampleRate: defaultTracesSampleRate},
		OpenStatus: &OpenStatusConfig{},
	}
}

const (
	defaultOpenAIModel      = "gpt-4o"
	defaultTracesSampleRate = 0.2
	defaultSenderEmail      = "test@resend.dev"
	defaultCompanyName      = "Kaizen"
)

// Sender returns the From header for outgoing mail, e.g. "Kaizen <test@resend.dev>"
func (c *ResendConfig) Sender() string {
	from := defaultSenderEmail
	company := defaultCompanyName
	if c != nil {
		if c.SenderEmail != "" {
			from = c.SenderEmail
		}
		if c.CompanyName != "" {
			company = c.CompanyName
		}
	}
	return company + " <" + from + ">"
}

// Company returns the configured company name or the default
func (c *ResendConfig) Company() string {
	if c == nil || c.CompanyName == "" {
		return defaultCompanyName
	}
	return c.CompanyName
}
