package config

const (
	defaultListen  = "127.0.0.1:5173"
	defaultNodeEnv = "development"

	// EnvDevelopment and EnvProduction are the recognised NODE_ENV values
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config represents the process-wide application configuration.
// It is built once by Load and treated as read-only afterwards.
type Config struct {
	Features FeatureFlags   `json:"features" yaml:"features" mapstructure:"features"`
	Services ServicesConfig `json:"services" yaml:"services" mapstructure:"services"`
	UI       UIConfig       `json:"ui" yaml:"ui" mapstructure:"ui"`

	Listen      string     `json:"listen" yaml:"listen" mapstructure:"listen"`
	NodeEnv     string     `json:"node_env" yaml:"node_env" mapstructure:"node-env"`
	DataDir     string     `json:"data_dir" yaml:"data_dir" mapstructure:"data-dir"`
	FrontendURL string     `json:"frontend_url,omitempty" yaml:"frontend_url,omitempty" mapstructure:"frontend-url"`
	Preset      string     `json:"preset,omitempty" yaml:"preset,omitempty" mapstructure:"preset"`
	Logging     *LogConfig `json:"logging,omitempty" yaml:"logging,omitempty" mapstructure:"logging"`
}

// UIConfig holds presentation-only toggles. A feature can be wired up and
// still hidden from the UI.
type UIConfig struct {
	ShowPricing   bool `json:"show_pricing" yaml:"show_pricing" mapstructure:"show-pricing"`
	ShowDashboard bool `json:"show_dashboard" yaml:"show_dashboard" mapstructure:"show-dashboard"`
	ShowChat      bool `json:"show_chat" yaml:"show_chat" mapstructure:"show-chat"`
	ShowAuth      bool `json:"show_auth" yaml:"show_auth" mapstructure:"show-auth"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level         string `json:"level" yaml:"level" mapstructure:"level"`
	EnableFile    bool   `json:"enable_file" yaml:"enable_file" mapstructure:"enable-file"`
	EnableConsole bool   `json:"enable_console" yaml:"enable_console" mapstructure:"enable-console"`
	Filename      string `json:"filename" yaml:"filename" mapstructure:"filename"`
	LogDir        string `json:"log_dir,omitempty" yaml:"log_dir,omitempty" mapstructure:"log-dir"`
	MaxSize       int    `json:"max_size" yaml:"max_size" mapstructure:"max-size"`          // MB
	MaxBackups    int    `json:"max_backups" yaml:"max_backups" mapstructure:"max-backups"` // number of backup files
	MaxAge        int    `json:"max_age" yaml:"max_age" mapstructure:"max-age"`             // days
	Compress      bool   `json:"compress" yaml:"compress" mapstructure:"compress"`
	JSONFormat    bool   `json:"json_format" yaml:"json_format" mapstructure:"json-format"`
}

// DefaultConfig returns the built-in configuration: every feature and service
// off, dashboard and chat shown.
func DefaultConfig() *Config {
	return &Config{
		Features: FeatureFlags{},
		Services: DefaultServicesConfig(),
		UI: UIConfig{
			ShowPricing:   false,
			ShowDashboard: true,
			ShowChat:      true,
			ShowAuth:      false,
		},
		Listen:  defaultListen,
		NodeEnv: defaultNodeEnv,
		Logging: &LogConfig{
			Level:         "info",
			EnableFile:    false,
			EnableConsole: true,
			Filename:      "main.log",
			MaxSize:       10,
			MaxBackups:    5,
			MaxAge:        30,
			Compress:      true,
			JSONFormat:    false,
		},
	}
}

// IsDevelopment reports whether NODE_ENV is development (the default)
func (c *Config) IsDevelopment() bool {
	return c != nil && (c.NodeEnv == "" || c.NodeEnv == EnvDevelopment)
}

// IsProduction reports whether NODE_ENV is production
func (c *Config) IsProduction() bool {
	return c != nil && c.NodeEnv == EnvProduction
}

// Clone returns a deep copy of the configuration
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	out := *c
	out.Services = c.Services.clone()
	if c.Logging != nil {
		logging := *c.Logging
		out.Logging = &logging
	}
	return &out
}

func (s ServicesConfig) clone() ServicesConfig {
	out := ServicesConfig{}
	if s.Clerk != nil {
		v := *s.Clerk
		out.Clerk = &v
	}
	if s.Polar != nil {
		v := *s.Polar
		out.Polar = &v
	}
	if s.Convex != nil {
		v := *s.Convex
		out.Convex = &v
	}
	if s.Resend != nil {
		v := *s.Resend
		out.Resend = &v
	}
	if s.OpenAI != nil {
		v := *s.OpenAI
		out.OpenAI = &v
	}
	if s.Sentry != nil {
		v := *s.Sentry
		out.Sentry = &v
	}
	if s.OpenStatus != nil {
		v := *s.OpenStatus
		out.OpenStatus = &v
	}
	return out
}
