package config

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// ErrInvalidConfig is returned by Initialize in production when validation fails
var ErrInvalidConfig = errors.New("invalid configuration")

// Initialize runs the startup sequence: publish the flags for the backend,
// then validate. Validation errors are fatal in production and logged as
// warnings otherwise. It must complete before any route is served.
func Initialize(cfg *Config, w EnvWriter, logger *zap.SugaredLogger) error {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	if w != nil {
		written, err := NewSynchronizer(w).Sync(cfg)
		if err != nil {
			return fmt.Errorf("failed to sync feature flags: %w", err)
		}
		logger.Debugw("Feature flags published to environment", "count", len(written))
	}

	result := cfg.Validate()
	if !result.Valid {
		if cfg.IsProduction() {
			return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(result.Errors, "; "))
		}
		for _, msg := range result.Errors {
			logger.Warnw("Configuration problem", "error", msg)
		}
	}

	if cfg.IsDevelopment() {
		logger.Infow("Configuration initialized",
			"node_env", cfg.NodeEnv,
			"preset", cfg.Preset,
			"features", cfg.EnabledFeatures(),
			"services", cfg.EnabledServices())
	}
	return nil
}
