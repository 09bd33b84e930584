package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// FeatureSyncKey is the output variable for a feature, e.g. AUTH_ENABLED
func FeatureSyncKey(f Feature) string {
	return strings.ToUpper(f.String()) + "_ENABLED"
}

// ServiceSyncKey is the output variable for a service, e.g. CLERK_ENABLED.
// The convex service uses CONVEX_SERVICE_ENABLED so it does not overwrite
// the convex feature's key.
func ServiceSyncKey(s Service) string {
	if s == ServiceConvex {
		return "CONVEX_SERVICE_ENABLED"
	}
	return strings.ToUpper(s.String()) + "_ENABLED"
}

// Synchronizer publishes the feature and service booleans as environment
// variables for a backend process that cannot read Config directly.
// The values are never read back.
type Synchronizer struct {
	w EnvWriter
}

// NewSynchronizer returns a synchronizer writing to w
func NewSynchronizer(w EnvWriter) *Synchronizer {
	return &Synchronizer{w: w}
}

// SyncValues computes the key/value pairs without writing them
func SyncValues(cfg *Config) map[string]string {
	out := make(map[string]string, len(AllFeatures)+len(AllServices))
	for _, f := range AllFeatures {
		out[FeatureSyncKey(f)] = strconv.FormatBool(cfg.IsFeatureEnabled(f))
	}
	for _, s := range AllServices {
		out[ServiceSyncKey(s)] = strconv.FormatBool(cfg.IsServiceEnabled(s))
	}
	return out
}

// Sync writes every pair and returns what was written. Running it twice
// yields the same environment.
func (s *Synchronizer) Sync(cfg *Config) (map[string]string, error) {
	values := SyncValues(cfg)
	for _, key := range sortedKeys(values) {
		if err := s.w.Setenv(key, values[key]); err != nil {
			return nil, fmt.Errorf("failed to set %s: %w", key, err)
		}
	}
	return values, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
