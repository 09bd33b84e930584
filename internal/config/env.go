package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

// Env looks up configuration variables by name
type Env interface {
	Lookup(name string) (string, bool)
}

// EnvWriter receives the synchronizer's output
type EnvWriter interface {
	Setenv(name, value string) error
}

// DefaultEnvFiles are read, in order, into the injected layer
var DefaultEnvFiles = []string{".env", ".env.local"}

// LayeredEnv probes the server process environment first and the injected
// environment second.
type LayeredEnv struct {
	process  Env
	injected MapEnv
}

// NewLayeredEnv builds a lookup over the process environment and the given
// env files. Missing files are skipped; later files override earlier ones.
func NewLayeredEnv(files ...string) (*LayeredEnv, error) {
	injected := MapEnv{}
	for _, file := range files {
		if file == "" {
			continue
		}
		values, err := godotenv.Read(file)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("failed to read env file %s: %w", file, err)
		}
		for k, v := range values {
			injected[k] = v
		}
	}
	return &LayeredEnv{process: OSEnv{}, injected: injected}, nil
}

// NewLayeredEnvFrom composes two arbitrary lookups, mostly for tests
func NewLayeredEnvFrom(process Env, injected MapEnv) *LayeredEnv {
	if injected == nil {
		injected = MapEnv{}
	}
	return &LayeredEnv{process: process, injected: injected}
}

// Lookup returns the process value when set, else the injected value
func (e *LayeredEnv) Lookup(name string) (string, bool) {
	if e.process != nil {
		if v, ok := e.process.Lookup(name); ok {
			return v, true
		}
	}
	v, ok := e.injected[name]
	return v, ok
}

// Injected exposes the values read from env files
func (e *LayeredEnv) Injected() MapEnv {
	return e.injected
}

// OSEnv reads from and writes to the process environment
type OSEnv struct{}

func (OSEnv) Lookup(name string) (string, bool) { return os.LookupEnv(name) }

func (OSEnv) Setenv(name, value string) error { return os.Setenv(name, value) }

// MapEnv is an in-memory environment
type MapEnv map[string]string

func (m MapEnv) Lookup(name string) (string, bool) {
	v, ok := m[name]
	return v, ok
}

func (m MapEnv) Setenv(name, value string) error {
	m[name] = value
	return nil
}

// getString returns the first non-empty value among names
func getString(env Env, names ...string) string {
	for _, name := range names {
		if v, ok := env.Lookup(name); ok {
			if v = strings.TrimSpace(v); v != "" {
				return v
			}
		}
	}
	return ""
}

// getBool parses a boolean variable. The second result is false when the
// variable is unset or not a recognisable boolean.
func getBool(env Env, name string) (bool, bool) {
	v, ok := env.Lookup(name)
	if !ok {
		return false, false
	}
	v = strings.TrimSpace(strings.ToLower(v))
	switch v {
	case "":
		return false, false
	case "yes", "on":
		return true, true
	case "no", "off":
		return false, true
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return false, false
	}
	return b, true
}

func getFloat(env Env, name string) (float64, bool) {
	v := getString(env, name)
	if v == "" {
		return 0, false
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, false
	}
	return f, true
}
