package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayeredEnvPrecedence(t *testing.T) {
	process := MapEnv{"CLERK_SECRET_KEY": "from-process", "EMPTY": ""}
	injected := MapEnv{
		"CLERK_SECRET_KEY":           "from-injected",
		"VITE_CLERK_PUBLISHABLE_KEY": "pk_injected",
		"EMPTY":                      "injected-but-shadowed",
	}
	env := NewLayeredEnvFrom(process, injected)

	v, ok := env.Lookup("CLERK_SECRET_KEY")
	assert.True(t, ok)
	assert.Equal(t, "from-process", v, "server-process environment takes precedence")

	v, ok = env.Lookup("VITE_CLERK_PUBLISHABLE_KEY")
	assert.True(t, ok)
	assert.Equal(t, "pk_injected", v, "injected environment is probed second")

	// A set-but-empty process variable still shadows the injected layer
	v, ok = env.Lookup("EMPTY")
	assert.True(t, ok)
	assert.Equal(t, "", v)

	_, ok = env.Lookup("MISSING")
	assert.False(t, ok)
}

func TestNewLayeredEnvReadsFiles(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, ".env")
	local := filepath.Join(dir, ".env.local")
	require.NoError(t, os.WriteFile(base, []byte("KAIZEN_TEST_A=base\nKAIZEN_TEST_B=base\n"), 0600))
	require.NoError(t, os.WriteFile(local, []byte("KAIZEN_TEST_B=local\n"), 0600))

	env, err := NewLayeredEnv(base, local, filepath.Join(dir, "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "base", env.Injected()["KAIZEN_TEST_A"])
	assert.Equal(t, "local", env.Injected()["KAIZEN_TEST_B"])

	// Files are never written into the process
	_, inProcess := os.LookupEnv("KAIZEN_TEST_A")
	assert.False(t, inProcess)

	t.Setenv("KAIZEN_TEST_A", "process")
	v, _ := env.Lookup("KAIZEN_TEST_A")
	assert.Equal(t, "process", v)
}

func TestGetString(t *testing.T) {
	env := MapEnv{"A": "  ", "B": " value "}
	assert.Equal(t, "value", getString(env, "A", "B"))
	assert.Equal(t, "", getString(env, "C"))
}

func TestGetBool(t *testing.T) {
	tests := []struct {
		raw      string
		value    bool
		parsable bool
	}{
		{"true", true, true},
		{"TRUE", true, true},
		{"1", true, true},
		{"yes", true, true},
		{"on", true, true},
		{"false", false, true},
		{"0", false, true},
		{"off", false, true},
		{"", false, false},
		{"maybe", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			v, ok := getBool(MapEnv{"X": tt.raw}, "X")
			assert.Equal(t, tt.value, v)
			assert.Equal(t, tt.parsable, ok)
		})
	}

	_, ok := getBool(MapEnv{}, "X")
	assert.False(t, ok)
}
