package output

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestResolveFormat(t *testing.T) {
	t.Setenv(EnvOutput, "")

	assert.Equal(t, "json", ResolveFormat("table", true))
	assert.Equal(t, "yaml", ResolveFormat("yaml", false))
	assert.Equal(t, "table", ResolveFormat("", false))

	t.Setenv(EnvOutput, "yaml")
	assert.Equal(t, "yaml", ResolveFormat("", false))
	assert.Equal(t, "json", ResolveFormat("json", false), "flag beats environment")
}

func TestNewFormatter(t *testing.T) {
	for format, want := range map[string]Formatter{
		"":      &TableFormatter{},
		"TABLE": &TableFormatter{},
		"json":  &JSONFormatter{},
		"Yaml":  &YAMLFormatter{},
	} {
		f, err := NewFormatter(format)
		require.NoError(t, err, format)
		assert.IsType(t, want, f, format)
	}

	_, err := NewFormatter("xml")
	assert.ErrorContains(t, err, "unknown output format: xml")
}

var (
	headers = []string{"pattern", "handler"}
	rows    = [][]string{{"/", "routes/home"}, {"/pricing"}}
)

func TestStructuredTables(t *testing.T) {
	want := []map[string]string{
		{"pattern": "/", "handler": "routes/home"},
		{"pattern": "/pricing", "handler": ""},
	}

	s, err := (&JSONFormatter{}).FormatTable(headers, rows)
	require.NoError(t, err)
	var fromJSON []map[string]string
	require.NoError(t, json.Unmarshal([]byte(s), &fromJSON))
	assert.Equal(t, want, fromJSON)

	s, err = (&YAMLFormatter{}).FormatTable(headers, rows)
	require.NoError(t, err)
	var fromYAML []map[string]string
	require.NoError(t, yaml.Unmarshal([]byte(s), &fromYAML))
	assert.Equal(t, want, fromYAML)
}

func TestTableFormatter(t *testing.T) {
	f := &TableFormatter{}

	s, err := f.FormatTable(headers, nil)
	require.NoError(t, err)
	assert.Equal(t, "No results found\n", s)

	s, err = f.FormatTable(headers, [][]string{{"/", "routes/home"}, {"/pricing", "routes/pricing"}})
	require.NoError(t, err)
	assert.Equal(t, "pattern   handler\n/         routes/home\n/pricing  routes/pricing\n", s)

	s, err = f.Format(map[string]bool{"auth": true})
	require.NoError(t, err)
	assert.Equal(t, "auth: true\n", s)
}

func TestPrintAddsNewline(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Print(&buf, &JSONFormatter{}, map[string]int{"a": 1}))
	assert.Equal(t, "{\"a\":1}\n", buf.String())
}
