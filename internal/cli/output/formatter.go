// Package output renders CLI command results as a table, JSON or YAML.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// EnvOutput selects the default format when no flag is given
const EnvOutput = "KAIZEN_OUTPUT"

// Formatter formats structured data for CLI output. Implementations are
// stateless and safe for concurrent use.
type Formatter interface {
	// Format renders a struct, slice or map
	Format(data any) (string, error)

	// FormatTable renders rows under headers
	FormatTable(headers []string, rows [][]string) (string, error)
}

// NewFormatter creates a formatter for table, json or yaml (case-insensitive)
func NewFormatter(format string) (Formatter, error) {
	switch strings.ToLower(format) {
	case "json":
		return &JSONFormatter{Indent: true}, nil
	case "yaml":
		return &YAMLFormatter{}, nil
	case "table", "":
		return &TableFormatter{Unicode: os.Getenv("NO_COLOR") == ""}, nil
	default:
		return nil, fmt.Errorf("unknown output format: %s (valid: table, json, yaml)", format)
	}
}

// ResolveFormat picks the format: --json, then --output, then KAIZEN_OUTPUT,
// then table.
func ResolveFormat(outputFlag string, jsonFlag bool) string {
	if jsonFlag {
		return "json"
	}
	if outputFlag != "" {
		return outputFlag
	}
	if env := os.Getenv(EnvOutput); env != "" {
		return env
	}
	return "table"
}

// Print formats data and writes it with a trailing newline
func Print(w io.Writer, f Formatter, data any) error {
	s, err := f.Format(data)
	if err != nil {
		return err
	}
	return write(w, s)
}

// PrintTable formats rows and writes them with a trailing newline
func PrintTable(w io.Writer, f Formatter, headers []string, rows [][]string) error {
	s, err := f.FormatTable(headers, rows)
	if err != nil {
		return err
	}
	return write(w, s)
}

func write(w io.Writer, s string) error {
	if !strings.HasSuffix(s, "\n") {
		s += "\n"
	}
	_, err := io.WriteString(w, s)
	return err
}

// rowsToMaps keys every row by header for the structured formats
func rowsToMaps(headers []string, rows [][]string) []map[string]string {
	out := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		obj := make(map[string]string, len(headers))
		for i, h := range headers {
			if i < len(row) {
				obj[h] = row[i]
			} else {
				obj[h] = ""
			}
		}
		out = append(out, obj)
	}
	return out
}
