package output

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"golang.org/x/term"
)

// TableFormatter formats output as an aligned, human-readable table.
type TableFormatter struct {
	Unicode bool // box-drawing separators, only on a terminal
}

// Format has no tabular shape to work with, so it falls back to YAML.
func (f *TableFormatter) Format(data any) (string, error) {
	return (&YAMLFormatter{}).Format(data)
}

// FormatTable renders tabular data with headers and alignment.
func (f *TableFormatter) FormatTable(headers []string, rows [][]string) (string, error) {
	if len(rows) == 0 {
		return "No results found\n", nil
	}

	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fancy := f.Unicode && isTTY()

	fmt.Fprintln(w, strings.Join(headers, "\t"))
	if fancy {
		seps := make([]string, len(headers))
		for i, h := range headers {
			seps[i] = strings.Repeat("─", len(h))
		}
		fmt.Fprintln(w, strings.Join(seps, "\t"))
	}
	for _, row := range rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}

	if err := w.Flush(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func isTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}
