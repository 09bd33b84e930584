package main

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/brewandbeans/kaizen/internal/cli/output"
	"github.com/brewandbeans/kaizen/internal/routes"
)

type routeRow struct {
	Kind    string `json:"kind" yaml:"kind"`
	Method  string `json:"method" yaml:"method"`
	Pattern string `json:"pattern" yaml:"pattern"`
	Handler string `json:"handler" yaml:"handler"`
	Layout  string `json:"layout,omitempty" yaml:"layout,omitempty"`
}

func newRoutesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "routes",
		Short: "List the page and API routes the configuration enables",
		Long: `List the page and API routes the configuration enables, in mount order.

Examples:
  kaizen routes
  kaizen routes --preset static --json`,
		Args: cobra.NoArgs,
		RunE: runRoutes,
	}
	addOutputFlags(cmd)
	return cmd
}

func runRoutes(cmd *cobra.Command, _ []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	f, err := formatter()
	if err != nil {
		return err
	}

	var list []routeRow
	for _, r := range routes.Build(cfg) {
		list = append(list, routeRow{Kind: "page", Method: http.MethodGet, Pattern: r.Pattern, Handler: r.Handler, Layout: r.Layout})
	}
	for _, e := range routes.BuildAPI(cfg) {
		list = append(list, routeRow{Kind: "api", Method: e.Method, Pattern: e.Pattern, Handler: e.Handler})
	}

	if _, ok := f.(*output.TableFormatter); !ok {
		return output.Print(cmd.OutOrStdout(), f, list)
	}
	rows := make([][]string, 0, len(list))
	for _, r := range list {
		rows = append(rows, []string{r.Kind, r.Method, r.Pattern, r.Handler, r.Layout})
	}
	return output.PrintTable(cmd.OutOrStdout(), f, []string{"KIND", "METHOD", "PATTERN", "HANDLER", "LAYOUT"}, rows)
}
