package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/brewandbeans/kaizen/internal/cli/output"
	"github.com/brewandbeans/kaizen/internal/config"
)

var (
	outputFormat string
	jsonOutput   bool

	syncPrint bool
	syncOut   string
)

func addOutputFlags(cmd *cobra.Command) {
	bindOutputFlags(cmd.Flags())
	cmd.MarkFlagsMutuallyExclusive("output", "json")
}

func bindOutputFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&outputFormat, "output", "o", "", "Output format (table, json, yaml)")
	fs.BoolVar(&jsonOutput, "json", false, "Shorthand for --output=json")
}

func formatter() (output.Formatter, error) {
	return output.NewFormatter(output.ResolveFormat(outputFormat, jsonOutput))
}

func newConfigCommand() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect, validate and publish the configuration",
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration, credentials omitted",
		Args:  cobra.NoArgs,
		RunE:  runConfigShow,
	}
	addOutputFlags(showCmd)

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Check that every enabled feature has its credentials",
		Args:  cobra.NoArgs,
		RunE:  runConfigValidate,
	}
	addOutputFlags(validateCmd)

	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Emit the feature and service flags for a backend process",
		Long: `Emit the <NAME>_ENABLED variables that the server publishes at startup,
for a backend process that cannot read this configuration directly.

Examples:
  kaizen config sync --print
  kaizen config sync --preset full-saas --out backend.env`,
		Args: cobra.NoArgs,
		RunE: runConfigSync,
	}
	syncCmd.Flags().BoolVar(&syncPrint, "print", false, "Print KEY=value lines to stdout")
	syncCmd.Flags().StringVar(&syncOut, "out", "", "Write KEY=value lines to this file")

	configCmd.AddCommand(showCmd, validateCmd, syncCmd)
	return configCmd
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	f, err := formatter()
	if err != nil {
		return err
	}

	if _, ok := f.(*output.TableFormatter); !ok {
		return output.Print(cmd.OutOrStdout(), f, cfg)
	}
	return output.PrintTable(cmd.OutOrStdout(), f, []string{"SECTION", "NAME", "VALUE"}, configRows(cfg))
}

func configRows(cfg *config.Config) [][]string {
	var rows [][]string
	for _, f := range config.AllFeatures {
		rows = append(rows, []string{"feature", f.String(), strconv.FormatBool(cfg.IsFeatureEnabled(f))})
	}
	for _, s := range config.AllServices {
		rows = append(rows, []string{"service", s.String(), strconv.FormatBool(cfg.IsServiceEnabled(s))})
	}
	rows = append(rows,
		[]string{"ui", "show_pricing", strconv.FormatBool(cfg.UI.ShowPricing)},
		[]string{"ui", "show_dashboard", strconv.FormatBool(cfg.UI.ShowDashboard)},
		[]string{"ui", "show_chat", strconv.FormatBool(cfg.UI.ShowChat)},
		[]string{"ui", "show_auth", strconv.FormatBool(cfg.UI.ShowAuth)},
		[]string{"server", "listen", cfg.Listen},
		[]string{"server", "node_env", cfg.NodeEnv},
		[]string{"server", "data_dir", cfg.DataDir},
		[]string{"server", "preset", cfg.Preset},
	)
	return rows
}

func runConfigValidate(cmd *cobra.Command, _ []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	f, err := formatter()
	if err != nil {
		return err
	}

	problems := cfg.ValidateDetailed()
	out := cmd.OutOrStdout()
	if _, ok := f.(*output.TableFormatter); ok {
		if len(problems) == 0 {
			fmt.Fprintln(out, "Configuration is valid")
			return nil
		}
		rows := make([][]string, 0, len(problems))
		for _, p := range problems {
			rows = append(rows, []string{p.Field, p.EnvVar, p.Message})
		}
		if err := output.PrintTable(out, f, []string{"FIELD", "ENV", "PROBLEM"}, rows); err != nil {
			return err
		}
	} else if err := output.Print(out, f, problems); err != nil {
		return err
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %d problem(s) found", config.ErrInvalidConfig, len(problems))
	}
	return nil
}

func runConfigSync(cmd *cobra.Command, _ []string) error {
	if !syncPrint && syncOut == "" {
		return errors.New("nothing to do: pass --print or --out")
	}
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	values := config.SyncValues(cfg)
	if syncOut != "" {
		if err := godotenv.Write(values, syncOut); err != nil {
			return fmt.Errorf("failed to write %s: %w", syncOut, err)
		}
	}
	if syncPrint {
		content, err := godotenv.Marshal(values)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), content)
	}
	return nil
}
