package main

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/brewandbeans/kaizen/internal/config"
	"github.com/brewandbeans/kaizen/internal/logs"
)

var (
	configFile string
	presetName string
	listen     string
	dataDir    string
	logLevel   string
	logToFile  bool
	logDir     string
	envFiles   []string

	version = "dev" // injected by -ldflags during build
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		code := exitCodeFor(err)
		if code != ExitCodeGeneralError {
			fmt.Fprintf(os.Stderr, "Exit code %d: %s\n", code, exitCodeDescription(code))
		}
		os.Exit(code)
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "kaizen",
		Short:         "Brew & Beans site server with feature-flagged integrations",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configFile, "config", "c", "", "Configuration file path (YAML, JSON or TOML)")
	flags.StringVarP(&presetName, "preset", "p", "", "Feature preset ("+presetList()+")")
	flags.StringVarP(&listen, "listen", "l", "", "Listen address (default 127.0.0.1:5173)")
	flags.StringVarP(&dataDir, "data-dir", "d", "", "Data directory path (default ~/.kaizen)")
	flags.StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flags.BoolVar(&logToFile, "log-to-file", false, "Enable logging to file in standard OS location")
	flags.StringVar(&logDir, "log-dir", "", "Custom log directory path (overrides standard OS location)")
	flags.StringSliceVar(&envFiles, "env-file", nil, "Extra env files read after .env and .env.local")

	rootCmd.AddCommand(newServeCommand(), newConfigCommand(), newRoutesCommand(), newDataCommand())
	return rootCmd
}

func presetList() string {
	return strings.Join(config.PresetNames(), ", ")
}

// loadConfig builds the configuration from files, environment and flags.
// The returned env is the same lookup the loader used.
func loadConfig() (*config.Config, config.Env, error) {
	files := append(slices.Clone(config.DefaultEnvFiles), envFiles...)
	env, err := config.NewLayeredEnv(files...)
	if err != nil {
		return nil, nil, err
	}

	cfg, err := config.Load(config.LoadOptions{
		ConfigFile: configFile,
		Preset:     presetName,
		Env:        env,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if listen != "" {
		cfg.Listen = listen
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if cfg.Logging == nil {
		cfg.Logging = logs.DefaultLogConfig()
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if logToFile {
		cfg.Logging.EnableFile = true
	}
	if logDir != "" {
		cfg.Logging.LogDir = logDir
	}
	return cfg, env, nil
}
