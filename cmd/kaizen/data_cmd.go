package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/brewandbeans/kaizen/internal/cli/output"
	"github.com/brewandbeans/kaizen/internal/logs"
	"github.com/brewandbeans/kaizen/internal/storage"
)

var eventLimit int

func newDataCommand() *cobra.Command {
	dataCmd := &cobra.Command{
		Use:   "data",
		Short: "Maintain the local store of users, subscriptions and email events",
		Long: `Maintain the local store. The server holds an exclusive lock on the
database, so stop it before running these commands.`,
	}

	backupCmd := &cobra.Command{
		Use:   "backup <file>",
		Short: "Write a consistent copy of the database",
		Args:  cobra.ExactArgs(1),
		RunE:  runDataBackup,
	}

	eventsCmd := &cobra.Command{
		Use:   "events",
		Short: "List received email delivery events, newest first",
		Args:  cobra.NoArgs,
		RunE:  runDataEvents,
	}
	eventsCmd.Flags().IntVarP(&eventLimit, "limit", "n", 20, "Maximum number of events (0 for all)")
	addOutputFlags(eventsCmd)

	dataCmd.AddCommand(backupCmd, eventsCmd)
	return dataCmd
}

func openStore() (*storage.Manager, error) {
	cfg, _, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger, _, err := logs.SetupCommandLogger(false, logLevel, logToFile, logDir)
	if err != nil {
		return nil, fmt.Errorf("failed to setup logger: %w", err)
	}
	store, err := storage.NewManager(cfg.DataDir, logger.Sugar())
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	return store, nil
}

func runDataBackup(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Backup(args[0]); err != nil {
		return fmt.Errorf("backup failed: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Backup written to %s\n", args[0])
	return nil
}

func runDataEvents(cmd *cobra.Command, _ []string) error {
	f, err := formatter()
	if err != nil {
		return err
	}
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	events, err := store.ListEmailEvents(eventLimit)
	if err != nil {
		return err
	}
	if _, ok := f.(*output.TableFormatter); !ok {
		return output.Print(cmd.OutOrStdout(), f, events)
	}

	rows := make([][]string, 0, len(events))
	for _, ev := range events {
		rows = append(rows, []string{
			ev.Received.Format(time.RFC3339),
			ev.Type,
			strings.Join(ev.To, ","),
			ev.Subject,
		})
	}
	return output.PrintTable(cmd.OutOrStdout(), f, []string{"RECEIVED", "TYPE", "TO", "SUBJECT"}, rows)
}
