package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/doeshing/formatapi/internal/app"
	"github.com/doeshing/formatapi/internal/domain"
	"github.com/doeshing/formatapi/internal/infrastructure/cli/helpers"
	"github.com/doeshing/formatapi/internal/pkg/filesystem"
)

// NewHistoryCommand creates the history command with all subcommands
func NewHistoryCommand(container *app.Container) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect saved records",
	}

	historyCmd.AddCommand(
		newHistoryListCommand(container),
		newHistoryShowCommand(container),
		newHistoryDeleteCommand(container),
		newHistoryClearCommand(container),
		newHistoryExportCommand(container),
		newHistoryImportCommand(container),
	)

	return historyCmd
}

// newHistoryListCommand creates the 'history list' subcommand
func newHistoryListCommand(container *app.Container) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved records, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listHistoryEntries(cmd, container, limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", domain.DefaultHistoryLimit, "Max entries to show (0 for all)")
	return cmd
}

// newHistoryShowCommand creates the 'history show' subcommand
func newHistoryShowCommand(container *app.Container) *cobra.Command {
	var (
		reveal bool
		output outputFlags
	)

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireEngine(container); err != nil {
				return err
			}
			ts, err := parseHistoryID(args[0])
			if err != nil {
				return err
			}
			rec, err := container.Engine.HistoryItem(ts)
			if err != nil {
				return err
			}
			if output.set() {
				return output.emit(cmd, container, rec)
			}
			helpers.RenderRecord(cmd.OutOrStdout(), rec, reveal)
			return nil
		},
	}

	output.register(cmd)
	cmd.Flags().BoolVar(&reveal, "reveal", false, "Print the API key unmasked")
	return cmd
}

// newHistoryDeleteCommand creates the 'history delete' subcommand
func newHistoryDeleteCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireEngine(container); err != nil {
				return err
			}
			ts, err := parseHistoryID(args[0])
			if err != nil {
				return err
			}
			if err := container.Engine.DeleteHistoryItem(ts); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d\n", ts)
			return nil
		},
	}
}

// newHistoryClearCommand creates the 'history clear' subcommand
func newHistoryClearCommand(container *app.Container) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every saved record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireEngine(container); err != nil {
				return err
			}
			if !yes {
				ok, err := helpers.Confirm(cmd.InOrStdin(), cmd.OutOrStdout(), "Clear all history?")
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), MsgCancelled)
					return nil
				}
			}
			if err := container.Engine.ClearHistory(); err != nil {
				return fmt.Errorf("failed to clear history: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "History cleared.")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

// newHistoryExportCommand creates the 'history export' subcommand
func newHistoryExportCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "export <path>",
		Short: "Export history as a JSON array",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireEngine(container); err != nil {
				return err
			}
			records, err := container.Engine.LoadHistory()
			if err != nil && !warnCorrupt(cmd, err) {
				return err
			}
			return exportHistory(cmd.OutOrStdout(), records, args[0])
		},
	}
}

// newHistoryImportCommand creates the 'history import' subcommand
func newHistoryImportCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "import <path>",
		Short: "Replace history with the records in a JSON array file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireEngine(container); err != nil {
				return err
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			var records []domain.Record
			if err := json.Unmarshal(data, &records); err != nil {
				return fmt.Errorf("decode %s: %w", args[0], err)
			}
			for i := range records {
				records[i] = records[i].Normalized()
			}
			if err := container.Engine.SaveHistory(records); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d records\n", len(records))
			return nil
		},
	}
}

// listHistoryEntries renders the newest records as a table
func listHistoryEntries(cmd *cobra.Command, container *app.Container, limit int) error {
	if err := requireEngine(container); err != nil {
		return err
	}
	records, err := container.Engine.LoadHistory()
	if err != nil && !warnCorrupt(cmd, err) {
		return fmt.Errorf("failed to retrieve history records: %w", err)
	}
	if len(records) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), MsgNoHistoryRecorded)
		return nil
	}
	helpers.RenderHistory(cmd.OutOrStdout(), records, limit)
	return nil
}

// exportHistory writes records to path as indented JSON
func exportHistory(out io.Writer, records []domain.Record, path string) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	path = filesystem.ExpandPath(path)
	if err := filesystem.WriteFileAtomic(path, append(data, '\n'), domain.SecureFilePermissions); err != nil {
		return fmt.Errorf("failed to export history to %s: %w", path, err)
	}
	fmt.Fprintf(out, "Exported %d records to %s\n", len(records), path)
	return nil
}
