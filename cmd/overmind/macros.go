package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/piwi3910/overmind/internal/importer"
	"github.com/piwi3910/overmind/internal/project"
)

var macrosCmd = &cobra.Command{
	Use:   "macros",
	Short: "Inspect, send and curate command macros",
}

var macrosListCmd = &cobra.Command{
	Use:   "list [wtype]",
	Short: "List command history entries, most used first",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		wtypes := []string{"TB", "FDW-RS"}
		if len(args) == 1 {
			wtypes = args
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "WTYPE\tMEMO\tUSED\tSEQ")
		for _, w := range wtypes {
			history.Sort(w)
			for _, e := range history.GetFor(w) {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", e.WType, e.Memo, e.Used, e.Seq)
			}
		}
		return tw.Flush()
	},
}

var macrosImportCmd = &cobra.Command{
	Use:   "import <file.csv|file.xlsx>",
	Short: "Merge a macro table into the command history",
	Long: `Merge a macro table into the command history. Columns are matched by header
(wtype, memo, seq, used) or taken in that order when there is no header.
A memo moves to the imported sequence when it was on another one.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result := importer.ImportFile(args[0])
		for _, w := range result.Warnings {
			slog.Warn(w, "file", args[0])
		}
		if len(result.Errors) > 0 {
			for _, e := range result.Errors {
				fmt.Fprintln(cmd.ErrOrStderr(), e)
			}
			return fmt.Errorf("%d rows of %s could not be imported", len(result.Errors), args[0])
		}
		n, err := history.Merge(result.Entries)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d of %d entries added or changed\n", n, len(result.Entries))
		return nil
	},
}

var (
	sendDryRun bool
	sendPort   string
)

var macrosSendCmd = &cobra.Command{
	Use:   "send <wtype> <seq>",
	Short: "Send one command sequence to a worker and count its use",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		wtype := args[0]
		seq, err := cleanSeq(args[1])
		if err != nil {
			return err
		}
		bridge, closeBridge, err := openBridge(sendDryRun, sendPort)
		if err != nil {
			return err
		}
		defer closeBridge()

		addr := history.AddrResolver(cfg)(wtype)
		if err := bridge.SendCommand(cfg.Opcode+seq, addr); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "sent %s%s to %s at %08X\n", cfg.Opcode, seq, wtype, addr)
		return history.NotifyUsed(wtype, seq)
	},
}

var macrosDropCmd = &cobra.Command{
	Use:   "drop <wtype> <seq>",
	Short: "Remove a sequence from the command history",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		seq, err := cleanSeq(args[1])
		if err != nil {
			return err
		}
		return history.ThumbDown(args[0], seq)
	},
}

var macrosMemoCmd = &cobra.Command{
	Use:   "memo <wtype> <seq> <memo>",
	Short: "Name a sequence; the memo leaves any other sequence of the worker type",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		seq, err := cleanSeq(args[1])
		if err != nil {
			return err
		}
		return history.SetMemo(args[0], seq, args[2])
	},
}

// cleanSeq strips blanks the way imported sequences are stored and rejects
// sequences a worker would not understand.
func cleanSeq(raw string) (string, error) {
	seq := strings.ReplaceAll(raw, " ", "")
	if msg := importer.ValidateSeq(seq); msg != "" {
		return "", fmt.Errorf("invalid sequence '%s': %s", raw, msg)
	}
	return seq, nil
}

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Export or restore the config and command history",
}

var backupExportCmd = &cobra.Command{
	Use:   "export <backup.json>",
	Short: "Write the config and command history to one file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return project.ExportAllData(args[0], cfg, history)
	},
}

var backupRestoreCmd = &cobra.Command{
	Use:   "restore <backup.json>",
	Short: "Replace the config and command history with a backup",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		backup, err := project.ImportAllData(args[0])
		if err != nil {
			return err
		}
		if err := project.SaveAppConfig(configPath, backup.Config); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
		historyPath := backup.Config.HistoryPath
		if !filepath.IsAbs(historyPath) {
			historyPath = filepath.Join(filepath.Dir(configPath), historyPath)
		}
		if _, err := project.RestoreHistory(historyPath, backup); err != nil {
			return err
		}
		slog.Info("backup restored", "created_at", backup.CreatedAt, "entries", len(backup.History.History))
		return nil
	},
}

func init() {
	macrosSendCmd.Flags().BoolVar(&sendDryRun, "dry-run", false, "log the command instead of sending it")
	macrosSendCmd.Flags().StringVar(&sendPort, "port", "", "serial device, overrides the config")
	macrosCmd.AddCommand(macrosListCmd, macrosImportCmd, macrosSendCmd, macrosDropCmd, macrosMemoCmd)
	backupCmd.AddCommand(backupExportCmd, backupRestoreCmd)
	rootCmd.AddCommand(macrosCmd, backupCmd)
}
