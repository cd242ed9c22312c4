package cli

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/xldiff/xldiff/internal/output"
	"github.com/xldiff/xldiff/internal/snapshot"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Manage stored workbook snapshots",
	Long: `Capture workbooks into a content-addressed snapshot store and manage
the stored entries. Stored snapshots can stand in for the baseline side
of diff and annotate.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var snapshotSaveCmd = &cobra.Command{
	Use:   "save <file.xlsx>",
	Short: "Capture a workbook into the store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ResolveFilePath(basepath(), args[0])
		sheets, err := cmd.Flags().GetStringSlice("sheet")
		if err != nil {
			return err
		}

		wb, err := snapshot.Capture(path, snapshot.Options{
			Sheets:           sheets,
			MaxCellsPerSheet: cfg.MaxCellsPerSheet,
		})
		if err != nil {
			return err
		}

		st, err := openStore()
		if err != nil {
			return err
		}
		label, err := cmd.Flags().GetString("label")
		if err != nil {
			return err
		}
		entry, err := st.Save(wb, label)
		if err != nil {
			return err
		}

		fmt.Fprintf(os.Stdout, "saved %s as %s (%d sheets, %s cells)\n",
			entry.Label, entry.ID[:12], entry.Sheets, humanize.Comma(int64(entry.Cells)))
		return nil
	},
}

var snapshotListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored snapshots",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := resolveFormat()
		if err != nil {
			return err
		}

		st, err := openStore()
		if err != nil {
			return err
		}
		entries, err := st.List()
		if err != nil {
			return err
		}

		if format == output.FormatJSON {
			return output.Print(entries, format)
		}
		header, rows := output.SnapshotTable(entries)
		return output.PrintTable(header, rows, format)
	},
}

var snapshotShowCmd = &cobra.Command{
	Use:   "show <ref>",
	Short: "Show the sheets of a stored snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := resolveFormat()
		if err != nil {
			return err
		}

		st, err := openStore()
		if err != nil {
			return err
		}
		wb, err := st.Load(args[0])
		if err != nil {
			return err
		}

		if format == output.FormatJSON {
			return output.Print(wb, format)
		}
		header, rows := output.SheetTable(wb)
		return output.PrintTable(header, rows, format)
	},
}

var snapshotRmCmd = &cobra.Command{
	Use:   "rm <ref>",
	Short: "Remove a stored snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		if err := st.Remove(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "removed %s\n", args[0])
		return nil
	},
}

func init() {
	snapshotSaveCmd.Flags().StringP("label", "l", "", "Label for the snapshot (default workbook file name)")
	snapshotSaveCmd.Flags().StringSliceP("sheet", "s", nil, "Capture only the named sheets (repeatable)")
	snapshotCmd.AddCommand(snapshotSaveCmd)
	snapshotCmd.AddCommand(snapshotListCmd)
	snapshotCmd.AddCommand(snapshotShowCmd)
	snapshotCmd.AddCommand(snapshotRmCmd)
	rootCmd.AddCommand(snapshotCmd)
}
