package cli

import (
	"github.com/spf13/cobra"

	"github.com/xldiff/xldiff/internal/output"
	"github.com/xldiff/xldiff/internal/snapshot"
)

var sheetsCmd = &cobra.Command{
	Use:   "sheets <file.xlsx>",
	Short: "List all sheets in a workbook or snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := resolveFormat()
		if err != nil {
			return err
		}

		wb, _, err := loadWorkbook(args[0], snapshot.Options{MaxCellsPerSheet: cfg.MaxCellsPerSheet})
		if err != nil {
			return err
		}

		header, rows := output.SheetTable(wb)
		return output.PrintTable(header, rows, format)
	},
}

func init() {
	rootCmd.AddCommand(sheetsCmd)
}
