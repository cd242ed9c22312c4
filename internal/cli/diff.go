package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/xldiff/xldiff/internal/diff"
	"github.com/xldiff/xldiff/internal/output"
	"github.com/xldiff/xldiff/internal/snapshot"
)

var diffCmd = &cobra.Command{
	Use:   "diff <current> <baseline>",
	Short: "Compare two workbooks cell by cell",
	Long: `Compare a current workbook against a baseline and report every added,
removed, and changed cell. Either side may be an xlsx file or a stored
snapshot reference (label, id, or unique id prefix).

Exit code is 0 when the workbooks match, 1 when differences exist, and
2 on error.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		exitCode = 0

		format, err := resolveFormat()
		if err != nil {
			return err
		}

		maxCells, err := cmd.Flags().GetInt("max-cells")
		if err != nil {
			return err
		}
		if maxCells == 0 {
			maxCells = cfg.MaxCellsPerSheet
		}
		opts := snapshot.Options{MaxCellsPerSheet: maxCells}

		current, _, err := loadWorkbook(args[0], opts)
		if err != nil {
			return err
		}
		baseline, _, err := loadWorkbook(args[1], opts)
		if err != nil {
			return err
		}

		sheets, err := cmd.Flags().GetStringSlice("sheet")
		if err != nil {
			return err
		}
		if len(sheets) > 0 {
			current, baseline, err = snapshot.FilterPair(current, baseline, sheets)
			if err != nil {
				return err
			}
		}

		parallelism, err := cmd.Flags().GetInt("parallelism")
		if err != nil {
			return err
		}
		if parallelism == 0 {
			parallelism = cfg.Parallelism
		}

		result := diff.Workbooks(current, baseline, diff.Options{Parallelism: parallelism})
		if result.HasDifferences() {
			exitCode = 1
		}

		switch format {
		case output.FormatText:
			output.RenderDiff(os.Stdout, result)
			return nil
		case output.FormatJSON:
			withRects, err := cmd.Flags().GetBool("rects")
			if err != nil {
				return err
			}
			if withRects {
				return output.Print(diffReport{Result: result, Regions: diff.Regions(result)}, format)
			}
			return output.Print(result, format)
		default:
			header, rows := output.DiffTable(result)
			return output.PrintTable(header, rows, format)
		}
	},
}

// diffReport decorates a comparison result with each sheet's changed
// regions as A1 ranges, keyed by sheet then change code.
type diffReport struct {
	*diff.Result
	Regions map[string]map[string][]string `json:"regions"`
}

func init() {
	diffCmd.Flags().StringSliceP("sheet", "s", nil, "Compare only the named sheets (repeatable)")
	diffCmd.Flags().IntP("parallelism", "p", 0, "Concurrent sheet comparisons (0 = serial)")
	diffCmd.Flags().Int("max-cells", 0, "Maximum populated cells captured per sheet (0 = built-in limit)")
	diffCmd.Flags().Bool("rects", false, "Include changed regions as A1 ranges in JSON output")
	rootCmd.AddCommand(diffCmd)
}
