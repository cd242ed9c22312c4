package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xldiff/xldiff/internal/diff"
	"github.com/xldiff/xldiff/internal/overlay"
	"github.com/xldiff/xldiff/internal/snapshot"
)

var annotateCmd = &cobra.Command{
	Use:   "annotate <current.xlsx> <baseline>",
	Short: "Write a highlighted copy of the current workbook",
	Long: `Compare a current workbook against a baseline and write a copy of the
current workbook with every differing region highlighted, plus a summary
sheet. The current side must be an xlsx file; the baseline may be a file
or a stored snapshot reference.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		current, curPath, err := loadWorkbook(args[0], snapshot.Options{MaxCellsPerSheet: cfg.MaxCellsPerSheet})
		if err != nil {
			return err
		}
		if curPath == "" {
			return fmt.Errorf("annotate needs a workbook file as the current side, %s is a stored snapshot", args[0])
		}
		baseline, _, err := loadWorkbook(args[1], snapshot.Options{MaxCellsPerSheet: cfg.MaxCellsPerSheet})
		if err != nil {
			return err
		}

		outPath, err := cmd.Flags().GetString("out")
		if err != nil {
			return err
		}
		if outPath == "" {
			outPath = defaultAnnotatePath(curPath)
		}

		result := diff.Workbooks(current, baseline, diff.Options{Parallelism: cfg.Parallelism})
		if err := overlay.Annotate(result, curPath, outPath); err != nil {
			return err
		}

		fmt.Fprintf(os.Stdout, "wrote %s (%d changed cells)\n", outPath, result.Summary.Changed)
		return nil
	},
}

// defaultAnnotatePath derives book.annotated.xlsx from book.xlsx.
func defaultAnnotatePath(path string) string {
	ext := filepath.Ext(path)
	if ext == "" {
		ext = ".xlsx"
	}
	return strings.TrimSuffix(path, ext) + ".annotated" + ext
}

func init() {
	annotateCmd.Flags().StringP("out", "o", "", "Output path (default <current>.annotated.xlsx)")
	rootCmd.AddCommand(annotateCmd)
}
