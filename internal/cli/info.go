package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/xldiff/xldiff/internal/model"
	"github.com/xldiff/xldiff/internal/output"
	"github.com/xldiff/xldiff/internal/snapshot"
)

type workbookInfo struct {
	Name   string `json:"name"`
	Path   string `json:"path,omitempty"`
	Bytes  int64  `json:"bytes,omitempty"`
	Sheets int    `json:"sheets"`
	Cells  int    `json:"cells"`
}

type sheetInfo struct {
	Name  string `json:"name"`
	Rows  int    `json:"rows"`
	Cols  int    `json:"cols"`
	Cells int    `json:"cells"`
	Range string `json:"range,omitempty"`
}

var infoCmd = &cobra.Command{
	Use:   "info <file.xlsx> [sheet]",
	Short: "Show workbook or sheet metadata",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := resolveFormat()
		if err != nil {
			return err
		}

		wb, path, err := loadWorkbook(args[0], snapshot.Options{MaxCellsPerSheet: cfg.MaxCellsPerSheet})
		if err != nil {
			return err
		}

		if len(args) > 1 {
			return printSheetInfo(wb, args[1], format)
		}
		return printWorkbookInfo(wb, path, format)
	},
}

func printWorkbookInfo(wb *model.WorkbookModel, path string, format output.Format) error {
	info := workbookInfo{
		Name:   wb.Name,
		Path:   path,
		Sheets: len(wb.Sheets),
		Cells:  wb.CellCount(),
	}
	if path != "" {
		if stat, err := os.Stat(path); err == nil {
			info.Bytes = stat.Size()
		}
	}

	if format == output.FormatJSON {
		return output.Print(info, format)
	}

	rows := [][]string{
		{"name", info.Name},
		{"sheets", humanize.Comma(int64(info.Sheets))},
		{"cells", humanize.Comma(int64(info.Cells))},
	}
	if info.Bytes > 0 {
		rows = append(rows, []string{"size", humanize.Bytes(uint64(info.Bytes))})
	}
	return output.PrintTable([]string{"field", "value"}, rows, format)
}

func printSheetInfo(wb *model.WorkbookModel, name string, format output.Format) error {
	var sheet *model.SheetModel
	for i := range wb.Sheets {
		if strings.EqualFold(wb.Sheets[i].Name, name) {
			sheet = &wb.Sheets[i]
			break
		}
	}
	if sheet == nil {
		return fmt.Errorf("%w: %s", snapshot.ErrSheetNotFound, name)
	}

	info := sheetInfo{
		Name:  sheet.Name,
		Rows:  sheet.RowCount,
		Cols:  sheet.ColCount,
		Cells: sheet.CellCount(),
	}
	if sheet.RowCount > 0 && sheet.ColCount > 0 {
		info.Range = model.RangeAddress(
			sheet.RowOffset, sheet.ColOffset,
			sheet.RowEnd()-1, sheet.ColEnd()-1)
	}

	if format == output.FormatJSON {
		return output.Print(info, format)
	}

	rows := [][]string{
		{"name", info.Name},
		{"rows", humanize.Comma(int64(info.Rows))},
		{"cols", humanize.Comma(int64(info.Cols))},
		{"cells", humanize.Comma(int64(info.Cells))},
	}
	if info.Range != "" {
		rows = append(rows, []string{"range", info.Range})
	}
	return output.PrintTable([]string{"field", "value"}, rows, format)
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
