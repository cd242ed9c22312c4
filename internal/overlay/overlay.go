// Package overlay writes an annotated copy of the current workbook with
// every differing region highlighted, so the comparison can be reviewed
// in place in a spreadsheet application.
package overlay

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/xldiff/xldiff/internal/diff"
	"github.com/xldiff/xldiff/internal/log"
	"github.com/xldiff/xldiff/internal/model"
)

// summarySheetBase names the appended summary sheet. A numeric suffix is
// added when the workbook already uses the name.
const summarySheetBase = "xldiff summary"

// highlight styles use the classic spreadsheet conditional-format
// palette: fill plus a matching font tone per difference code.
var highlights = map[diff.Code]excelize.Style{
	diff.Added: {
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"C6EFCE"}},
		Font: &excelize.Font{Color: "006100"},
	},
	diff.Removed: {
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"FFC7CE"}},
		Font: &excelize.Font{Color: "9C0006"},
	},
	diff.ValueChanged: {
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"FFEB9C"}},
		Font: &excelize.Font{Color: "9C6500"},
	},
	diff.FormulaChanged: {
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"BDD7EE"}},
		Font: &excelize.Font{Color: "1F4E79"},
	},
}

// Annotate opens the current workbook, highlights every changed region
// from the comparison result, appends a summary sheet, and writes the
// annotated copy to outPath. The source workbook is not modified.
func Annotate(r *diff.Result, currentPath, outPath string) error {
	f, err := excelize.OpenFile(currentPath)
	if err != nil {
		return fmt.Errorf("failed to open workbook %s: %w", currentPath, err)
	}
	defer f.Close()

	styles, err := buildStyles(f)
	if err != nil {
		return err
	}

	regions := 0
	for _, name := range r.SheetOrder {
		if r.SheetStatus[name] != diff.SheetModified {
			continue
		}
		d := r.BySheet[name]
		for _, code := range diff.ChangeCodes {
			for _, rect := range diff.Rectangles(d, code) {
				topLeft := model.CellAddress(rect.RowStart+d.RowBase, rect.ColStart+d.ColBase)
				bottomRight := model.CellAddress(rect.RowEnd+d.RowBase, rect.ColEnd+d.ColBase)
				if err := f.SetCellStyle(name, topLeft, bottomRight, styles[code]); err != nil {
					return fmt.Errorf("failed to style %s!%s:%s: %w", name, topLeft, bottomRight, err)
				}
				regions++
			}
		}
	}

	if err := writeSummarySheet(f, r, styles); err != nil {
		return err
	}

	if err := SaveFileAtomic(f, outPath); err != nil {
		return err
	}

	log.WithField("regions", regions).WithField("out", outPath).Debug("wrote annotated workbook")
	return nil
}

// buildStyles registers one style per difference code. Style ids are
// workbook-global, so each is created once and reused for every region.
func buildStyles(f *excelize.File) (map[diff.Code]int, error) {
	styles := make(map[diff.Code]int, len(highlights))
	for _, code := range diff.ChangeCodes {
		def := highlights[code]
		id, err := f.NewStyle(&def)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s style: %w", code, err)
		}
		styles[code] = id
	}
	return styles, nil
}

// writeSummarySheet appends per-sheet totals and a color legend.
func writeSummarySheet(f *excelize.File, r *diff.Result, styles map[diff.Code]int) error {
	name := summarySheetBase
	for n := 2; sheetExists(f, name); n++ {
		name = fmt.Sprintf("%s %d", summarySheetBase, n)
	}
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}

	set := func(row, col int, v interface{}) error {
		return f.SetCellValue(name, model.CellAddress(row, col), v)
	}

	header := []string{"sheet", "status", "added", "removed", "valueChanged", "formulaChanged"}
	for col, h := range header {
		if err := set(0, col, h); err != nil {
			return fmt.Errorf("failed to write summary header: %w", err)
		}
	}

	row := 1
	for _, sheet := range r.SheetOrder {
		status := r.SheetStatus[sheet]
		if err := set(row, 0, sheet); err != nil {
			return fmt.Errorf("failed to write summary row: %w", err)
		}
		if err := set(row, 1, string(status)); err != nil {
			return fmt.Errorf("failed to write summary row: %w", err)
		}
		if d, ok := r.BySheet[sheet]; ok {
			counts := []int{d.Counts.Added, d.Counts.Removed, d.Counts.ValueChanged, d.Counts.FormulaChanged}
			for i, c := range counts {
				if err := set(row, 2+i, c); err != nil {
					return fmt.Errorf("failed to write summary row: %w", err)
				}
			}
		}
		row++
	}

	row++
	if err := set(row, 0, "legend"); err != nil {
		return fmt.Errorf("failed to write legend: %w", err)
	}
	for _, code := range diff.ChangeCodes {
		row++
		addr := model.CellAddress(row, 0)
		if err := f.SetCellValue(name, addr, code.String()); err != nil {
			return fmt.Errorf("failed to write legend: %w", err)
		}
		if err := f.SetCellStyle(name, addr, addr, styles[code]); err != nil {
			return fmt.Errorf("failed to style legend: %w", err)
		}
	}

	if err := f.SetColWidth(name, "A", "A", 24); err != nil {
		return fmt.Errorf("failed to size summary columns: %w", err)
	}
	if err := f.SetColWidth(name, "B", "F", 14); err != nil {
		return fmt.Errorf("failed to size summary columns: %w", err)
	}
	return nil
}

func sheetExists(f *excelize.File, name string) bool {
	for _, s := range f.GetSheetList() {
		if strings.EqualFold(s, name) {
			return true
		}
	}
	return false
}

// SaveFileAtomic saves the file atomically using temp file + rename.
// This prevents corruption if the process is interrupted.
func SaveFileAtomic(f *excelize.File, path string) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	tmpPath := filepath.Join(dir, filepath.Base(path)+".tmp")
	tmpFile, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create temp file %s: %w", tmpPath, err)
	}

	if err := f.Write(tmpFile); err != nil {
		tmpFile.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write to temp file %s: %w", tmpPath, err)
	}
	if err := tmpFile.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file %s: %w", tmpPath, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file to %s: %w", path, err)
	}
	return nil
}
