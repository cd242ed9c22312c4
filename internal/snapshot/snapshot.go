// Package snapshot captures xlsx workbooks as comparison-ready models.
// Each sheet is reduced to its populated region: a dense block of values,
// formulas, and value kinds anchored by the block's absolute offsets.
package snapshot

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/xldiff/xldiff/internal/log"
	"github.com/xldiff/xldiff/internal/model"
)

var (
	ErrFileNotFound  = errors.New("file not found")
	ErrSheetNotFound = errors.New("sheet not found")
	ErrSheetTooLarge = errors.New("sheet exceeds cell limit")
	ErrNoSheets      = errors.New("workbook has no sheets")
)

// DefaultMaxCellsPerSheet bounds the dense block allocated per sheet.
// A block is rows x cols of the populated bounding box, so a single
// far-flung cell can make a sparse sheet enormous.
const DefaultMaxCellsPerSheet = 2_000_000

// Options controls what Capture extracts.
type Options struct {
	// Sheets restricts extraction to the named sheets, resolved
	// case-insensitively. Empty means every sheet in workbook order.
	Sheets []string

	// MaxCellsPerSheet caps the bounding-box area of a sheet's populated
	// region. Zero applies DefaultMaxCellsPerSheet.
	MaxCellsPerSheet int
}

func (o Options) maxCells() int {
	if o.MaxCellsPerSheet > 0 {
		return o.MaxCellsPerSheet
	}
	return DefaultMaxCellsPerSheet
}

// Capture opens an xlsx file and extracts its snapshot model. The model
// name is the file's base name.
func Capture(path string, opts Options) (*model.WorkbookModel, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx file %s: %w", path, err)
	}
	defer f.Close()

	return CaptureWorkbook(f, filepath.Base(path), opts)
}

// CaptureWorkbook extracts a snapshot model from an open workbook handle.
func CaptureWorkbook(f *excelize.File, name string, opts Options) (*model.WorkbookModel, error) {
	if f == nil {
		return nil, fmt.Errorf("file handle is nil")
	}

	sheets, err := selectSheets(f, opts.Sheets)
	if err != nil {
		return nil, err
	}

	wb := &model.WorkbookModel{Name: name, Sheets: make([]model.SheetModel, 0, len(sheets))}
	for _, sheet := range sheets {
		sm, err := captureSheet(f, sheet, opts.maxCells())
		if err != nil {
			return nil, err
		}
		wb.Sheets = append(wb.Sheets, sm)
	}

	log.WithField("workbook", name).
		WithField("sheets", len(wb.Sheets)).
		WithField("cells", wb.CellCount()).
		Debug("captured snapshot")
	return wb, nil
}

// selectSheets resolves the requested sheet names against the workbook,
// matching case-insensitively but keeping the workbook's actual casing.
func selectSheets(f *excelize.File, requested []string) ([]string, error) {
	all := f.GetSheetList()
	if len(all) == 0 {
		return nil, ErrNoSheets
	}
	if len(requested) == 0 {
		return all, nil
	}

	resolved := make([]string, 0, len(requested))
	for _, want := range requested {
		found := ""
		for _, s := range all {
			if strings.EqualFold(s, want) {
				found = s
				break
			}
		}
		if found == "" {
			return nil, fmt.Errorf("%w: %s", ErrSheetNotFound, want)
		}
		resolved = append(resolved, found)
	}
	return resolved, nil
}

// FilterPair restricts both workbooks to the named sheets ahead of a
// comparison. Names match case-insensitively. A name only has to exist
// on one side, so a sheet present in a single workbook still shows up
// as added or removed; a name matching neither side is an error.
func FilterPair(current, baseline *model.WorkbookModel, names []string) (*model.WorkbookModel, *model.WorkbookModel, error) {
	if len(names) == 0 {
		return current, baseline, nil
	}
	for _, name := range names {
		if !hasSheet(current, name) && !hasSheet(baseline, name) {
			return nil, nil, fmt.Errorf("%w: %s", ErrSheetNotFound, name)
		}
	}
	return filterSheets(current, names), filterSheets(baseline, names), nil
}

func hasSheet(wb *model.WorkbookModel, name string) bool {
	for i := range wb.Sheets {
		if strings.EqualFold(wb.Sheets[i].Name, name) {
			return true
		}
	}
	return false
}

func filterSheets(wb *model.WorkbookModel, names []string) *model.WorkbookModel {
	kept := make([]model.SheetModel, 0, len(names))
	for i := range wb.Sheets {
		for _, name := range names {
			if strings.EqualFold(wb.Sheets[i].Name, name) {
				kept = append(kept, wb.Sheets[i])
				break
			}
		}
	}
	return &model.WorkbookModel{Name: wb.Name, Sheets: kept}
}

type populatedCell struct {
	row  int
	col  int
	cell model.CellSnapshot
}

// captureSheet streams one sheet and reduces it to its populated block.
// A cell is populated when it carries a formula or a non-empty stored
// value; styling alone does not count.
func captureSheet(f *excelize.File, sheet string, maxCells int) (model.SheetModel, error) {
	rows, err := f.Rows(sheet)
	if err != nil {
		return model.SheetModel{}, fmt.Errorf("failed to read rows from sheet %s: %w", sheet, err)
	}
	defer rows.Close()

	var cells []populatedCell
	minRow, minCol := -1, -1
	maxRow, maxCol := 0, 0

	rowNum := 0
	for rows.Next() {
		rowNum++
		cols, err := rows.Columns(excelize.Options{RawCellValue: true})
		if err != nil {
			return model.SheetModel{}, fmt.Errorf("failed to read columns at row %d: %w", rowNum, err)
		}

		for i, raw := range cols {
			addr := model.CellAddress(rowNum-1, i)
			formula, _ := f.GetCellFormula(sheet, addr)
			if raw == "" && formula == "" {
				continue
			}

			cell := model.CellSnapshot{Value: cellScalar(f, sheet, addr, raw)}
			cell.Kind = cell.Value.Kind
			if formula != "" && !strings.HasPrefix(formula, "=") {
				formula = "=" + formula
			}
			cell.Formula = formula

			cells = append(cells, populatedCell{row: rowNum - 1, col: i, cell: cell})
			if len(cells) > maxCells {
				return model.SheetModel{}, fmt.Errorf("%w: %s has more than %d populated cells", ErrSheetTooLarge, sheet, maxCells)
			}

			if minRow < 0 || rowNum-1 < minRow {
				minRow = rowNum - 1
			}
			if minCol < 0 || i < minCol {
				minCol = i
			}
			if rowNum-1 > maxRow {
				maxRow = rowNum - 1
			}
			if i > maxCol {
				maxCol = i
			}
		}
	}
	if err := rows.Error(); err != nil {
		return model.SheetModel{}, fmt.Errorf("error iterating rows in sheet %s: %w", sheet, err)
	}

	if len(cells) == 0 {
		return model.NewSheetModel(sheet, 0, 0, 0, 0), nil
	}

	height := maxRow - minRow + 1
	width := maxCol - minCol + 1
	if height*width > maxCells {
		return model.SheetModel{}, fmt.Errorf("%w: %s bounding box is %dx%d cells", ErrSheetTooLarge, sheet, height, width)
	}

	sm := model.NewSheetModel(sheet, minRow, minCol, height, width)
	for _, pc := range cells {
		sm.SetCell(pc.row-minRow, pc.col-minCol, pc.cell)
	}
	return sm, nil
}

// cellScalar types a raw cell value using the stored cell type, falling
// back to content-based inference when the type is unset or unexpected.
func cellScalar(f *excelize.File, sheet, addr, raw string) model.Scalar {
	if raw == "" {
		return model.EmptyScalar
	}

	cellType, err := f.GetCellType(sheet, addr)
	if err != nil {
		return inferScalar(raw)
	}

	switch cellType {
	case excelize.CellTypeNumber, excelize.CellTypeDate:
		if n, err := strconv.ParseFloat(raw, 64); err == nil {
			return model.DoubleScalar(n)
		}
		return model.StringScalar(raw)
	case excelize.CellTypeBool:
		return model.BooleanScalar(raw == "1" || strings.EqualFold(raw, "true"))
	case excelize.CellTypeError:
		return model.ErrorScalar(raw)
	case excelize.CellTypeInlineString, excelize.CellTypeSharedString:
		return model.StringScalar(raw)
	default:
		return inferScalar(raw)
	}
}

var sheetErrorCodes = map[string]bool{
	"#NULL!":         true,
	"#DIV/0!":        true,
	"#VALUE!":        true,
	"#REF!":          true,
	"#NAME?":         true,
	"#NUM!":          true,
	"#N/A":           true,
	"#SPILL!":        true,
	"#CALC!":         true,
	"#GETTING_DATA!": true,
}

// inferScalar types a value by content alone. Formula results and cells
// with no stored type land here.
func inferScalar(raw string) model.Scalar {
	if n, err := strconv.ParseFloat(raw, 64); err == nil {
		return model.DoubleScalar(n)
	}
	if strings.EqualFold(raw, "true") {
		return model.BooleanScalar(true)
	}
	if strings.EqualFold(raw, "false") {
		return model.BooleanScalar(false)
	}
	if sheetErrorCodes[strings.ToUpper(raw)] {
		return model.ErrorScalar(strings.ToUpper(raw))
	}
	return model.StringScalar(raw)
}
