// Package model defines the snapshot shape shared by every xldiff
// subsystem: a workbook captured as dense per-sheet blocks of values,
// formulas, and value kinds, anchored in absolute sheet coordinates.
package model

// CellSnapshot is one cell of a captured workbook. Formula, when present,
// includes its leading "=" marker; an empty string means the cell holds no
// formula. Kind records the value type reported at extraction time.
type CellSnapshot struct {
	Value   Scalar    `json:"value"`
	Formula string    `json:"formula,omitempty"`
	Kind    ValueKind `json:"kind"`
}

// EmptyCell is the synthetic snapshot used for coordinates outside a
// sheet's populated block.
var EmptyCell = CellSnapshot{Value: EmptyScalar, Kind: KindEmpty}

// SheetModel is the dense capture of one sheet's populated region.
// RowOffset/ColOffset locate the block's top-left corner in the sheet's
// absolute 0-based coordinate space; a populated region need not start at
// A1. Values, Formulas, and Kinds are parallel RowCount x ColCount arrays.
type SheetModel struct {
	Name      string        `json:"name"`
	RowCount  int           `json:"rowCount"`
	ColCount  int           `json:"colCount"`
	RowOffset int           `json:"rowOffset"`
	ColOffset int           `json:"colOffset"`
	Values    [][]Scalar    `json:"values"`
	Formulas  [][]string    `json:"formulas"`
	Kinds     [][]ValueKind `json:"kinds"`
}

// NewSheetModel allocates a sheet block of the given dimensions with every
// cell empty.
func NewSheetModel(name string, rowOffset, colOffset, rows, cols int) SheetModel {
	s := SheetModel{
		Name:      name,
		RowCount:  rows,
		ColCount:  cols,
		RowOffset: rowOffset,
		ColOffset: colOffset,
		Values:    make([][]Scalar, rows),
		Formulas:  make([][]string, rows),
		Kinds:     make([][]ValueKind, rows),
	}
	for i := 0; i < rows; i++ {
		s.Values[i] = make([]Scalar, cols)
		s.Formulas[i] = make([]string, cols)
		s.Kinds[i] = make([]ValueKind, cols)
	}
	return s
}

// Cell returns the snapshot at local block coordinates. Coordinates outside
// the declared block, and cells missing from ragged or truncated rows,
// resolve to EmptyCell rather than failing: comparison is best-effort on
// malformed input.
func (s *SheetModel) Cell(row, col int) CellSnapshot {
	if row < 0 || col < 0 || row >= s.RowCount || col >= s.ColCount {
		return EmptyCell
	}

	cell := EmptyCell
	if row < len(s.Values) && col < len(s.Values[row]) {
		cell.Value = s.Values[row][col]
	}
	if row < len(s.Formulas) && col < len(s.Formulas[row]) {
		cell.Formula = s.Formulas[row][col]
	}
	if row < len(s.Kinds) && col < len(s.Kinds[row]) {
		cell.Kind = s.Kinds[row][col]
	}
	return cell
}

// SetCell writes one cell at local block coordinates. Out-of-range
// coordinates are ignored.
func (s *SheetModel) SetCell(row, col int, c CellSnapshot) {
	if row < 0 || col < 0 || row >= s.RowCount || col >= s.ColCount {
		return
	}
	s.Values[row][col] = c.Value
	s.Formulas[row][col] = c.Formula
	s.Kinds[row][col] = c.Kind
}

// RowEnd returns the exclusive end row of the populated block in absolute
// coordinates.
func (s *SheetModel) RowEnd() int {
	return s.RowOffset + s.RowCount
}

// ColEnd returns the exclusive end column of the populated block in
// absolute coordinates.
func (s *SheetModel) ColEnd() int {
	return s.ColOffset + s.ColCount
}

// CellCount returns the number of cells in the populated block.
func (s *SheetModel) CellCount() int {
	return s.RowCount * s.ColCount
}

// WorkbookModel is a fully materialized snapshot of a workbook. Sheet names
// are unique within a workbook and are the pairing key for comparison.
type WorkbookModel struct {
	Name   string       `json:"name"`
	Sheets []SheetModel `json:"sheets"`
}

// Sheet returns the sheet with the given name, if present.
func (w *WorkbookModel) Sheet(name string) (*SheetModel, bool) {
	for i := range w.Sheets {
		if w.Sheets[i].Name == name {
			return &w.Sheets[i], true
		}
	}
	return nil, false
}

// SheetNames returns the sheet names in workbook order.
func (w *WorkbookModel) SheetNames() []string {
	names := make([]string, len(w.Sheets))
	for i := range w.Sheets {
		names[i] = w.Sheets[i].Name
	}
	return names
}

// CellCount returns the total populated cell count across all sheets.
func (w *WorkbookModel) CellCount() int {
	total := 0
	for i := range w.Sheets {
		total += w.Sheets[i].CellCount()
	}
	return total
}
