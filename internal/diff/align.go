package diff

import "github.com/xldiff/xldiff/internal/model"

// Alignment is the shared absolute bounding rectangle that two sheets'
// populated blocks are compared over. Rows and Cols may be zero when
// neither sheet holds any populated cell.
type Alignment struct {
	RowBase int
	ColBase int
	Rows    int
	Cols    int
}

// Align computes the union bounding rectangle of both sheets' populated
// regions in absolute coordinates. A sheet without populated cells
// contributes nothing, so a pair of empty sheets aligns to an empty
// rectangle and no cell pairs are compared at all.
func Align(current, baseline *model.SheetModel) Alignment {
	curEmpty := current == nil || current.RowCount == 0 || current.ColCount == 0
	baseEmpty := baseline == nil || baseline.RowCount == 0 || baseline.ColCount == 0
	switch {
	case curEmpty && baseEmpty:
		return Alignment{}
	case curEmpty:
		return boundsOf(baseline)
	case baseEmpty:
		return boundsOf(current)
	}
	rowBase := min(current.RowOffset, baseline.RowOffset)
	colBase := min(current.ColOffset, baseline.ColOffset)
	return Alignment{
		RowBase: rowBase,
		ColBase: colBase,
		Rows:    max(current.RowEnd(), baseline.RowEnd()) - rowBase,
		Cols:    max(current.ColEnd(), baseline.ColEnd()) - colBase,
	}
}

func boundsOf(s *model.SheetModel) Alignment {
	return Alignment{
		RowBase: s.RowOffset,
		ColBase: s.ColOffset,
		Rows:    s.RowCount,
		Cols:    s.ColCount,
	}
}

// CellAt resolves an absolute coordinate against a sheet's populated
// block. Coordinates outside the block, and any sheet that is absent
// entirely, yield the synthetic empty cell.
func CellAt(s *model.SheetModel, absRow, absCol int) model.CellSnapshot {
	if s == nil {
		return model.EmptyCell
	}
	return s.Cell(absRow-s.RowOffset, absCol-s.ColOffset)
}
