package diff

import "github.com/xldiff/xldiff/internal/model"

// Rect is an inclusive axis-aligned rectangle in a diff grid's local
// 0-based coordinates. Add the grid's RowBase and ColBase to recover
// absolute sheet coordinates.
type Rect struct {
	RowStart int `json:"rowStart"`
	ColStart int `json:"colStart"`
	RowEnd   int `json:"rowEnd"`
	ColEnd   int `json:"colEnd"`
}

// CellCount returns the number of grid cells the rectangle covers.
func (r Rect) CellCount() int {
	return (r.RowEnd - r.RowStart + 1) * (r.ColEnd - r.ColStart + 1)
}

// Rectangles decomposes every cell carrying the given code into
// non-overlapping rectangles that together cover exactly those cells.
// Each row is first segmented into maximal horizontal runs, then a run is
// merged downward into the rectangle directly above it when the column
// span matches exactly. A run wider or narrower than the rectangle above
// starts a rectangle of its own. Output order is by first appearance,
// row-major.
func Rectangles(d *SheetDiff, code Code) []Rect {
	var rects []*Rect
	// Rectangles still growable at the previous row, keyed by column span.
	open := make(map[[2]int]*Rect)

	for row := 0; row < d.Rows; row++ {
		next := make(map[[2]int]*Rect)
		for col := 0; col < d.Cols; {
			if d.At(row, col) != code {
				col++
				continue
			}
			start := col
			for col < d.Cols && d.At(row, col) == code {
				col++
			}
			span := [2]int{start, col - 1}
			if r, ok := open[span]; ok {
				r.RowEnd = row
				next[span] = r
				continue
			}
			r := &Rect{RowStart: row, ColStart: start, RowEnd: row, ColEnd: col - 1}
			rects = append(rects, r)
			next[span] = r
		}
		// Spans that did not recur on this row are sealed; the map swap
		// retires them without revisiting.
		open = next
	}

	out := make([]Rect, len(rects))
	for i, r := range rects {
		out[i] = *r
	}
	return out
}

// RectanglesByCode decomposes the grid once per difference code, skipping
// codes with no cells.
func RectanglesByCode(d *SheetDiff) map[Code][]Rect {
	out := make(map[Code][]Rect)
	for _, code := range ChangeCodes {
		if d.Counts.Of(code) == 0 {
			continue
		}
		if rects := Rectangles(d, code); len(rects) > 0 {
			out[code] = rects
		}
	}
	return out
}

// Regions flattens every sheet's changed rectangles into absolute A1
// ranges, keyed by sheet name and then change code name. Sheets without
// differences are omitted.
func Regions(r *Result) map[string]map[string][]string {
	out := make(map[string]map[string][]string)
	for name, d := range r.BySheet {
		byCode := RectanglesByCode(d)
		if len(byCode) == 0 {
			continue
		}
		sheetRegions := make(map[string][]string, len(byCode))
		for code, rects := range byCode {
			ranges := make([]string, len(rects))
			for i, rect := range rects {
				ranges[i] = model.RangeAddress(
					rect.RowStart+d.RowBase, rect.ColStart+d.ColBase,
					rect.RowEnd+d.RowBase, rect.ColEnd+d.ColBase)
			}
			sheetRegions[code.String()] = ranges
		}
		out[name] = sheetRegions
	}
	return out
}
