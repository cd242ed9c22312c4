package output

import (
	"fmt"
	"io"
	"strconv"

	"github.com/dustin/go-humanize"

	"github.com/xldiff/xldiff/internal/diff"
	"github.com/xldiff/xldiff/internal/model"
	"github.com/xldiff/xldiff/internal/store"
)

// RenderDiff writes the human-readable comparison report: one block per
// sheet in result order, changed regions as A1 ranges, and a closing
// summary.
func RenderDiff(w io.Writer, r *diff.Result) {
	fmt.Fprintf(w, "comparing %s against %s\n\n", r.CurrentName, r.BaselineName)

	pairs := 0
	differing := 0
	for _, name := range r.SheetOrder {
		status := r.SheetStatus[name]
		switch status {
		case diff.SheetAdded:
			differing++
			fmt.Fprintf(w, "%s: sheet only in current\n", name)
			continue
		case diff.SheetRemoved:
			differing++
			fmt.Fprintf(w, "%s: sheet only in baseline\n", name)
			continue
		}

		pairs++
		if status == diff.SheetUnchanged {
			fmt.Fprintf(w, "%s: unchanged\n", name)
			continue
		}

		differing++
		d := r.BySheet[name]
		c := d.Counts
		fmt.Fprintf(w, "%s: %s changed cells (%d added, %d removed, %d value, %d formula)\n",
			name, humanize.Comma(int64(c.Changed)),
			c.Added, c.Removed, c.ValueChanged, c.FormulaChanged)
		for _, code := range diff.ChangeCodes {
			for _, rect := range diff.Rectangles(d, code) {
				fmt.Fprintf(w, "  %-14s %s\n", code, rectRange(d, rect))
			}
		}
	}

	fmt.Fprintf(w, "\n%d sheet pairs compared, %d sheets differ\n", pairs, differing)
	if r.Summary.Changed == 0 && differing == 0 {
		fmt.Fprintln(w, "no differences")
		return
	}
	s := r.Summary
	fmt.Fprintf(w, "%s changed cells (%d added, %d removed, %d value, %d formula)\n",
		humanize.Comma(int64(s.Changed)), s.Added, s.Removed, s.ValueChanged, s.FormulaChanged)
}

// DiffTable flattens a comparison result to one row per changed region,
// in result order. Unchanged sheets carry no rows.
func DiffTable(r *diff.Result) (header []string, rows [][]string) {
	header = []string{"sheet", "change", "range", "cells"}
	for _, name := range r.SheetOrder {
		switch r.SheetStatus[name] {
		case diff.SheetAdded:
			rows = append(rows, []string{name, "sheetAdded", "", ""})
		case diff.SheetRemoved:
			rows = append(rows, []string{name, "sheetRemoved", "", ""})
		case diff.SheetModified:
			d := r.BySheet[name]
			for _, code := range diff.ChangeCodes {
				for _, rect := range diff.Rectangles(d, code) {
					rows = append(rows, []string{
						name,
						code.String(),
						rectRange(d, rect),
						strconv.Itoa(rect.CellCount()),
					})
				}
			}
		}
	}
	return header, rows
}

// SnapshotTable flattens store entries for list output.
func SnapshotTable(entries []store.Entry) (header []string, rows [][]string) {
	header = []string{"label", "id", "workbook", "sheets", "cells", "size", "saved"}
	for _, e := range entries {
		rows = append(rows, []string{
			e.Label,
			shortID(e.ID),
			e.Workbook,
			strconv.Itoa(e.Sheets),
			humanize.Comma(int64(e.Cells)),
			humanize.Bytes(uint64(e.Bytes)),
			humanize.Time(e.SavedAt),
		})
	}
	return header, rows
}

// SheetTable flattens a snapshot's sheet inventory.
func SheetTable(wb *model.WorkbookModel) (header []string, rows [][]string) {
	header = []string{"sheet", "rows", "cols", "range"}
	for i := range wb.Sheets {
		s := &wb.Sheets[i]
		rng := "-"
		if s.CellCount() > 0 {
			rng = model.RangeAddress(s.RowOffset, s.ColOffset, s.RowEnd()-1, s.ColEnd()-1)
		}
		rows = append(rows, []string{
			s.Name,
			strconv.Itoa(s.RowCount),
			strconv.Itoa(s.ColCount),
			rng,
		})
	}
	return header, rows
}

// rectRange converts a grid-local rectangle to an absolute A1 range.
func rectRange(d *diff.SheetDiff, r diff.Rect) string {
	return model.RangeAddress(
		r.RowStart+d.RowBase,
		r.ColStart+d.ColBase,
		r.RowEnd+d.RowBase,
		r.ColEnd+d.ColBase,
	)
}

// shortID abbreviates an object id for display.
func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
