// Package diff compares two workbook snapshots cell by cell and reports
// every difference as a dense per-sheet grid of classification codes.
// Sheets are paired by name, aligned over the union of their populated
// regions, and classified with formula-aware semantics, so moving a block
// of cells shows up as the removals and additions it really is.
package diff

import (
	"sync"

	"github.com/xldiff/xldiff/internal/model"
)

// SheetStatus describes what happened to a sheet between two snapshots.
type SheetStatus string

const (
	SheetAdded     SheetStatus = "added"
	SheetRemoved   SheetStatus = "removed"
	SheetModified  SheetStatus = "modified"
	SheetUnchanged SheetStatus = "unchanged"
)

// Counts aggregates cell totals per difference code. Changed is the sum
// of the four difference categories.
type Counts struct {
	Added          int `json:"added"`
	Removed        int `json:"removed"`
	ValueChanged   int `json:"valueChanged"`
	FormulaChanged int `json:"formulaChanged"`
	Changed        int `json:"changed"`
}

func (c *Counts) record(code Code) {
	switch code {
	case Added:
		c.Added++
	case Removed:
		c.Removed++
	case ValueChanged:
		c.ValueChanged++
	case FormulaChanged:
		c.FormulaChanged++
	default:
		return
	}
	c.Changed++
}

func (c *Counts) merge(o Counts) {
	c.Added += o.Added
	c.Removed += o.Removed
	c.ValueChanged += o.ValueChanged
	c.FormulaChanged += o.FormulaChanged
	c.Changed += o.Changed
}

// Of returns the count recorded for one difference code.
func (c Counts) Of(code Code) int {
	switch code {
	case Added:
		return c.Added
	case Removed:
		return c.Removed
	case ValueChanged:
		return c.ValueChanged
	case FormulaChanged:
		return c.FormulaChanged
	default:
		return 0
	}
}

// SheetDiff is the dense difference grid for one sheet pair. Cells holds
// Rows*Cols codes in row-major order; RowBase and ColBase anchor local
// grid coordinates back to absolute sheet coordinates.
type SheetDiff struct {
	Rows    int    `json:"rows"`
	Cols    int    `json:"cols"`
	RowBase int    `json:"rowBase"`
	ColBase int    `json:"colBase"`
	Cells   []Code `json:"cells"`
	Counts  Counts `json:"counts"`
}

// At returns the code at local grid coordinates. Out-of-range coordinates
// read as None.
func (d *SheetDiff) At(row, col int) Code {
	if row < 0 || row >= d.Rows || col < 0 || col >= d.Cols {
		return None
	}
	return d.Cells[row*d.Cols+col]
}

// CellCount returns the number of aligned cell positions in the grid.
func (d *SheetDiff) CellCount() int {
	return d.Rows * d.Cols
}

// Result is a whole-workbook comparison. BySheet holds a grid for every
// sheet present in both snapshots; sheets present on one side only carry
// a status but no grid. Summary totals cover the gridded sheets only.
type Result struct {
	CurrentName  string                 `json:"currentName"`
	BaselineName string                 `json:"baselineName"`
	SheetOrder   []string               `json:"sheetOrder"`
	BySheet      map[string]*SheetDiff  `json:"bySheet"`
	SheetStatus  map[string]SheetStatus `json:"sheetStatus"`
	Summary      Counts                 `json:"summary"`
}

// HasDifferences reports whether any sheet was added, removed, or
// modified.
func (r *Result) HasDifferences() bool {
	for _, status := range r.SheetStatus {
		if status != SheetUnchanged {
			return true
		}
	}
	return false
}

// Options tunes a workbook comparison. The zero value compares sheets
// one at a time.
type Options struct {
	// Parallelism caps how many sheet pairs are compared concurrently.
	// Values below two keep the comparison serial. Results are identical
	// either way.
	Parallelism int
}

// Sheets builds the difference grid for one sheet pair. Either side may
// be nil, in which case every populated cell on the other side reports
// as added or removed respectively.
func Sheets(current, baseline *model.SheetModel) *SheetDiff {
	a := Align(current, baseline)
	d := &SheetDiff{
		Rows:    a.Rows,
		Cols:    a.Cols,
		RowBase: a.RowBase,
		ColBase: a.ColBase,
		Cells:   make([]Code, a.Rows*a.Cols),
	}
	for row := 0; row < a.Rows; row++ {
		absRow := a.RowBase + row
		base := row * a.Cols
		for col := 0; col < a.Cols; col++ {
			code := Classify(
				CellAt(current, absRow, a.ColBase+col),
				CellAt(baseline, absRow, a.ColBase+col),
			)
			d.Cells[base+col] = code
			d.Counts.record(code)
		}
	}
	return d
}

// Workbooks compares two workbook snapshots, current against baseline.
// Sheet order in the result follows the current snapshot, with
// baseline-only sheets appended in baseline order.
func Workbooks(current, baseline *model.WorkbookModel, opts Options) *Result {
	r := &Result{
		CurrentName:  current.Name,
		BaselineName: baseline.Name,
		BySheet:      make(map[string]*SheetDiff),
		SheetStatus:  make(map[string]SheetStatus),
	}

	type pair struct {
		name     string
		current  *model.SheetModel
		baseline *model.SheetModel
	}
	var pairs []pair

	for i := range current.Sheets {
		cur := &current.Sheets[i]
		base, ok := baseline.Sheet(cur.Name)
		if !ok {
			r.SheetOrder = append(r.SheetOrder, cur.Name)
			r.SheetStatus[cur.Name] = SheetAdded
			continue
		}
		r.SheetOrder = append(r.SheetOrder, cur.Name)
		pairs = append(pairs, pair{name: cur.Name, current: cur, baseline: base})
	}
	for i := range baseline.Sheets {
		base := &baseline.Sheets[i]
		if _, ok := current.Sheet(base.Name); !ok {
			r.SheetOrder = append(r.SheetOrder, base.Name)
			r.SheetStatus[base.Name] = SheetRemoved
		}
	}

	grids := make([]*SheetDiff, len(pairs))
	if workers := min(opts.Parallelism, len(pairs)); workers > 1 {
		var wg sync.WaitGroup
		jobs := make(chan int)
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := range jobs {
					grids[i] = Sheets(pairs[i].current, pairs[i].baseline)
				}
			}()
		}
		for i := range pairs {
			jobs <- i
		}
		close(jobs)
		wg.Wait()
	} else {
		for i := range pairs {
			grids[i] = Sheets(pairs[i].current, pairs[i].baseline)
		}
	}

	for i, p := range pairs {
		d := grids[i]
		r.BySheet[p.name] = d
		if d.Counts.Changed > 0 {
			r.SheetStatus[p.name] = SheetModified
		} else {
			r.SheetStatus[p.name] = SheetUnchanged
		}
		r.Summary.merge(d.Counts)
	}
	return r
}
