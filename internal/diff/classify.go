package diff

import (
	"fmt"
	"strconv"

	"github.com/xldiff/xldiff/internal/model"
)

// Code classifies the difference between two aligned cells. The numeric
// values are part of the serialized grid format and must not change.
type Code uint8

const (
	// None marks a cell with no difference.
	None Code = iota
	// Added marks a cell populated now but blank in the baseline.
	Added
	// Removed marks a cell blank now but populated in the baseline.
	Removed
	// ValueChanged marks a cell whose formula is unchanged but whose
	// computed value moved, or whose literal content was edited in a way
	// attributed to recalculation.
	ValueChanged
	// FormulaChanged marks a cell whose formula text changed, or whose
	// literal content was directly edited.
	FormulaChanged
)

var codeNames = map[Code]string{
	None:           "none",
	Added:          "added",
	Removed:        "removed",
	ValueChanged:   "valueChanged",
	FormulaChanged: "formulaChanged",
}

func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return "none"
}

// MarshalJSON keeps Code slices serializing as integer arrays instead of
// base64 strings.
func (c Code) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Itoa(int(c))), nil
}

func (c *Code) UnmarshalJSON(data []byte) error {
	n, err := strconv.Atoi(string(data))
	if err != nil {
		return fmt.Errorf("invalid difference code %q", string(data))
	}
	if n < int(None) || n > int(FormulaChanged) {
		return fmt.Errorf("invalid difference code %d", n)
	}
	*c = Code(n)
	return nil
}

// ChangeCodes lists every code that marks an actual difference, in
// reporting order.
var ChangeCodes = []Code{Added, Removed, ValueChanged, FormulaChanged}

// Classify returns the difference code for one aligned cell pair, current
// snapshot first and baseline second.
//
// Blank cells are resolved before any content comparison, so a cell
// gaining or losing content is Added or Removed regardless of what the
// content looks like. For populated pairs the formula text decides the
// branch: differing formulas are FormulaChanged unless exactly one side
// has a formula at all, in which case a matching cached value means the
// literal merely mirrors the other side's result and no difference is
// reported. Matching formulas compare by value, where two differing
// literals count as a direct edit (FormulaChanged) and a differing result
// under the same formula counts as recalculation drift (ValueChanged).
func Classify(current, baseline model.CellSnapshot) Code {
	curBlank := isBlank(current)
	baseBlank := isBlank(baseline)
	switch {
	case curBlank && baseBlank:
		return None
	case baseBlank:
		return Added
	case curBlank:
		return Removed
	}

	curFormula := NormalizeFormula(current.Formula)
	baseFormula := NormalizeFormula(baseline.Formula)

	if curFormula != baseFormula {
		bothPresent := curFormula != "" && baseFormula != ""
		if bothPresent {
			return FormulaChanged
		}
		// One side is a bare literal. When it matches the other side's
		// cached result the content is effectively the same.
		if valuesEqual(current.Value, baseline.Value) {
			return None
		}
		return FormulaChanged
	}

	if valuesEqual(current.Value, baseline.Value) {
		return None
	}
	if curFormula == "" {
		return FormulaChanged
	}
	return ValueChanged
}

// isBlank reports whether a cell holds neither a formula nor a value.
// A formula always implies a populated cell, whatever its cached value.
func isBlank(c model.CellSnapshot) bool {
	if c.Formula != "" {
		return false
	}
	switch c.Value.Kind {
	case model.KindEmpty:
		return true
	case model.KindString:
		return c.Value.Str == ""
	default:
		return false
	}
}

// valuesEqual compares two cell values after normalization. Same-kind
// scalars compare natively; mixed kinds fall back to canonical text so a
// numeric literal and its string rendering do not register as a change.
func valuesEqual(a, b model.Scalar) bool {
	a = NormalizeScalar(a)
	b = NormalizeScalar(b)
	if a.Kind == b.Kind {
		switch a.Kind {
		case model.KindEmpty:
			return true
		case model.KindDouble:
			return a.Num == b.Num
		case model.KindBoolean:
			return a.Bool == b.Bool
		default:
			return a.Str == b.Str
		}
	}
	return a.Text() == b.Text()
}
