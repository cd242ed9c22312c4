package model

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// ValueKind identifies the type of a cell's stored value.
type ValueKind uint8

const (
	KindEmpty ValueKind = iota
	KindString
	KindDouble
	KindBoolean
	KindError
	KindUnknown
)

var kindNames = map[ValueKind]string{
	KindEmpty:   "empty",
	KindString:  "string",
	KindDouble:  "double",
	KindBoolean: "boolean",
	KindError:   "error",
	KindUnknown: "unknown",
}

var kindValues = map[string]ValueKind{
	"empty":   KindEmpty,
	"string":  KindString,
	"double":  KindDouble,
	"boolean": KindBoolean,
	"error":   KindError,
	"unknown": KindUnknown,
}

// String returns the lowercase name of the kind.
func (k ValueKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// MarshalJSON encodes the kind as its lowercase name.
func (k ValueKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON decodes a kind from its lowercase name.
func (k *ValueKind) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return fmt.Errorf("value kind must be a string: %w", err)
	}
	kind, ok := kindValues[name]
	if !ok {
		return fmt.Errorf("unknown value kind %q", name)
	}
	*k = kind
	return nil
}

// Scalar is a closed tagged union over the primitive cell value types.
// Kind selects which payload field is meaningful; the zero value is the
// empty scalar. Error values keep their sheet representation (e.g.
// "#DIV/0!") in Str.
type Scalar struct {
	Kind ValueKind
	Num  float64
	Str  string
	Bool bool
}

// EmptyScalar is the scalar for a cell with no stored value.
var EmptyScalar = Scalar{Kind: KindEmpty}

// StringScalar returns a string-valued scalar.
func StringScalar(s string) Scalar {
	return Scalar{Kind: KindString, Str: s}
}

// DoubleScalar returns a numeric scalar.
func DoubleScalar(f float64) Scalar {
	return Scalar{Kind: KindDouble, Num: f}
}

// BooleanScalar returns a boolean scalar.
func BooleanScalar(b bool) Scalar {
	return Scalar{Kind: KindBoolean, Bool: b}
}

// ErrorScalar returns a scalar holding a sheet error code such as "#REF!".
func ErrorScalar(code string) Scalar {
	return Scalar{Kind: KindError, Str: code}
}

// IsEmpty reports whether the scalar holds no value.
func (s Scalar) IsEmpty() bool {
	return s.Kind == KindEmpty
}

// Text coerces the scalar to its canonical string form. Numbers use the
// shortest round-trip representation, booleans the sheet-style TRUE/FALSE.
func (s Scalar) Text() string {
	switch s.Kind {
	case KindDouble:
		return strconv.FormatFloat(s.Num, 'f', -1, 64)
	case KindBoolean:
		if s.Bool {
			return "TRUE"
		}
		return "FALSE"
	case KindString, KindError:
		return s.Str
	default:
		return ""
	}
}

// scalarError is the JSON envelope for error scalars, which would otherwise
// be indistinguishable from plain strings.
type scalarError struct {
	Error string `json:"error"`
}

// MarshalJSON encodes the scalar in its natural JSON form: null, string,
// number, or boolean. Error values use an {"error": ...} object so they
// survive a round trip.
func (s Scalar) MarshalJSON() ([]byte, error) {
	switch s.Kind {
	case KindEmpty:
		return []byte("null"), nil
	case KindString:
		return json.Marshal(s.Str)
	case KindDouble:
		return json.Marshal(s.Num)
	case KindBoolean:
		return json.Marshal(s.Bool)
	case KindError:
		return json.Marshal(scalarError{Error: s.Str})
	default:
		return json.Marshal(s.Str)
	}
}

// UnmarshalJSON decodes a scalar from its natural JSON form.
func (s *Scalar) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = EmptyScalar
		return nil
	}

	switch data[0] {
	case '"':
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return fmt.Errorf("invalid string scalar: %w", err)
		}
		*s = StringScalar(str)
		return nil
	case '{':
		var se scalarError
		if err := json.Unmarshal(data, &se); err != nil {
			return fmt.Errorf("invalid error scalar: %w", err)
		}
		*s = ErrorScalar(se.Error)
		return nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return fmt.Errorf("invalid boolean scalar: %w", err)
		}
		*s = BooleanScalar(b)
		return nil
	default:
		var f float64
		if err := json.Unmarshal(data, &f); err != nil {
			return fmt.Errorf("invalid numeric scalar: %w", err)
		}
		*s = DoubleScalar(f)
		return nil
	}
}
