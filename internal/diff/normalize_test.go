package diff

import (
	"testing"

	"github.com/xldiff/xldiff/internal/model"
)

func TestNormalizeString(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain text untouched", "Revenue 2024", "Revenue 2024"},
		{"leading and trailing space", "  total  ", "total"},
		{"interior run collapses", "a \t  b", "a b"},
		{"no-break space", "a b", "a b"},
		{"en space", "a b", "a b"},
		{"em space", "a b", "a b"},
		{"ideographic space", "a　b", "a b"},
		{"narrow no-break space", "a b", "a b"},
		{"zero-width space dropped", "a​b", "ab"},
		{"zero-width joiners dropped", "a‌‍b", "ab"},
		{"byte-order mark dropped", "﻿total", "total"},
		{"crlf collapses", "a\r\nb", "a b"},
		{"bare cr collapses", "a\rb", "a b"},
		{"next-line collapses", "ab", "a b"},
		{"line separator collapses", "a b", "a b"},
		{"paragraph separator collapses", "a b", "a b"},
		{"multi-line cell", "first\r\n\r\nsecond", "first second"},
		{"curly single quotes", "it’s ‘fine’", "it's 'fine'"},
		{"curly double quotes", "“quoted”", `"quoted"`},
		{"nfc composition", "résumé", "résumé"},
		{"empty stays empty", "", ""},
		{"whitespace only", " \t\r\n ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeString(tt.in); got != tt.want {
				t.Errorf("NormalizeString(%q) = %q; want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeStringIdempotent(t *testing.T) {
	inputs := []string{
		"  a  b  ",
		"line1\r\nline2\rline3",
		"“hello’s world”",
		"x​﻿y",
		"é é",
		"　 mixed \t spaces ",
		"already normal",
	}
	for _, in := range inputs {
		once := NormalizeString(in)
		twice := NormalizeString(once)
		if once != twice {
			t.Errorf("not idempotent for %q: first %q, second %q", in, once, twice)
		}
	}
}

func TestNormalizeFormula(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"=sum(a1:b2)", "=SUM(A1:B2)"},
		{"  =Sum(A1) ", "=SUM(A1)"},
		{"=SUM(A1)", "=SUM(A1)"},
		{"", ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		if got := NormalizeFormula(tt.in); got != tt.want {
			t.Errorf("NormalizeFormula(%q) = %q; want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeScalar(t *testing.T) {
	num := model.DoubleScalar(3.5)
	if got := NormalizeScalar(num); got != num {
		t.Errorf("NormalizeScalar(%+v) = %+v; want unchanged", num, got)
	}

	b := model.BooleanScalar(true)
	if got := NormalizeScalar(b); got != b {
		t.Error("boolean scalar should pass through unchanged")
	}

	e := model.ErrorScalar("#DIV/0!")
	if got := NormalizeScalar(e); got != e {
		t.Error("error scalar should pass through unchanged")
	}

	s := model.StringScalar(" padded text ")
	if got := NormalizeScalar(s).Str; got != "padded text" {
		t.Errorf("NormalizeScalar string payload = %q; want %q", got, "padded text")
	}
}
