package diff

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/xldiff/xldiff/internal/model"
)

// lineBreaks unifies every line-break sequence to a single line feed.
// Patterns are ordered so CRLF wins over a lone CR.
var lineBreaks = strings.NewReplacer(
	"\r\n", "\n",
	"\r", "\n",
	"", "\n", // next line
	" ", "\n", // line separator
	" ", "\n", // paragraph separator
)

// quoteGlyphs maps curly quote glyphs to their straight equivalents.
var quoteGlyphs = strings.NewReplacer(
	"‘", "'",
	"’", "'",
	"“", `"`,
	"”", `"`,
)

// NormalizeFormula canonicalizes formula text for comparison: uppercased,
// surrounding whitespace removed. Empty input stays empty.
func NormalizeFormula(text string) string {
	return strings.ToUpper(strings.TrimSpace(text))
}

// NormalizeString canonicalizes cell text so that variation preserved
// differently by different extraction paths does not register as a
// difference: line breaks become line feeds, Unicode space variants become
// plain spaces, zero-width code points are dropped, the result is composed
// to NFC, whitespace runs collapse to one space, curly quotes become
// straight quotes, and surrounding whitespace is trimmed. The function is
// pure and idempotent.
func NormalizeString(s string) string {
	if s == "" {
		return s
	}
	s = lineBreaks.Replace(s)
	s = strings.Map(mapSpaceVariant, s)
	s = norm.NFC.String(s)
	s = collapseWhitespace(s)
	s = quoteGlyphs.Replace(s)
	return strings.TrimSpace(s)
}

// NormalizeScalar returns the scalar with any string payload canonicalized
// by NormalizeString. Non-string scalars pass through unchanged.
func NormalizeScalar(v model.Scalar) model.Scalar {
	if v.Kind == model.KindString {
		v.Str = NormalizeString(v.Str)
	}
	return v
}

// mapSpaceVariant folds exotic space code points to a plain space and
// drops the zero-width family, including a stray byte-order mark.
func mapSpaceVariant(r rune) rune {
	switch r {
	case '​', '‌', '‍', '\uFEFF':
		return -1
	case ' ', ' ', '　':
		return ' '
	}
	if r >= ' ' && r <= ' ' {
		return ' '
	}
	return r
}

// collapseWhitespace reduces every run of whitespace to a single plain
// space. Interior line structure does not survive: comparison treats
// intra-cell wrapping as inconsequential.
func collapseWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inRun := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !inRun {
				b.WriteByte(' ')
				inRun = true
			}
			continue
		}
		inRun = false
		b.WriteRune(r)
	}
	return b.String()
}
