package output

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Format represents output format options
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatTSV  Format = "tsv"
)

// ErrNeedsTable marks a format/value pairing that only works for tabular
// data, e.g. csv output of a nested result.
var ErrNeedsTable = errors.New("format requires tabular data")

// ParseFormat validates a --format flag value. Empty means text.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatText, "":
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatCSV:
		return FormatCSV, nil
	case FormatTSV:
		return FormatTSV, nil
	default:
		return "", fmt.Errorf("unknown format: %s (valid: text, json, csv, tsv)", s)
	}
}

// Formatter renders results for one output format.
type Formatter interface {
	// FormatValue renders a single result object.
	FormatValue(v any) ([]byte, error)

	// FormatTable renders header + rows tabular data.
	FormatTable(header []string, rows [][]string) ([]byte, error)
}

// NewFormatter creates a formatter for the specified format.
func NewFormatter(format Format) (Formatter, error) {
	switch format {
	case FormatJSON:
		return &JSONFormatter{}, nil
	case FormatCSV:
		return &SeparatedFormatter{comma: ','}, nil
	case FormatTSV:
		return &SeparatedFormatter{comma: '\t'}, nil
	case FormatText, "":
		return &TextFormatter{}, nil
	default:
		return nil, fmt.Errorf("unknown format: %s (valid: text, json, csv, tsv)", format)
	}
}

// JSONFormatter outputs JSON format
type JSONFormatter struct{}

func (f *JSONFormatter) FormatValue(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON value: %w", err)
	}
	return append(data, '\n'), nil
}

// FormatTable renders rows as an array of objects keyed by the header.
func (f *JSONFormatter) FormatTable(header []string, rows [][]string) ([]byte, error) {
	objs := make([]map[string]string, len(rows))
	for i, row := range rows {
		obj := make(map[string]string, len(header))
		for j, name := range header {
			if j < len(row) {
				obj[name] = row[j]
			}
		}
		objs[i] = obj
	}
	data, err := json.Marshal(objs)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON table: %w", err)
	}
	return append(data, '\n'), nil
}

// SeparatedFormatter outputs CSV or TSV depending on its separator.
type SeparatedFormatter struct {
	comma rune
}

func (f *SeparatedFormatter) FormatValue(v any) ([]byte, error) {
	return nil, fmt.Errorf("%w: nested result has no separated form", ErrNeedsTable)
}

func (f *SeparatedFormatter) FormatTable(header []string, rows [][]string) ([]byte, error) {
	var buf strings.Builder
	w := csv.NewWriter(&buf)
	w.Comma = f.comma

	if len(header) > 0 {
		if err := w.Write(header); err != nil {
			return nil, fmt.Errorf("failed to write header row: %w", err)
		}
	}
	for i, row := range rows {
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("separated writer error: %w", err)
	}
	return []byte(buf.String()), nil
}

// TextFormatter outputs space-aligned tables for human reading. Commands
// with richer human output render it themselves and bypass the formatter.
type TextFormatter struct{}

func (f *TextFormatter) FormatValue(v any) ([]byte, error) {
	return nil, fmt.Errorf("%w: nested result has no plain-text form", ErrNeedsTable)
}

func (f *TextFormatter) FormatTable(header []string, rows [][]string) ([]byte, error) {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	var buf strings.Builder
	writeRow := func(cells []string) {
		for i, cell := range cells {
			if i > 0 {
				buf.WriteString("  ")
			}
			if i < len(widths) && i < len(cells)-1 {
				fmt.Fprintf(&buf, "%-*s", widths[i], cell)
			} else {
				buf.WriteString(cell)
			}
		}
		buf.WriteByte('\n')
	}

	if len(header) > 0 {
		writeRow(header)
	}
	for _, row := range rows {
		writeRow(row)
	}
	return []byte(buf.String()), nil
}

// FormatTable is a convenience function for formatting tabular data.
func FormatTable(format Format, header []string, rows [][]string) ([]byte, error) {
	f, err := NewFormatter(format)
	if err != nil {
		return nil, err
	}
	return f.FormatTable(header, rows)
}

// FormatSingle is a convenience function for formatting a single object.
func FormatSingle(format Format, v any) ([]byte, error) {
	f, err := NewFormatter(format)
	if err != nil {
		return nil, err
	}
	return f.FormatValue(v)
}
