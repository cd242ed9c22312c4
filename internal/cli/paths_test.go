package cli

import (
	"path/filepath"
	"testing"

	"github.com/xldiff/xldiff/internal/output"
)

func TestResolveFilePath(t *testing.T) {
	tests := []struct {
		name     string
		basepath string
		file     string
		expected string
	}{
		{"empty basepath returns file unchanged", "", "test.xlsx", "test.xlsx"},
		{"absolute file ignores basepath", "/base/path", "/absolute/file.xlsx", "/absolute/file.xlsx"},
		{"relative file joined with basepath", "/base/path", "test.xlsx", filepath.Join("/base/path", "test.xlsx")},
		{"relative file with subdirectory", "/base", "subdir/test.xlsx", filepath.Join("/base", "subdir/test.xlsx")},
		{"empty file with basepath", "/base", "", filepath.Join("/base", "")},
		{"both empty", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveFilePath(tt.basepath, tt.file)
			if got != tt.expected {
				t.Errorf("ResolveFilePath(%q, %q) = %q; want %q", tt.basepath, tt.file, got, tt.expected)
			}
		})
	}
}

func TestBasepathPrecedence(t *testing.T) {
	resetState(t)

	if got := basepath(); got != "" {
		t.Errorf("basepath() = %q; want empty", got)
	}

	cfg.BasePath = "/from/config"
	if got := basepath(); got != "/from/config" {
		t.Errorf("basepath() = %q; want config value", got)
	}

	t.Setenv("XLDIFF_BASEPATH", "/from/env")
	if got := basepath(); got != "/from/env" {
		t.Errorf("basepath() = %q; want env value over config", got)
	}

	basepathFlag = "/from/flag"
	if got := basepath(); got != "/from/flag" {
		t.Errorf("basepath() = %q; want flag value over env", got)
	}
}

func TestResolveFormatPrecedence(t *testing.T) {
	resetState(t)

	format, err := resolveFormat()
	if err != nil || format != output.FormatText {
		t.Errorf("resolveFormat() = %v, %v; want text default", format, err)
	}

	cfg.Format = "csv"
	format, err = resolveFormat()
	if err != nil || format != output.FormatCSV {
		t.Errorf("resolveFormat() = %v, %v; want csv from config", format, err)
	}

	formatFlag = "json"
	format, err = resolveFormat()
	if err != nil || format != output.FormatJSON {
		t.Errorf("resolveFormat() = %v, %v; want json from flag", format, err)
	}

	formatFlag = "bogus"
	if _, err := resolveFormat(); err == nil {
		t.Error("Expected error for unknown format, got nil")
	}
}

func TestDefaultAnnotatePath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"book.xlsx", "book.annotated.xlsx"},
		{filepath.Join("dir", "book.xlsx"), filepath.Join("dir", "book.annotated.xlsx")},
		{"book", "book.annotated.xlsx"},
		{"book.XLSM", "book.annotated.XLSM"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := defaultAnnotatePath(tt.in); got != tt.want {
				t.Errorf("defaultAnnotatePath(%q) = %q; want %q", tt.in, got, tt.want)
			}
		})
	}
}
