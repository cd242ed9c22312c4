package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"github.com/xuri/excelize/v2"

	"github.com/xldiff/xldiff/internal/config"
	"github.com/xldiff/xldiff/internal/diff"
)

// writeWorkbook creates an xlsx file with the given rows on Sheet1
func writeWorkbook(t *testing.T, name string, rows [][]interface{}) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			t.Fatal(err)
		}
	}()

	for rowIdx, row := range rows {
		for colIdx, val := range row {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+1)
			if err != nil {
				t.Fatal(err)
			}
			if err := f.SetCellValue("Sheet1", cell, val); err != nil {
				t.Fatal(err)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}

	return path
}

// createTestFile creates the current-side fixture workbook
func createTestFile(t *testing.T) string {
	t.Helper()

	return writeWorkbook(t, "test.xlsx", [][]interface{}{
		{"Name", "Age", "City"},
		{"Alice", 30, "New York"},
		{"Bob", 25, "Boston"},
		{"Charlie", 35, "Chicago"},
	})
}

// createBaselineFile creates a baseline that differs from createTestFile
// in Bob's age (B3) and lacks the Charlie row entirely, so a diff against
// it yields 3 added cells and 1 formula change.
func createBaselineFile(t *testing.T) string {
	t.Helper()

	return writeWorkbook(t, "base.xlsx", [][]interface{}{
		{"Name", "Age", "City"},
		{"Alice", 30, "New York"},
		{"Bob", 26, "Boston"},
	})
}

// resetState clears flag, config, and environment state shared between
// runs. Cobra keeps parsed flag values on the command tree between
// Execute calls, so a previous test's flags would otherwise bleed into
// the next one.
func resetState(t *testing.T) {
	t.Helper()

	formatFlag = ""
	basepathFlag = ""
	exitCode = 0
	cfg = config.Config{}

	if sv, ok := diffCmd.Flags().Lookup("sheet").Value.(pflag.SliceValue); ok {
		if err := sv.Replace(nil); err != nil {
			t.Fatal(err)
		}
	}
	if err := diffCmd.Flags().Set("rects", "false"); err != nil {
		t.Fatal(err)
	}
	if err := annotateCmd.Flags().Set("out", ""); err != nil {
		t.Fatal(err)
	}
	if err := snapshotSaveCmd.Flags().Set("label", ""); err != nil {
		t.Fatal(err)
	}

	t.Setenv("XLDIFF_CONFIG", "")
	t.Setenv("XLDIFF_BASEPATH", "")
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XLDIFF_HOME", t.TempDir())
}

// captureOutput captures stdout while executing a function
func captureOutput(t *testing.T, f func()) string {
	t.Helper()

	oldStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	os.Stdout = w

	// Execute function
	f()

	// Restore stdout and read output
	w.Close()
	os.Stdout = oldStdout

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		t.Fatal(err)
	}

	return buf.String()
}

// silenceUsage routes cobra's usage and error output to io.Discard for
// tests that expect Execute to fail.
func silenceUsage(t *testing.T) {
	t.Helper()

	rootCmd.SetOut(io.Discard)
	rootCmd.SetErr(io.Discard)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})
}

func TestDiffCommand(t *testing.T) {
	resetState(t)
	current := createTestFile(t)
	baseline := createBaselineFile(t)

	output := captureOutput(t, func() {
		rootCmd.SetArgs([]string{"diff", current, baseline})
		if err := rootCmd.Execute(); err != nil {
			t.Errorf("diff command failed: %v", err)
		}
	})

	if !strings.Contains(output, "4 changed cells (3 added, 0 removed, 0 value, 1 formula)") {
		t.Errorf("Expected summary counts in output, got: %s", output)
	}
	if !strings.Contains(output, "A4:C4") {
		t.Errorf("Expected added region A4:C4 in output, got: %s", output)
	}
	if !strings.Contains(output, "B3") {
		t.Errorf("Expected changed cell B3 in output, got: %s", output)
	}
	if got := ExitCode(); got != 1 {
		t.Errorf("ExitCode() = %d; want 1", got)
	}
}

func TestDiffCommandIdentical(t *testing.T) {
	resetState(t)
	current := createTestFile(t)

	output := captureOutput(t, func() {
		rootCmd.SetArgs([]string{"diff", current, current})
		if err := rootCmd.Execute(); err != nil {
			t.Errorf("diff command failed: %v", err)
		}
	})

	if !strings.Contains(output, "no differences") {
		t.Errorf("Expected 'no differences' in output, got: %s", output)
	}
	if got := ExitCode(); got != 0 {
		t.Errorf("ExitCode() = %d; want 0", got)
	}
}

func TestDiffCommandJSON(t *testing.T) {
	resetState(t)
	current := createTestFile(t)
	baseline := createBaselineFile(t)

	output := captureOutput(t, func() {
		rootCmd.SetArgs([]string{"diff", current, baseline, "--format", "json", "--rects"})
		if err := rootCmd.Execute(); err != nil {
			t.Errorf("diff command failed: %v", err)
		}
	})

	var report struct {
		SheetOrder []string                       `json:"sheetOrder"`
		Summary    diff.Counts                    `json:"summary"`
		Regions    map[string]map[string][]string `json:"regions"`
	}
	if err := json.Unmarshal([]byte(output), &report); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, output)
	}

	if len(report.SheetOrder) != 1 || report.SheetOrder[0] != "Sheet1" {
		t.Errorf("sheetOrder = %v; want [Sheet1]", report.SheetOrder)
	}
	if report.Summary.Changed != 4 || report.Summary.Added != 3 || report.Summary.FormulaChanged != 1 {
		t.Errorf("summary = %+v; want 4 changed, 3 added, 1 formula", report.Summary)
	}
	if got := report.Regions["Sheet1"]["added"]; len(got) != 1 || got[0] != "A4:C4" {
		t.Errorf("added regions = %v; want [A4:C4]", got)
	}
	if got := report.Regions["Sheet1"]["formulaChanged"]; len(got) != 1 || got[0] != "B3" {
		t.Errorf("formulaChanged regions = %v; want [B3]", got)
	}
}

func TestDiffCommandSheetFilter(t *testing.T) {
	resetState(t)
	current := createTestFile(t)
	baseline := createBaselineFile(t)

	output := captureOutput(t, func() {
		rootCmd.SetArgs([]string{"diff", current, baseline, "-s", "Sheet1"})
		if err := rootCmd.Execute(); err != nil {
			t.Errorf("diff command failed: %v", err)
		}
	})

	if !strings.Contains(output, "4 changed cells") {
		t.Errorf("Expected changed cells in output, got: %s", output)
	}
}

func TestDiffCommandUnknownSheet(t *testing.T) {
	resetState(t)
	silenceUsage(t)
	current := createTestFile(t)
	baseline := createBaselineFile(t)

	rootCmd.SetArgs([]string{"diff", current, baseline, "-s", "Ghost"})
	err := rootCmd.Execute()
	if err == nil {
		t.Fatal("Expected error for unknown sheet, got nil")
	}
	if !strings.Contains(err.Error(), "Ghost") {
		t.Errorf("Expected error to name the sheet, got: %v", err)
	}
}

func TestSheetsCommand(t *testing.T) {
	resetState(t)
	testFile := createTestFile(t)

	output := captureOutput(t, func() {
		rootCmd.SetArgs([]string{"sheets", testFile})
		if err := rootCmd.Execute(); err != nil {
			t.Errorf("sheets command failed: %v", err)
		}
	})

	if !strings.Contains(output, "Sheet1") {
		t.Errorf("Expected output to contain 'Sheet1', got: %s", output)
	}
	if !strings.Contains(output, "A1:C4") {
		t.Errorf("Expected output to contain range 'A1:C4', got: %s", output)
	}
}

func TestInfoCommand(t *testing.T) {
	resetState(t)
	testFile := createTestFile(t)

	output := captureOutput(t, func() {
		rootCmd.SetArgs([]string{"info", testFile})
		if err := rootCmd.Execute(); err != nil {
			t.Errorf("info command failed: %v", err)
		}
	})

	if !strings.Contains(output, "sheets") {
		t.Errorf("Expected output to contain 'sheets', got: %s", output)
	}
	if !strings.Contains(output, "12") {
		t.Errorf("Expected output to contain cell count 12, got: %s", output)
	}
}

func TestInfoSheetCommand(t *testing.T) {
	resetState(t)
	testFile := createTestFile(t)

	output := captureOutput(t, func() {
		rootCmd.SetArgs([]string{"info", testFile, "Sheet1"})
		if err := rootCmd.Execute(); err != nil {
			t.Errorf("info command failed: %v", err)
		}
	})

	if !strings.Contains(output, "rows") {
		t.Errorf("Expected output to contain 'rows', got: %s", output)
	}
	if !strings.Contains(output, "A1:C4") {
		t.Errorf("Expected output to contain range 'A1:C4', got: %s", output)
	}
}

func TestInfoUnknownSheet(t *testing.T) {
	resetState(t)
	silenceUsage(t)
	testFile := createTestFile(t)

	rootCmd.SetArgs([]string{"info", testFile, "Ghost"})
	err := rootCmd.Execute()
	if err == nil {
		t.Fatal("Expected error for unknown sheet, got nil")
	}
	if !strings.Contains(err.Error(), "Ghost") {
		t.Errorf("Expected error to name the sheet, got: %v", err)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	resetState(t)
	current := createTestFile(t)
	baseline := createBaselineFile(t)

	output := captureOutput(t, func() {
		rootCmd.SetArgs([]string{"snapshot", "save", baseline, "--label", "golden"})
		if err := rootCmd.Execute(); err != nil {
			t.Errorf("snapshot save failed: %v", err)
		}
	})
	if !strings.Contains(output, "saved golden") {
		t.Errorf("Expected save confirmation, got: %s", output)
	}

	output = captureOutput(t, func() {
		rootCmd.SetArgs([]string{"snapshot", "list"})
		if err := rootCmd.Execute(); err != nil {
			t.Errorf("snapshot list failed: %v", err)
		}
	})
	if !strings.Contains(output, "golden") {
		t.Errorf("Expected listing to contain 'golden', got: %s", output)
	}

	output = captureOutput(t, func() {
		rootCmd.SetArgs([]string{"snapshot", "show", "golden"})
		if err := rootCmd.Execute(); err != nil {
			t.Errorf("snapshot show failed: %v", err)
		}
	})
	if !strings.Contains(output, "Sheet1") {
		t.Errorf("Expected output to contain 'Sheet1', got: %s", output)
	}

	// A stored snapshot stands in for the baseline side of a diff.
	output = captureOutput(t, func() {
		rootCmd.SetArgs([]string{"diff", current, "golden"})
		if err := rootCmd.Execute(); err != nil {
			t.Errorf("diff against snapshot failed: %v", err)
		}
	})
	if !strings.Contains(output, "4 changed cells") {
		t.Errorf("Expected changed cells in output, got: %s", output)
	}
	if got := ExitCode(); got != 1 {
		t.Errorf("ExitCode() = %d; want 1", got)
	}

	output = captureOutput(t, func() {
		rootCmd.SetArgs([]string{"snapshot", "rm", "golden"})
		if err := rootCmd.Execute(); err != nil {
			t.Errorf("snapshot rm failed: %v", err)
		}
	})
	if !strings.Contains(output, "removed golden") {
		t.Errorf("Expected removal confirmation, got: %s", output)
	}

	silenceUsage(t)
	rootCmd.SetArgs([]string{"snapshot", "show", "golden"})
	if err := rootCmd.Execute(); err == nil {
		t.Error("Expected error for removed snapshot, got nil")
	}
}

func TestAnnotateCommand(t *testing.T) {
	resetState(t)
	current := createTestFile(t)
	baseline := createBaselineFile(t)

	// Default output path derives from the current workbook.
	defaultOut := strings.TrimSuffix(current, ".xlsx") + ".annotated.xlsx"
	output := captureOutput(t, func() {
		rootCmd.SetArgs([]string{"annotate", current, baseline})
		if err := rootCmd.Execute(); err != nil {
			t.Errorf("annotate command failed: %v", err)
		}
	})
	if !strings.Contains(output, defaultOut) {
		t.Errorf("Expected output to mention %s, got: %s", defaultOut, output)
	}
	if !strings.Contains(output, "4 changed cells") {
		t.Errorf("Expected changed cell count in output, got: %s", output)
	}
	if _, err := os.Stat(defaultOut); err != nil {
		t.Fatalf("annotated workbook not written: %v", err)
	}

	outPath := filepath.Join(t.TempDir(), "marked.xlsx")
	captureOutput(t, func() {
		rootCmd.SetArgs([]string{"annotate", current, baseline, "-o", outPath})
		if err := rootCmd.Execute(); err != nil {
			t.Errorf("annotate command failed: %v", err)
		}
	})

	f, err := excelize.OpenFile(outPath)
	if err != nil {
		t.Fatalf("annotated workbook not readable: %v", err)
	}
	defer f.Close()

	found := false
	for _, name := range f.GetSheetList() {
		if name == "xldiff summary" {
			found = true
		}
	}
	if !found {
		t.Errorf("annotated workbook missing summary sheet, has: %v", f.GetSheetList())
	}
}

func TestAnnotateSnapshotCurrent(t *testing.T) {
	resetState(t)
	baseline := createBaselineFile(t)

	captureOutput(t, func() {
		rootCmd.SetArgs([]string{"snapshot", "save", baseline, "--label", "base"})
		if err := rootCmd.Execute(); err != nil {
			t.Errorf("snapshot save failed: %v", err)
		}
	})

	silenceUsage(t)
	rootCmd.SetArgs([]string{"annotate", "base", baseline})
	err := rootCmd.Execute()
	if err == nil {
		t.Fatal("Expected error for snapshot as current side, got nil")
	}
	if !strings.Contains(err.Error(), "stored snapshot") {
		t.Errorf("Expected error to explain the snapshot restriction, got: %v", err)
	}
}

func TestFormatFlag(t *testing.T) {
	testFile := createTestFile(t)

	tests := []struct {
		format   string
		expected string
	}{
		{"json", `"sheet"`},
		{"csv", "sheet,rows,cols,range"},
		{"tsv", "sheet\trows\tcols\trange"},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			resetState(t)
			output := captureOutput(t, func() {
				rootCmd.SetArgs([]string{"sheets", testFile, "--format", tt.format})
				if err := rootCmd.Execute(); err != nil {
					t.Errorf("sheets command with format %s failed: %v", tt.format, err)
				}
			})

			if !strings.Contains(output, tt.expected) {
				t.Errorf("Expected output to contain '%s', got: %s", tt.expected, output)
			}
		})
	}
}

func TestConfigFileFormat(t *testing.T) {
	resetState(t)
	testFile := createTestFile(t)

	cfgPath := filepath.Join(t.TempDir(), "xldiff.yaml")
	if err := os.WriteFile(cfgPath, []byte("format: json\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("XLDIFF_CONFIG", cfgPath)

	output := captureOutput(t, func() {
		rootCmd.SetArgs([]string{"sheets", testFile})
		if err := rootCmd.Execute(); err != nil {
			t.Errorf("sheets command failed: %v", err)
		}
	})

	if !strings.Contains(output, `"sheet"`) {
		t.Errorf("Expected JSON output from config file format, got: %s", output)
	}
}

func TestDiffWithBasepath(t *testing.T) {
	resetState(t)
	current := createTestFile(t)
	baseline := createBaselineFile(t)

	output := captureOutput(t, func() {
		rootCmd.SetArgs([]string{"diff", "test.xlsx", baseline, "--basepath", filepath.Dir(current)})
		if err := rootCmd.Execute(); err != nil {
			t.Errorf("diff with basepath failed: %v", err)
		}
	})

	if !strings.Contains(output, "4 changed cells") {
		t.Errorf("Expected changed cells in output, got: %s", output)
	}
}

func TestSheetsWithBasepathEnv(t *testing.T) {
	resetState(t)
	testFile := createTestFile(t)
	t.Setenv("XLDIFF_BASEPATH", filepath.Dir(testFile))

	output := captureOutput(t, func() {
		rootCmd.SetArgs([]string{"sheets", "test.xlsx"})
		if err := rootCmd.Execute(); err != nil {
			t.Errorf("sheets command failed: %v", err)
		}
	})

	if !strings.Contains(output, "Sheet1") {
		t.Errorf("Expected output to contain 'Sheet1', got: %s", output)
	}
}

func TestInvalidFile(t *testing.T) {
	resetState(t)
	silenceUsage(t)

	rootCmd.SetArgs([]string{"sheets", "nonexistent.xlsx"})
	err := rootCmd.Execute()
	if err == nil {
		t.Fatal("Expected error for nonexistent file, got nil")
	}
	if !strings.Contains(err.Error(), "neither a workbook file nor a stored snapshot") {
		t.Errorf("Expected store fallback error, got: %v", err)
	}
}
