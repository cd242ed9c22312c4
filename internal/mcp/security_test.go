package mcp

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestValidateFilePath(t *testing.T) {
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}

	outside := t.TempDir()
	outsideFile := filepath.Join(outside, "book.xlsx")
	if err := os.WriteFile(outsideFile, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	cwdFile := filepath.Join(cwd, "validate_read_test.xlsx")
	if err := os.WriteFile(cwdFile, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	defer os.Remove(cwdFile)

	tests := []struct {
		name    string
		path    string
		allowed []string
		wantErr string
	}{
		{"empty path", "", nil, "file path cannot be empty"},
		{"file in working directory", cwdFile, nil, ""},
		{"relative path in working directory", filepath.Base(cwdFile), nil, ""},
		{"outside working directory by default", outsideFile, nil, "access denied"},
		{"outside explicit allow list", outsideFile, []string{cwd}, "access denied"},
		{"inside allow list", outsideFile, []string{outside}, ""},
		{"multiple allowed directories", outsideFile, []string{cwd, outside}, ""},
		{"missing file", filepath.Join(outside, "absent.xlsx"), []string{outside}, "file not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			original := AllowedBasePaths
			AllowedBasePaths = tt.allowed
			defer func() { AllowedBasePaths = original }()

			got, err := ValidateFilePath(tt.path)
			if tt.wantErr != "" {
				if err == nil {
					t.Fatalf("ValidateFilePath(%q) = %q; want error", tt.path, got)
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("error = %v; want substring %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ValidateFilePath(%q) failed: %v", tt.path, err)
			}
			if got == "" {
				t.Error("Expected non-empty resolved path")
			}
		})
	}
}

func TestValidateFilePathSymlink(t *testing.T) {
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}

	outside := t.TempDir()
	target := filepath.Join(outside, "target.xlsx")
	if err := os.WriteFile(target, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	link := filepath.Join(cwd, "validate_symlink_test.xlsx")
	os.Remove(link)
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("Cannot create symlink: %v", err)
	}
	defer os.Remove(link)

	original := AllowedBasePaths
	defer func() { AllowedBasePaths = original }()

	// The link sits inside the working directory but resolves outside it,
	// so the default allow-list must reject it.
	AllowedBasePaths = nil
	if _, err := ValidateFilePath(link); err == nil {
		t.Error("Expected symlink resolving outside allowed directories to be rejected")
	}

	AllowedBasePaths = []string{outside}
	got, err := ValidateFilePath(link)
	if err != nil {
		t.Fatalf("ValidateFilePath(link) failed: %v", err)
	}
	want, err := filepath.EvalSymlinks(target)
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Errorf("resolved = %q; want symlink target %q", got, want)
	}
}

func TestValidateWritePath(t *testing.T) {
	dir := t.TempDir()

	original := AllowedBasePaths
	AllowedBasePaths = []string{dir}
	defer func() { AllowedBasePaths = original }()

	t.Run("new file in allowed directory", func(t *testing.T) {
		got, err := ValidateWritePath(filepath.Join(dir, "new.xlsx"), false)
		if err != nil {
			t.Fatalf("ValidateWritePath failed: %v", err)
		}
		if filepath.Base(got) != "new.xlsx" {
			t.Errorf("resolved = %q; want new.xlsx basename", got)
		}
	})

	t.Run("existing file requires overwrite", func(t *testing.T) {
		path := filepath.Join(dir, "existing.xlsx")
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}

		if _, err := ValidateWritePath(path, false); err == nil || !strings.Contains(err.Error(), "already exists") {
			t.Errorf("error = %v; want already exists", err)
		}
		if _, err := ValidateWritePath(path, true); err != nil {
			t.Errorf("ValidateWritePath with overwrite failed: %v", err)
		}
	})

	t.Run("missing directory", func(t *testing.T) {
		_, err := ValidateWritePath(filepath.Join(dir, "absent", "new.xlsx"), false)
		if err == nil || !strings.Contains(err.Error(), "directory not found") {
			t.Errorf("error = %v; want directory not found", err)
		}
	})

	t.Run("directory outside allow list", func(t *testing.T) {
		_, err := ValidateWritePath(filepath.Join(t.TempDir(), "new.xlsx"), false)
		if err == nil || !strings.Contains(err.Error(), "access denied") {
			t.Errorf("error = %v; want access denied", err)
		}
	})

	t.Run("empty path", func(t *testing.T) {
		if _, err := ValidateWritePath("", false); err == nil {
			t.Error("Expected error for empty path")
		}
	})
}

func TestInitAllowedPaths(t *testing.T) {
	original := AllowedBasePaths
	defer func() { AllowedBasePaths = original }()

	dir := t.TempDir()
	if err := InitAllowedPaths([]string{dir}); err != nil {
		t.Fatalf("InitAllowedPaths failed: %v", err)
	}
	if len(AllowedBasePaths) != 1 {
		t.Fatalf("AllowedBasePaths = %v; want one entry", AllowedBasePaths)
	}

	if err := InitAllowedPaths([]string{filepath.Join(dir, "absent")}); err == nil {
		t.Error("Expected error for missing directory")
	}

	file := filepath.Join(dir, "file.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := InitAllowedPaths([]string{file}); err == nil || !strings.Contains(err.Error(), "not a directory") {
		t.Errorf("error = %v; want not a directory", err)
	}
}

func TestLoadAllowedPathsFromEnv(t *testing.T) {
	original := AllowedBasePaths
	defer func() { AllowedBasePaths = original }()

	AllowedBasePaths = nil
	t.Setenv(EnvAllowedPaths, "")
	if err := LoadAllowedPathsFromEnv(); err != nil {
		t.Fatalf("LoadAllowedPathsFromEnv failed: %v", err)
	}
	if AllowedBasePaths != nil {
		t.Errorf("AllowedBasePaths = %v; want untouched for unset variable", AllowedBasePaths)
	}

	dirA := t.TempDir()
	dirB := t.TempDir()
	t.Setenv(EnvAllowedPaths, dirA+string(os.PathListSeparator)+dirB)
	if err := LoadAllowedPathsFromEnv(); err != nil {
		t.Fatalf("LoadAllowedPathsFromEnv failed: %v", err)
	}
	if len(AllowedBasePaths) != 2 {
		t.Errorf("AllowedBasePaths = %v; want two entries", AllowedBasePaths)
	}
}

func TestCheckFileSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.bin")
	if err := os.WriteFile(path, []byte(strings.Repeat("x", 100)), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := CheckFileSize(path, 100); err != nil {
		t.Errorf("CheckFileSize at limit failed: %v", err)
	}
	if err := CheckFileSize(path, 99); err == nil || !strings.Contains(err.Error(), "file too large") {
		t.Errorf("error = %v; want file too large", err)
	}
	if err := CheckFileSize(filepath.Join(t.TempDir(), "absent"), 100); err == nil {
		t.Error("Expected error for missing file")
	}
}
