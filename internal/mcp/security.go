package mcp

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// AllowedBasePaths contains directories from which files can be read
// and written. If empty, defaults to current working directory.
var AllowedBasePaths []string

// EnvAllowedPaths lists extra allowed directories, separated by the OS
// path list separator.
const EnvAllowedPaths = "XLDIFF_ALLOWED_PATHS"

// InitAllowedPaths resolves and installs the allow-list. Each entry
// must exist and be a directory.
func InitAllowedPaths(paths []string) error {
	resolved := make([]string, 0, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("invalid allowed path %s: %w", p, err)
		}
		real, err := filepath.EvalSymlinks(abs)
		if err != nil {
			return fmt.Errorf("cannot resolve allowed path %s: %w", p, err)
		}
		info, err := os.Stat(real)
		if err != nil || !info.IsDir() {
			return fmt.Errorf("allowed path is not a directory: %s", p)
		}
		resolved = append(resolved, real)
	}
	AllowedBasePaths = resolved
	return nil
}

// LoadAllowedPathsFromEnv installs the allow-list from the
// XLDIFF_ALLOWED_PATHS environment variable. An unset variable leaves
// the working-directory default in place.
func LoadAllowedPathsFromEnv() error {
	env := os.Getenv(EnvAllowedPaths)
	if env == "" {
		return nil
	}
	return InitAllowedPaths(filepath.SplitList(env))
}

// ValidateFilePath ensures the path is safe to read.
func ValidateFilePath(requestedPath string) (string, error) {
	if requestedPath == "" {
		return "", fmt.Errorf("file path cannot be empty")
	}

	absPath, err := filepath.Abs(requestedPath)
	if err != nil {
		return "", fmt.Errorf("invalid path: %w", err)
	}

	// Resolve symlinks to prevent bypass
	realPath, err := filepath.EvalSymlinks(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("file not found: %s", requestedPath)
		}
		return "", fmt.Errorf("cannot resolve path: %w", err)
	}

	if err := checkAllowed(realPath); err != nil {
		return "", err
	}
	return realPath, nil
}

// ValidateWritePath ensures the path is safe to write. The file itself
// may not exist yet, but its directory must. Overwriting an existing
// file requires allowOverwrite.
func ValidateWritePath(requestedPath string, allowOverwrite bool) (string, error) {
	if requestedPath == "" {
		return "", fmt.Errorf("file path cannot be empty")
	}

	absPath, err := filepath.Abs(requestedPath)
	if err != nil {
		return "", fmt.Errorf("invalid path: %w", err)
	}

	if realPath, err := filepath.EvalSymlinks(absPath); err == nil {
		if !allowOverwrite {
			return "", fmt.Errorf("file already exists: %s", requestedPath)
		}
		if err := checkAllowed(realPath); err != nil {
			return "", err
		}
		return realPath, nil
	}

	realDir, err := filepath.EvalSymlinks(filepath.Dir(absPath))
	if err != nil {
		return "", fmt.Errorf("directory not found: %s", filepath.Dir(requestedPath))
	}
	if err := checkAllowed(realDir); err != nil {
		return "", err
	}
	return filepath.Join(realDir, filepath.Base(absPath)), nil
}

// checkAllowed verifies a symlink-resolved path sits inside one of the
// allowed directories.
func checkAllowed(realPath string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("cannot determine working directory: %w", err)
	}

	basePaths := AllowedBasePaths
	if len(basePaths) == 0 {
		basePaths = []string{cwd}
	}

	for _, base := range basePaths {
		absBase, err := filepath.Abs(base)
		if err != nil {
			continue
		}
		realBase, err := filepath.EvalSymlinks(absBase)
		if err != nil {
			continue
		}
		if strings.HasPrefix(realPath, realBase+string(os.PathSeparator)) || realPath == realBase {
			return nil
		}
	}

	return fmt.Errorf("access denied: path outside allowed directories")
}

// CheckFileSize rejects files larger than maxBytes.
func CheckFileSize(path string, maxBytes int64) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("cannot stat file: %w", err)
	}
	if info.Size() > maxBytes {
		return fmt.Errorf("file too large: %d bytes exceeds limit of %d", info.Size(), maxBytes)
	}
	return nil
}
