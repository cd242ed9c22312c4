package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xldiff/xldiff/internal/model"
	"github.com/xldiff/xldiff/internal/output"
	"github.com/xldiff/xldiff/internal/snapshot"
	"github.com/xldiff/xldiff/internal/store"
)

// ResolveFilePath resolves a file path relative to a basepath.
// If basepath is empty or file is absolute, file is returned unchanged.
// Otherwise, filepath.Join(basepath, file) is returned.
func ResolveFilePath(basepath, file string) string {
	if basepath == "" {
		return file
	}
	if filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(basepath, file)
}

// basepath returns the effective base directory: the --basepath flag,
// then the XLDIFF_BASEPATH environment variable, then the config file.
func basepath() string {
	if basepathFlag != "" {
		return basepathFlag
	}
	if env := os.Getenv("XLDIFF_BASEPATH"); env != "" {
		return env
	}
	return cfg.BasePath
}

// resolveFormat returns the effective output format: the --format flag,
// then the config file, then text.
func resolveFormat() (output.Format, error) {
	name := formatFlag
	if name == "" {
		name = cfg.Format
	}
	return output.ParseFormat(name)
}

// openStore opens the snapshot store at the configured root.
func openStore() (*store.Store, error) {
	root := cfg.StoreRoot
	if root == "" {
		var err error
		root, err = store.DefaultRoot()
		if err != nil {
			return nil, fmt.Errorf("failed to locate snapshot store: %w", err)
		}
	}
	return store.Open(root), nil
}

// loadWorkbook loads ref either from an xlsx file on disk or from the
// snapshot store. The returned path is the resolved file path, empty
// when the workbook came from the store.
func loadWorkbook(ref string, opts snapshot.Options) (*model.WorkbookModel, string, error) {
	path := ResolveFilePath(basepath(), ref)
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		wb, err := snapshot.Capture(path, opts)
		return wb, path, err
	}

	st, err := openStore()
	if err != nil {
		return nil, "", err
	}
	wb, err := st.Load(ref)
	if err != nil {
		if errors.Is(err, store.ErrSnapshotNotFound) {
			return nil, "", fmt.Errorf("%s is neither a workbook file nor a stored snapshot", ref)
		}
		return nil, "", err
	}
	return wb, "", nil
}
