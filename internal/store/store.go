// Package store persists workbook snapshots in a content-addressed local
// store so a baseline captured today can be diffed against next quarter's
// file without keeping the original workbook around. Snapshot models are
// serialized to JSON, compressed with zstd, and stored under a 2-character
// fan-out layout: objects/ab/cdef0123... An index.json maps human labels
// to object ids.
package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/xldiff/xldiff/internal/log"
	"github.com/xldiff/xldiff/internal/model"
)

var (
	ErrSnapshotNotFound = errors.New("snapshot not found")
	ErrAmbiguousRef     = errors.New("ambiguous snapshot reference")
	ErrCorruptSnapshot  = errors.New("corrupt snapshot object")
)

// minPrefixLen is the shortest object id prefix Resolve accepts.
const minPrefixLen = 4

// Entry is one saved snapshot in the index.
type Entry struct {
	ID       string    `json:"id"`
	Label    string    `json:"label"`
	Workbook string    `json:"workbook"`
	Sheets   int       `json:"sheets"`
	Cells    int       `json:"cells"`
	Bytes    int64     `json:"bytes"`
	SavedAt  time.Time `json:"savedAt"`
}

type index struct {
	Entries []Entry `json:"entries"`
}

// Store is a snapshot store rooted at a directory. Directories are
// created lazily on first write.
type Store struct {
	root string
}

// Open returns a store rooted at the given directory.
func Open(root string) *Store {
	return &Store{root: root}
}

// DefaultRoot returns the store location: $XLDIFF_HOME when set,
// otherwise ~/.xldiff.
func DefaultRoot() (string, error) {
	if env := os.Getenv("XLDIFF_HOME"); env != "" {
		return env, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot locate home directory: %w", err)
	}
	return filepath.Join(home, ".xldiff"), nil
}

// Root returns the store's root directory.
func (s *Store) Root() string {
	return s.root
}

func (s *Store) objectPath(id string) string {
	return filepath.Join(s.root, "objects", id[:2], id[2:])
}

func (s *Store) indexPath() string {
	return filepath.Join(s.root, "index.json")
}

// Save persists a snapshot model under the given label and returns its
// index entry. The object id is the SHA-256 of the serialized model, so
// identical snapshots share one object. Saving an existing label replaces
// that label's entry.
func (s *Store) Save(wb *model.WorkbookModel, label string) (Entry, error) {
	if label == "" {
		label = wb.Name
	}

	data, err := json.Marshal(wb)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to serialize snapshot: %w", err)
	}
	sum := sha256.Sum256(data)
	id := hex.EncodeToString(sum[:])

	compressed, err := compressZstd(data)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to compress snapshot: %w", err)
	}

	if _, err := os.Stat(s.objectPath(id)); err != nil {
		dir := filepath.Dir(s.objectPath(id))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return Entry{}, fmt.Errorf("failed to create object directory: %w", err)
		}
		if err := writeFileAtomic(s.objectPath(id), compressed); err != nil {
			return Entry{}, err
		}
	}

	entry := Entry{
		ID:       id,
		Label:    label,
		Workbook: wb.Name,
		Sheets:   len(wb.Sheets),
		Cells:    wb.CellCount(),
		Bytes:    int64(len(compressed)),
		SavedAt:  time.Now().UTC(),
	}

	idx, err := s.loadIndex()
	if err != nil {
		return Entry{}, err
	}
	kept := idx.Entries[:0]
	for _, e := range idx.Entries {
		if e.Label != label {
			kept = append(kept, e)
		}
	}
	idx.Entries = append(kept, entry)
	if err := s.saveIndex(idx); err != nil {
		return Entry{}, err
	}

	log.WithField("label", label).WithField("id", id[:12]).Debug("saved snapshot")
	return entry, nil
}

// Load reads a snapshot model by reference (label, id, or unique id
// prefix) and verifies its content hash.
func (s *Store) Load(ref string) (*model.WorkbookModel, error) {
	entry, err := s.Resolve(ref)
	if err != nil {
		return nil, err
	}

	compressed, err := os.ReadFile(s.objectPath(entry.ID))
	if err != nil {
		return nil, fmt.Errorf("%w: cannot read object %s: %v", ErrCorruptSnapshot, entry.ID[:12], err)
	}
	data, err := decompressZstd(compressed)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptSnapshot, entry.ID[:12], err)
	}

	sum := sha256.Sum256(data)
	if hex.EncodeToString(sum[:]) != entry.ID {
		return nil, fmt.Errorf("%w: %s: content hash mismatch", ErrCorruptSnapshot, entry.ID[:12])
	}

	var wb model.WorkbookModel
	if err := json.Unmarshal(data, &wb); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptSnapshot, entry.ID[:12], err)
	}
	return &wb, nil
}

// List returns every saved snapshot, newest first.
func (s *Store) List() ([]Entry, error) {
	idx, err := s.loadIndex()
	if err != nil {
		return nil, err
	}
	entries := idx.Entries
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].SavedAt.After(entries[j].SavedAt)
	})
	return entries, nil
}

// Resolve matches a reference against the index: exact label first, then
// exact id, then unique id prefix of at least four characters.
func (s *Store) Resolve(ref string) (Entry, error) {
	idx, err := s.loadIndex()
	if err != nil {
		return Entry{}, err
	}

	for _, e := range idx.Entries {
		if e.Label == ref {
			return e, nil
		}
	}
	for _, e := range idx.Entries {
		if e.ID == ref {
			return e, nil
		}
	}

	if len(ref) >= minPrefixLen {
		var matches []Entry
		for _, e := range idx.Entries {
			if strings.HasPrefix(e.ID, ref) {
				matches = append(matches, e)
			}
		}
		switch len(matches) {
		case 1:
			return matches[0], nil
		case 0:
		default:
			return Entry{}, fmt.Errorf("%w: %s matches %d snapshots", ErrAmbiguousRef, ref, len(matches))
		}
	}

	return Entry{}, fmt.Errorf("%w: %s", ErrSnapshotNotFound, ref)
}

// Remove drops a snapshot from the index and deletes its object unless
// another label still references it.
func (s *Store) Remove(ref string) error {
	entry, err := s.Resolve(ref)
	if err != nil {
		return err
	}

	idx, err := s.loadIndex()
	if err != nil {
		return err
	}
	kept := idx.Entries[:0]
	shared := false
	for _, e := range idx.Entries {
		if e.Label == entry.Label {
			continue
		}
		kept = append(kept, e)
		if e.ID == entry.ID {
			shared = true
		}
	}
	idx.Entries = kept
	if err := s.saveIndex(idx); err != nil {
		return err
	}

	if !shared {
		if err := os.Remove(s.objectPath(entry.ID)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove object %s: %w", entry.ID[:12], err)
		}
	}

	log.WithField("label", entry.Label).Debug("removed snapshot")
	return nil
}

func (s *Store) loadIndex() (*index, error) {
	data, err := os.ReadFile(s.indexPath())
	if os.IsNotExist(err) {
		return &index{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot index: %w", err)
	}
	var idx index
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot index: %w", err)
	}
	return &idx, nil
}

func (s *Store) saveIndex(idx *index) error {
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}
	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize snapshot index: %w", err)
	}
	return writeFileAtomic(s.indexPath(), data)
}

// writeFileAtomic writes data via a temp file in the target directory and
// renames it into place, so readers never observe a partial file.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp file %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to rename %s into place: %w", tmpName, err)
	}
	return nil
}
