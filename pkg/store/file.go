package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/canopyviz/canopy/pkg/wire"
)

// FileStore keeps snapshots as JSON files in a directory, one file per
// snapshot, named after the snapshot.
type FileStore struct {
	dir string
}

// NewFileStore creates a file store rooted at dir, creating it if
// needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating snapshot dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Save writes a snapshot, replacing any existing one with the same
// name. Writes go through a temp file and rename.
func (s *FileStore) Save(ctx context.Context, snap wire.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validName(snap.Name); err != nil {
		return err
	}
	raw, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path(snap.Name))
}

// Load reads a snapshot by name.
func (s *FileStore) Load(ctx context.Context, name string) (wire.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return wire.Snapshot{}, err
	}
	if err := validName(name); err != nil {
		return wire.Snapshot{}, err
	}
	raw, err := os.ReadFile(s.path(name))
	if os.IsNotExist(err) {
		return wire.Snapshot{}, fmt.Errorf("%q: %w", name, ErrNotFound)
	}
	if err != nil {
		return wire.Snapshot{}, err
	}
	var snap wire.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return wire.Snapshot{}, fmt.Errorf("decoding snapshot %q: %w", name, err)
	}
	return snap, nil
}

// List returns the stored snapshot names in sorted order.
func (s *FileStore) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		name, ok := strings.CutSuffix(entry.Name(), ".json")
		if !ok || entry.IsDir() {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Delete removes a snapshot. Deleting a missing snapshot returns
// ErrNotFound.
func (s *FileStore) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validName(name); err != nil {
		return err
	}
	err := os.Remove(s.path(name))
	if os.IsNotExist(err) {
		return fmt.Errorf("%q: %w", name, ErrNotFound)
	}
	return err
}

// Close is a no-op for the file backend.
func (s *FileStore) Close(ctx context.Context) error { return nil }

func (s *FileStore) path(name string) string {
	return filepath.Join(s.dir, name+".json")
}

// validName rejects names that would escape the store directory.
func validName(name string) error {
	if name == "" {
		return fmt.Errorf("snapshot name must not be empty")
	}
	if strings.ContainsAny(name, "/\\") || name == "." || name == ".." {
		return fmt.Errorf("invalid snapshot name %q", name)
	}
	return nil
}
