package localstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

var _ Slot = (*FileSlot)(nil)

// FileSlot keeps the snapshot in <dir>/<key>.json.
type FileSlot struct {
	path string
}

func NewFileSlot(dir, key string) *FileSlot {
	if key == "" {
		key = DefaultKey
	}
	return &FileSlot{path: filepath.Join(dir, key+".json")}
}

func (s *FileSlot) Path() string {
	return s.path
}

func (s *FileSlot) Load(_ context.Context) (Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Snapshot{}, ErrSlotEmpty
		}
		return Snapshot{}, fmt.Errorf("read slot %s: %w", s.path, err)
	}
	return Decode(data)
}

// Save writes to a temp file in the same directory and renames it over the
// slot, so a crash never leaves a half-written snapshot.
func (s *FileSlot) Save(_ context.Context, snapshot Snapshot) error {
	data, err := Encode(snapshot)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create slot dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp slot: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp slot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp slot: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace slot: %w", err)
	}
	return nil
}
