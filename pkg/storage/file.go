package storage

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore persists each slot as a file under a base directory. Slot names
// are hex-encoded so separators and shopper keys cannot escape the directory.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("storage: file dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (f *FileStore) Get(_ context.Context, name string) ([]byte, error) {
	payload, err := os.ReadFile(f.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrSlotNotFound
		}
		return nil, fmt.Errorf("storage: read slot %q: %w", name, err)
	}
	return payload, nil
}

// Set writes to a temp file and renames it into place so a crash mid-write
// never leaves a torn slot behind.
func (f *FileStore) Set(_ context.Context, name string, payload []byte) error {
	target := f.path(name)
	tmp, err := os.CreateTemp(f.dir, "slot-*")
	if err != nil {
		return fmt.Errorf("storage: temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("storage: write slot %q: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("storage: close slot %q: %w", name, err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("storage: commit slot %q: %w", name, err)
	}
	return nil
}

func (f *FileStore) Delete(_ context.Context, name string) error {
	if err := os.Remove(f.path(name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: delete slot %q: %w", name, err)
	}
	return nil
}

func (f *FileStore) Ping(context.Context) error {
	_, err := os.Stat(f.dir)
	return err
}

func (f *FileStore) path(name string) string {
	return filepath.Join(f.dir, hex.EncodeToString([]byte(name))+".slot")
}
