package storage

import (
	"fmt"

	"github.com/arthur-debert/nanotask/nanotask/fsys"
)

// FileBackend persists snapshots to a single file through a Codec. Writes go
// to a temporary file that is renamed over the target, so readers never see
// a partial snapshot.
type FileBackend struct {
	path  string
	fs    fsys.FileSystem
	codec Codec
}

// NewFileBackend returns a backend for path. A nil fs uses the OS.
func NewFileBackend(path string, fs fsys.FileSystem, codec Codec) *FileBackend {
	if fs == nil {
		fs = &fsys.OSFileSystem{}
	}
	return &FileBackend{path: path, fs: fs, codec: codec}
}

// Path implements Backend.Path
func (b *FileBackend) Path() string { return b.path }

// Load implements Backend.Load
func (b *FileBackend) Load() (*Snapshot, error) {
	data, err := b.fs.ReadFile(b.path)
	if err != nil {
		return nil, err
	}
	snap := &Snapshot{}
	if len(data) == 0 {
		return snap, nil
	}
	if err := b.codec.Unmarshal(data, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

// Save implements Backend.Save
func (b *FileBackend) Save(snap *Snapshot) error {
	data, err := b.codec.Marshal(snap)
	if err != nil {
		return err
	}

	tmpFile := b.path + ".tmp"
	if err := b.fs.WriteFile(tmpFile, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := b.fs.Rename(tmpFile, b.path); err != nil {
		_ = b.fs.Remove(tmpFile)
		return fmt.Errorf("failed to rename file: %w", err)
	}
	return nil
}

// Close implements Backend.Close
func (b *FileBackend) Close() error { return nil }
