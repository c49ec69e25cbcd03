package storage

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/arthur-debert/nanotask/nanotask/fsys"
)

// Option configures OpenPath.
type Option func(*openOptions)

type openOptions struct {
	fs       fsys.FileSystem
	timeFunc func() time.Time
}

// WithFileSystem sets the file system used by file backends. SQLite always
// uses the OS.
func WithFileSystem(fs fsys.FileSystem) Option {
	return func(o *openOptions) { o.fs = fs }
}

// WithTimeFunc sets the clock used for snapshot metadata.
func WithTimeFunc(fn func() time.Time) Option {
	return func(o *openOptions) { o.timeFunc = fn }
}

// BackendFor picks the backend from the file extension: .db and .sqlite use
// SQLite, .yaml and .yml use YAML, anything else JSON.
func BackendFor(path string, fs fsys.FileSystem) Backend {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return NewSQLiteBackend(path)
	case ".yaml", ".yml":
		return NewFileBackend(path, fs, YAMLCodec{})
	}
	return NewFileBackend(path, fs, JSONCodec{})
}

// OpenPath opens the shelf stored at path.
func OpenPath(path string, opts ...Option) (*Shelf, error) {
	o := openOptions{fs: &fsys.OSFileSystem{}, timeFunc: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return Open(BackendFor(path, o.fs), o.timeFunc)
}
