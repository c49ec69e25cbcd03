// Package storage provides the backing object store: a shelf of named slots,
// each holding one encoded payload, persisted as a whole by a Backend.
package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"time"
)

// Version is written into the metadata of every snapshot.
const Version = "1.0"

// ErrClosed is returned by operations on a closed shelf.
var ErrClosed = errors.New("shelf is closed")

// Metadata contains storage metadata
type Metadata struct {
	Version   string    `json:"version" yaml:"version"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// Snapshot is the complete content of a shelf.
type Snapshot struct {
	Metadata Metadata
	Slots    map[string][]byte
}

func newSnapshot(now time.Time) *Snapshot {
	return &Snapshot{
		Metadata: Metadata{Version: Version, CreatedAt: now, UpdatedAt: now},
		Slots:    make(map[string][]byte),
	}
}

// Backend loads and saves whole snapshots.
type Backend interface {
	// Path is the file the backend persists to
	Path() string

	// Load reads the snapshot. A missing file yields an error wrapping
	// fs.ErrNotExist.
	Load() (*Snapshot, error)

	// Save durably replaces the stored snapshot
	Save(snap *Snapshot) error

	// Close releases any resources held by the backend
	Close() error
}

// OpenError reports a shelf that could not be opened.
type OpenError struct {
	Path string
	Err  error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("open store %s: %v", e.Path, e.Err)
}

func (e *OpenError) Unwrap() error { return e.Err }

// Shelf is an open, in-memory view of a snapshot. Changes become durable on
// Sync or Close.
type Shelf struct {
	backend  Backend
	snap     *Snapshot
	closed   bool
	timeFunc func() time.Time
}

// Open loads the backend's snapshot. A missing file is bootstrapped with an
// empty snapshot.
func Open(backend Backend, timeFunc func() time.Time) (*Shelf, error) {
	if timeFunc == nil {
		timeFunc = time.Now
	}

	snap, err := backend.Load()
	if errors.Is(err, fs.ErrNotExist) {
		snap = newSnapshot(timeFunc())
		err = backend.Save(snap)
	}
	if err != nil {
		_ = backend.Close()
		return nil, &OpenError{Path: backend.Path(), Err: err}
	}
	if snap.Slots == nil {
		snap.Slots = make(map[string][]byte)
	}

	return &Shelf{backend: backend, snap: snap, timeFunc: timeFunc}, nil
}

// Path is the file behind the shelf.
func (s *Shelf) Path() string { return s.backend.Path() }

// Metadata returns the snapshot metadata.
func (s *Shelf) Metadata() Metadata { return s.snap.Metadata }

// Get returns a copy of the slot content.
func (s *Shelf) Get(key string) ([]byte, bool) {
	if s.closed {
		return nil, false
	}
	v, ok := s.snap.Slots[key]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), v...), true
}

// Has reports whether the slot exists.
func (s *Shelf) Has(key string) bool {
	if s.closed {
		return false
	}
	_, ok := s.snap.Slots[key]
	return ok
}

// Set replaces the slot content in memory.
func (s *Shelf) Set(key string, value []byte) error {
	if s.closed {
		return ErrClosed
	}
	s.snap.Slots[key] = append([]byte(nil), value...)
	return nil
}

// Keys lists the slots in sorted order.
func (s *Shelf) Keys() []string {
	keys := make([]string, 0, len(s.snap.Slots))
	for k := range s.snap.Slots {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Sync writes the snapshot through the backend.
func (s *Shelf) Sync() error {
	if s.closed {
		return ErrClosed
	}
	s.snap.Metadata.UpdatedAt = s.timeFunc()
	if err := s.backend.Save(s.snap); err != nil {
		return fmt.Errorf("sync %s: %w", s.backend.Path(), err)
	}
	return nil
}

// Close syncs and releases the backend. Closing twice is a no-op.
func (s *Shelf) Close() error {
	if s.closed {
		return nil
	}
	syncErr := s.Sync()
	s.closed = true
	closeErr := s.backend.Close()
	if syncErr != nil {
		return syncErr
	}
	return closeErr
}

// Discard releases the backend without writing.
func (s *Shelf) Discard() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.backend.Close()
}
