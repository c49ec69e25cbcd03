// Package store binds one payload to one backing shelf and one lease.
//
// A Store keeps the payload in memory and persists it to a named slot of the
// shelf. Writes require the lease; reads render the last loaded snapshot. The
// store watches the backing file's modification time to notice writes by
// other processes and reloads on demand.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/arthur-debert/nanotask/nanotask/fsys"
	"github.com/arthur-debert/nanotask/nanotask/lease"
	"github.com/arthur-debert/nanotask/nanotask/storage"
)

// Payload is the in-memory state persisted by a Store.
type Payload interface {
	json.Marshaler

	// Slot is the shelf key the payload is stored under
	Slot() string

	// Dirty reports unsaved changes
	Dirty() bool

	// ClearDirty is called after a successful flush
	ClearDirty()
}

// Decoder builds a payload from its stored form. nil data yields an empty
// payload.
type Decoder[P Payload] func(data []byte) (P, error)

// ConfirmFunc decides whether to break a lease held by someone else. The
// store never breaks a lease without a yes from it.
type ConfirmFunc func(holder lease.Record) bool

// Store is a lease-guarded persistent payload.
type Store[P Payload] struct {
	path    string
	lease   *lease.Lease
	decode  Decoder[P]
	payload P
	slot    string

	shelf        *storage.Shelf
	lastModified time.Time
	initialized  bool
	poisoned     error

	fs             fsys.FileSystem
	timeFunc       func() time.Time
	acquireTimeout time.Duration
	logger         *slog.Logger
	lockManager    lockManager
}

// Option configures a Store.
type Option func(*options)

type options struct {
	fs             fsys.FileSystem
	timeFunc       func() time.Time
	acquireTimeout time.Duration
	logger         *slog.Logger
}

// WithFileSystem sets a custom FileSystem implementation
func WithFileSystem(fs fsys.FileSystem) Option {
	return func(o *options) { o.fs = fs }
}

// WithTimeFunc sets the clock used for snapshot metadata
func WithTimeFunc(fn func() time.Time) Option {
	return func(o *options) { o.timeFunc = fn }
}

// WithAcquireTimeout overrides how long lease acquisition waits. The lease's
// own acquire timeout is used otherwise.
func WithAcquireTimeout(d time.Duration) Option {
	return func(o *options) { o.acquireTimeout = d }
}

// WithLogger sets the logger; slog.Default() otherwise.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// New returns an uninitialized store for the backing file at path. The
// payload starts empty until Initialize loads it.
func New[P Payload](path string, l *lease.Lease, decode Decoder[P], opts ...Option) (*Store[P], error) {
	o := options{
		fs:       &fsys.OSFileSystem{},
		timeFunc: time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	empty, err := decode(nil)
	if err != nil {
		return nil, fmt.Errorf("create empty payload: %w", err)
	}

	return &Store[P]{
		path:           path,
		lease:          l,
		decode:         decode,
		payload:        empty,
		slot:           empty.Slot(),
		fs:             o.fs,
		timeFunc:       o.timeFunc,
		acquireTimeout: o.acquireTimeout,
		logger:         o.logger.With("store", path),
	}, nil
}

// Path returns the backing file path.
func (s *Store[P]) Path() string { return s.path }

// Lease returns the lease guarding the store.
func (s *Store[P]) Lease() *lease.Lease { return s.lease }

// Payload returns the live payload. Mutate it through Edit, or hold the
// lease and call FlushIfDirty afterwards.
func (s *Store[P]) Payload() P {
	p, _ := executeWithResult(&s.lockManager, readOperation, func() (P, error) {
		return s.payload, nil
	})
	return p
}

// Dirty reports whether the payload has unsaved changes.
func (s *Store[P]) Dirty() bool {
	dirty, _ := executeWithResult(&s.lockManager, readOperation, func() (bool, error) {
		return s.payload.Dirty(), nil
	})
	return dirty
}

// Initialized reports whether Initialize succeeded.
func (s *Store[P]) Initialized() bool {
	ok, _ := executeWithResult(&s.lockManager, readOperation, func() (bool, error) {
		return s.initialized, nil
	})
	return ok
}

// LastModified is the backing file modification time last observed.
func (s *Store[P]) LastModified() time.Time {
	t, _ := executeWithResult(&s.lockManager, readOperation, func() (time.Time, error) {
		return s.lastModified, nil
	})
	return t
}

// acquire takes the lease, asking confirm before breaking someone else's.
func (s *Store[P]) acquire(ctx context.Context, confirm ConfirmFunc) error {
	err := s.lease.TryAcquire(ctx, s.acquireTimeout)
	if err == nil {
		return nil
	}

	var held *lease.HeldError
	if !errors.As(err, &held) || confirm == nil || !confirm(held.Holder) {
		return err
	}

	s.logger.Warn("overriding lease on user request", "holder_pid", held.Holder.PID,
		"holder_host", held.Holder.Hostname)
	return s.lease.ForceBreak(ctx)
}

func (s *Store[P]) release() {
	if err := s.lease.Release(); err != nil {
		s.logger.Error("failed to release lease", "error", err)
	}
}

func (s *Store[P]) statModTime() (time.Time, error) {
	info, err := s.fs.Stat(s.path)
	if err != nil {
		return time.Time{}, fmt.Errorf("stat %s: %w", s.path, err)
	}
	return info.ModTime(), nil
}

func (s *Store[P]) openShelf() (*storage.Shelf, error) {
	return storage.OpenPath(s.path, storage.WithFileSystem(s.fs), storage.WithTimeFunc(s.timeFunc))
}

// open loads the shelf and decodes the payload from it.
func (s *Store[P]) open() error {
	shelf, err := s.openShelf()
	if err != nil {
		return err
	}

	data, _ := shelf.Get(s.slot)
	payload, err := s.decode(data)
	if err != nil {
		_ = shelf.Discard()
		return &storage.OpenError{Path: s.path, Err: err}
	}

	modTime, err := s.statModTime()
	if err != nil {
		_ = shelf.Discard()
		return err
	}

	s.shelf = shelf
	s.payload = payload
	s.lastModified = modTime
	return nil
}

// Initialize takes the lease, loads the backing file (creating it on first
// run) and releases the lease again. When another process holds the lease,
// confirm decides whether to break it; declining fails with
// ErrNotInitialized. A store poisoned by clock skew stays poisoned and
// Initialize returns the *ClockSkewError; only a new Store clears it.
func (s *Store[P]) Initialize(ctx context.Context, confirm ConfirmFunc) error {
	return s.lockManager.execute(writeOperation, func() error {
		if s.poisoned != nil {
			return s.poisoned
		}
		if err := s.acquire(ctx, confirm); err != nil {
			return fmt.Errorf("%w: %w", ErrNotInitialized, err)
		}
		defer s.release()

		if s.shelf != nil {
			_ = s.shelf.Discard()
			s.shelf = nil
		}
		if err := s.open(); err != nil {
			return fmt.Errorf("%w: %w", ErrNotInitialized, err)
		}
		s.initialized = true
		s.logger.Debug("store initialized", "modified", s.lastModified)
		return nil
	})
}

// HasExternalChange reports whether the backing file was written since this
// store last loaded or flushed it. A modification time that moved backwards
// poisons the store with a *ClockSkewError.
func (s *Store[P]) HasExternalChange() (bool, error) {
	return executeWithResult(&s.lockManager, writeOperation, s.hasExternalChange)
}

func (s *Store[P]) hasExternalChange() (bool, error) {
	if !s.initialized {
		return false, ErrNotInitialized
	}
	if s.poisoned != nil {
		return false, s.poisoned
	}

	current, err := s.statModTime()
	if err != nil {
		return false, err
	}
	if current.Before(s.lastModified) {
		s.poisoned = &ClockSkewError{Path: s.path, Previous: s.lastModified, Observed: current}
		s.logger.Error("clock skew detected, refusing further writes", "error", s.poisoned)
		return false, s.poisoned
	}
	return current.After(s.lastModified), nil
}

// ReloadIfChanged replaces the in-memory payload with the on-disk snapshot
// when another process wrote it. It returns true when the caller should
// re-render. Unsaved local changes are discarded.
func (s *Store[P]) ReloadIfChanged(ctx context.Context, confirm ConfirmFunc) (bool, error) {
	return executeWithResult(&s.lockManager, writeOperation, func() (bool, error) {
		changed, err := s.hasExternalChange()
		if err != nil || !changed {
			return false, err
		}

		if err := s.acquire(ctx, confirm); err != nil {
			return false, err
		}
		defer s.release()

		if err := s.reload(); err != nil {
			return false, err
		}
		return true, nil
	})
}

func (s *Store[P]) reload() error {
	if s.payload.Dirty() {
		s.logger.Warn("discarding unsaved changes in favour of newer snapshot")
	}
	if s.shelf != nil {
		_ = s.shelf.Discard()
		s.shelf = nil
	}
	if err := s.open(); err != nil {
		return err
	}
	s.logger.Info("reloaded store after external change", "modified", s.lastModified)
	return nil
}

// FlushIfDirty writes the payload when it has unsaved changes. The caller
// must own the lease; a lease of ours past its lifetime still counts, since
// nobody has taken it over. A failed write leaves the payload dirty for the
// next flush to retry.
func (s *Store[P]) FlushIfDirty() error {
	return s.lockManager.execute(writeOperation, s.flushIfDirty)
}

func (s *Store[P]) flushIfDirty() error {
	if !s.initialized {
		return ErrNotInitialized
	}
	if s.poisoned != nil {
		return s.poisoned
	}
	if !s.payload.Dirty() {
		return nil
	}
	if !s.lease.IsOurs() {
		return ErrLeaseNotHeld
	}
	if s.shelf == nil {
		shelf, err := s.openShelf()
		if err != nil {
			return err
		}
		s.shelf = shelf
	}

	data, err := json.Marshal(s.payload)
	if err != nil {
		return fmt.Errorf("encode %s: %w", s.slot, err)
	}
	if err := s.shelf.Set(s.slot, data); err != nil {
		return err
	}
	if err := s.shelf.Close(); err != nil {
		// Close marks the shelf closed even when the write failed.
		s.shelf = nil
		return fmt.Errorf("flush %s: %w", s.path, err)
	}
	s.payload.ClearDirty()

	shelf, err := s.openShelf()
	if err != nil {
		s.shelf = nil
		return err
	}
	s.shelf = shelf

	modTime, err := s.statModTime()
	if err != nil {
		return err
	}
	s.lastModified = modTime
	s.logger.Debug("flushed store", "modified", modTime)
	return nil
}

// FlushIfDirtyLocked takes the lease, flushes and releases. It never breaks
// someone else's lease; it is the autosave path.
func (s *Store[P]) FlushIfDirtyLocked(ctx context.Context) error {
	return s.lockManager.execute(writeOperation, func() error {
		if !s.initialized {
			return ErrNotInitialized
		}
		if !s.payload.Dirty() {
			return nil
		}
		if err := s.acquire(ctx, nil); err != nil {
			return err
		}
		defer s.release()
		return s.flushIfDirty()
	})
}

// Edit runs one locked edit cycle: take the lease, pick up any external
// change, apply fn to the payload, flush and release. An error from fn is
// returned without flushing.
func (s *Store[P]) Edit(ctx context.Context, confirm ConfirmFunc, fn func(P) error) error {
	return s.lockManager.execute(writeOperation, func() error {
		if !s.initialized {
			return ErrNotInitialized
		}
		if s.poisoned != nil {
			return s.poisoned
		}
		if err := s.acquire(ctx, confirm); err != nil {
			return err
		}
		defer s.release()

		changed, err := s.hasExternalChange()
		if err != nil {
			return err
		}
		if changed {
			if err := s.reload(); err != nil {
				return err
			}
		}

		if err := fn(s.payload); err != nil {
			return err
		}
		return s.flushIfDirty()
	})
}

// IsOtherUserEditing reports whether another process holds an active lease.
// It never tries to acquire it.
func (s *Store[P]) IsOtherUserEditing() bool {
	return s.lease.IsHeldByOther()
}

// Cleanup releases the lease whatever the dirty state, and drops the open
// shelf without writing it. Flush first to keep the last edit.
func (s *Store[P]) Cleanup() error {
	return s.lockManager.execute(writeOperation, func() error {
		if s.shelf != nil {
			_ = s.shelf.Discard()
			s.shelf = nil
		}
		s.initialized = false
		return s.lease.Release()
	})
}
