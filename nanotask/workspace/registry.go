package workspace

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/arthur-debert/nanotask/nanotask/fsys"
	"github.com/arthur-debert/nanotask/nanotask/lease"
	"github.com/arthur-debert/nanotask/nanotask/store"
	"github.com/arthur-debert/nanotask/nanotask/tree"
)

// TaskStore is the persistent task tree of one workspace.
type TaskStore = store.Store[*tree.Tree]

// Settings are the lease parameters used for the registry and every
// workspace it loads.
type Settings struct {
	LockLifetime       time.Duration
	LockAcquireTimeout time.Duration
}

// Option configures a Registry.
type Option func(*Registry)

// WithFileSystem sets a custom FileSystem implementation
func WithFileSystem(fs fsys.FileSystem) Option {
	return func(r *Registry) { r.fs = fs }
}

// WithFileLockFactory sets the factory for lease guard locks
func WithFileLockFactory(factory lease.FileLockFactory) Option {
	return func(r *Registry) { r.lockFactory = factory }
}

// WithTimeFunc sets the clock for leases, snapshots and task trees
func WithTimeFunc(fn func() time.Time) Option {
	return func(r *Registry) { r.timeFunc = fn }
}

// WithLogger sets the logger; slog.Default() otherwise.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) { r.logger = logger }
}

// WithLeaseOptions passes extra options to every lease the registry creates.
func WithLeaseOptions(opts ...lease.Option) Option {
	return func(r *Registry) { r.leaseOpts = append(r.leaseOpts, opts...) }
}

// WithStoreOptions passes extra options to every store the registry creates.
func WithStoreOptions(opts ...store.Option) Option {
	return func(r *Registry) { r.storeOpts = append(r.storeOpts, opts...) }
}

// Registry is the persistent workspace list plus the workspace currently
// loaded by this process.
type Registry struct {
	store    *store.Store[*List]
	settings Settings

	loaded      *Workspace
	loadedStore *TaskStore

	fs          fsys.FileSystem
	lockFactory lease.FileLockFactory
	timeFunc    func() time.Time
	logger      *slog.Logger
	leaseOpts   []lease.Option
	storeOpts   []store.Option
}

// NewRegistry returns a registry stored at path and guarded by lockPath.
// Call Initialize before use.
func NewRegistry(path, lockPath string, settings Settings, opts ...Option) (*Registry, error) {
	r := &Registry{
		settings:    settings,
		fs:          &fsys.OSFileSystem{},
		lockFactory: lease.FlockFactory{},
		timeFunc:    time.Now,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}

	s, err := openStore(r, path, lockPath, DecodeList)
	if err != nil {
		return nil, err
	}
	r.store = s
	return r, nil
}

func openStore[P store.Payload](r *Registry, path, lockPath string, decode store.Decoder[P]) (*store.Store[P], error) {
	leaseOpts := append([]lease.Option{
		lease.WithFileSystem(r.fs),
		lease.WithFileLockFactory(r.lockFactory),
		lease.WithTimeFunc(r.timeFunc),
		lease.WithLogger(r.logger),
	}, r.leaseOpts...)

	l, err := lease.New(lockPath, r.settings.LockLifetime, r.settings.LockAcquireTimeout, leaseOpts...)
	if err != nil {
		return nil, err
	}

	storeOpts := append([]store.Option{
		store.WithFileSystem(r.fs),
		store.WithTimeFunc(r.timeFunc),
		store.WithLogger(r.logger),
	}, r.storeOpts...)

	return store.New(path, l, decode, storeOpts...)
}

// Store exposes the registry's own persistent store, e.g. for polling.
func (r *Registry) Store() *store.Store[*List] { return r.store }

// Initialize loads the workspace list.
func (r *Registry) Initialize(ctx context.Context, confirm store.ConfirmFunc) error {
	return r.store.Initialize(ctx, confirm)
}

// List returns the registered workspaces in order.
func (r *Registry) List() []Workspace {
	return r.store.Payload().Items()
}

// Get returns the workspace at a zero-based index.
func (r *Registry) Get(index int) (Workspace, error) {
	return r.store.Payload().Get(index)
}

// Add registers a workspace.
func (r *Registry) Add(ctx context.Context, confirm store.ConfirmFunc, ws Workspace) error {
	return r.store.Edit(ctx, confirm, func(l *List) error {
		return l.Add(ws)
	})
}

// Remove unregisters a workspace, unloading it if it is the loaded one.
// With deleteFiles its store, lease and guard files are removed too; a file
// that cannot be removed is logged and skipped.
func (r *Registry) Remove(ctx context.Context, confirm store.ConfirmFunc, ws Workspace, deleteFiles bool) error {
	err := r.store.Edit(ctx, confirm, func(l *List) error {
		if !l.Remove(ws) {
			return fmt.Errorf("%s: %w", ws, ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if r.loaded != nil && r.loaded.Equal(ws) {
		r.unload()
	}

	if deleteFiles {
		for _, path := range []string{ws.StorePath, ws.LockPath, lease.GuardPath(ws.LockPath)} {
			if err := r.fs.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
				r.logger.Error("failed to delete workspace file", "path", path, "error", err)
			}
		}
	}
	return nil
}

// Load opens the workspace's task store and makes it the loaded one. A
// previously loaded workspace is cleaned up first.
func (r *Registry) Load(ctx context.Context, ws Workspace, confirm store.ConfirmFunc) (*TaskStore, error) {
	decode := func(data []byte) (*tree.Tree, error) {
		return tree.Decode(data, r.timeFunc)
	}
	s, err := openStore(r, ws.StorePath, ws.LockPath, decode)
	if err != nil {
		return nil, err
	}
	if err := s.Initialize(ctx, confirm); err != nil {
		return nil, err
	}

	r.unload()
	loaded := ws
	r.loaded = &loaded
	r.loadedStore = s
	r.logger.Info("workspace loaded", "workspace", ws.StorePath)
	return s, nil
}

// Loaded returns the loaded workspace and its store, if any.
func (r *Registry) Loaded() (Workspace, *TaskStore, bool) {
	if r.loaded == nil {
		return Workspace{}, nil, false
	}
	return *r.loaded, r.loadedStore, true
}

func (r *Registry) unload() {
	if r.loadedStore != nil {
		if err := r.loadedStore.Cleanup(); err != nil {
			r.logger.Warn("failed to clean up workspace", "workspace", r.loaded.StorePath, "error", err)
		}
	}
	r.loaded = nil
	r.loadedStore = nil
}

// Close cleans up the loaded workspace and the registry store.
func (r *Registry) Close() error {
	r.unload()
	return r.store.Cleanup()
}
