// Package session drives the per-process poll loop: pick up writes from other
// processes and autosave local changes on a fixed interval.
package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/arthur-debert/nanotask/nanotask/lease"
	"github.com/arthur-debert/nanotask/nanotask/store"
)

// Store is the part of store.Store the poller drives.
type Store interface {
	ReloadIfChanged(ctx context.Context, confirm store.ConfirmFunc) (bool, error)
	FlushIfDirtyLocked(ctx context.Context) error
	Dirty() bool
	Path() string
}

// Poller runs one reload-then-autosave step per tick.
type Poller struct {
	store            Store
	pollInterval     time.Duration
	autosaveInterval time.Duration
	timeFunc         func() time.Time
	onReload         func()
	logger           *slog.Logger

	lastSave time.Time
}

// Option configures a Poller.
type Option func(*Poller)

// WithOnReload sets the callback run after the store reloaded, typically a
// re-render.
func WithOnReload(fn func()) Option {
	return func(p *Poller) { p.onReload = fn }
}

// WithTimeFunc sets the clock used for autosave scheduling.
func WithTimeFunc(fn func() time.Time) Option {
	return func(p *Poller) { p.timeFunc = fn }
}

// WithLogger sets the logger; slog.Default() otherwise.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Poller) { p.logger = logger }
}

// NewPoller returns a poller ticking every pollInterval and saving dirty
// state at most every autosaveInterval.
func NewPoller(s Store, pollInterval, autosaveInterval time.Duration, opts ...Option) *Poller {
	p := &Poller{
		store:            s,
		pollInterval:     pollInterval,
		autosaveInterval: autosaveInterval,
		timeFunc:         time.Now,
		onReload:         func() {},
		logger:           slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With("store", s.Path())
	p.lastSave = p.timeFunc()
	return p
}

// Tick reloads the store if another process wrote it, then autosaves when
// the interval elapsed. Lease contention is not an error: the save is
// retried on a later tick. A clock skew is returned and ends Run.
func (p *Poller) Tick(ctx context.Context) error {
	reloaded, err := p.store.ReloadIfChanged(ctx, nil)
	switch {
	case errors.Is(err, store.ErrClockSkew):
		return err
	case errors.Is(err, lease.ErrHeld):
		p.logger.Debug("reload postponed, store is being edited elsewhere")
	case err != nil:
		return err
	case reloaded:
		p.onReload()
	}

	if !p.store.Dirty() {
		p.lastSave = p.timeFunc()
		return nil
	}
	if p.timeFunc().Sub(p.lastSave) < p.autosaveInterval {
		return nil
	}

	err = p.store.FlushIfDirtyLocked(ctx)
	switch {
	case errors.Is(err, lease.ErrHeld):
		p.logger.Info("autosave postponed, store is being edited elsewhere")
		return nil
	case err != nil:
		return err
	}
	p.lastSave = p.timeFunc()
	p.logger.Debug("autosaved")
	return nil
}

// Run ticks until ctx is done or a tick fails.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		if err := p.Tick(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
