package session_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/arthur-debert/nanotask/nanotask/lease"
	"github.com/arthur-debert/nanotask/nanotask/session"
	"github.com/arthur-debert/nanotask/nanotask/store"
)

type fakeStore struct {
	changed   bool
	dirty     bool
	reloadErr error
	flushErr  error

	reloads int
	flushes int
}

func (f *fakeStore) ReloadIfChanged(ctx context.Context, confirm store.ConfirmFunc) (bool, error) {
	if f.reloadErr != nil {
		return false, f.reloadErr
	}
	if !f.changed {
		return false, nil
	}
	f.changed = false
	f.reloads++
	return true, nil
}

func (f *fakeStore) FlushIfDirtyLocked(ctx context.Context) error {
	if f.flushErr != nil {
		return f.flushErr
	}
	f.dirty = false
	f.flushes++
	return nil
}

func (f *fakeStore) Dirty() bool  { return f.dirty }
func (f *fakeStore) Path() string { return "tasks.json" }

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func newPoller(s *fakeStore, c *fakeClock, renders *int) *session.Poller {
	return session.NewPoller(s, time.Millisecond, 10*time.Second,
		session.WithTimeFunc(c.Now),
		session.WithOnReload(func() { *renders++ }),
	)
}

func TestTickReloads(t *testing.T) {
	s := &fakeStore{changed: true}
	c := &fakeClock{now: time.Unix(1000, 0)}
	renders := 0
	p := newPoller(s, c, &renders)

	if err := p.Tick(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := p.Tick(context.Background()); err != nil {
		t.Fatal(err)
	}
	if s.reloads != 1 || renders != 1 {
		t.Errorf("expected one reload and one render, got %d and %d", s.reloads, renders)
	}
}

func TestTickAutosavesOnInterval(t *testing.T) {
	s := &fakeStore{}
	c := &fakeClock{now: time.Unix(1000, 0)}
	renders := 0
	p := newPoller(s, c, &renders)
	ctx := context.Background()

	s.dirty = true
	c.now = c.now.Add(5 * time.Second)
	_ = p.Tick(ctx)
	if s.flushes != 0 {
		t.Fatal("saved before the autosave interval elapsed")
	}

	c.now = c.now.Add(6 * time.Second)
	_ = p.Tick(ctx)
	if s.flushes != 1 || s.dirty {
		t.Fatalf("expected one autosave, got %d", s.flushes)
	}

	s.dirty = true
	c.now = c.now.Add(time.Second)
	_ = p.Tick(ctx)
	if s.flushes != 1 {
		t.Error("autosave interval restarts after a save")
	}
}

func TestTickToleratesContention(t *testing.T) {
	held := &lease.HeldError{Path: "tasks.json.lock"}
	s := &fakeStore{dirty: true, flushErr: held, reloadErr: held}
	c := &fakeClock{now: time.Unix(1000, 0)}
	renders := 0
	p := newPoller(s, c, &renders)

	c.now = c.now.Add(time.Minute)
	if err := p.Tick(context.Background()); err != nil {
		t.Errorf("contention should be retried later, got %v", err)
	}
	if !s.dirty {
		t.Error("changes must stay dirty until saved")
	}
}

func TestRunStopsOnClockSkew(t *testing.T) {
	skew := &store.ClockSkewError{Path: "tasks.json"}
	s := &fakeStore{reloadErr: skew}
	c := &fakeClock{now: time.Unix(1000, 0)}
	renders := 0
	p := newPoller(s, c, &renders)

	err := p.Run(context.Background())
	if !errors.Is(err, store.ErrClockSkew) {
		t.Errorf("expected ErrClockSkew, got %v", err)
	}
}

func TestRunStopsWithContext(t *testing.T) {
	s := &fakeStore{}
	c := &fakeClock{now: time.Unix(1000, 0)}
	renders := 0
	p := newPoller(s, c, &renders)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := p.Run(ctx); err != nil {
		t.Errorf("expected clean stop, got %v", err)
	}
}
