// Package lease implements a cross-process lock with a bounded lifetime.
//
// The lease is a small JSON record stored next to the file it protects. The
// record names its holder and an expiry; a holder that crashed simply stops
// refreshing and the lease becomes takeable once it expires. The record on
// disk is the only source of truth, so any number of Lease values (in this or
// other processes) can observe the same path.
package lease

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/arthur-debert/nanotask/nanotask/fsys"
	"github.com/google/uuid"
)

var (
	// ErrHeld is wrapped by *HeldError when another holder keeps the lease.
	ErrHeld = errors.New("lease held by another process")

	// ErrNotHeld is returned by operations that require holding the lease.
	ErrNotHeld = errors.New("lease not held")

	// ErrInvalidConfig is returned when the lifetime is not shorter than the
	// acquire timeout.
	ErrInvalidConfig = errors.New("invalid lease configuration")

	errGuardBusy = errors.New("lease guard busy")
)

// HeldError reports who holds a lease we could not take.
type HeldError struct {
	Path   string
	Holder Record
}

func (e *HeldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Holder)
}

func (e *HeldError) Unwrap() error { return ErrHeld }

// State classifies a lease record relative to the observer.
type State int

const (
	Unlocked State = iota
	OursActive
	OursExpired
	TheirsActive
	TheirsExpired
)

func (s State) String() string {
	switch s {
	case Unlocked:
		return "unlocked"
	case OursActive:
		return "ours"
	case OursExpired:
		return "ours (expired)"
	case TheirsActive:
		return "held"
	case TheirsExpired:
		return "held (expired)"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Ours reports whether the record belongs to the observer, expired or not.
func (s State) Ours() bool {
	return s == OursActive || s == OursExpired
}

// Record is the persisted lease.
type Record struct {
	Hostname   string        `json:"hostname"`
	PID        int           `json:"pid"`
	Token      string        `json:"token"`
	AcquiredAt time.Time     `json:"acquired_at"`
	Lifetime   time.Duration `json:"lifetime"`
	ExpiresAt  time.Time     `json:"expires_at"`
}

// Expired reports whether the record is past its expiry at now.
func (r Record) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

func (r Record) String() string {
	if r.Token == "" {
		return "lease not held"
	}
	return fmt.Sprintf("lease held by pid %d on %s until %s",
		r.PID, r.Hostname, r.ExpiresAt.Local().Format(time.DateTime))
}

// Lease is one participant's handle on a lease path. It is not safe for
// concurrent use; the owning store serializes calls.
type Lease struct {
	path           string
	lifetime       time.Duration
	acquireTimeout time.Duration
	pollInterval   time.Duration

	fs       fsys.FileSystem
	guard    FileLock
	timeFunc func() time.Time
	hostname string
	pid      int
	token    string
	logger   *slog.Logger
}

// Option configures a Lease.
type Option func(*leaseOptions)

type leaseOptions struct {
	fs           fsys.FileSystem
	lockFactory  FileLockFactory
	timeFunc     func() time.Time
	hostname     string
	pid          int
	pollInterval time.Duration
	logger       *slog.Logger
}

// WithFileSystem sets a custom FileSystem implementation
func WithFileSystem(fs fsys.FileSystem) Option {
	return func(o *leaseOptions) { o.fs = fs }
}

// WithFileLockFactory sets the factory for the guard lock
func WithFileLockFactory(factory FileLockFactory) Option {
	return func(o *leaseOptions) { o.lockFactory = factory }
}

// WithTimeFunc sets the clock used for expiry decisions
func WithTimeFunc(fn func() time.Time) Option {
	return func(o *leaseOptions) { o.timeFunc = fn }
}

// WithIdentity overrides the hostname and pid written into records.
func WithIdentity(hostname string, pid int) Option {
	return func(o *leaseOptions) {
		o.hostname = hostname
		o.pid = pid
	}
}

// WithPollInterval sets how often TryAcquire re-checks a held lease.
func WithPollInterval(d time.Duration) Option {
	return func(o *leaseOptions) { o.pollInterval = d }
}

// WithLogger sets the logger; slog.Default() otherwise.
func WithLogger(logger *slog.Logger) Option {
	return func(o *leaseOptions) { o.logger = logger }
}

// New returns a handle on the lease stored at path. The lifetime must be
// positive and strictly shorter than the acquire timeout, so a crashed holder
// always expires before a waiter gives up.
func New(path string, lifetime, acquireTimeout time.Duration, opts ...Option) (*Lease, error) {
	if lifetime <= 0 || acquireTimeout <= 0 || lifetime >= acquireTimeout {
		return nil, fmt.Errorf("%w: lifetime %s must be positive and below acquire timeout %s",
			ErrInvalidConfig, lifetime, acquireTimeout)
	}

	o := leaseOptions{
		fs:           &fsys.OSFileSystem{},
		lockFactory:  FlockFactory{},
		timeFunc:     time.Now,
		pid:          os.Getpid(),
		pollInterval: 250 * time.Millisecond,
	}
	if host, err := os.Hostname(); err == nil {
		o.hostname = host
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	return &Lease{
		path:           path,
		lifetime:       lifetime,
		acquireTimeout: acquireTimeout,
		pollInterval:   o.pollInterval,
		fs:             o.fs,
		guard:          o.lockFactory.New(guardPath(path)),
		timeFunc:       o.timeFunc,
		hostname:       o.hostname,
		pid:            o.pid,
		token:          uuid.NewString(),
		logger:         o.logger.With("lease", path),
	}, nil
}

// Path returns the lease record path.
func (l *Lease) Path() string { return l.path }

// Lifetime returns how long an acquired or refreshed lease stays valid.
func (l *Lease) Lifetime() time.Duration { return l.lifetime }

// AcquireTimeout returns the default wait used by TryAcquire.
func (l *Lease) AcquireTimeout() time.Duration { return l.acquireTimeout }

// State reads the record and classifies it.
func (l *Lease) State() (State, Record, error) {
	state, rec, _, err := l.read()
	return state, rec, err
}

// read is State plus the raw record, which takeovers compare against to
// detect that the record changed under them.
func (l *Lease) read() (State, Record, []byte, error) {
	data, err := l.fs.ReadFile(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Unlocked, Record{}, nil, nil
	}
	if err != nil {
		return Unlocked, Record{}, nil, fmt.Errorf("read lease %s: %w", l.path, err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		// A record we cannot parse has no holder that could refresh it.
		l.logger.Warn("unreadable lease record, treating as expired", "error", err)
		return TheirsExpired, Record{}, data, nil
	}
	return l.classify(rec), rec, data, nil
}

func (l *Lease) classify(rec Record) State {
	expired := rec.Expired(l.timeFunc())
	switch {
	case rec.Token == l.token && expired:
		return OursExpired
	case rec.Token == l.token:
		return OursActive
	case expired:
		return TheirsExpired
	}
	return TheirsActive
}

// IsHeld reports whether we hold an unexpired lease.
func (l *Lease) IsHeld() bool {
	state, _, err := l.State()
	return err == nil && state == OursActive
}

// IsOurs reports whether the record carries our token, expired or not. An
// expired record of ours stays ours until someone else takes it over.
func (l *Lease) IsOurs() bool {
	state, _, err := l.State()
	return err == nil && state.Ours()
}

// IsHeldByOther reports whether someone else holds an unexpired lease.
func (l *Lease) IsHeldByOther() bool {
	state, _, err := l.State()
	if err != nil {
		l.logger.Debug("lease state unavailable", "error", err)
		return false
	}
	return state == TheirsActive
}

func (l *Lease) newRecord() Record {
	now := l.timeFunc()
	return Record{
		Hostname:   l.hostname,
		PID:        l.pid,
		Token:      l.token,
		AcquiredAt: now,
		Lifetime:   l.lifetime,
		ExpiresAt:  now.Add(l.lifetime),
	}
}

func (l *Lease) tempPath() string {
	return fmt.Sprintf("%s.%s.tmp", l.path, l.token)
}

func (l *Lease) writeTemp(rec Record) (string, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("encode lease record: %w", err)
	}
	tmp := l.tempPath()
	if err := l.fs.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("write lease %s: %w", tmp, err)
	}
	return tmp, nil
}

// create installs our record only if no record exists. The hard link fails
// when the lease path is taken, so two creators cannot both win.
func (l *Lease) create(rec Record) (bool, error) {
	return l.createAt(l.path, rec)
}

func (l *Lease) createAt(target string, rec Record) (bool, error) {
	tmp, err := l.writeTemp(rec)
	if err != nil {
		return false, err
	}
	defer func() { _ = l.fs.Remove(tmp) }()

	if err := l.fs.Link(tmp, target); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return false, nil
		}
		return false, fmt.Errorf("create lease %s: %w", target, err)
	}
	return true, nil
}

// replace overwrites whatever record exists. Callers hold the guard and
// either own an active record, which nobody else writes to, or the claim on
// an expired one.
func (l *Lease) replace(rec Record) error {
	tmp, err := l.writeTemp(rec)
	if err != nil {
		return err
	}
	if err := l.fs.Rename(tmp, l.path); err != nil {
		_ = l.fs.Remove(tmp)
		return fmt.Errorf("replace lease %s: %w", l.path, err)
	}
	return nil
}

// claimPath names the claim on one particular expired record. Claims on
// different records never collide, so a finished takeover leaves nothing that
// blocks the next one.
func (l *Lease) claimPath(stale []byte) string {
	return fmt.Sprintf("%s.claim-%s", l.path, uuid.NewSHA1(uuid.NameSpaceOID, stale))
}

// withClaim runs fn while we own the claim on the expired record whose bytes
// we last read, and only if the record is still those bytes. The guard only
// orders processes on one host; the claim is created with a hard link and so
// admits one participant across hosts. It reports whether fn ran.
func (l *Lease) withClaim(stale []byte, fn func() error) (bool, error) {
	claim := l.claimPath(stale)
	ok, err := l.createAt(claim, l.newRecord())
	if err != nil {
		return false, err
	}
	if !ok {
		l.clearAbandonedClaim(claim)
		return false, nil
	}
	defer func() { _ = l.fs.Remove(claim) }()

	current, err := l.fs.ReadFile(l.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("read lease %s: %w", l.path, err)
	}
	if !bytes.Equal(current, stale) {
		return false, nil
	}
	return true, fn()
}

// clearAbandonedClaim removes a claim whose owner died mid-takeover. A claim
// lives for one lifetime at most; a live owner drops it within milliseconds.
func (l *Lease) clearAbandonedClaim(claim string) {
	data, err := l.fs.ReadFile(claim)
	if err != nil {
		return
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err == nil && !rec.Expired(l.timeFunc()) {
		return
	}
	l.logger.Warn("removing abandoned lease claim", "claim", claim, "holder_pid", rec.PID)
	_ = l.fs.Remove(claim)
}

// swap takes over the expired record whose bytes we last read.
func (l *Lease) swap(stale []byte) (bool, error) {
	return l.withClaim(stale, func() error {
		return l.replace(l.newRecord())
	})
}

// tryOnce makes one acquisition attempt. It returns the current holder when
// the lease is actively held by someone else.
func (l *Lease) tryOnce(ctx context.Context) (bool, Record, error) {
	var (
		acquired bool
		holder   Record
	)
	err := l.withGuard(ctx, func() error {
		state, rec, raw, err := l.read()
		if err != nil {
			return err
		}
		switch state {
		case OursActive:
			if err := l.replace(l.newRecord()); err != nil {
				return err
			}
			acquired = true
		case OursExpired:
			ok, err := l.swap(raw)
			if err != nil {
				return err
			}
			acquired = ok
		case Unlocked:
			ok, err := l.create(l.newRecord())
			if err != nil {
				return err
			}
			acquired = ok
		case TheirsExpired:
			l.logger.Info("taking over expired lease", "holder_pid", rec.PID, "holder_host", rec.Hostname)
			ok, err := l.swap(raw)
			if err != nil {
				return err
			}
			if !ok {
				l.logger.Debug("lost expired lease to another participant")
			}
			acquired = ok
		case TheirsActive:
			holder = rec
		}
		return nil
	})
	return acquired, holder, err
}

// TryAcquire takes the lease, waiting up to timeout (the configured acquire
// timeout when zero) for an active holder to release it or let it expire.
// Holding it already refreshes it. An active lease is never broken; on
// timeout the returned *HeldError names the holder.
func (l *Lease) TryAcquire(ctx context.Context, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = l.acquireTimeout
	}
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(l.pollInterval)
	defer ticker.Stop()

	var holder Record
	for {
		acquired, rec, err := l.tryOnce(waitCtx)
		switch {
		case err == nil && acquired:
			l.logger.Debug("lease acquired")
			return nil
		case err == nil:
			holder = rec
		case !errors.Is(err, errGuardBusy):
			return err
		}

		select {
		case <-waitCtx.Done():
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if holder.Token == "" {
				_, holder, _ = l.State()
			}
			return &HeldError{Path: l.path, Holder: holder}
		case <-ticker.C:
		}
	}
}

// Refresh pushes the expiry of a lease we hold one lifetime into the future.
// It fails with ErrNotHeld when the record on disk is not ours, including
// when another participant took it over while we were writing.
func (l *Lease) Refresh() error {
	return l.withGuard(context.Background(), func() error {
		state, _, raw, err := l.read()
		if err != nil {
			return err
		}
		switch state {
		case OursActive:
			if err := l.replace(l.newRecord()); err != nil {
				return err
			}
		case OursExpired:
			ok, err := l.swap(raw)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("refresh %s: %w", l.path, ErrNotHeld)
			}
		default:
			return fmt.Errorf("refresh %s: %w", l.path, ErrNotHeld)
		}

		_, rec, err := l.State()
		if err != nil {
			return err
		}
		if rec.Token != l.token {
			return fmt.Errorf("refresh %s: %w", l.path, ErrNotHeld)
		}
		return nil
	})
}

// ForceBreak discards whatever record exists and installs ours. It is the
// user-confirmed override for a holder that is believed dead.
func (l *Lease) ForceBreak(ctx context.Context) error {
	err := l.withGuard(ctx, func() error {
		state, rec, err := l.State()
		if err != nil {
			return err
		}
		if state != Unlocked && !state.Ours() {
			l.logger.Warn("breaking lease", "holder_pid", rec.PID, "holder_host", rec.Hostname,
				"expires_at", rec.ExpiresAt)
		}
		return l.replace(l.newRecord())
	})
	if err != nil {
		return fmt.Errorf("break %s: %w", l.path, err)
	}
	l.logger.Debug("lease acquired by force")
	return nil
}

// Release removes the record if it is ours. Releasing a lease we do not hold
// is a no-op.
func (l *Lease) Release() error {
	return l.withGuard(context.Background(), func() error {
		state, _, raw, err := l.read()
		if err != nil {
			return err
		}
		switch state {
		case OursActive:
			return l.remove()
		case OursExpired:
			// Others may be taking it over; remove it only if it is still ours.
			_, err := l.withClaim(raw, l.remove)
			return err
		}
		return nil
	})
}

func (l *Lease) remove() error {
	if err := l.fs.Remove(l.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("release %s: %w", l.path, err)
	}
	l.logger.Debug("lease released")
	return nil
}
