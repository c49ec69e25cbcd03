package lease

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/flock"
)

// FileLock is the advisory OS lock held around every read-modify-write of a
// lease record, so two local processes cannot both replace an expired one.
type FileLock interface {
	TryLockContext(ctx context.Context, retryInterval time.Duration) (bool, error)
	Unlock() error
}

// FileLockFactory creates the guard lock for a lease path.
type FileLockFactory interface {
	New(path string) FileLock
}

// FlockFactory backs guards with github.com/gofrs/flock.
type FlockFactory struct{}

// New implements FileLockFactory.New
func (FlockFactory) New(path string) FileLock {
	return flock.New(path)
}

// guardPath is the sibling file carrying the OS lock for a lease record.
func guardPath(leasePath string) string {
	return leasePath + ".guard"
}

// GuardPath exposes the guard file name so callers deleting a workspace can
// remove it together with the lease record.
func GuardPath(leasePath string) string {
	return guardPath(leasePath)
}

// withGuard runs fn while holding the guard. A guard that is busy past ctx
// is reported as errGuardBusy so pollers can retry.
func (l *Lease) withGuard(ctx context.Context, fn func() error) error {
	ok, err := l.guard.TryLockContext(ctx, l.pollInterval)
	if err != nil {
		if ctx.Err() != nil {
			return errGuardBusy
		}
		return fmt.Errorf("lock guard %s: %w", guardPath(l.path), err)
	}
	if !ok {
		return errGuardBusy
	}
	defer func() {
		if uerr := l.guard.Unlock(); uerr != nil {
			l.logger.Warn("failed to unlock lease guard", "path", guardPath(l.path), "error", uerr)
		}
	}()
	return fn()
}
