package store

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotInitialized is returned when the store could not be initialized
	// or is used before Initialize succeeded.
	ErrNotInitialized = errors.New("store not initialized")

	// ErrLeaseNotHeld is returned by FlushIfDirty when the caller does not
	// hold the lease.
	ErrLeaseNotHeld = errors.New("lease not held by this process")

	// ErrClockSkew is wrapped by *ClockSkewError.
	ErrClockSkew = errors.New("clock skew detected")
)

// ClockSkewError reports a backing file whose modification time moved
// backwards. The hosts sharing the store disagree on time, so lease expiry
// cannot be trusted; the store refuses every later write.
type ClockSkewError struct {
	Path     string
	Previous time.Time
	Observed time.Time
}

func (e *ClockSkewError) Error() string {
	return fmt.Sprintf("%s: modification time went back from %s to %s; check the clocks of the machines sharing this store",
		e.Path, e.Previous.Format(time.RFC3339Nano), e.Observed.Format(time.RFC3339Nano))
}

func (e *ClockSkewError) Unwrap() error { return ErrClockSkew }
