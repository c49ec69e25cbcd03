package store

import "sync"

// operationType selects the in-process lock mode for a store operation.
type operationType int

const (
	// readOperation may run alongside other reads.
	readOperation operationType = iota

	// writeOperation is exclusive. Every operation touching the shelf, the
	// lease or the dirty flag is a write.
	writeOperation
)

// lockManager serializes store operations within one process, so an autosave
// goroutine and the interactive caller never interleave a flush with an edit.
// Cross-process exclusion is the lease's job.
type lockManager struct {
	mu sync.RWMutex
}

// execute runs fn under the lock mode for opType.
func (lm *lockManager) execute(opType operationType, fn func() error) error {
	switch opType {
	case readOperation:
		lm.mu.RLock()
		defer lm.mu.RUnlock()
	case writeOperation:
		lm.mu.Lock()
		defer lm.mu.Unlock()
	}
	return fn()
}

// executeWithResult is execute for functions that also produce a value.
func executeWithResult[T any](lm *lockManager, opType operationType, fn func() (T, error)) (T, error) {
	var result T
	err := lm.execute(opType, func() error {
		var err error
		result, err = fn()
		return err
	})
	return result, err
}
