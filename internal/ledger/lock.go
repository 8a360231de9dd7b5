package ledger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/gofrs/flock"
)

// lockRetryDelay is the polling interval while another writer holds the lock.
const lockRetryDelay = 25 * time.Millisecond

// fileLock is an advisory lock on a sidecar file next to the ledger.
type fileLock struct {
	path  string
	flock *flock.Flock
}

func newFileLock(path string) *fileLock {
	return &fileLock{path: path, flock: flock.New(path)}
}

// acquire blocks until the lock is held or ctx is done. The returned func
// releases it.
func (l *fileLock) acquire(ctx context.Context) (func(), error) {
	ok, err := l.flock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("ledger is locked by another session (%s): %w", l.path, err)
		}
		return nil, fmt.Errorf("failed to lock ledger: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("ledger is locked by another session (%s)", l.path)
	}
	return func() { _ = l.flock.Unlock() }, nil
}

func removeIfExists(path string) error {
	err := os.Remove(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
