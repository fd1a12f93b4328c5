package nav

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/semaphore"
)

// maxReaders bounds concurrent shared holders. A writer takes all of them.
const maxReaders = 1 << 30

// rwLock is a reader/writer lock whose acquisition can be bounded by a
// context. Waiters are served in FIFO order, so a queued writer keeps later
// readers out until it has run.
type rwLock struct {
	sem *semaphore.Weighted
}

func newRWLock() *rwLock {
	return &rwLock{sem: semaphore.NewWeighted(maxReaders)}
}

// acquire takes weight n. timeout < 0 waits as long as ctx allows, 0 tries
// once without waiting.
func (l *rwLock) acquire(ctx context.Context, n int64, timeout time.Duration) error {
	if timeout == 0 {
		if l.sem.TryAcquire(n) {
			return nil
		}
		return ErrLockTimeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := l.sem.Acquire(ctx, n); err != nil {
		return fmt.Errorf("%w: %w", ErrLockTimeout, err)
	}
	return nil
}

func (l *rwLock) rlock(ctx context.Context, timeout time.Duration) error {
	return l.acquire(ctx, 1, timeout)
}

func (l *rwLock) runlock() { l.sem.Release(1) }

func (l *rwLock) lock(ctx context.Context, timeout time.Duration) error {
	return l.acquire(ctx, maxReaders, timeout)
}

func (l *rwLock) unlock() { l.sem.Release(maxReaders) }
