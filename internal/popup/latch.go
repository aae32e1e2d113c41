package popup

import (
	"context"
	"sync"
)

// latch is a single-assignment readiness signal. Resolve is idempotent
// and Wait carries no timeout of its own: if the popup never signals
// readiness the wait is bounded only by the caller's context.
type latch struct {
	once sync.Once
	done chan struct{}
}

func newLatch() *latch {
	return &latch{done: make(chan struct{})}
}

func (l *latch) Resolve() {
	l.once.Do(func() { close(l.done) })
}

func (l *latch) Resolved() bool {
	select {
	case <-l.done:
		return true
	default:
		return false
	}
}

func (l *latch) Wait(ctx context.Context) error {
	select {
	case <-l.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
