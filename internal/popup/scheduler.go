package popup

import (
	"sync"
	"time"
)

// Timer is one scheduled callback. Stop is safe to call repeatedly and
// after the timer has fired.
type Timer interface {
	Stop()
}

// Scheduler abstracts timer creation so the lifecycle state machine runs
// against real timers in production and a manual clock in tests.
type Scheduler interface {
	// AfterFunc runs fn once after d.
	AfterFunc(d time.Duration, fn func()) Timer

	// Every runs fn repeatedly at interval d until the timer is stopped.
	Every(d time.Duration, fn func()) Timer
}

// RealScheduler schedules on the runtime clock.
type RealScheduler struct{}

func (RealScheduler) AfterFunc(d time.Duration, fn func()) Timer {
	return realTimer{t: time.AfterFunc(d, fn)}
}

func (RealScheduler) Every(d time.Duration, fn func()) Timer {
	rt := &repeatTimer{done: make(chan struct{})}
	go func() {
		ticker := time.NewTicker(d)
		defer ticker.Stop()
		for {
			select {
			case <-rt.done:
				return
			case <-ticker.C:
				fn()
			}
		}
	}()
	return rt
}

type realTimer struct {
	t *time.Timer
}

func (rt realTimer) Stop() {
	rt.t.Stop()
}

type repeatTimer struct {
	once sync.Once
	done chan struct{}
}

func (rt *repeatTimer) Stop() {
	rt.once.Do(func() { close(rt.done) })
}
