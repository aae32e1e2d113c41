package popup

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/danmuck/popupctl/internal/testutil/testlog"
)

func TestRealSchedulerAfterFunc(t *testing.T) {
	testlog.Start(t)
	done := make(chan struct{})
	timer := RealScheduler{}.AfterFunc(5*time.Millisecond, func() { close(done) })
	defer timer.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("timer never fired")
	}
}

func TestRealSchedulerAfterFuncStop(t *testing.T) {
	testlog.Start(t)
	var fired atomic.Int32
	timer := RealScheduler{}.AfterFunc(20*time.Millisecond, func() { fired.Add(1) })
	timer.Stop()

	time.Sleep(60 * time.Millisecond)
	if fired.Load() != 0 {
		t.Fatalf("stopped timer fired")
	}
}

func TestRealSchedulerEveryRepeatsUntilStopped(t *testing.T) {
	testlog.Start(t)
	var ticks atomic.Int32
	timer := RealScheduler{}.Every(5*time.Millisecond, func() { ticks.Add(1) })

	deadline := time.After(time.Second)
	for ticks.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("only %d ticks", ticks.Load())
		case <-time.After(time.Millisecond):
		}
	}

	timer.Stop()
	timer.Stop()
	settled := ticks.Load()
	time.Sleep(30 * time.Millisecond)
	if got := ticks.Load(); got > settled+1 {
		t.Fatalf("ticker kept firing after stop: %d -> %d", settled, got)
	}
}
