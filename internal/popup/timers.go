package popup

// timerSet holds the three session timers. The debounce is active only
// before the open attempt; watchdog and liveness only after it. Every
// stop helper tolerates an already-cleared slot so close stays idempotent
// no matter which callback drove it.
type timerSet struct {
	debounce Timer
	watchdog Timer
	liveness Timer
}

func (ts *timerSet) stopDebounce() {
	if ts.debounce != nil {
		ts.debounce.Stop()
		ts.debounce = nil
	}
}

func (ts *timerSet) stopWatchdog() {
	if ts.watchdog != nil {
		ts.watchdog.Stop()
		ts.watchdog = nil
	}
}

func (ts *timerSet) stopLiveness() {
	if ts.liveness != nil {
		ts.liveness.Stop()
		ts.liveness = nil
	}
}

func (ts *timerSet) stopAll() {
	ts.stopDebounce()
	ts.stopWatchdog()
	ts.stopLiveness()
}
