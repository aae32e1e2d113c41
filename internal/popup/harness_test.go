package popup

import (
	"context"
	"sort"
	"sync"
	"time"
)

// manualScheduler drives the session timers from test code so watchdog
// and liveness races replay deterministically.
type manualScheduler struct {
	mu     sync.Mutex
	now    time.Duration
	seq    int
	timers []*manualTimer
}

type manualTimer struct {
	sched    *manualScheduler
	fn       func()
	at       time.Duration
	interval time.Duration
	seq      int
	stopped  bool
}

func newManualScheduler() *manualScheduler {
	return &manualScheduler{}
}

func (s *manualScheduler) AfterFunc(d time.Duration, fn func()) Timer {
	return s.add(d, 0, fn)
}

func (s *manualScheduler) Every(d time.Duration, fn func()) Timer {
	return s.add(d, d, fn)
}

func (s *manualScheduler) add(d, interval time.Duration, fn func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	t := &manualTimer{sched: s, fn: fn, at: s.now + d, interval: interval, seq: s.seq}
	s.timers = append(s.timers, t)
	return t
}

func (t *manualTimer) Stop() {
	t.sched.mu.Lock()
	t.stopped = true
	t.sched.mu.Unlock()
}

// Advance steps virtual time, firing due timers in order. Callbacks run
// without the scheduler lock so they may schedule or stop timers.
func (s *manualScheduler) Advance(d time.Duration) {
	target := func() time.Duration {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.now + d
	}()
	for {
		t := s.popDue(target)
		if t == nil {
			break
		}
		t.fn()
	}
	s.mu.Lock()
	s.now = target
	s.mu.Unlock()
}

func (s *manualScheduler) popDue(target time.Duration) *manualTimer {
	s.mu.Lock()
	defer s.mu.Unlock()
	live := s.timers[:0]
	for _, t := range s.timers {
		if !t.stopped {
			live = append(live, t)
		}
	}
	s.timers = live
	sort.SliceStable(s.timers, func(i, j int) bool {
		if s.timers[i].at != s.timers[j].at {
			return s.timers[i].at < s.timers[j].at
		}
		return s.timers[i].seq < s.timers[j].seq
	})
	for i, t := range s.timers {
		if t.at > target {
			break
		}
		s.now = t.at
		if t.interval > 0 {
			t.at += t.interval
			return t
		}
		s.timers = append(s.timers[:i], s.timers[i+1:]...)
		return t
	}
	return nil
}

// Pending counts armed timers.
func (s *manualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.timers {
		if !t.stopped {
			n++
		}
	}
	return n
}

// fakeHandle is a scripted surface handle.
type fakeHandle struct {
	kind Kind

	mu       sync.Mutex
	alive    bool
	sent     []Message
	inbound  func(Message)
	focused  int
	disposed int
}

func (h *fakeHandle) Kind() Kind { return h.kind }

func (h *fakeHandle) Alive(context.Context) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.disposed == 0 && h.alive
}

func (h *fakeHandle) Send(msg Message) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.disposed > 0 {
		return ErrHandleDisposed
	}
	h.sent = append(h.sent, msg)
	return nil
}

func (h *fakeHandle) SetInbound(fn func(Message)) {
	h.mu.Lock()
	h.inbound = fn
	h.mu.Unlock()
}

func (h *fakeHandle) Focus() {
	h.mu.Lock()
	h.focused++
	h.mu.Unlock()
}

func (h *fakeHandle) Dispose() {
	h.mu.Lock()
	h.disposed++
	h.mu.Unlock()
}

func (h *fakeHandle) setAlive(alive bool) {
	h.mu.Lock()
	h.alive = alive
	h.mu.Unlock()
}

func (h *fakeHandle) sentTypes() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, 0, len(h.sent))
	for _, m := range h.sent {
		out = append(out, m.Type)
	}
	return out
}

// fakeTransport records opens and lets tests inject inbound messages.
type fakeTransport struct {
	kind Kind

	mu       sync.Mutex
	openErr  error
	opens    []string
	handles  []*fakeHandle
	listener func(Message)
	aux      []string
}

func (t *fakeTransport) Kind() Kind { return t.kind }

func (t *fakeTransport) Open(locator string, _ OpenOptions) (Handle, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.opens = append(t.opens, locator)
	if t.openErr != nil {
		return nil, t.openErr
	}
	h := &fakeHandle{kind: t.kind, alive: true}
	t.handles = append(t.handles, h)
	return h, nil
}

func (t *fakeTransport) Listen(fn func(Message)) (func(), error) {
	t.mu.Lock()
	t.listener = fn
	t.mu.Unlock()
	return func() {
		t.mu.Lock()
		t.listener = nil
		t.mu.Unlock()
	}, nil
}

func (t *fakeTransport) OpenAuxiliary(locator string) error {
	t.mu.Lock()
	t.aux = append(t.aux, locator)
	t.mu.Unlock()
	return nil
}

// deliver routes an inbound message the way a platform would: to the
// current handle's callback when attached, else to the pre-open
// listener.
func (t *fakeTransport) deliver(msg Message) {
	t.mu.Lock()
	var fn func(Message)
	if len(t.handles) > 0 {
		last := t.handles[len(t.handles)-1]
		last.mu.Lock()
		fn = last.inbound
		last.mu.Unlock()
	}
	if fn == nil {
		fn = t.listener
	}
	t.mu.Unlock()
	if fn != nil {
		fn(msg)
	}
}

func (t *fakeTransport) openCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.opens)
}

func (t *fakeTransport) lastOpen() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.opens) == 0 {
		return ""
	}
	return t.opens[len(t.opens)-1]
}

func (t *fakeTransport) lastHandle() *fakeHandle {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.handles) == 0 {
		return nil
	}
	return t.handles[len(t.handles)-1]
}

// fakeFallback records prompt presentations.
type fakeFallback struct {
	mu        sync.Mutex
	presented int
	retry     func()
	giveUp    func()
}

func (f *fakeFallback) Present(retry func(), giveUp func()) {
	f.mu.Lock()
	f.presented++
	f.retry = retry
	f.giveUp = giveUp
	f.mu.Unlock()
}

func (f *fakeFallback) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.presented
}

// counter is a tiny callback tally for Events.
type counter struct {
	mu sync.Mutex
	n  int
}

func (c *counter) inc() func() {
	return func() {
		c.mu.Lock()
		c.n++
		c.mu.Unlock()
	}
}

func (c *counter) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}
