package host

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/danmuck/popupctl/internal/popup"
	"github.com/danmuck/popupctl/internal/tools"
)

var (
	ErrSurfaceUnknown = errors.New("host: unknown surface")
	ErrSurfaceClosed  = errors.New("host: surface closed")
)

// Bridge implements popup.WindowOpener over the local HTTP server.
// OpenBlank allocates a surface slot, Navigate launches the browser at
// the slot's locator, and the page proves it exists by draining its
// outbox. A surface that stops polling for longer than the presence TTL
// reads as closed.
type Bridge struct {
	origin   string
	launcher tools.Launcher
	ttl      time.Duration
	grace    time.Duration
	now      func() time.Time
	log      zerolog.Logger

	mu           sync.Mutex
	seq          uint64
	surfaces     map[string]*httpSurface
	listenerSeq  uint64
	listeners    map[uint64]func(origin string, msg popup.Message)
}

// NewBridge builds a bridge whose surfaces expire ttl after their last
// poll. grace is the window a freshly allocated surface gets before its
// first poll is due; it must cover the controller's watchdog delay and
// is clamped up to ttl when shorter.
func NewBridge(origin string, launcher tools.Launcher, ttl, grace time.Duration, logger zerolog.Logger) *Bridge {
	if grace < ttl {
		grace = ttl
	}
	return &Bridge{
		origin:    origin,
		launcher:  launcher,
		ttl:       ttl,
		grace:     grace,
		now:       time.Now,
		log:       logger,
		surfaces:  make(map[string]*httpSurface),
		listeners: make(map[uint64]func(string, popup.Message)),
	}
}

func (b *Bridge) OpenBlank(width, height int) (popup.Surface, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.seq++
	id := fmt.Sprintf("surface.%06d", b.seq)
	s := &httpSurface{
		bridge: b,
		id:     id,
		width:  width,
		height: height,
		// The page needs time to appear before its first poll; until the
		// grace elapses the surface reads alive and the watchdog, not the
		// liveness poll, owns never-appeared detection.
		aliveUntil: b.now().Add(b.grace),
	}
	b.surfaces[id] = s
	b.log.Debug().Str("surface", id).Int("width", width).Int("height", height).Msg("host.surface.allocated")
	return s, nil
}

func (b *Bridge) Listen(fn func(origin string, msg popup.Message)) func() {
	b.mu.Lock()
	b.listenerSeq++
	key := b.listenerSeq
	b.listeners[key] = fn
	b.mu.Unlock()
	return func() {
		b.mu.Lock()
		delete(b.listeners, key)
		b.mu.Unlock()
	}
}

func (b *Bridge) dispatch(msg popup.Message) {
	b.mu.Lock()
	fns := make([]func(string, popup.Message), 0, len(b.listeners))
	for _, fn := range b.listeners {
		fns = append(fns, fn)
	}
	b.mu.Unlock()
	for _, fn := range fns {
		fn(b.origin, msg)
	}
}

func (b *Bridge) surface(id string) (*httpSurface, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.surfaces[id]
	return s, ok
}

func (b *Bridge) remove(id string) {
	b.mu.Lock()
	delete(b.surfaces, id)
	b.mu.Unlock()
}

// Drain marks the surface present and returns its queued messages.
func (b *Bridge) Drain(id string) ([]popup.Message, error) {
	s, ok := b.surface(id)
	if !ok {
		return nil, ErrSurfaceUnknown
	}
	return s.drain()
}

// Inbound routes one page-posted message to every registered listener.
func (b *Bridge) Inbound(id string, msg popup.Message) error {
	s, ok := b.surface(id)
	if !ok {
		return ErrSurfaceUnknown
	}
	if err := s.touch(); err != nil {
		return err
	}
	b.dispatch(msg)
	return nil
}

// httpSurface is one allocated popup slot.
type httpSurface struct {
	bridge *Bridge
	id     string
	width  int
	height int

	mu         sync.Mutex
	locator    string
	outbox     []popup.Message
	aliveUntil time.Time
	closed     bool
}

func (s *httpSurface) ID() string {
	return s.id
}

// Navigate launches the browser at the locator, with the surface id
// threaded through a query parameter so the page can find its own inbox
// and outbox.
func (s *httpSurface) Navigate(locator string) error {
	target := withSurfaceParam(locator, s.id)
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSurfaceClosed
	}
	s.locator = locator
	s.mu.Unlock()
	if err := s.bridge.launcher.Open(target); err != nil {
		return err
	}
	s.bridge.log.Info().Str("surface", s.id).Str("locator", target).Msg("host.surface.navigate")
	return nil
}

func (s *httpSurface) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return true
	}
	return s.bridge.now().After(s.aliveUntil)
}

func (s *httpSurface) Post(origin string, msg popup.Message) error {
	if origin != s.bridge.origin {
		return fmt.Errorf("host: post to foreign origin %q", origin)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSurfaceClosed
	}
	s.outbox = append(s.outbox, msg)
	return nil
}

// Focus queues a bridge-level focus request for the page to act on.
func (s *httpSurface) Focus() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.outbox = append(s.outbox, popup.Message{Type: "popup.bridge.focus"})
}

func (s *httpSurface) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.outbox = nil
	s.mu.Unlock()
	s.bridge.remove(s.id)
	s.bridge.log.Debug().Str("surface", s.id).Msg("host.surface.closed")
}

func (s *httpSurface) drain() ([]popup.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrSurfaceClosed
	}
	s.aliveUntil = s.bridge.now().Add(s.bridge.ttl)
	out := s.outbox
	s.outbox = nil
	return out, nil
}

func (s *httpSurface) touch() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSurfaceClosed
	}
	s.aliveUntil = s.bridge.now().Add(s.bridge.ttl)
	return nil
}

// withSurfaceParam threads the surface id into a locator, keeping any
// fragment suffix last: /popup#loading -> /popup?surface=<id>#loading.
func withSurfaceParam(locator, id string) string {
	base, fragment, hasFragment := strings.Cut(locator, "#")
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	out := base + sep + "surface=" + id
	if hasFragment {
		out += "#" + fragment
	}
	return out
}
