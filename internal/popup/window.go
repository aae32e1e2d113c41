package popup

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/rs/zerolog"
)

// WindowOpener is the platform capability behind the direct-window
// transport. Implementations own how a window concretely exists (a
// browser launched against a local bridge, a webview, a test fake).
type WindowOpener interface {
	// OpenBlank creates an empty surface of the given size without
	// navigating it anywhere yet.
	OpenBlank(width, height int) (Surface, error)

	// Listen registers for inbound messages from any surface this
	// opener owns, tagged with the sender origin.
	Listen(fn func(origin string, msg Message)) (stop func())
}

// Surface is one platform window.
type Surface interface {
	Navigate(locator string) error
	Closed() bool
	Post(origin string, msg Message) error
	Focus()
	Close()
}

// DirectWindow hosts popup sessions in standalone windows.
type DirectWindow struct {
	opener WindowOpener
	log    zerolog.Logger
}

func NewDirectWindow(opener WindowOpener, logger zerolog.Logger) *DirectWindow {
	return &DirectWindow{opener: opener, log: logger}
}

func (*DirectWindow) Kind() Kind {
	return KindDirectWindow
}

// Open creates a blank window first and navigates it second. Direct
// navigation on open drops the opener back-reference on some platforms,
// which the popup side needs to answer the handshake.
func (d *DirectWindow) Open(locator string, opts OpenOptions) (Handle, error) {
	origin, err := originOf(locator)
	if err != nil {
		return nil, err
	}
	surface, err := d.opener.OpenBlank(opts.Width, opts.Height)
	if err != nil {
		return nil, err
	}
	if err := surface.Navigate(locator); err != nil {
		surface.Close()
		return nil, err
	}
	d.log.Debug().Str("locator", locator).Str("origin", origin).Msg("popup.window.open")
	return &windowHandle{opener: d.opener, surface: surface, origin: origin}, nil
}

// Listen registers the pre-open readiness listener. Sender origins are
// not filtered here; send-side messaging is what the recorded origin
// restricts.
func (d *DirectWindow) Listen(fn func(Message)) (func(), error) {
	stop := d.opener.Listen(func(_ string, msg Message) {
		fn(msg)
	})
	return stop, nil
}

func originOf(locator string) (string, error) {
	u, err := url.Parse(locator)
	if err != nil {
		return "", fmt.Errorf("popup: parse locator %q: %w", locator, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("popup: locator %q has no origin", locator)
	}
	return u.Scheme + "://" + u.Host, nil
}

// windowHandle pairs a window reference with the recorded origin its
// outbound messages are restricted to.
type windowHandle struct {
	opener  WindowOpener
	surface Surface
	origin  string

	mu          sync.Mutex
	stopInbound func()
	disposed    bool
}

func (h *windowHandle) Kind() Kind {
	return KindDirectWindow
}

func (h *windowHandle) Alive(_ context.Context) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.disposed {
		return false
	}
	return !h.surface.Closed()
}

func (h *windowHandle) Send(msg Message) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.disposed {
		return ErrHandleDisposed
	}
	return h.surface.Post(h.origin, msg)
}

func (h *windowHandle) SetInbound(fn func(Message)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopInbound != nil {
		h.stopInbound()
		h.stopInbound = nil
	}
	if fn == nil || h.disposed {
		return
	}
	h.stopInbound = h.opener.Listen(func(origin string, msg Message) {
		if origin != h.origin {
			return
		}
		fn(msg)
	})
}

func (h *windowHandle) Focus() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.disposed {
		return
	}
	h.surface.Focus()
}

func (h *windowHandle) Dispose() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.disposed {
		return
	}
	h.disposed = true
	if h.stopInbound != nil {
		h.stopInbound()
		h.stopInbound = nil
	}
	h.surface.Close()
}
