package popup

import "context"

// Kind identifies the hosting transport variant behind a handle.
type Kind string

const (
	KindDirectWindow Kind = "window"
	KindExtensionTab Kind = "extension-tab"
)

// OpenOptions carries surface geometry to the transport open call.
// The extension-tab variant ignores it; the host sizes its own tabs.
type OpenOptions struct {
	Width  int
	Height int
}

// Transport creates surfaces over one hosting variant. A Transport is
// chosen at controller construction and shared across sessions; handles
// are per-session and exclusively owned.
type Transport interface {
	Kind() Kind

	// Open creates a surface at locator and returns its handle.
	Open(locator string, opts OpenOptions) (Handle, error)

	// Listen registers the pre-open inbound listener used for the
	// readiness handshake. The returned stop func detaches it and is
	// safe to call more than once.
	Listen(fn func(Message)) (stop func(), err error)
}

// Handle is one live surface: a direct window reference plus its
// origin, or an extension tab id plus its accepted port.
type Handle interface {
	Kind() Kind

	// Alive reports whether the surface still exists. The extension
	// variant asks the host, which may block; ctx bounds the query.
	Alive(ctx context.Context) bool

	// Send forwards one message to the surface.
	Send(msg Message) error

	// SetInbound registers the per-surface message callback. Replaces
	// any previous callback; nil detaches.
	SetInbound(fn func(Message))

	// Focus brings the surface to the front.
	Focus()

	// Dispose tears the surface down. Safe to call repeatedly; any
	// operation after Dispose fails with ErrHandleDisposed.
	Dispose()
}
