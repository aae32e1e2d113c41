package popup

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// ExtensionHost is the capability an extension background process
// exposes for tab management. Tab existence queries go back to the host
// and may block, hence the context.
type ExtensionHost interface {
	CreateTab(locator string) (tabID string, err error)
	TabExists(ctx context.Context, tabID string) (bool, error)
	RemoveTab(tabID string) error
	FocusTab(tabID string) error

	// OpenPage opens an auxiliary host-managed page. Fire and forget.
	OpenPage(locator string) error

	// OnConnect registers for inbound port connections from tabs.
	OnConnect(fn func(tabID string, port Port)) (stop func())
}

// Port is one accepted messaging channel to a tab.
type Port interface {
	Send(msg Message) error
	OnMessage(fn func(Message))
	Disconnect()
}

// AuxiliaryOpener is implemented by transports that can open side pages
// on behalf of the popup (extension permission prompts).
type AuxiliaryOpener interface {
	OpenAuxiliary(locator string) error
}

// ExtensionTab hosts popup sessions in host-managed tabs.
type ExtensionTab struct {
	host ExtensionHost
	log  zerolog.Logger

	mu     sync.Mutex
	listen func(Message)
}

func NewExtensionTab(host ExtensionHost, logger zerolog.Logger) *ExtensionTab {
	return &ExtensionTab{host: host, log: logger}
}

func (*ExtensionTab) Kind() Kind {
	return KindExtensionTab
}

// Open asks the host for a new tab and starts accepting its port. A
// connection from any other tab is ignored, not an error: unrelated
// extension pages connect to the same host.
func (t *ExtensionTab) Open(locator string, _ OpenOptions) (Handle, error) {
	tabID, err := t.host.CreateTab(locator)
	if err != nil {
		return nil, err
	}
	h := &tabHandle{transport: t, host: t.host, tabID: tabID, log: t.log}
	h.stopConnect = t.host.OnConnect(h.accept)
	t.log.Debug().Str("locator", locator).Str("tab_id", tabID).Msg("popup.tab.open")
	return h, nil
}

// Listen registers the pre-open readiness listener. Extension inbound
// traffic arrives over per-tab ports, so the listener is held here and
// fed by whichever handle this transport opens next.
func (t *ExtensionTab) Listen(fn func(Message)) (func(), error) {
	t.mu.Lock()
	t.listen = fn
	t.mu.Unlock()
	return func() {
		t.mu.Lock()
		if t.listen != nil {
			t.listen = nil
		}
		t.mu.Unlock()
	}, nil
}

func (t *ExtensionTab) OpenAuxiliary(locator string) error {
	return t.host.OpenPage(locator)
}

func (t *ExtensionTab) forward(msg Message) {
	t.mu.Lock()
	fn := t.listen
	t.mu.Unlock()
	if fn != nil {
		fn(msg)
	}
}

// tabHandle pairs a tab id with the port accepted from that tab.
type tabHandle struct {
	transport *ExtensionTab
	host      ExtensionHost
	tabID     string
	log       zerolog.Logger

	mu          sync.Mutex
	port        Port
	inbound     func(Message)
	stopConnect func()
	disposed    bool
}

func (h *tabHandle) accept(tabID string, port Port) {
	h.mu.Lock()
	if h.disposed || tabID != h.tabID {
		h.mu.Unlock()
		if tabID != h.tabID {
			h.log.Debug().Str("want", h.tabID).Str("got", tabID).Msg("popup.tab.connect.ignored")
		}
		return
	}
	h.port = port
	h.mu.Unlock()
	port.OnMessage(h.dispatch)
}

func (h *tabHandle) dispatch(msg Message) {
	h.mu.Lock()
	fn := h.inbound
	h.mu.Unlock()
	if fn != nil {
		fn(msg)
	}
	h.transport.forward(msg)
}

func (h *tabHandle) Kind() Kind {
	return KindExtensionTab
}

func (h *tabHandle) Alive(ctx context.Context) bool {
	h.mu.Lock()
	if h.disposed {
		h.mu.Unlock()
		return false
	}
	h.mu.Unlock()
	exists, err := h.host.TabExists(ctx, h.tabID)
	if err != nil {
		h.log.Warn().Err(err).Str("tab_id", h.tabID).Msg("popup.tab.exists.query")
		return false
	}
	return exists
}

func (h *tabHandle) Send(msg Message) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.disposed {
		return ErrHandleDisposed
	}
	if h.port == nil {
		return ErrPortNotAttached
	}
	return h.port.Send(msg)
}

func (h *tabHandle) SetInbound(fn func(Message)) {
	h.mu.Lock()
	h.inbound = fn
	h.mu.Unlock()
}

func (h *tabHandle) Focus() {
	h.mu.Lock()
	if h.disposed {
		h.mu.Unlock()
		return
	}
	h.mu.Unlock()
	if err := h.host.FocusTab(h.tabID); err != nil {
		h.log.Warn().Err(err).Str("tab_id", h.tabID).Msg("popup.tab.focus")
	}
}

// Dispose disconnects the port first, then asks the host to remove the
// tab.
func (h *tabHandle) Dispose() {
	h.mu.Lock()
	if h.disposed {
		h.mu.Unlock()
		return
	}
	h.disposed = true
	port := h.port
	h.port = nil
	h.inbound = nil
	stop := h.stopConnect
	h.stopConnect = nil
	h.mu.Unlock()

	if stop != nil {
		stop()
	}
	if port != nil {
		port.Disconnect()
	}
	if err := h.host.RemoveTab(h.tabID); err != nil {
		h.log.Warn().Err(err).Str("tab_id", h.tabID).Msg("popup.tab.remove")
	}
}
