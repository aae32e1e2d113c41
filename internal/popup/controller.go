package popup

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/danmuck/popupctl/internal/observability"
)

// State describes session-level lifecycle phase transitions.
type State string

const (
	StateIdle      State = "idle"
	StateRequested State = "requested"
	StateOpening   State = "opening"
	StateReady     State = "ready"
	StateFailed    State = "failed"
	StateClosed    State = "closed"
)

// Close reasons for logs and metrics.
const (
	closeReasonExplicit     = "explicit"
	closeReasonNotConfirmed = "open_not_confirmed"
	closeReasonSurfaceGone  = "surface_gone"
	closeReasonPremature    = "premature_payload"
)

// FallbackUI is the manual-retry prompt presented when an open attempt
// cannot be confirmed. Presentation is not this package's concern.
type FallbackUI interface {
	Present(retry func(), giveUp func())
}

// Events are the caller-owned lifecycle callbacks. Either may be nil.
// OnClosed fires when the surface vanished or the fallback was given up
// on, never on an explicit Close by the caller.
type Events struct {
	OnClosed func()
	OnReady  func()
}

// ControllerConfig wires a Controller at construction time.
type ControllerConfig struct {
	Transport Transport
	Fallback  FallbackUI
	Scheduler Scheduler
	Settings  Settings
	Events    Events
	Logger    zerolog.Logger
}

// Controller owns at most one popup session at a time and sequences its
// debounce, open, handshake and teardown. All entry points serialize on
// one mutex; timer and inbound callbacks re-enter through the same
// methods and every teardown path is idempotent, so whichever of the
// watchdog or the liveness poll fires first wins and the other finds
// nothing left to do.
type Controller struct {
	transport Transport
	fallback  FallbackUI
	sched     Scheduler
	settings  Settings
	events    Events
	log       zerolog.Logger

	mu            sync.Mutex
	locked        bool
	lazy          bool
	handle        Handle
	timers        timerSet
	readiness     *latch
	broadcastID   string
	stopListen    func()
	fallbackShown bool
	epoch         uint64
	state         State
}

func NewController(cfg ControllerConfig) (*Controller, error) {
	if cfg.Transport == nil {
		return nil, ErrNoTransport
	}
	cfg.Settings = cfg.Settings.WithDefaults()
	if err := cfg.Settings.Validate(); err != nil {
		return nil, err
	}
	if cfg.Scheduler == nil {
		cfg.Scheduler = RealScheduler{}
	}
	return &Controller{
		transport: cfg.Transport,
		fallback:  cfg.Fallback,
		sched:     cfg.Scheduler,
		settings:  cfg.Settings,
		events:    cfg.Events,
		log:       cfg.Logger,
		state:     StateIdle,
	}, nil
}

// RequestOpen starts a session, or refocuses the active surface when one
// is already locked in. The open itself is debounced: ~1s normally so
// operations that resolve instantly never flash a window, near-zero for
// lazy opens and extension tabs, skipped entirely on an unsupported
// platform (which opens degraded, immediately).
func (c *Controller) RequestOpen(lazy bool) {
	c.mu.Lock()
	if c.locked {
		h := c.handle
		c.mu.Unlock()
		if h != nil {
			h.Focus()
		}
		return
	}
	c.locked = true
	c.lazy = lazy
	c.state = StateRequested
	if lazy {
		c.readiness = newLatch()
		c.listenLocked()
	}
	if !c.settings.Supported {
		c.openLocked()
		c.mu.Unlock()
		return
	}
	delay := c.settings.DebounceDelay
	if lazy || c.transport.Kind() == KindExtensionTab {
		delay = c.settings.LazyDebounceDelay
	}
	c.timers.debounce = c.sched.AfterFunc(delay, c.onDebounce)
	c.mu.Unlock()
}

// Cancel is equivalent to Close.
func (c *Controller) Cancel() {
	c.Close()
}

// OnBeforeUnload tears the session down when the host application is
// unloading.
func (c *Controller) OnBeforeUnload() {
	c.Close()
}

// Unlock clears the session lock without closing anything. Used when the
// caller determined no popup interaction was actually required.
func (c *Controller) Unlock() {
	c.mu.Lock()
	c.locked = false
	c.mu.Unlock()
}

// SetBroadcastID stores the identifier answered to an extension tab's
// extension.request round. No effect on the direct-window transport.
func (c *Controller) SetBroadcastID(id string) {
	c.mu.Lock()
	c.broadcastID = id
	c.mu.Unlock()
}

// Close cancels every pending timer and disposes the surface. Idempotent:
// closing a closed session does nothing. The session lock deliberately
// survives Close; releasing it is the caller's call, via Unlock.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closeLocked(closeReasonExplicit)
	c.mu.Unlock()
}

// PostMessage forwards an application payload to the surface. While the
// debounce is still pending the payload is dropped silently: the surface
// was never even requested. A payload arriving with no handle while the
// watchdog still runs means the open sequence stalled, which recovers
// exactly like a watchdog failure: close, fallback prompt, payload
// dropped.
func (c *Controller) PostMessage(msg Message) error {
	c.mu.Lock()
	if c.timers.debounce != nil {
		c.mu.Unlock()
		c.log.Debug().Str("type", msg.Type).Msg("popup.post.dropped_debouncing")
		return nil
	}
	if c.handle == nil && msg.Type != MsgWindowRequested && c.timers.watchdog != nil {
		c.closeLocked(closeReasonPremature)
		c.state = StateFailed
		c.mu.Unlock()
		observability.RecordPopupPrematurePayload()
		c.log.Warn().Str("type", msg.Type).Msg("popup.post.premature")
		c.presentFallback()
		return nil
	}
	h := c.handle
	c.mu.Unlock()
	if h == nil {
		c.log.Debug().Str("type", msg.Type).Msg("popup.post.dropped_no_surface")
		return nil
	}
	return h.Send(msg)
}

// ResolveReadiness completes the two-round readiness handshake: wait for
// the popup's init signal (satisfied immediately for non-lazy sessions),
// then answer with the acknowledgement init that authorizes the popup to
// proceed. The wait itself has no timeout; ctx is the caller's own outer
// bound, and without one this blocks until the popup signals.
func (c *Controller) ResolveReadiness(ctx context.Context) error {
	c.mu.Lock()
	r := c.readiness
	c.mu.Unlock()
	if r != nil {
		if err := r.Wait(ctx); err != nil {
			return err
		}
	}
	c.mu.Lock()
	h := c.handle
	c.mu.Unlock()
	if h == nil {
		return ErrSurfaceNotOpen
	}
	if err := h.Send(Message{Type: MsgInit}); err != nil {
		return err
	}
	c.mu.Lock()
	first := c.state == StateRequested || c.state == StateOpening
	if first {
		c.state = StateReady
	}
	onReady := c.events.OnReady
	c.mu.Unlock()
	if first && onReady != nil {
		onReady()
	}
	observability.RecordPopupHandshake(string(c.transport.Kind()))
	return nil
}

// State reports the current session phase.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Locked reports whether a session currently holds the lock.
func (c *Controller) Locked() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.locked
}

// openLocked performs the transport open and arms the post-open timers.
// Re-entrant: the fallback prompt's retry path lands here again. An open
// error leaves the handle nil and lets the watchdog own recovery, so a
// blocked surface and one that silently never appears take one path.
func (c *Controller) openLocked() {
	locator := c.settings.Locator
	switch {
	case !c.settings.Supported:
		locator += SuffixUnsupported
	case c.lazy:
		locator += SuffixLoading
	}
	h, err := c.transport.Open(locator, OpenOptions{Width: c.settings.Width, Height: c.settings.Height})
	if err != nil {
		c.log.Warn().Err(err).Str("locator", locator).Msg("popup.open.unconfirmed")
		observability.RecordPopupOpenFailure(string(c.transport.Kind()))
	} else {
		c.handle = h
		h.SetInbound(c.handleInbound)
		observability.RecordPopupOpen(string(c.transport.Kind()))
		c.log.Info().
			Str("locator", locator).
			Str("transport", string(c.transport.Kind())).
			Bool("lazy", c.lazy).
			Msg("popup.open")
	}
	if c.stopListen != nil {
		c.stopListen()
		c.stopListen = nil
	}
	c.state = StateOpening
	c.timers.liveness = c.sched.Every(c.settings.LivenessInterval, c.onLivenessTick)
	c.timers.watchdog = c.sched.AfterFunc(c.settings.WatchdogDelay, c.onWatchdog)
}

func (c *Controller) listenLocked() {
	stop, err := c.transport.Listen(c.handleInbound)
	if err != nil {
		c.log.Warn().Err(err).Msg("popup.listen.failed")
		return
	}
	c.stopListen = stop
}

// closeLocked is the single teardown path. Timer cancellation tolerates
// already-cleared slots and the handle disposes at most once, so this is
// safe from any of the callbacks that can race into it. Bumping the
// epoch invalidates any fallback prompt still pending for the session,
// and clearing fallbackShown lets the next session present its own.
func (c *Controller) closeLocked(reason string) {
	c.timers.stopAll()
	if c.stopListen != nil {
		c.stopListen()
		c.stopListen = nil
	}
	if c.handle != nil {
		c.handle.Dispose()
		c.handle = nil
		observability.RecordPopupClose(string(c.transport.Kind()), reason)
		c.log.Info().Str("reason", reason).Msg("popup.close")
	}
	c.fallbackShown = false
	c.epoch++
	if c.state != StateIdle {
		c.state = StateClosed
	}
}

func (c *Controller) onDebounce() {
	c.mu.Lock()
	if c.timers.debounce == nil {
		c.mu.Unlock()
		return
	}
	c.timers.debounce = nil
	c.openLocked()
	c.mu.Unlock()
}

func (c *Controller) onWatchdog() {
	c.mu.Lock()
	if c.timers.watchdog == nil {
		c.mu.Unlock()
		return
	}
	c.timers.watchdog = nil
	h := c.handle
	c.mu.Unlock()

	if h != nil {
		ctx, cancel := c.aliveContext()
		alive := h.Alive(ctx)
		cancel()
		if alive {
			return
		}
	}

	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		return
	}
	c.closeLocked(closeReasonNotConfirmed)
	c.state = StateFailed
	c.mu.Unlock()
	c.presentFallback()
}

func (c *Controller) onLivenessTick() {
	c.mu.Lock()
	if c.timers.liveness == nil {
		c.mu.Unlock()
		return
	}
	h := c.handle
	c.mu.Unlock()
	if h == nil {
		return
	}

	ctx, cancel := c.aliveContext()
	alive := h.Alive(ctx)
	cancel()
	if alive {
		return
	}

	c.mu.Lock()
	if c.timers.liveness == nil {
		c.mu.Unlock()
		return
	}
	c.closeLocked(closeReasonSurfaceGone)
	c.mu.Unlock()
	c.emitClosed()
}

// presentFallback shows the manual-retry prompt at most once at a time.
// Retry re-enters the open sequence; give-up surfaces as a Closed event.
// The captured epoch pins both decisions to the session that failed, so
// a prompt answered after an explicit Close is a no-op.
func (c *Controller) presentFallback() {
	c.mu.Lock()
	if c.fallbackShown {
		c.mu.Unlock()
		return
	}
	c.fallbackShown = true
	epoch := c.epoch
	fb := c.fallback
	c.mu.Unlock()

	observability.RecordPopupFallback(string(c.transport.Kind()))
	if fb == nil {
		c.log.Warn().Msg("popup.fallback.unavailable")
		c.mu.Lock()
		c.fallbackShown = false
		c.mu.Unlock()
		c.emitClosed()
		return
	}
	retry := func() {
		c.mu.Lock()
		if c.epoch != epoch {
			c.mu.Unlock()
			return
		}
		c.fallbackShown = false
		c.openLocked()
		c.mu.Unlock()
	}
	giveUp := func() {
		c.mu.Lock()
		if c.epoch != epoch {
			c.mu.Unlock()
			return
		}
		c.fallbackShown = false
		c.mu.Unlock()
		c.emitClosed()
	}
	fb.Present(retry, giveUp)
}

func (c *Controller) emitClosed() {
	if c.events.OnClosed != nil {
		c.events.OnClosed()
	}
}

// handleInbound routes control messages from the popup side. Application
// payloads coming back from the popup are not this controller's concern
// and fall through.
func (c *Controller) handleInbound(msg Message) {
	switch msg.Type {
	case MsgInit:
		c.mu.Lock()
		r := c.readiness
		stop := c.stopListen
		c.stopListen = nil
		first := r != nil && !r.Resolved()
		if r != nil {
			r.Resolve()
		}
		if first && (c.state == StateRequested || c.state == StateOpening) {
			c.state = StateReady
		}
		onReady := c.events.OnReady
		c.mu.Unlock()
		if stop != nil {
			stop()
		}
		if first && onReady != nil {
			onReady()
		}
	case MsgExtensionRequest:
		c.mu.Lock()
		h := c.handle
		id := c.broadcastID
		c.mu.Unlock()
		if h == nil || h.Kind() != KindExtensionTab {
			return
		}
		if err := h.Send(extensionAck(id)); err != nil {
			c.log.Warn().Err(err).Msg("popup.extension.ack.send")
		}
	case MsgUSBPermissions:
		aux, ok := c.transport.(AuxiliaryOpener)
		if !ok {
			return
		}
		locator := c.settings.PermissionsLocator
		if locator == "" {
			c.log.Warn().Msg("popup.permissions.locator_unset")
			return
		}
		if err := aux.OpenAuxiliary(locator); err != nil {
			c.log.Warn().Err(err).Str("locator", locator).Msg("popup.permissions.open")
		}
	}
}

func (c *Controller) aliveContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), c.settings.LivenessInterval)
}
