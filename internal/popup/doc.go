// Package popup owns the popup surface lifecycle.
//
// Ownership boundary:
// - session state machine (debounce -> open -> ready/failed/closed)
// - transport abstraction over direct windows and extension-hosted tabs
// - readiness handshake and liveness/watchdog supervision
//
// The popup package does not render the surface, present the fallback
// prompt, or interpret application payloads. Those arrive as injected
// capabilities and opaque messages.
package popup
