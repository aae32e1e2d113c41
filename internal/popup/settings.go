package popup

import (
	"fmt"
	"strings"
	"time"
)

// Settings defines surface geometry and timer policy for one controller.
type Settings struct {
	// Locator is the base resource locator the surface navigates to.
	// Fragment suffixes (#loading, #unsupported) are appended by policy.
	Locator string

	// PermissionsLocator is the auxiliary host page opened on a USB
	// permissions request from the popup. Optional; the request is
	// dropped with a warning when unset.
	PermissionsLocator string

	Width  int
	Height int

	// DebounceDelay defers surface creation so operations that resolve
	// instantly never flash a window. LazyDebounceDelay replaces it for
	// lazy opens and extension-hosted tabs.
	DebounceDelay     time.Duration
	LazyDebounceDelay time.Duration

	// LivenessInterval is the poll period detecting a user-closed surface.
	// WatchdogDelay is the one-shot deadline for the surface to appear.
	LivenessInterval time.Duration
	WatchdogDelay    time.Duration

	// Supported=false marks a degraded platform: the debounce is skipped
	// and the surface opens immediately at <locator>#unsupported.
	Supported bool
}

// DefaultSettings returns the reference policy constants.
func DefaultSettings() Settings {
	return Settings{
		Width:             640,
		Height:            500,
		DebounceDelay:     1000 * time.Millisecond,
		LazyDebounceDelay: 1 * time.Millisecond,
		LivenessInterval:  500 * time.Millisecond,
		WatchdogDelay:     2000 * time.Millisecond,
		Supported:         true,
	}
}

// WithDefaults overlays zero-valued fields with reference defaults.
// Supported is left as-is: false is a meaningful value.
func (s Settings) WithDefaults() Settings {
	def := DefaultSettings()
	if s.Width <= 0 {
		s.Width = def.Width
	}
	if s.Height <= 0 {
		s.Height = def.Height
	}
	if s.DebounceDelay <= 0 {
		s.DebounceDelay = def.DebounceDelay
	}
	if s.LazyDebounceDelay <= 0 {
		s.LazyDebounceDelay = def.LazyDebounceDelay
	}
	if s.LivenessInterval <= 0 {
		s.LivenessInterval = def.LivenessInterval
	}
	if s.WatchdogDelay <= 0 {
		s.WatchdogDelay = def.WatchdogDelay
	}
	return s
}

func (s Settings) Validate() error {
	if strings.TrimSpace(s.Locator) == "" {
		return fmt.Errorf("%w: missing locator", ErrInvalidSettings)
	}
	if strings.Contains(s.Locator, "#") {
		return fmt.Errorf("%w: locator must not carry a fragment", ErrInvalidSettings)
	}
	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("%w: surface size %dx%d", ErrInvalidSettings, s.Width, s.Height)
	}
	if s.DebounceDelay <= 0 || s.LazyDebounceDelay <= 0 {
		return fmt.Errorf("%w: non-positive debounce delay", ErrInvalidSettings)
	}
	if s.LivenessInterval <= 0 {
		return fmt.Errorf("%w: non-positive liveness interval", ErrInvalidSettings)
	}
	if s.WatchdogDelay <= 0 {
		return fmt.Errorf("%w: non-positive watchdog delay", ErrInvalidSettings)
	}
	return nil
}
