package config

import (
	"time"

	"github.com/danmuck/popupctl/internal/popup"
)

// PopupSettings converts file-level popup policy into runtime settings.
// baseURL is the bridge's externally reachable origin; when empty the
// locators are left unset for the runtime to derive from its listen
// address. Zero-valued file fields fall back to reference defaults via
// WithDefaults.
func PopupSettings(cfg HostConfig, baseURL string) popup.Settings {
	settings := popup.Settings{
		Width:             cfg.Popup.Width,
		Height:            cfg.Popup.Height,
		DebounceDelay:     time.Duration(cfg.Popup.DebounceMS) * time.Millisecond,
		LazyDebounceDelay: time.Duration(cfg.Popup.LazyDebounceMS) * time.Millisecond,
		LivenessInterval:  time.Duration(cfg.Popup.LivenessIntervalMS) * time.Millisecond,
		WatchdogDelay:     time.Duration(cfg.Popup.WatchdogMS) * time.Millisecond,
		Supported:         !cfg.Popup.Unsupported,
	}
	if baseURL != "" {
		settings.Locator = baseURL + cfg.Popup.LocatorPath
		if cfg.Popup.PermissionsPath != "" {
			settings.PermissionsLocator = baseURL + cfg.Popup.PermissionsPath
		}
	}
	return settings.WithDefaults()
}

// PresenceTTL returns the page-presence TTL the bridge uses for
// aliveness, defaulting to twice the liveness interval so one missed
// poll never reads as a vanished surface.
func PresenceTTL(cfg HostConfig) time.Duration {
	if cfg.Popup.PresenceTTLMS > 0 {
		return time.Duration(cfg.Popup.PresenceTTLMS) * time.Millisecond
	}
	liveness := time.Duration(cfg.Popup.LivenessIntervalMS) * time.Millisecond
	if liveness <= 0 {
		liveness = popup.DefaultSettings().LivenessInterval
	}
	return 2 * liveness
}
