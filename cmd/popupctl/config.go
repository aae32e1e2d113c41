package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/danmuck/popupctl/internal/config"
	"github.com/danmuck/popupctl/internal/host"
)

// loadServiceConfig reads the host config schema that configgen emits
// and overlays it onto the runtime defaults. Only keys actually present
// in the file override a default; the popup policy block converts
// through the shared config helpers.
func loadServiceConfig(path string) (host.ServiceConfig, error) {
	cfg := host.DefaultServiceConfig()

	var raw config.HostConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return host.ServiceConfig{}, fmt.Errorf("load popupctl config: %w", err)
	}

	if meta.IsDefined("name") {
		cfg.Name = strings.TrimSpace(raw.Name)
	}
	if meta.IsDefined("addr") {
		cfg.ListenAddr = strings.TrimSpace(raw.Addr)
	}
	if meta.IsDefined("public_url") {
		cfg.PublicURL = strings.TrimSpace(raw.PublicURL)
	}
	if meta.IsDefined("cors_origins") {
		cfg.CorsOrigins = raw.CorsOrigins
	}
	if meta.IsDefined("browser") {
		cfg.BrowserCommand = strings.TrimSpace(raw.Browser)
	}
	if meta.IsDefined("heartbeat_ms") {
		cfg.HeartbeatInterval = time.Duration(raw.HeartbeatMS) * time.Millisecond
	}
	if meta.IsDefined("popup", "locator_path") {
		cfg.LocatorPath = strings.TrimSpace(raw.Popup.LocatorPath)
	}
	if meta.IsDefined("popup", "permissions_path") {
		cfg.PermissionsPath = strings.TrimSpace(raw.Popup.PermissionsPath)
	}

	// Locators stay unset here; the service derives them from its own
	// base URL and the paths above.
	cfg.Popup = config.PopupSettings(raw, "")
	cfg.PresenceTTL = config.PresenceTTL(raw)

	if raw.Name == "" {
		raw.Name = cfg.Name
	}
	if raw.Addr == "" {
		raw.Addr = cfg.ListenAddr
	}
	if raw.Popup.LocatorPath == "" {
		raw.Popup.LocatorPath = cfg.LocatorPath
	}
	if err := config.ValidateHostConfig(raw); err != nil {
		return host.ServiceConfig{}, fmt.Errorf("load popupctl config: %w", err)
	}
	return cfg, nil
}
