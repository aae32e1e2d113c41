package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// HostConfig configures the popup bridge host.
type HostConfig struct {
	Name        string      `toml:"name"`
	Addr        string      `toml:"addr"`
	PublicURL   string      `toml:"public_url"`
	CorsOrigins []string    `toml:"cors_origins"`
	Browser     string      `toml:"browser"`
	HeartbeatMS int         `toml:"heartbeat_ms"`
	Popup       PopupConfig `toml:"popup"`
}

// PopupConfig carries surface policy in file-friendly units.
type PopupConfig struct {
	LocatorPath        string `toml:"locator_path"`
	PermissionsPath    string `toml:"permissions_path"`
	Width              int    `toml:"width"`
	Height             int    `toml:"height"`
	DebounceMS         int    `toml:"debounce_ms"`
	LazyDebounceMS     int    `toml:"lazy_debounce_ms"`
	LivenessIntervalMS int    `toml:"liveness_interval_ms"`
	WatchdogMS         int    `toml:"watchdog_ms"`
	PresenceTTLMS      int    `toml:"presence_ttl_ms"`
	Unsupported        bool   `toml:"unsupported"`
}

func LoadHostConfig(path string) (HostConfig, error) {
	var cfg HostConfig
	if err := loadToml(path, &cfg); err != nil {
		return HostConfig{}, err
	}
	if cfg.Name == "" {
		cfg.Name = "popupctl"
	}
	if cfg.Addr == "" {
		cfg.Addr = ":9400"
	}
	if cfg.Popup.LocatorPath == "" {
		cfg.Popup.LocatorPath = "/popup"
	}
	if err := ValidateHostConfig(cfg); err != nil {
		return HostConfig{}, err
	}
	return cfg, nil
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

func ValidateHostConfig(cfg HostConfig) error {
	if strings.TrimSpace(cfg.Name) == "" {
		return fmt.Errorf("host config missing name")
	}
	if strings.TrimSpace(cfg.Addr) == "" {
		return fmt.Errorf("host config missing addr")
	}
	if cfg.HeartbeatMS < 0 {
		return fmt.Errorf("host heartbeat_ms must not be negative")
	}
	if !strings.HasPrefix(cfg.Popup.LocatorPath, "/") {
		return fmt.Errorf("popup locator_path must start with /")
	}
	if cfg.Popup.PermissionsPath != "" && !strings.HasPrefix(cfg.Popup.PermissionsPath, "/") {
		return fmt.Errorf("popup permissions_path must start with /")
	}
	if err := validateNonNegative("width", cfg.Popup.Width); err != nil {
		return err
	}
	if err := validateNonNegative("height", cfg.Popup.Height); err != nil {
		return err
	}
	for _, field := range []struct {
		name  string
		value int
	}{
		{"debounce_ms", cfg.Popup.DebounceMS},
		{"lazy_debounce_ms", cfg.Popup.LazyDebounceMS},
		{"liveness_interval_ms", cfg.Popup.LivenessIntervalMS},
		{"watchdog_ms", cfg.Popup.WatchdogMS},
		{"presence_ttl_ms", cfg.Popup.PresenceTTLMS},
	} {
		if err := validateNonNegative(field.name, field.value); err != nil {
			return err
		}
	}
	return nil
}

func validateNonNegative(name string, value int) error {
	if value < 0 {
		return fmt.Errorf("popup %s must not be negative", name)
	}
	return nil
}
