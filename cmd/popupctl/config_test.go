package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/danmuck/popupctl/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadServiceConfigEmptyFileKeepsDefaults(t *testing.T) {
	path := writeConfig(t, "")
	cfg, err := loadServiceConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Name != "popupctl" || cfg.ListenAddr != ":9400" {
		t.Fatalf("defaults %+v", cfg)
	}
	if cfg.LocatorPath != "/popup" || cfg.PermissionsPath != "/popup/permissions" {
		t.Fatalf("default paths %+v", cfg)
	}
	if cfg.HeartbeatInterval != 5*time.Second || cfg.PresenceTTL != time.Second {
		t.Fatalf("default intervals %+v", cfg)
	}
	if cfg.Popup.DebounceDelay != time.Second || !cfg.Popup.Supported {
		t.Fatalf("default popup policy %+v", cfg.Popup)
	}
}

func TestLoadServiceConfigOverlaysDefinedKeysOnly(t *testing.T) {
	path := writeConfig(t, `
name = "bridge-a"
addr = ":9500"
heartbeat_ms = 10000

[popup]
debounce_ms = 250
unsupported = true
`)
	cfg, err := loadServiceConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Name != "bridge-a" || cfg.ListenAddr != ":9500" {
		t.Fatalf("overlaid fields %+v", cfg)
	}
	if cfg.HeartbeatInterval != 10*time.Second {
		t.Fatalf("heartbeat %v", cfg.HeartbeatInterval)
	}
	if cfg.Popup.DebounceDelay != 250*time.Millisecond {
		t.Fatalf("debounce %v", cfg.Popup.DebounceDelay)
	}
	if cfg.Popup.Supported {
		t.Fatalf("unsupported flag not applied")
	}
	// Keys absent from the file keep their defaults.
	if cfg.LocatorPath != "/popup" || cfg.Popup.WatchdogDelay != 2*time.Second {
		t.Fatalf("untouched defaults %+v", cfg)
	}
}

func TestLoadServiceConfigRejectsInvalid(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"empty name", "name = \" \"\n"},
		{"relative locator", "[popup]\nlocator_path = \"popup\"\n"},
		{"relative permissions", "[popup]\npermissions_path = \"perm\"\n"},
		{"negative heartbeat", "heartbeat_ms = -1\n"},
		{"negative watchdog", "[popup]\nwatchdog_ms = -5\n"},
	}
	for _, tc := range cases {
		path := writeConfig(t, tc.content)
		if _, err := loadServiceConfig(path); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
}

func TestLoadServiceConfigReadsNestedPaths(t *testing.T) {
	path := writeConfig(t, `
[popup]
locator_path = "/p"
permissions_path = "/p/perm"
presence_ttl_ms = 1500
`)
	cfg, err := loadServiceConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LocatorPath != "/p" || cfg.PermissionsPath != "/p/perm" {
		t.Fatalf("paths %+v", cfg)
	}
	if cfg.PresenceTTL != 1500*time.Millisecond {
		t.Fatalf("presence ttl %v", cfg.PresenceTTL)
	}
	// Locators are derived later from the service base URL.
	if cfg.Popup.Locator != "" || cfg.Popup.PermissionsLocator != "" {
		t.Fatalf("locators set prematurely %+v", cfg.Popup)
	}
}

func TestLoadServiceConfigAcceptsGeneratedTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := config.WriteTemplate(path, "host", false); err != nil {
		t.Fatalf("write template: %v", err)
	}
	cfg, err := loadServiceConfig(path)
	if err != nil {
		t.Fatalf("load generated template: %v", err)
	}
	if cfg.LocatorPath != "/popup" || cfg.PermissionsPath != "/popup/permissions" {
		t.Fatalf("template paths %+v", cfg)
	}
	if cfg.PresenceTTL != time.Second || cfg.HeartbeatInterval != 5*time.Second {
		t.Fatalf("template intervals %+v", cfg)
	}
	if cfg.Popup.WatchdogDelay != 2*time.Second || !cfg.Popup.Supported {
		t.Fatalf("template popup policy %+v", cfg.Popup)
	}
}

func TestLoadServiceConfigMissingFile(t *testing.T) {
	if _, err := loadServiceConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatalf("expected load error")
	}
}
