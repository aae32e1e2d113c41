package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/danmuck/popupctl/internal/testutil/testlog"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "host.toml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadHostConfigAppliesDefaults(t *testing.T) {
	testlog.Start(t)
	path := writeConfig(t, "")
	cfg, err := LoadHostConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Name != "popupctl" || cfg.Addr != ":9400" || cfg.Popup.LocatorPath != "/popup" {
		t.Fatalf("defaults %+v", cfg)
	}
}

func TestLoadHostConfigReadsFields(t *testing.T) {
	testlog.Start(t)
	path := writeConfig(t, `
name = "bridge-a"
addr = ":9500"
public_url = "http://bridge-a.local"
cors_origins = ["http://127.0.0.1:9500"]
browser = "firefox"
heartbeat_ms = 10000

[popup]
locator_path = "/p"
permissions_path = "/p/perm"
width = 800
height = 600
debounce_ms = 250
unsupported = true
`)
	cfg, err := LoadHostConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Name != "bridge-a" || cfg.Addr != ":9500" || cfg.Browser != "firefox" {
		t.Fatalf("top-level %+v", cfg)
	}
	if cfg.PublicURL != "http://bridge-a.local" || cfg.HeartbeatMS != 10000 {
		t.Fatalf("top-level %+v", cfg)
	}
	if cfg.Popup.Width != 800 || cfg.Popup.DebounceMS != 250 || !cfg.Popup.Unsupported {
		t.Fatalf("popup %+v", cfg.Popup)
	}
}

func TestLoadHostConfigRejectsBadValues(t *testing.T) {
	testlog.Start(t)
	cases := []struct {
		name    string
		content string
	}{
		{"relative locator", "[popup]\nlocator_path = \"popup\"\n"},
		{"relative permissions", "[popup]\npermissions_path = \"perm\"\n"},
		{"negative width", "[popup]\nwidth = -1\n"},
		{"negative watchdog", "[popup]\nwatchdog_ms = -5\n"},
		{"negative heartbeat", "heartbeat_ms = -1\n"},
	}
	for _, tc := range cases {
		path := writeConfig(t, tc.content)
		if _, err := LoadHostConfig(path); err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
	}
}

func TestLoadHostConfigMissingFile(t *testing.T) {
	testlog.Start(t)
	if _, err := LoadHostConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatalf("expected load error")
	}
}

func TestPopupSettingsConversion(t *testing.T) {
	testlog.Start(t)
	cfg := HostConfig{
		Popup: PopupConfig{
			LocatorPath:     "/popup",
			PermissionsPath: "/popup/permissions",
			Width:           800,
			DebounceMS:      250,
			Unsupported:     true,
		},
	}
	s := PopupSettings(cfg, "http://127.0.0.1:9400")
	if s.Locator != "http://127.0.0.1:9400/popup" {
		t.Fatalf("locator %q", s.Locator)
	}
	if s.PermissionsLocator != "http://127.0.0.1:9400/popup/permissions" {
		t.Fatalf("permissions locator %q", s.PermissionsLocator)
	}
	if s.Width != 800 || s.DebounceDelay != 250*time.Millisecond {
		t.Fatalf("explicit values %+v", s)
	}
	// Unset fields come back as reference defaults.
	if s.Height != 500 || s.WatchdogDelay != 2*time.Second {
		t.Fatalf("defaulted values %+v", s)
	}
	if s.Supported {
		t.Fatalf("unsupported flag lost in conversion")
	}
}

func TestPopupSettingsWithoutBaseURLLeavesLocatorsUnset(t *testing.T) {
	testlog.Start(t)
	cfg := HostConfig{
		Popup: PopupConfig{LocatorPath: "/popup", PermissionsPath: "/popup/permissions"},
	}
	s := PopupSettings(cfg, "")
	if s.Locator != "" || s.PermissionsLocator != "" {
		t.Fatalf("locators set without a base URL: %+v", s)
	}
}

func TestPresenceTTL(t *testing.T) {
	testlog.Start(t)
	explicit := HostConfig{Popup: PopupConfig{PresenceTTLMS: 1500}}
	if got := PresenceTTL(explicit); got != 1500*time.Millisecond {
		t.Fatalf("explicit ttl %v", got)
	}
	derived := HostConfig{Popup: PopupConfig{LivenessIntervalMS: 300}}
	if got := PresenceTTL(derived); got != 600*time.Millisecond {
		t.Fatalf("derived ttl %v", got)
	}
	if got := PresenceTTL(HostConfig{}); got != time.Second {
		t.Fatalf("default ttl %v", got)
	}
}

func TestTemplateRoundTrip(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "host.toml")
	if err := WriteTemplate(path, "host", false); err != nil {
		t.Fatalf("write template: %v", err)
	}
	if err := WriteTemplate(path, "host", false); err == nil {
		t.Fatalf("expected overwrite refusal")
	}
	if err := WriteTemplate(path, "host", true); err != nil {
		t.Fatalf("forced overwrite: %v", err)
	}

	cfg, err := LoadHostConfig(path)
	if err != nil {
		t.Fatalf("load template: %v", err)
	}
	if cfg.Popup.DebounceMS != 1000 || cfg.Popup.LazyDebounceMS != 1 {
		t.Fatalf("template popup policy %+v", cfg.Popup)
	}
}

func TestTemplateUnknownKind(t *testing.T) {
	testlog.Start(t)
	if _, err := Template("cluster"); err == nil {
		t.Fatalf("expected unknown kind error")
	}
}
