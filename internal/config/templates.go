package config

import (
	"fmt"
	"os"
	"strings"
)

func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "host":
		return hostTemplate, nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const hostTemplate = `name = "popupctl"
addr = ":9400"
public_url = ""
cors_origins = ["http://127.0.0.1:9400"]
browser = ""
heartbeat_ms = 5000

[popup]
locator_path = "/popup"
permissions_path = "/popup/permissions"
width = 640
height = 500
debounce_ms = 1000
lazy_debounce_ms = 1
liveness_interval_ms = 500
watchdog_ms = 2000
presence_ttl_ms = 1000
unsupported = false
`
