package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/danmuck/popupctl/internal/host"
	"github.com/danmuck/popupctl/internal/logging"
	"github.com/danmuck/popupctl/internal/observability"
)

func main() {
	configPath := flag.String("config", "", "path to popupctl config.toml")
	flag.Parse()

	logging.ConfigureRuntime()

	cfg := host.DefaultServiceConfig()
	if *configPath != "" {
		loaded, err := loadServiceConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "popupctl: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	observability.InitLogger(cfg.Name)

	svc, err := host.NewServiceWithConfig(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "popupctl: %v\n", err)
		os.Exit(1)
	}
	if err := svc.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "popupctl: %v\n", err)
		os.Exit(1)
	}
}
