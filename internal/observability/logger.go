package observability

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitLogger builds the process-wide logger and installs it as the
// zerolog global. Console output goes to stderr so piped stdout stays
// clean for tooling.
func InitLogger(app string) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.TimeOnly,
	}
	logger := zerolog.New(output).
		Level(zerolog.GlobalLevel()).
		With().
		Timestamp().
		Str("service", app).
		Int("pid", os.Getpid()).
		Logger()
	log.Logger = logger
	return logger
}
