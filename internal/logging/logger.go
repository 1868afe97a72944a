package logging

import (
	"os"

	"github.com/rs/zerolog"

	"github.com/trainops/workshop-portal/internal/config"
)

// NewLogger creates a structured zerolog.Logger tagged with the component
// name ("portal-api" or "worker").
func NewLogger(cfg *config.Config, component string) zerolog.Logger {
	ctx := zerolog.New(os.Stdout).With().Timestamp()

	if component != "" {
		ctx = ctx.Str("service", component)
	}

	logger := ctx.Logger()

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}

	return logger.Level(level)
}
