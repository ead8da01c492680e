package observ

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger builds the console logger used by the CLI. Library code takes a
// zerolog.Logger from its configuration and defaults to zerolog.Nop().
func NewLogger(w io.Writer, app string, level zerolog.Level) zerolog.Logger {
	output := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	return zerolog.New(output).Level(level).With().Timestamp().Str("app", app).Logger()
}
