// Package log configures the process-wide structured logger used for graph
// diagnostics (operator GUIDs, tensor FUIDs, shapes) and allocator reporting.
package log

import (
	"os"

	"github.com/rs/zerolog"
)

// Log is the package-level logger every component writes diagnostics to.
var Log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Caller().Logger()

func init() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
}

// SetLevel parses a level string (debug|info|warn|error) and applies it to
// Log, falling back to info on an unrecognized value.
func SetLevel(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	Log = Log.Level(lvl)
}
