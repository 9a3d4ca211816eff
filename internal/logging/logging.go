package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Formats accepted by Setup.
const (
	FormatAuto    = "auto"
	FormatConsole = "console"
	FormatJSON    = "json"
)

// ValidFormat reports whether format is accepted by Setup.
func ValidFormat(format string) bool {
	switch format {
	case "", FormatAuto, FormatConsole, FormatJSON:
		return true
	}
	return false
}

// Setup points the global logger at w with the given level and format and
// returns it. An unparsable level falls back to info.
func Setup(level, format string, w io.Writer) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	if format == "" || format == FormatAuto {
		format = FormatJSON
		if isTerminal(w) {
			format = FormatConsole
		}
	}

	if format == FormatConsole {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: w, NoColor: !isTerminal(w)}).
			With().
			Timestamp().
			Logger()
	} else {
		log.Logger = zerolog.New(w).With().Timestamp().Logger()
	}
	return log.Logger
}

// WithRun returns a child of the global logger tagged with the run id.
func WithRun(runID string) zerolog.Logger {
	return log.Logger.With().Str("run_id", runID).Logger()
}

// ParseLevel validates a level name.
func ParseLevel(level string) error {
	if _, err := zerolog.ParseLevel(level); err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
