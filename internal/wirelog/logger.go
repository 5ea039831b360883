// Package wirelog builds the structured loggers that are passed to the
// transport driver and both pipelines as constructor arguments or options.
package wirelog

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// Format selects how log records are rendered.
type Format string

// Supported formats.
const (
	FormatAuto   Format = ""
	FormatJSON   Format = "json"
	FormatPretty Format = "pretty"
)

// Options configures New.
type Options struct {
	Level  zerolog.Level
	Format Format
	Output io.Writer // defaults to os.Stderr
}

// New builds a zerolog.Logger. With FormatAuto, pretty console output is
// used when Output is a terminal, JSON otherwise -- the right default for
// a library meant to run both interactively and inside another service's
// log pipeline.
func New(opts Options) zerolog.Logger {
	output := opts.Output
	if output == nil {
		output = os.Stderr
	}

	if shouldUsePretty(opts.Format, output) {
		output = consoleWriter(output)
	}

	return zerolog.New(output).
		Level(opts.Level).
		With().
		Timestamp().
		Logger()
}

func shouldUsePretty(format Format, output io.Writer) bool {
	switch format {
	case FormatPretty:
		return true
	case FormatJSON:
		return false
	default:
		f, ok := output.(*os.File)
		return ok && isatty.IsTerminal(f.Fd())
	}
}

func consoleWriter(output io.Writer) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:        output,
		TimeFormat: "15:04:05",
		FormatMessage: func(i interface{}) string {
			if i == nil {
				return ""
			}
			return fmt.Sprintf("-> %s", i)
		},
	}
}

type ctxKey string

const sessionIDKey ctxKey = "session_id"

// WithSessionID attaches a session identifier to both the context and the
// logger it carries, generating one if sessionID is empty. Every stage of
// the outbound/inbound pipelines can then log with the identifier of the
// transcription session they belong to.
func WithSessionID(ctx context.Context, logger zerolog.Logger, sessionID string) (context.Context, zerolog.Logger) {
	if sessionID == "" {
		sessionID = uuid.New().String()
	}
	scoped := logger.With().Str("session_id", sessionID).Logger()
	ctx = context.WithValue(ctx, sessionIDKey, sessionID)
	return scoped.WithContext(ctx), scoped
}

// SessionID retrieves the session identifier stashed by WithSessionID.
func SessionID(ctx context.Context) string {
	id, _ := ctx.Value(sessionIDKey).(string)
	return id
}
