// Package logger builds the zerolog loggers used by the API server and the
// CLI and carries them, with a run or request correlation ID, through
// context.Context.
package logger

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Output names where log lines are written.
const (
	OutputStdout  = "stdout"
	OutputStderr  = "stderr"
	OutputConsole = "console" // human readable, stderr
	OutputFile    = "file"
)

// Config selects level and destination. It mirrors config.LoggingConfig so
// this package does not import config.
type Config struct {
	Level     string
	Output    string
	FilePath  string
	MaxSizeMB int
	MaxFiles  int
}

type ctxKey int

const (
	loggerKey ctxKey = iota
	correlationIDKey
)

// ParseLevel maps a level name to a zerolog level. Unknown or empty names
// mean info.
func ParseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// New returns a JSON logger on stdout at the given level.
func New(level string) zerolog.Logger {
	return build(os.Stdout, level)
}

// NewFromConfig returns a logger writing to the configured output. The
// returned closer releases the log file, if any, and is never nil.
func NewFromConfig(cfg Config) (zerolog.Logger, io.Closer) {
	var (
		w      io.Writer = os.Stdout
		closer io.Closer = nopCloser{}
	)
	switch cfg.Output {
	case OutputStderr:
		w = os.Stderr
	case OutputConsole:
		w = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	case OutputFile:
		fw := NewFileWriter(FileConfig{
			Path:      cfg.FilePath,
			MaxSizeMB: cfg.MaxSizeMB,
			MaxFiles:  cfg.MaxFiles,
		})
		w, closer = fw, fw
	}
	return build(w, cfg.Level), closer
}

func build(w io.Writer, level string) zerolog.Logger {
	return zerolog.New(w).Level(ParseLevel(level)).With().Timestamp().Logger()
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// WithLogger stores log in ctx.
func WithLogger(ctx context.Context, log zerolog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, log)
}

// WithCorrelationID stores id in ctx.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

// CorrelationIDFromContext returns the correlation ID in ctx, or "".
func CorrelationIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(correlationIDKey).(string)
	return id
}

// FromContext returns the logger stored in ctx, or an info-level stdout
// logger, tagged with the correlation ID when one is present.
func FromContext(ctx context.Context) zerolog.Logger {
	log, ok := ctx.Value(loggerKey).(zerolog.Logger)
	if !ok {
		log = New("info")
	}
	if id := CorrelationIDFromContext(ctx); id != "" {
		return log.With().Str("correlation_id", id).Logger()
	}
	return log
}

// NewCorrelationID returns a random UUID string.
func NewCorrelationID() string {
	return uuid.NewString()
}
