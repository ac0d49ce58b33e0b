package logger

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	globalLogger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	once         sync.Once
)

// InitLogging configures the global zerolog logger. Only the first call has
// an effect.
func InitLogging(logFilePath, level string, pretty bool) {
	once.Do(func() {
		var stdout io.Writer = os.Stdout
		if pretty {
			stdout = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		}
		writers := []io.Writer{stdout}

		if logFilePath != "" {
			file, err := os.OpenFile(logFilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0664)
			if err != nil {
				// the logger is not ready yet
				os.Stderr.WriteString("Failed to open log file: " + err.Error() + "\n")
			} else {
				writers = append(writers, file)
			}
		}

		lvl, err := zerolog.ParseLevel(level)
		if err != nil || lvl == zerolog.NoLevel {
			lvl = zerolog.InfoLevel
		}

		l := zerolog.New(zerolog.MultiLevelWriter(writers...)).With().Timestamp().Logger().Level(lvl)
		globalLogger = l
		log.Logger = l
	})
}

// Global returns the process-wide logger.
func Global() zerolog.Logger {
	return globalLogger
}

// WithLogger returns a new context carrying a logger with additional fields.
func WithLogger(ctx context.Context, fields map[string]interface{}) context.Context {
	l := FromContext(ctx).With().Fields(fields).Logger()
	return l.WithContext(ctx)
}

// FromContext returns the logger stored in ctx, falling back to the global
// logger.
func FromContext(ctx context.Context) *zerolog.Logger {
	l := zerolog.Ctx(ctx)
	if l.GetLevel() == zerolog.Disabled {
		return &globalLogger
	}
	return l
}

func DebugLog(ctx context.Context, msg string, args ...interface{}) {
	FromContext(ctx).Debug().Msgf(msg, args...)
}

func InfoLog(ctx context.Context, msg string, args ...interface{}) {
	FromContext(ctx).Info().Msgf(msg, args...)
}

func WarnLog(ctx context.Context, msg string, args ...interface{}) {
	FromContext(ctx).Warn().Msgf(msg, args...)
}

// ErrorLog logs msg at error level with err attached. msg is not a format
// string.
func ErrorLog(ctx context.Context, msg string, err error) {
	e := FromContext(ctx).Error()
	if err != nil {
		e = e.Err(err)
	}
	e.Msg(msg)
}
