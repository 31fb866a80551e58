package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func Setup(dev bool) zerolog.Logger {
	return setup(os.Stderr, dev)
}

func setup(out io.Writer, dev bool) zerolog.Logger {
	var logger zerolog.Logger
	level := zerolog.InfoLevel
	if dev {
		level = zerolog.DebugLevel
	}

	logger = zerolog.New(out).Level(level).With().Timestamp().Caller().Logger()

	if dev {
		logger = logger.Output(zerolog.ConsoleWriter{Out: out, FormatTimestamp: func(i any) string {
			return time.Now().Format(time.RFC3339)
		}}).Level(level).With().Stack().Logger()
	}

	// packages below the commands log through the global logger
	log.Logger = logger
	zerolog.DefaultContextLogger = &log.Logger

	return logger
}

// BuildMessage is the subset of an esbuild message that gets logged.
type BuildMessage struct {
	Text   string
	File   string
	Line   int
	Column int
}

// LogBuildMessages writes each message at the given level with its location.
func LogBuildMessages(logger zerolog.Logger, level zerolog.Level, msg string, messages []BuildMessage) {
	for _, m := range messages {
		ev := logger.WithLevel(level).Str("error", m.Text)
		if m.File != "" {
			ev = ev.Str("file", m.File).Int("line", m.Line).Int("column", m.Column)
		}
		ev.Msg(msg)
	}
}
