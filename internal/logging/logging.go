package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New builds the application logger. Development gets a human readable
// console writer, everything else gets JSON lines on stdout.
func New(environment, level string) zerolog.Logger {
	return NewWithWriter(os.Stdout, environment, level)
}

func NewWithWriter(w io.Writer, environment, level string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	if environment == "development" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	}

	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

// Printf adapts a zerolog logger to the Printf/Fatalf shape that gorm and
// goose expect from their loggers.
type Printf struct {
	Logger zerolog.Logger
}

func (p Printf) Printf(format string, args ...any) {
	p.Logger.Info().Msg(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (p Printf) Fatalf(format string, args ...any) {
	p.Logger.Fatal().Msg(strings.TrimSpace(fmt.Sprintf(format, args...)))
}
