// Package logger provides structured logging setup for AgilePulse.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/Strob0t/AgilePulse/internal/config"
)

const (
	asyncBuffer  = 4096
	asyncWorkers = 2
)

// level is shared by every logger built with New so SetLevel applies at runtime.
var level slog.LevelVar

// New creates a *slog.Logger from the given Logging config.
// Output is JSON to stdout, plus a rotating file when cfg.File is set, with a
// "service" attribute on every record and the request ID taken from the
// context. The returned Closer flushes async output and the log file.
func New(cfg config.Logging) (*slog.Logger, Closer) {
	level.Set(parseLevel(cfg.Level))

	var (
		out    io.Writer = os.Stdout
		closer Closer    = nopCloser{}
		file   *lumberjack.Logger
	)
	if cfg.File != "" {
		file = &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		}
		out = io.MultiWriter(os.Stdout, file)
		closer = fileCloser{file: file}
	}

	var handler slog.Handler = slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: &level,
	})

	if cfg.Async {
		async := NewAsyncHandler(handler, asyncBuffer, asyncWorkers)
		handler = async
		closer = chainCloser{async, closer}
	}

	return slog.New(&contextHandler{inner: handler}).With("service", cfg.Service), closer
}

type fileCloser struct {
	file *lumberjack.Logger
}

func (c fileCloser) Close() {
	_ = c.file.Close()
}

// chainCloser closes in order.
type chainCloser []Closer

func (c chainCloser) Close() {
	for _, cl := range c {
		cl.Close()
	}
}

// SetLevel changes the level of all loggers created by New.
func SetLevel(s string) {
	level.Set(parseLevel(s))
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
