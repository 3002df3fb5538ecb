package infrastructure

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lmittmann/tint"

	"gapminder/internal/config"
)

// NewLogger builds the process logger from cfg. Records go to console, to
// cfg.FilePath, or to both. The returned closer releases the log file and is
// a no-op for console output.
//
// JSON is the default format; "text" renders through tint, colourised only
// when writing to the console alone.
func NewLogger(cfg config.LoggingConfig, console io.Writer) (*slog.Logger, io.Closer, error) {
	out, closer, err := logOutput(cfg, console)
	if err != nil {
		return nil, nil, err
	}

	level := logLevel(cfg.Level)
	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		handler = tint.NewHandler(out, &tint.Options{
			Level:      level,
			TimeFormat: time.TimeOnly,
			NoColor:    !strings.EqualFold(cfg.Output, "console"),
		})
	} else {
		handler = slog.NewJSONHandler(out, &slog.HandlerOptions{
			AddSource: true,
			Level:     level,
		})
	}
	return slog.New(contextHandler{handler}), closer, nil
}

func logOutput(cfg config.LoggingConfig, console io.Writer) (io.Writer, io.Closer, error) {
	mode := strings.ToLower(cfg.Output)
	if mode != "file" && mode != "both" {
		return console, nopCloser{}, nil
	}

	file, err := openLogFile(cfg.FilePath)
	if err != nil {
		return nil, nil, err
	}
	if mode == "both" {
		return io.MultiWriter(console, file), file, nil
	}
	return file, file, nil
}

// logLevel parses a configured level; anything unrecognised logs at INFO.
func logLevel(s string) slog.Level {
	if strings.EqualFold(s, "warning") {
		return slog.LevelWarn
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// contextHandler stamps trace and run identifiers carried by the context onto
// each record.
type contextHandler struct {
	slog.Handler
}

func (h contextHandler) Handle(ctx context.Context, r slog.Record) error {
	r.AddAttrs(contextAttrs(ctx)...)
	return h.Handler.Handle(ctx, r)
}

func (h contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return contextHandler{h.Handler.WithAttrs(attrs)}
}

func (h contextHandler) WithGroup(name string) slog.Handler {
	return contextHandler{h.Handler.WithGroup(name)}
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}
	return file, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
