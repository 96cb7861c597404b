// Package logging wires the node library's structured log package the way
// its own CLI entrypoints do: a terminal handler with ANSI color gated by
// isatty detection, optionally mirrored uncolored to a log file.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"

	"github.com/ethereum/go-ethereum/log"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

var uncolor = regexp.MustCompile("\x1b\\[([0-9]+;)*[0-9]+m")

// Uncolor strips ANSI color escapes, for callers that need to write a
// terminal-formatted line somewhere color codes don't belong (a file, a
// non-terminal pipe).
func Uncolor(text string) string {
	return uncolor.ReplaceAllString(text, "")
}

// Init installs the default logger at the given verbosity, writing
// colored output to stderr when it's a terminal and, if logFile is
// non-empty, an uncolored copy to that file.
func Init(verbosity slog.Level, logFile string) error {
	useColor := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
	var stderr io.Writer = os.Stderr
	if useColor {
		stderr = colorable.NewColorable(os.Stderr)
	}

	handler := slog.Handler(log.NewTerminalHandler(stderr, useColor))
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("logging: open log file %s: %w", logFile, err)
		}
		handler = fanoutHandler{handler, log.NewTerminalHandler(f, false)}
	}

	glogger := log.NewGlogHandler(handler)
	glogger.Verbosity(verbosity)
	log.SetDefault(log.NewLogger(glogger))
	return nil
}

// fanoutHandler duplicates every record across a small, fixed set of
// slog.Handlers, used here to mirror the colored terminal stream to an
// uncolored log file.
type fanoutHandler []slog.Handler

func (f fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanoutHandler) Handle(ctx context.Context, record slog.Record) error {
	for _, h := range f {
		if h.Enabled(ctx, record.Level) {
			if err := h.Handle(ctx, record.Clone()); err != nil {
				return err
			}
		}
	}
	return nil
}

func (f fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanoutHandler, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanoutHandler) WithGroup(name string) slog.Handler {
	out := make(fanoutHandler, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}
