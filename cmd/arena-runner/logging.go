package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

var levelColors = map[slog.Level]string{
	slog.LevelDebug: "\x1b[36m",
	slog.LevelInfo:  "\x1b[32m",
	slog.LevelWarn:  "\x1b[33m",
	slog.LevelError: "\x1b[31m",
}

// newLogger builds the runner's logger. An empty format picks text on a
// terminal and json otherwise; terminal text output gets coloured levels.
func newLogger(w io.Writer, format string, verbose bool) (*slog.Logger, error) {
	color := false
	if f, ok := w.(*os.File); ok {
		tty := (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) && os.Getenv("TERM") != "dumb"
		if format == "" && tty {
			format = "text"
		}
		if tty && format == "text" {
			color = true
			w = colorable.NewColorable(f)
		}
	}

	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if verbose {
		opts.Level = slog.LevelDebug
	}
	switch format {
	case "", "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "text":
		if color {
			opts.ReplaceAttr = colorLevel
		}
		return slog.New(slog.NewTextHandler(w, opts)), nil
	}
	return nil, fmt.Errorf("unknown log format %q", format)
}

func colorLevel(groups []string, a slog.Attr) slog.Attr {
	if a.Key != slog.LevelKey || len(groups) > 0 {
		return a
	}
	lvl, ok := a.Value.Any().(slog.Level)
	if !ok {
		return a
	}
	if c, ok := levelColors[lvl]; ok {
		a.Value = slog.StringValue(c + lvl.String() + "\x1b[0m")
	}
	return a
}
