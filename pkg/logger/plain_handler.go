package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// metaKeys are attributes kept out of console lines; they remain in file logs.
var metaKeys = map[string]bool{
	"intention": true,
	"time":      true,
	"level":     true,
	"msg":       true,
	"component": true,
}

// plainHandler is a minimal slog.Handler that prints only the message,
// prefixed by the intention icon, and appends key=value pairs without
// time/level decorations. Intended for clean console output.
type plainHandler struct {
	w       io.Writer
	attrs   []slog.Attr
	mu      sync.Mutex
	leveler slog.Leveler
}

func newPlainHandler(w io.Writer, leveler slog.Leveler) slog.Handler {
	return &plainHandler{w: w, leveler: leveler}
}

func (h *plainHandler) Enabled(_ context.Context, lvl slog.Level) bool {
	if h.leveler == nil {
		return true
	}
	return lvl >= h.leveler.Level()
}

func (h *plainHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	intention := ""
	probe := func(a slog.Attr) {
		if a.Key == "intention" {
			intention = a.Value.String()
		}
	}
	for _, a := range h.attrs {
		probe(a)
	}
	r.Attrs(func(a slog.Attr) bool {
		probe(a)
		return true
	})

	line := r.Message
	if intention != "" {
		line = iconFor(Intention(intention)) + " " + line
	}

	appendAttr := func(a slog.Attr) {
		if a.Value.Kind() == slog.KindGroup {
			for _, ga := range a.Value.Group() {
				if !metaKeys[ga.Key] {
					line += fmt.Sprintf(" %s=%v", ga.Key, ga.Value)
				}
			}
			return
		}
		if !metaKeys[a.Key] {
			line += fmt.Sprintf(" %s=%v", a.Key, a.Value)
		}
	}
	for _, a := range h.attrs {
		appendAttr(a)
	}
	r.Attrs(func(a slog.Attr) bool {
		appendAttr(a)
		return true
	})

	_, err := fmt.Fprintln(h.w, line)
	return err
}

func (h *plainHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	nh := &plainHandler{w: h.w, leveler: h.leveler}
	nh.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return nh
}

func (h *plainHandler) WithGroup(name string) slog.Handler {
	nh := &plainHandler{w: h.w, leveler: h.leveler}
	nh.attrs = append(append([]slog.Attr{}, h.attrs...), slog.Group(name))
	return nh
}
