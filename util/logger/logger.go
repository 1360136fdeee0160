/*
 * m65832 - slog handler wrapper.
 *
 * Grounded on github.com/rcornwell/S370 util/logger/logger.go's
 * LogHandler: a slog.Handler that renders a flat "time level message
 * attrs..." line, tees it to an optional log file, and mirrors
 * warnings and above (or everything, in debug mode) to stderr.
 */
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Handler is a slog.Handler writing a flat, single-line format to an
// optional file and, for warning-and-above records (or every record
// when Debug is set), to stderr.
type Handler struct {
	out   io.Writer
	inner slog.Handler
	mu    *sync.Mutex
	debug bool
}

// New wraps file in a Handler. file may be nil, in which case only the
// stderr mirror (per the debug/level rule) is active.
func New(file io.Writer, opts *slog.HandlerOptions, debug bool) *Handler {
	if opts == nil {
		opts = &slog.HandlerOptions{Level: slog.LevelDebug}
	}
	return &Handler{
		out:   file,
		inner: slog.NewTextHandler(io.Discard, opts),
		mu:    &sync.Mutex{},
		debug: debug,
	}
}

func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &Handler{out: h.out, inner: h.inner.WithAttrs(attrs), mu: h.mu, debug: h.debug}
}

func (h *Handler) WithGroup(name string) slog.Handler {
	return &Handler{out: h.out, inner: h.inner.WithGroup(name), mu: h.mu, debug: h.debug}
}

func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	parts := []string{
		r.Time.Format("2006/01/02 15:04:05"),
		r.Level.String() + ":",
		r.Message,
	}
	r.Attrs(func(a slog.Attr) bool {
		parts = append(parts, a.Key+"="+a.Value.String())
		return true
	})
	line := strings.Join(parts, " ") + "\n"
	b := []byte(line)

	h.mu.Lock()
	defer h.mu.Unlock()

	var err error
	if h.out != nil {
		_, err = h.out.Write(b)
	}
	if h.debug || r.Level >= slog.LevelWarn {
		_, werr := os.Stderr.Write(b)
		if err == nil {
			err = werr
		}
	}
	return err
}

// SetDebug toggles whether every record (not just warning-and-above)
// is mirrored to stderr.
func (h *Handler) SetDebug(debug bool) { h.debug = debug }
