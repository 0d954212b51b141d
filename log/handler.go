package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// formatterHandler adapts a LogFormatter into an slog.Handler, so the
// Logger's slog pipeline renders through TextFormatter/JSONFormatter/
// ColorFormatter instead of slog's own handlers.
type formatterHandler struct {
	formatter LogFormatter
	level     slog.Level
	w         io.Writer
	mu        *sync.Mutex
	attrs     []slog.Attr
}

func newFormatterHandler(formatter LogFormatter, level slog.Level, w io.Writer) *formatterHandler {
	return &formatterHandler{
		formatter: formatter,
		level:     level,
		w:         w,
		mu:        &sync.Mutex{},
	}
}

func (h *formatterHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *formatterHandler) Handle(_ context.Context, r slog.Record) error {
	fields := make(map[string]interface{}, len(h.attrs)+r.NumAttrs())
	for _, a := range h.attrs {
		fields[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		fields[a.Key] = a.Value.Any()
		return true
	})

	entry := LogEntry{
		Timestamp: r.Time,
		Level:     slogLevelToLogLevel(r.Level),
		Message:   r.Message,
		Fields:    fields,
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := fmt.Fprintln(h.w, h.formatter.Format(entry))
	return err
}

func (h *formatterHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &formatterHandler{formatter: h.formatter, level: h.level, w: h.w, mu: h.mu, attrs: merged}
}

// WithGroup is unsupported: formatterHandler flattens all attributes, so a
// grouped call falls back to the same handler rather than nesting fields.
func (h *formatterHandler) WithGroup(_ string) slog.Handler {
	return h
}

func slogLevelToLogLevel(l slog.Level) LogLevel {
	switch {
	case l < slog.LevelInfo:
		return DEBUG
	case l < slog.LevelWarn:
		return INFO
	case l < slog.LevelError:
		return WARN
	default:
		return ERROR
	}
}
