package log

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	ansiReset  = "\033[0m"
	ansiDim    = "\033[2m"
	ansiBold   = "\033[1m"
	ansiRed    = "\033[31m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiCyan   = "\033[36m"

	timeLayout    = "15:04:05.000"
	requestIDAttr = "request_id"
)

// TerminalHandler writes one line per record for people watching the
// CLI or server. The request id, when present, is lifted out of the
// attributes into a tag after the level:
//
//	15:04:05.000 INF [7f3c/000002] request completed method=POST path=/api/v1/search status=200
//	15:04:05.000 INF partition ingested partition=1-Common-Action keywords=12
type TerminalHandler struct {
	sink  *terminalSink
	level slog.Leveler

	// prefix qualifies attribute keys with the open groups, e.g. "embed.".
	prefix string
	// bound holds attributes from WithAttrs, already rendered.
	bound string
}

// terminalSink is shared by every handler derived from the same root so
// concurrent lines never interleave.
type terminalSink struct {
	mu    sync.Mutex
	w     io.Writer
	color bool
}

func newTerminalHandler(w io.Writer, opts *slog.HandlerOptions, color bool) *TerminalHandler {
	var level slog.Leveler = slog.LevelInfo
	if opts != nil && opts.Level != nil {
		level = opts.Level
	}
	return &TerminalHandler{
		sink:  &terminalSink{w: w, color: color},
		level: level,
	}
}

// Enabled reports whether the handler handles records at the given level.
func (h *TerminalHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle renders r and writes it as a single line.
func (h *TerminalHandler) Handle(_ context.Context, r slog.Record) error {
	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	var (
		line      strings.Builder
		requestID string
		attrs     strings.Builder
	)
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == requestIDAttr && a.Value.Kind() == slog.KindString {
			requestID = a.Value.String()
			return true
		}
		h.renderAttr(&attrs, h.prefix, a)
		return true
	})

	color, label := levelStyle(r.Level)
	line.Grow(64 + len(r.Message) + len(h.bound) + attrs.Len())
	line.WriteString(h.paint(ansiDim, ts.Format(timeLayout)))
	line.WriteByte(' ')
	line.WriteString(h.paint(color, label))
	if requestID != "" {
		line.WriteString(" [")
		line.WriteString(requestID)
		line.WriteByte(']')
	}
	line.WriteByte(' ')
	line.WriteString(h.paint(ansiBold, r.Message))
	line.WriteString(h.bound)
	line.WriteString(attrs.String())
	line.WriteByte('\n')

	h.sink.mu.Lock()
	defer h.sink.mu.Unlock()
	_, err := io.WriteString(h.sink.w, line.String())
	return err
}

// WithAttrs renders attrs once, under the groups open at this point.
func (h *TerminalHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	var b strings.Builder
	b.WriteString(h.bound)
	for _, a := range attrs {
		h.renderAttr(&b, h.prefix, a)
	}
	next := *h
	next.bound = b.String()
	return &next
}

// WithGroup qualifies the keys of later attributes with name.
func (h *TerminalHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.prefix = h.prefix + name + "."
	return &next
}

func (h *TerminalHandler) paint(code, text string) string {
	if !h.sink.color {
		return text
	}
	return code + text + ansiReset
}

func (h *TerminalHandler) renderAttr(b *strings.Builder, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		if a.Key != "" {
			prefix += a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			h.renderAttr(b, prefix, ga)
		}
		return
	}
	b.WriteByte(' ')
	b.WriteString(h.paint(ansiDim, prefix+a.Key+"="))
	b.WriteString(renderValue(a.Value))
}

func levelStyle(level slog.Level) (string, string) {
	switch {
	case level < slog.LevelInfo:
		return ansiCyan, "DBG"
	case level < slog.LevelWarn:
		return ansiGreen, "INF"
	case level < slog.LevelError:
		return ansiYellow, "WRN"
	default:
		return ansiRed, "ERR"
	}
}

// renderValue quotes strings that would otherwise break key=value parsing.
// Keywords are whole sentences, so most of them end up quoted.
func renderValue(v slog.Value) string {
	switch v.Kind() {
	case slog.KindString:
		s := v.String()
		if s == "" || strings.ContainsAny(s, " \t\n\"\\=") {
			return strconv.Quote(s)
		}
		return s
	case slog.KindDuration:
		return v.Duration().Round(time.Microsecond).String()
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	}
	return v.String()
}
