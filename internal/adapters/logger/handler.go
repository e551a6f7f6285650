// Package logger implements a logging adapter using log/slog.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/TechupBusiness/browser-extension-notion-status/internal/ui/output"
	"github.com/TechupBusiness/browser-extension-notion-status/internal/ui/style"
	"github.com/muesli/termenv"
)

// levelStyle is the prefix and color of one log level.
type levelStyle struct {
	symbol string
	color  termenv.Color
}

var levelStyles = map[slog.Level]levelStyle{
	slog.LevelDebug: {symbol: style.Circle, color: termenv.RGBColor(string(style.Gray))},
	slog.LevelInfo:  {color: termenv.RGBColor(string(style.Slate))},
	slog.LevelWarn:  {symbol: style.Warning, color: termenv.RGBColor(string(style.Orange))},
	slog.LevelError: {symbol: style.Cross, color: termenv.RGBColor(string(style.Red))},
}

// PrettyHandler is a slog.Handler writing one colored line per record: an optional level
// symbol, the message and the attributes as key=value pairs.
type PrettyHandler struct {
	out   *termenv.Output
	level slog.Leveler
	attrs []slog.Attr
	group string
}

// NewPrettyHandler creates a new PrettyHandler writing to the provided writer.
// A LevelVar passed in opts keeps applying to the handler after later changes.
func NewPrettyHandler(w io.Writer, opts *slog.HandlerOptions) *PrettyHandler {
	var level slog.Leveler = slog.LevelInfo
	if opts != nil && opts.Level != nil {
		level = opts.Level
	}
	if w == nil {
		w = os.Stderr
	}

	return &PrettyHandler{
		out:   output.New(w, output.Profile(true)),
		level: level,
	}
}

// Enabled reports whether the handler handles records at the given level.
func (h *PrettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle formats and outputs the log record.
//
//nolint:gocritic // slog.Handler interface requires slog.Record by value
func (h *PrettyHandler) Handle(_ context.Context, r slog.Record) error {
	ls, ok := levelStyles[r.Level]
	if !ok {
		ls = levelStyles[slog.LevelInfo]
	}

	var b strings.Builder
	if ls.symbol != "" {
		b.WriteString(ls.symbol)
		b.WriteByte(' ')
	}
	b.WriteString(r.Message)

	for _, attr := range h.attrs {
		writeAttr(&b, h.group, attr)
	}
	r.Attrs(func(attr slog.Attr) bool {
		writeAttr(&b, h.group, attr)
		return true
	})

	styled := h.out.String(b.String()).Foreground(ls.color)
	_, err := h.out.WriteString(styled.String() + "\n")
	return err
}

// WithAttrs returns a new Handler with the given attributes appended.
func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(h.attrs[:len(h.attrs):len(h.attrs)], attrs...)
	return &clone
}

// WithGroup returns a new Handler nesting later attributes under name.
func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	if h.group != "" {
		name = h.group + "." + name
	}
	clone.group = name
	return &clone
}

// writeAttr appends " key=value". Values containing spaces or quotes are quoted.
func writeAttr(b *strings.Builder, group string, attr slog.Attr) {
	if attr.Equal(slog.Attr{}) {
		return
	}
	key := attr.Key
	if group != "" {
		key = group + "." + key
	}

	value := attr.Value.Resolve().String()
	if strings.ContainsAny(value, " \t\"") {
		value = strconv.Quote(value)
	}

	b.WriteByte(' ')
	b.WriteString(key)
	b.WriteByte('=')
	b.WriteString(value)
}
