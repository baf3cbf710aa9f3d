package log

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// palette holds the colors used by the pretty handlers. Colors are always
// enabled: pretty output is only selected for terminals or on request.
type palette struct {
	key, str, num, yes, no, dur, tim *color.Color
	levels                           map[Level]*color.Color
}

func newPalette() palette {
	c := func(attrs ...color.Attribute) *color.Color {
		p := color.New(attrs...)
		p.EnableColor()

		return p
	}

	return palette{
		key: c(color.FgHiBlack),
		str: c(color.FgCyan),
		num: c(color.FgYellow),
		yes: c(color.FgGreen),
		no:  c(color.FgRed),
		dur: c(color.FgMagenta),
		tim: c(color.FgBlue),
		levels: map[Level]*color.Color{
			LevelTrace: c(color.FgHiBlack),
			LevelDebug: c(color.FgBlue),
			LevelInfo:  c(color.FgGreen),
			LevelWarn:  c(color.FgYellow),
			LevelError: c(color.FgRed, color.Bold),
		},
	}
}

func (p palette) level(l slog.Level) string {
	name := strings.ToUpper(Level(l).String())

	for _, at := range []Level{LevelError, LevelWarn, LevelInfo, LevelDebug} {
		if Level(l) >= at {
			return p.levels[at].Sprint(name)
		}
	}

	return p.levels[LevelTrace].Sprint(name)
}

// value renders v with a color chosen by its kind.
func (p palette) value(v slog.Value) string {
	switch v.Kind() {
	case slog.KindString:
		return p.str.Sprint(v.String())
	case slog.KindInt64:
		return p.num.Sprint(strconv.FormatInt(v.Int64(), 10))
	case slog.KindUint64:
		return p.num.Sprint(strconv.FormatUint(v.Uint64(), 10))
	case slog.KindFloat64:
		return p.num.Sprint(strconv.FormatFloat(v.Float64(), 'g', -1, 64))
	case slog.KindBool:
		if v.Bool() {
			return p.yes.Sprint("true")
		}

		return p.no.Sprint("false")
	case slog.KindDuration:
		return p.dur.Sprint(v.Duration().String())
	case slog.KindTime:
		return p.tim.Sprint(v.Time().Format(time.RFC3339))
	default:
		if l, ok := v.Any().(slog.Level); ok {
			return p.level(l)
		}

		return p.str.Sprint(fmt.Sprint(v.Any()))
	}
}

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}

	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// prettyHandler is the shared state of the pretty handlers.
type prettyHandler struct {
	opts   slog.HandlerOptions
	mu     *sync.Mutex
	w      io.Writer
	attrs  []slog.Attr // resolved, with group prefixes applied
	groups []string
	paint  palette
}

func newPrettyHandler(w io.Writer, opts *slog.HandlerOptions) prettyHandler {
	return prettyHandler{opts: *opts, mu: &sync.Mutex{}, w: w, paint: newPalette()}
}

func (h prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.Level.Level()
}

// withAttrs returns a copy of h holding attrs under the open groups.
func (h prettyHandler) withAttrs(attrs []slog.Attr) prettyHandler {
	prefix := strings.Join(h.groups, ".")

	h.attrs = append(h.attrs[:len(h.attrs):len(h.attrs)], flattenAttrs(prefix, attrs)...)

	return h
}

func (h prettyHandler) withGroup(name string) prettyHandler {
	h.groups = append(h.groups[:len(h.groups):len(h.groups)], name)

	return h
}

// record returns the header and attribute fields of r in output order.
func (h prettyHandler) record(r slog.Record) []slog.Attr {
	var fields []slog.Attr

	if !r.Time.IsZero() {
		fields = append(fields, h.replace(slog.Time(slog.TimeKey, r.Time)))
	}

	fields = append(fields, slog.Any(slog.LevelKey, r.Level))

	if h.opts.AddSource {
		if src := r.Source(); src != nil {
			fields = append(fields,
				slog.String(slog.SourceKey, fmt.Sprintf("%s:%d", src.File, src.Line)))
		}
	}

	fields = append(fields, slog.String(slog.MessageKey, r.Message))
	fields = append(fields, h.attrs...)

	var own []slog.Attr

	r.Attrs(func(a slog.Attr) bool {
		own = append(own, a)

		return true
	})

	return append(fields, flattenAttrs(strings.Join(h.groups, "."), own)...)
}

// replace applies the configured ReplaceAttr to the time field.
func (h prettyHandler) replace(a slog.Attr) slog.Attr {
	if h.opts.ReplaceAttr != nil {
		return h.opts.ReplaceAttr(nil, a)
	}

	return a
}

func (h prettyHandler) write(buf *bytes.Buffer) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	buf.WriteByte('\n')

	_, err := h.w.Write(buf.Bytes())

	return err
}

// flattenAttrs resolves attrs and expands groups into dotted keys.
func flattenAttrs(prefix string, attrs []slog.Attr) []slog.Attr {
	var out []slog.Attr

	for _, a := range attrs {
		a.Value = a.Value.Resolve()
		if a.Equal(slog.Attr{}) {
			continue
		}

		key := a.Key
		if prefix != "" && key != "" {
			key = prefix + "." + key
		} else if key == "" {
			key = prefix
		}

		if a.Value.Kind() == slog.KindGroup {
			out = append(out, flattenAttrs(key, a.Value.Group())...)

			continue
		}

		out = append(out, slog.Attr{Key: key, Value: a.Value})
	}

	return out
}

// prettyTextHandler writes colorized key=value lines.
type prettyTextHandler struct{ prettyHandler }

func newPrettyTextHandler(w io.Writer, opts *slog.HandlerOptions) *prettyTextHandler {
	return &prettyTextHandler{newPrettyHandler(w, opts)}
}

func (h *prettyTextHandler) Handle(_ context.Context, r slog.Record) error {
	buf := new(bytes.Buffer)

	for _, a := range h.record(r) {
		if a.Equal(slog.Attr{}) {
			continue
		}

		if buf.Len() > 0 {
			buf.WriteByte(' ')
		}

		buf.WriteString(h.paint.key.Sprint(a.Key))
		buf.WriteByte('=')
		buf.WriteString(h.paint.value(a.Value))
	}

	return h.write(buf)
}

func (h *prettyTextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &prettyTextHandler{h.withAttrs(attrs)}
}

func (h *prettyTextHandler) WithGroup(name string) slog.Handler {
	return &prettyTextHandler{h.withGroup(name)}
}

// prettyJSONHandler writes one colorized field per line.
type prettyJSONHandler struct{ prettyHandler }

func newPrettyJSONHandler(w io.Writer, opts *slog.HandlerOptions) *prettyJSONHandler {
	return &prettyJSONHandler{newPrettyHandler(w, opts)}
}

func (h *prettyJSONHandler) Handle(_ context.Context, r slog.Record) error {
	buf := new(bytes.Buffer)
	buf.WriteString("{")

	first := true

	for _, a := range h.record(r) {
		if a.Equal(slog.Attr{}) {
			continue
		}

		if !first {
			buf.WriteByte(',')
		}

		first = false

		buf.WriteString("\n  ")
		buf.WriteString(h.paint.key.Sprint(a.Key))
		buf.WriteString(": ")
		buf.WriteString(h.paint.value(a.Value))
	}

	buf.WriteString("\n}")

	return h.write(buf)
}

func (h *prettyJSONHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &prettyJSONHandler{h.withAttrs(attrs)}
}

func (h *prettyJSONHandler) WithGroup(name string) slog.Handler {
	return &prettyJSONHandler{h.withGroup(name)}
}
