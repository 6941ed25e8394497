package log

import (
	"fmt"
	"hash/fnv"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
	"golang.org/x/term"

	"go.jacobcolvin.com/logchan/channel"
)

// DefaultTimeFormat is the timestamp layout used by [ConsoleHandler].
const DefaultTimeFormat = "15:04:05.000"

// Colors assigned to subsystems. A subsystem always maps to the same color.
var palette = []color.Attribute{
	color.FgCyan,
	color.FgGreen,
	color.FgYellow,
	color.FgBlue,
	color.FgMagenta,
	color.FgHiCyan,
	color.FgHiGreen,
	color.FgHiYellow,
	color.FgHiBlue,
	color.FgHiMagenta,
}

// ConsoleHandler is a [channel.Handler] that writes human-readable lines:
//
//	15:04:05.000 [subsystem.name] value (file.go:42)
//
// The bracketed channel name is colored by subsystem when color is enabled.
// Errors are printed in red. Safe for concurrent use.
//
// Create instances with [NewConsoleHandler].
type ConsoleHandler struct {
	w          io.Writer
	now        func() time.Time
	timeFormat string
	mu         sync.Mutex
	color      bool
	source     bool
}

// ConsoleOption configures a [ConsoleHandler].
type ConsoleOption func(*ConsoleHandler)

// WithColor forces color output on or off.
func WithColor(enabled bool) ConsoleOption {
	return func(h *ConsoleHandler) {
		h.color = enabled
	}
}

// WithSource toggles the trailing call site. It is on by default.
func WithSource(enabled bool) ConsoleOption {
	return func(h *ConsoleHandler) {
		h.source = enabled
	}
}

// WithTimeFormat sets the timestamp layout. An empty layout omits the
// timestamp.
func WithTimeFormat(layout string) ConsoleOption {
	return func(h *ConsoleHandler) {
		h.timeFormat = layout
	}
}

// WithConsoleClock sets the function used to timestamp lines.
func WithConsoleClock(now func() time.Time) ConsoleOption {
	return func(h *ConsoleHandler) {
		h.now = now
	}
}

// NewConsoleHandler creates a [ConsoleHandler] writing to w. Color is
// enabled when [EnableColor] reports true for w.
func NewConsoleHandler(w io.Writer, opts ...ConsoleOption) *ConsoleHandler {
	h := &ConsoleHandler{
		w:          w,
		now:        time.Now,
		timeFormat: DefaultTimeFormat,
		color:      EnableColor(w),
		source:     true,
	}
	for _, opt := range opts {
		opt(h)
	}

	return h
}

// Log implements [channel.Handler].
func (h *ConsoleHandler) Log(ch *channel.Channel, src channel.Source, value any) {
	name := "[" + ch.FullName() + "]"
	msg := formatValue(value)

	if h.color {
		name = subsystemColor(ch.Subsystem()).Sprint(name)
		if _, ok := value.(error); ok {
			msg = paint(color.FgRed).Sprint(msg)
		}
	}

	line := name + " " + msg
	if h.timeFormat != "" {
		line = h.now().Format(h.timeFormat) + " " + line
	}

	if h.source && src.File != "" {
		loc := "(" + shortSource(src) + ")"
		if h.color {
			loc = paint(color.Faint).Sprint(loc)
		}

		line += " " + loc
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	_, _ = fmt.Fprintln(h.w, line)
}

// EnableColor reports whether color output should be used for w. Color is
// used only when w is a terminal and neither NO_COLOR is set nor TERM is
// "dumb".
func EnableColor(w io.Writer) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}

	if os.Getenv("TERM") == "dumb" {
		return false
	}

	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}

	return term.IsTerminal(int(f.Fd())) //nolint:gosec // File descriptors fit in int.
}

func subsystemColor(subsystem string) *color.Color {
	h := fnv.New32a()
	_, _ = h.Write([]byte(subsystem))

	return paint(palette[h.Sum32()%uint32(len(palette))]) //nolint:gosec // Palette is small.
}

// paint returns a color that ignores the package-wide [color.NoColor]
// setting, which [ConsoleHandler] replaces with its own per-writer check.
func paint(attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	c.EnableColor()

	return c
}

func shortSource(src channel.Source) string {
	short := src
	for i := len(src.File) - 1; i > 0; i-- {
		if src.File[i] == '/' {
			short.File = src.File[i+1:]
			break
		}
	}

	return short.String()
}

// formatValue renders a logged value as a single message string.
func formatValue(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case error:
		return v.Error()
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
