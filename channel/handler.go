package channel

import (
	"fmt"
	"io"
	"runtime"
	"sync"
)

// Handler emits the values logged on a [Channel].
//
// Log is called synchronously on the goroutine that logged the value, once
// per handler in the order the handlers were given to the channel. A panic in
// a handler is not recovered and propagates to the caller.
type Handler interface {
	Log(ch *Channel, src Source, value any)
}

// HandlerFunc adapts a function to the [Handler] interface.
type HandlerFunc func(ch *Channel, src Source, value any)

// Log calls f.
func (f HandlerFunc) Log(ch *Channel, src Source, value any) {
	f(ch, src, value)
}

// Source describes the call site of a log call.
type Source struct {
	Function string
	File     string
	Line     int
	// Column is zero unless supplied by the caller through [Channel.LogAt];
	// the Go runtime does not report columns.
	Column int
	// PC is the program counter of the call site, or zero if unknown.
	PC uintptr
}

// String formats the source as file:line.
func (s Source) String() string {
	if s.File == "" {
		return "???"
	}

	if s.Column > 0 {
		return fmt.Sprintf("%s:%d:%d", s.File, s.Line, s.Column)
	}

	return fmt.Sprintf("%s:%d", s.File, s.Line)
}

// callerSource captures the caller of the exported [Channel] method that
// invoked it.
func callerSource() Source {
	var pcs [1]uintptr

	// Skip runtime.Callers, callerSource and the Channel method.
	if runtime.Callers(3, pcs[:]) == 0 {
		return Source{}
	}

	frame, _ := runtime.CallersFrames(pcs[:]).Next()

	return Source{
		Function: frame.Function,
		File:     frame.File,
		Line:     frame.Line,
		PC:       pcs[0],
	}
}

// WriterHandler writes one "[subsystem.name] value" line per log call.
// Safe for concurrent use.
//
// Create instances with [NewWriterHandler].
type WriterHandler struct {
	w  io.Writer
	mu sync.Mutex
}

// NewWriterHandler creates a [WriterHandler] writing to w.
func NewWriterHandler(w io.Writer) *WriterHandler {
	return &WriterHandler{w: w}
}

// Log writes value to the underlying writer.
func (h *WriterHandler) Log(ch *Channel, _ Source, value any) {
	h.mu.Lock()
	defer h.mu.Unlock()

	_, _ = fmt.Fprintf(h.w, "[%s] %v\n", ch.FullName(), value)
}
