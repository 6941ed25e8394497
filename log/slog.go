package log

import (
	"context"
	"log/slog"
	"time"

	"go.jacobcolvin.com/logchan/channel"
)

// Attribute keys added to records produced by [SlogHandler].
const (
	KeyChannel   = "channel"
	KeySubsystem = "subsystem"
	KeyError     = "err"
)

// SlogHandler is a [channel.Handler] that forwards channel output to a
// [slog.Handler]. Each value becomes one record whose message is the value's
// default formatting. Values that are errors are also attached under
// [KeyError].
//
// Create instances with [NewSlogHandler].
type SlogHandler struct {
	handler slog.Handler
	level   slog.Level
}

// SlogOption configures a [SlogHandler].
type SlogOption func(*SlogHandler)

// WithLevel sets the record level used for channel output. The default is
// [slog.LevelInfo]. Output below the wrapped handler's level is dropped.
func WithLevel(lvl slog.Level) SlogOption {
	return func(h *SlogHandler) {
		h.level = lvl
	}
}

// NewSlogHandler creates a [SlogHandler] writing to h.
func NewSlogHandler(h slog.Handler, opts ...SlogOption) *SlogHandler {
	sh := &SlogHandler{
		handler: h,
		level:   slog.LevelInfo,
	}
	for _, opt := range opts {
		opt(sh)
	}

	return sh
}

// Log implements [channel.Handler].
func (h *SlogHandler) Log(ch *channel.Channel, src channel.Source, value any) {
	ctx := context.Background()
	if !h.handler.Enabled(ctx, h.level) {
		return
	}

	r := slog.NewRecord(time.Now(), h.level, formatValue(value), src.PC)
	r.AddAttrs(
		slog.String(KeyChannel, ch.Name()),
		slog.String(KeySubsystem, ch.Subsystem()),
	)

	if err, ok := value.(error); ok {
		r.AddAttrs(slog.Any(KeyError, err))
	}

	// Sources built with LogAt carry no program counter.
	if src.PC == 0 && src.File != "" {
		r.AddAttrs(slog.String(slog.SourceKey, src.String()))
	}

	//nolint:errcheck // Handler has no error path.
	_ = h.handler.Handle(ctx, r)
}
