package log

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"go.jacobcolvin.com/logchan/channel"
)

// ZapHandler is a [channel.Handler] that forwards channel output to a
// [*zap.Logger]. The channel's call site becomes the entry's caller.
//
// Create instances with [NewZapHandler].
type ZapHandler struct {
	logger *zap.Logger
	level  zapcore.Level
}

// NewZapHandler creates a [ZapHandler] writing entries at lvl.
func NewZapHandler(l *zap.Logger, lvl zapcore.Level) *ZapHandler {
	return &ZapHandler{logger: l, level: lvl}
}

// Log implements [channel.Handler].
func (h *ZapHandler) Log(ch *channel.Channel, src channel.Source, value any) {
	ce := h.logger.Check(h.level, formatValue(value))
	if ce == nil {
		return
	}

	if src.File != "" {
		ce.Caller = zapcore.EntryCaller{
			Defined:  true,
			PC:       src.PC,
			File:     src.File,
			Line:     src.Line,
			Function: src.Function,
		}
	}

	fields := []zap.Field{
		zap.String(KeyChannel, ch.Name()),
		zap.String(KeySubsystem, ch.Subsystem()),
	}
	if err, ok := value.(error); ok {
		fields = append(fields, zap.Error(err))
	}

	ce.Write(fields...)
}
