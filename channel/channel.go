package channel

import (
	"fmt"
	"strings"
	"sync/atomic"

	"go.jacobcolvin.com/logchan/version"
)

// DefaultSubsystem is the subsystem of channels whose name has no dot.
const DefaultSubsystem = "default"

// Channel is a named log sink that can be enabled and disabled at run time.
//
// A channel's identity is its full name, "subsystem.name". Channels are meant
// to live for the whole process; there is no way to unregister one.
//
// Create instances with [New].
type Channel struct {
	manager   *Manager
	name      string
	subsystem string
	fullName  string
	handlers  []Handler
	enabled   atomic.Bool
}

// Option configures a [Channel].
type Option func(*options)

type options struct {
	manager       *Manager
	handlers      []Handler
	alwaysEnabled bool
}

// WithManager sets the [Manager] that owns the channel. The default is
// [Default].
func WithManager(m *Manager) Option {
	return func(o *options) {
		o.manager = m
	}
}

// WithHandlers sets the handlers the channel forwards to, in order. Without
// this option the manager's default handlers are used.
func WithHandlers(handlers ...Handler) Option {
	return func(o *options) {
		o.handlers = append(o.handlers, handlers...)
	}
}

// WithAlwaysEnabled starts the channel enabled regardless of the persisted
// settings.
func WithAlwaysEnabled() Option {
	return func(o *options) {
		o.alwaysEnabled = true
	}
}

// New creates a [Channel] and registers it with its [Manager].
//
// The last dot-separated component of name becomes the channel's short
// name and the rest its subsystem; a name without dots is placed in
// [DefaultSubsystem]. The channel starts enabled if it was created with
// [WithAlwaysEnabled] or if its short or full name is in the manager's
// resolved settings.
//
// Registration completes asynchronously; use [Manager.Flush] to wait for it.
func New(name string, opts ...Option) *Channel {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if o.manager == nil {
		o.manager = Default()
	}

	if len(o.handlers) == 0 {
		o.handlers = o.manager.handlers
	}

	subsystem, short := SplitName(name)

	c := &Channel{
		manager:   o.manager,
		name:      short,
		subsystem: subsystem,
		fullName:  subsystem + "." + short,
		handlers:  o.handlers,
	}

	c.enabled.Store(o.alwaysEnabled ||
		o.manager.resolved.Contains(c.name) ||
		o.manager.resolved.Contains(c.fullName))

	o.manager.Register(c)

	return c
}

// SplitName splits a dotted channel name into its subsystem and short name.
func SplitName(name string) (subsystem, short string) {
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return DefaultSubsystem, name
	}

	return name[:i], name[i+1:]
}

// Name returns the short name of the channel.
func (c *Channel) Name() string {
	return c.name
}

// Subsystem returns the dotted prefix of the channel's name.
func (c *Channel) Subsystem() string {
	return c.subsystem
}

// FullName returns "subsystem.name". It identifies the channel within its
// [Manager] and is the form persisted in settings.
func (c *Channel) FullName() string {
	return c.fullName
}

// String returns the full name of the channel.
func (c *Channel) String() string {
	return c.fullName
}

// Manager returns the [Manager] that owns the channel.
func (c *Channel) Manager() *Manager {
	return c.manager
}

// Enabled reports whether the channel is enabled. The value may lag a
// concurrent [Manager.Update] by one call.
func (c *Channel) Enabled() bool {
	return c.enabled.Load()
}

// Log forwards the result of value to the channel's handlers. If the channel
// is disabled value is not called.
func (c *Channel) Log(value func() any) {
	if !c.enabled.Load() {
		return
	}

	c.emit(callerSource(), value())
}

// Logf formats according to format and forwards the result to the channel's
// handlers. If the channel is disabled no formatting takes place; the
// arguments themselves are still evaluated by the caller, so pass expensive
// values through [Channel.Log] instead.
func (c *Channel) Logf(format string, args ...any) {
	if !c.enabled.Load() {
		return
	}

	c.emit(callerSource(), fmt.Sprintf(format, args...))
}

// LogAt is like [Channel.Log] but reports src as the call site instead of
// capturing it.
func (c *Channel) LogAt(src Source, value func() any) {
	if !c.enabled.Load() {
		return
	}

	c.emit(src, value())
}

// Debug is like [Channel.Log] but is compiled out of release builds.
func (c *Channel) Debug(value func() any) {
	if !version.Debug || !c.enabled.Load() {
		return
	}

	c.emit(callerSource(), value())
}

// Debugf is like [Channel.Logf] but is compiled out of release builds.
func (c *Channel) Debugf(format string, args ...any) {
	if !version.Debug || !c.enabled.Load() {
		return
	}

	c.emit(callerSource(), fmt.Sprintf(format, args...))
}

// Fatal forwards the result of value to the channel's handlers even if the
// channel is disabled, then calls the manager's [FatalHandler]. Fatal does
// not return: if the installed handler returns, Fatal panics.
func (c *Channel) Fatal(value func() any) {
	c.fatal(callerSource(), value())
}

// Fatalf is like [Channel.Fatal] with a formatted message.
func (c *Channel) Fatalf(format string, args ...any) {
	c.fatal(callerSource(), fmt.Sprintf(format, args...))
}

func (c *Channel) fatal(src Source, v any) {
	c.emit(src, v)

	msg := fmt.Sprint(v)
	c.manager.fatalHandler()(c, msg, src)

	panic(fmt.Sprintf("channel %s: fatal handler returned: %s", c.fullName, msg))
}

func (c *Channel) emit(src Source, v any) {
	for _, h := range c.handlers {
		h.Log(c, src, v)
	}
}
