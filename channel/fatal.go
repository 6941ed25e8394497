package channel

import (
	"log/slog"
	"os"
)

// FatalHandler terminates the process after a [Channel.Fatal] call. It must
// not return.
type FatalHandler func(ch *Channel, msg string, src Source)

// exit is replaced in tests.
var exit = os.Exit

// InstallFatalErrorHandler replaces the manager's [FatalHandler].
func (m *Manager) InstallFatalErrorHandler(h FatalHandler) {
	m.fatal.Store(&h)
}

// ResetFatalErrorHandler restores the default [FatalHandler], which logs the
// message at error level and exits the process with status 1.
func (m *Manager) ResetFatalErrorHandler() {
	m.fatal.Store(nil)
}

func (m *Manager) fatalHandler() FatalHandler {
	if h := m.fatal.Load(); h != nil {
		return *h
	}

	return m.defaultFatal
}

func (m *Manager) defaultFatal(ch *Channel, msg string, src Source) {
	m.logger.Error("fatal error",
		slog.String("channel", ch.FullName()),
		slog.String("msg", msg),
		slog.String("source", src.String()),
	)
	exit(1)
}
