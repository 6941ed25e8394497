package channel

import (
	"context"
	"log/slog"
	"os"
	"sync"

	"go.jacobcolvin.com/logchan/settings"
)

var (
	defaultMu      sync.Mutex
	defaultManager *Manager
)

// Default returns the process-wide [Manager], creating it on first use.
//
// The default manager persists its settings in [settings.DefaultFilePath]
// with the override from [settings.EnvChannels] layered on top. If that file
// cannot be used the manager falls back to in-memory settings.
func Default() *Manager {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultManager == nil {
		defaultManager = newDefaultManager()
	}

	return defaultManager
}

// SetDefault replaces the process-wide [Manager] returned by [Default].
// Channels already created keep their manager.
func SetDefault(m *Manager) {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	defaultManager = m
}

func newDefaultManager() *Manager {
	ctx := context.Background()
	override := os.Getenv(settings.EnvChannels)

	path, err := settings.DefaultFilePath()
	if err == nil {
		var m *Manager

		m, err = NewManager(ctx, settings.NewOverlay(settings.NewFileStore(path), override))
		if err == nil {
			return m
		}
	}

	slog.Warn("using in-memory channel settings", slog.Any("err", err))

	m, err := NewManager(ctx, settings.NewOverlay(&settings.MemoryStore{}, override))
	if err != nil {
		// Memory stores do not fail.
		panic(err)
	}

	return m
}
