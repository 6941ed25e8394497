package settings

import (
	"context"
	"errors"
	"maps"
	"sync"
)

const (
	// KeyEnabled holds the channels that were enabled on the previous run.
	KeyEnabled = "enabled"
	// KeyOverride holds the one-shot override for the current run.
	KeyOverride = "override"

	// EnvChannels is the environment variable conventionally layered over a
	// [Store] with [NewOverlay].
	EnvChannels = "LOGCHAN_CHANNELS"
	// EnvDebug enables the startup diagnostic emitted by [Apply].
	EnvDebug = "LOGCHAN_DEBUG"
)

var (
	// ErrStore indicates a settings source could not be read or written.
	ErrStore = errors.New("settings store")
	// ErrInvalidSettings indicates persisted settings are malformed.
	ErrInvalidSettings = errors.New("invalid settings")
)

// Store is a string key/value source for channel settings.
// Get returns an empty string for missing keys.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// MemoryStore is an in-process [Store]. The zero value is ready to use and
// safe for concurrent use.
type MemoryStore struct {
	values map[string]string
	mu     sync.RWMutex
}

// NewMemoryStore creates a [MemoryStore] seeded with values.
func NewMemoryStore(values map[string]string) *MemoryStore {
	return &MemoryStore{values: maps.Clone(values)}
}

// Get returns the value stored under key.
func (s *MemoryStore) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.values[key], nil
}

// Set stores value under key.
func (s *MemoryStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.values == nil {
		s.values = map[string]string{}
	}

	s.values[key] = value

	return nil
}

// Snapshot returns a copy of all stored values.
func (s *MemoryStore) Snapshot() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return maps.Clone(s.values)
}

// Overlay layers a per-run override, typically read from a command-line flag
// or [EnvChannels], over another [Store].
//
// Reads of [KeyOverride] return the stored override followed by the layered
// one, so tokens from both are applied with the layered tokens last. Clearing
// [KeyOverride] clears both. All other keys pass through.
type Overlay struct {
	Store

	override string
	mu       sync.Mutex
}

// NewOverlay creates an [Overlay] of override over s.
func NewOverlay(s Store, override string) *Overlay {
	return &Overlay{Store: s, override: override}
}

// Get returns the value stored under key, merging in the layered override
// for [KeyOverride].
func (o *Overlay) Get(ctx context.Context, key string) (string, error) {
	v, err := o.Store.Get(ctx, key)
	if err != nil || key != KeyOverride {
		return v, err
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	switch {
	case o.override == "":
		return v, nil
	case v == "":
		return o.override, nil
	}

	return v + "," + o.override, nil
}

// Set stores value under key. Setting [KeyOverride] also replaces the
// layered override, so an empty value consumes it.
func (o *Overlay) Set(ctx context.Context, key, value string) error {
	if key == KeyOverride {
		o.mu.Lock()
		o.override = ""
		o.mu.Unlock()
	}

	return o.Store.Set(ctx, key, value)
}
