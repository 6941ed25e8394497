package channel_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"go.jacobcolvin.com/logchan/channel"
	"go.jacobcolvin.com/logchan/settings"
)

// record is a value seen by a recorder.
type record struct {
	channel string
	src     channel.Source
	value   any
}

// recorder is a [channel.Handler] that keeps everything it is given.
type recorder struct {
	records []record
	mu      sync.Mutex
}

func (r *recorder) Log(ch *channel.Channel, src channel.Source, value any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.records = append(r.records, record{channel: ch.FullName(), src: src, value: value})
}

func (r *recorder) all() []record {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]record(nil), r.records...)
}

// newManager creates a manager over a memory store seeded with persisted and
// override, closed when the test ends.
func newManager(t *testing.T, persisted, override string, opts ...channel.ManagerOption) (*channel.Manager, *settings.MemoryStore) {
	t.Helper()

	store := settings.NewMemoryStore(map[string]string{
		settings.KeyEnabled:  persisted,
		settings.KeyOverride: override,
	})

	opts = append([]channel.ManagerOption{channel.WithDefaultHandlers(&recorder{})}, opts...)

	m, err := channel.NewManager(t.Context(), store, opts...)
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, m.Close())
	})

	return m, store
}

func names(chs []*channel.Channel) []string {
	out := make([]string, 0, len(chs))
	for _, ch := range chs {
		out = append(out, ch.FullName())
	}

	return out
}

// flakyStore is a memory store whose writes can be made to fail.
type flakyStore struct {
	settings.MemoryStore

	fail atomic.Bool
}

func (s *flakyStore) Set(ctx context.Context, key, value string) error {
	if s.fail.Load() {
		return errStoreBroken
	}

	return s.MemoryStore.Set(ctx, key, value)
}
