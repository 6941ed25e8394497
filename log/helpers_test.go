package log_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"go.jacobcolvin.com/logchan/channel"
	"go.jacobcolvin.com/logchan/settings"
)

// newChannel registers name on a fresh manager that is closed when the test
// ends. Tests call handlers directly rather
// through the channel.
func newChannel(t *testing.T, name string) *channel.Channel {
	t.Helper()

	m, err := channel.NewManager(t.Context(), &settings.MemoryStore{})
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, m.Close())
	})

	return channel.New(name, channel.WithManager(m))
}

func testSource() channel.Source {
	return channel.Source{
		Function: "main.run",
		File:     "/src/app/main.go",
		Line:     42,
	}
}
