package log_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.jacobcolvin.com/logchan/channel"
	"go.jacobcolvin.com/logchan/log"
)

var errDisk = errors.New("disk full")

func TestSlogHandler(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		value any
		src   channel.Source
		opts  []log.SlogOption
		want  map[string]any
	}{
		"string value": {
			value: "ready",
			src:   testSource(),
			want: map[string]any{
				"level":          "INFO",
				"msg":            "ready",
				log.KeyChannel:   "http",
				log.KeySubsystem: "net",
				slog.SourceKey:   "/src/app/main.go:42",
			},
		},
		"error value": {
			value: errDisk,
			src:   channel.Source{},
			want: map[string]any{
				"level":          "INFO",
				"msg":            "disk full",
				log.KeyChannel:   "http",
				log.KeySubsystem: "net",
				log.KeyError:     "disk full",
			},
		},
		"custom level": {
			value: 42,
			src:   channel.Source{},
			opts:  []log.SlogOption{log.WithLevel(slog.LevelWarn)},
			want: map[string]any{
				"level":          "WARN",
				"msg":            "42",
				log.KeyChannel:   "http",
				log.KeySubsystem: "net",
			},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer

			h := log.NewSlogHandler(slog.NewJSONHandler(&buf, nil), tc.opts...)
			h.Log(newChannel(t, "net.http"), tc.src, tc.value)

			var got map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &got))

			delete(got, "time")
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestSlogHandlerBelowLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	h := log.NewSlogHandler(
		slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}),
		log.WithLevel(slog.LevelInfo),
	)
	h.Log(newChannel(t, "quiet"), testSource(), "dropped")

	assert.Empty(t, buf.String())
}

func TestSlogHandlerThroughChannel(t *testing.T) {
	t.Parallel()

	m, err := channel.NewManager(t.Context(), nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, m.Close())
	})

	var buf bytes.Buffer

	h := log.NewSlogHandler(slog.NewJSONHandler(&buf, &slog.HandlerOptions{AddSource: true}))
	ch := channel.New("app.worker", channel.WithManager(m), channel.WithHandlers(h))
	m.Update(true, ch)
	m.Flush()

	ch.Logf("job %d done", 7)

	var got struct {
		Msg    string `json:"msg"`
		Source struct {
			File string `json:"file"`
		} `json:"source"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))

	assert.Equal(t, "job 7 done", got.Msg)
	assert.Contains(t, got.Source.File, "slog_test.go")
}
