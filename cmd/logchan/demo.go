package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"go.jacobcolvin.com/logchan/channel"
	"go.jacobcolvin.com/logchan/log"
	"go.jacobcolvin.com/logchan/settings"
)

var errDemo = errors.New("connection reset by peer")

type demoOptions struct {
	console bool
	zap     bool
}

func (a *app) newDemoCmd() *cobra.Command {
	var opts demoOptions

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Log through a few channels using the configured settings",
		Long: `Create the channels demo.net, demo.db and demo.cache, log a message on
each and toggle them, printing change notifications as they arrive. Only
channels enabled in the settings produce output at first. The settings are
read but never written: toggles made by the demo are not persisted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runDemo(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.console, "console", false, "use the console handler instead of --log-format")
	cmd.Flags().BoolVar(&opts.zap, "zap", false, "also send channel output to a zap development logger")

	return cmd
}

func (a *app) runDemo(cmd *cobra.Command, opts demoOptions) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	store, err := a.snapshotStore(ctx)
	if err != nil {
		return err
	}

	handlers, closers, err := a.demoHandlers(out, opts)
	if err != nil {
		return err
	}

	defer func() {
		for _, c := range closers {
			_ = c.Close()
		}
	}()

	pub := log.NewPublisher()
	defer pub.Close() //nolint:errcheck // Close always returns nil.

	sub := pub.Subscribe()

	m, err := channel.NewManager(ctx, store,
		channel.WithLogger(slog.Default()),
		channel.WithDefaultHandlers(append(handlers, pub)...),
		channel.WithFatalHandler(func(ch *channel.Channel, msg string, _ channel.Source) {
			slog.Error("fatal channel error", slog.String("channel", ch.FullName()), slog.String("msg", msg))
		}),
	)
	if err != nil {
		return err
	}
	defer m.Close() //nolint:errcheck // Close always returns nil.

	id := m.AddObserver(channel.ObserverFunc(func(updated, _, enabled []*channel.Channel) {
		slog.Info("channels updated",
			slog.String("updated", fullNames(updated)),
			slog.String("enabled", fullNames(enabled)),
		)
	}))
	defer m.RemoveObserver(id)

	netCh := channel.New("demo.net", channel.WithManager(m))
	dbCh := channel.New("demo.db", channel.WithManager(m))
	cacheCh := channel.New("demo.cache", channel.WithManager(m))

	m.Flush()

	netCh.Logf("dialing %s", "127.0.0.1:5432")
	dbCh.Log(func() any { return errDemo })
	cacheCh.Debugf("warming %d keys", 128)

	m.Update(true, netCh, dbCh, cacheCh)
	m.Flush()

	netCh.Log(func() any { return "connected" })
	dbCh.Logf("migrated to schema v%d", 12)
	cacheCh.Debugf("warming %d keys", 128)

	m.Update(false, cacheCh)
	m.Flush()

	cacheCh.Log(func() any { return "not shown" })

	m.Stdout().Logf("published %d entries", drain(sub))

	_, err = fmt.Fprintf(out, "enabled: %s\n", fullNames(enabledChannels(m.Channels())))
	if err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	return nil
}

// snapshotStore copies the configured settings into a [settings.MemoryStore]
// so the demo can toggle channels without persisting anything.
func (a *app) snapshotStore(ctx context.Context) (*settings.MemoryStore, error) {
	src, err := a.settings.NewStore()
	if err != nil {
		return nil, err
	}
	defer closeStore(src)

	values := map[string]string{}

	for _, key := range []string{settings.KeyEnabled, settings.KeyOverride} {
		v, err := src.Get(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("%w: read %s: %w", settings.ErrStore, key, err)
		}

		values[key] = v
	}

	return settings.NewMemoryStore(values), nil
}

func (a *app) demoHandlers(out io.Writer, opts demoOptions) ([]channel.Handler, []io.Closer, error) {
	var (
		handlers []channel.Handler
		closers  []io.Closer
	)

	if opts.console {
		handlers = append(handlers, log.NewConsoleHandler(out))
	} else {
		h, closer, err := a.log.NewChannelHandler(out)
		if err != nil {
			return nil, nil, err
		}

		handlers = append(handlers, h)
		closers = append(closers, closer)
	}

	if opts.zap {
		zl, err := zap.NewDevelopment()
		if err != nil {
			return nil, nil, fmt.Errorf("create zap logger: %w", err)
		}

		handlers = append(handlers, log.NewZapHandler(zl, zapcore.InfoLevel))
		closers = append(closers, closerFunc(func() error {
			_ = zl.Sync()
			return nil
		}))
	}

	return handlers, closers, nil
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// drain empties the buffered entries of sub and reports how many there were.
func drain(sub *log.Subscription) int {
	n := 0

	for {
		select {
		case <-sub.C():
			n++
		default:
			return n
		}
	}
}

func enabledChannels(chs []*channel.Channel) []*channel.Channel {
	var out []*channel.Channel

	for _, ch := range chs {
		if ch.Enabled() {
			out = append(out, ch)
		}
	}

	return out
}

func fullNames(chs []*channel.Channel) string {
	names := make([]string, 0, len(chs))
	for _, ch := range chs {
		names = append(names, ch.FullName())
	}

	return strings.Join(names, ",")
}
