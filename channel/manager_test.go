package channel_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.jacobcolvin.com/logchan/channel"
	"go.jacobcolvin.com/logchan/settings"
)

var errStoreBroken = errors.New("store broken")

type brokenStore struct{}

func (brokenStore) Get(context.Context, string) (string, error) { return "", errStoreBroken }

func (brokenStore) Set(context.Context, string, string) error { return errStoreBroken }

// batch is one observer notification.
type batch struct {
	updated []string
	all     []string
	enabled []string
}

// batches collects notifications for an observer.
type batches struct {
	got []batch
	mu  sync.Mutex
}

func (b *batches) ChannelsUpdated(updated, all, enabled []*channel.Channel) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.got = append(b.got, batch{updated: names(updated), all: names(all), enabled: names(enabled)})
}

func (b *batches) list() []batch {
	b.mu.Lock()
	defer b.mu.Unlock()

	return append([]batch(nil), b.got...)
}

func TestNewManager(t *testing.T) {
	t.Parallel()

	m, store := newManager(t, "net,net,ui", "+db,-ui")

	res := m.Resolved()
	assert.Equal(t, []string{"db", "net"}, res.Enabled)
	assert.Equal(t, settings.ModeDelta, res.Mode)

	snap := store.Snapshot()
	assert.Empty(t, snap[settings.KeyOverride])

	m.Flush()
	assert.Equal(t, "db,default.stdout,net", store.Snapshot()[settings.KeyEnabled])
}

func TestNewManagerStoreError(t *testing.T) {
	t.Parallel()

	_, err := channel.NewManager(t.Context(), brokenStore{})
	require.ErrorIs(t, err, settings.ErrStore)
	require.ErrorIs(t, err, errStoreBroken)
}

func TestNewManagerNilStore(t *testing.T) {
	t.Parallel()

	m, err := channel.NewManager(t.Context(), nil, channel.WithDefaultHandlers(&recorder{}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })

	assert.Empty(t, m.Resolved().Enabled)
}

func TestManagerStdout(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	m, _ := newManager(t, "", "=", channel.WithDefaultHandlers(rec))

	stdout := m.Stdout()
	require.NotNil(t, stdout)
	assert.True(t, stdout.Enabled())
	assert.Equal(t, channel.DefaultSubsystem+"."+channel.StdoutName, stdout.FullName())

	got, ok := m.Lookup(stdout.FullName())
	require.True(t, ok)
	assert.Same(t, stdout, got)

	stdout.Logf("hello")
	require.Len(t, rec.all(), 1)
}

func TestManagerRegister(t *testing.T) {
	t.Parallel()

	m, _ := newManager(t, "", "")

	net := channel.New("app.net", channel.WithManager(m))
	ui := channel.New("app.ui", channel.WithManager(m))

	got, ok := m.Lookup("app.net")
	require.True(t, ok)
	assert.Same(t, net, got)

	_, ok = m.Lookup("net")
	assert.False(t, ok, "lookup is by full name")

	assert.Equal(t,
		[]string{"app.net", "app.ui", channel.DefaultSubsystem + "." + channel.StdoutName},
		names(m.Channels()))

	// Registering again is absorbed by the set.
	m.Register(ui)
	assert.Len(t, m.Channels(), 3)
}

func TestManagerDuplicateFullName(t *testing.T) {
	t.Parallel()

	m, _ := newManager(t, "", "")

	first := channel.New("app.net", channel.WithManager(m))
	second := channel.New("app.net", channel.WithManager(m))
	other := channel.New("lib.net", channel.WithManager(m))

	got, ok := m.Lookup("app.net")
	require.True(t, ok)
	assert.Same(t, first, got)
	assert.NotSame(t, second, got)

	got, ok = m.Lookup("lib.net")
	require.True(t, ok)
	assert.Same(t, other, got, "same short name in another subsystem is a distinct channel")
}

func TestManagerUpdateDuplicateFullName(t *testing.T) {
	t.Parallel()

	m, store := newManager(t, "", "")

	first := channel.New("app.net", channel.WithManager(m))
	m.Flush()

	second := channel.New("app.net", channel.WithManager(m))

	m.Update(true, second)
	m.Flush()

	assert.True(t, second.Enabled())
	assert.True(t, first.Enabled(), "registered channel shares the full name")
	assert.Equal(t, "app.net,default.stdout", store.Snapshot()[settings.KeyEnabled])

	m.Update(false, second)
	m.Flush()

	assert.False(t, first.Enabled())
	assert.Equal(t, "default.stdout", store.Snapshot()[settings.KeyEnabled])
}

func TestManagerConcurrentRegister(t *testing.T) {
	t.Parallel()

	m, _ := newManager(t, "", "")

	var wg sync.WaitGroup

	for i := range 50 {
		wg.Go(func() {
			ch := channel.New(fmt.Sprintf("app.ch%02d", i), channel.WithManager(m))
			m.Update(i%2 == 0, ch)
		})
	}

	wg.Wait()
	m.Flush()

	all := m.Channels()
	assert.Len(t, all, 51)

	enabled := 0

	for _, ch := range all {
		if ch.Enabled() {
			enabled++
		}
	}

	// 25 even channels plus stdout.
	assert.Equal(t, 26, enabled)
}

func TestManagerUpdate(t *testing.T) {
	t.Parallel()

	m, store := newManager(t, "net", "")

	net := channel.New("app.net", channel.WithManager(m))
	ui := channel.New("app.ui", channel.WithManager(m))
	require.True(t, net.Enabled())
	require.False(t, ui.Enabled())

	m.Update(true, ui)
	m.Update(false, net)
	m.Flush()

	assert.True(t, ui.Enabled())
	assert.False(t, net.Enabled())
	assert.Equal(t, "app.ui,default.stdout", store.Snapshot()[settings.KeyEnabled])

	// Nothing to update is a no-op.
	m.Update(true)
	m.Flush()
}

func TestManagerFlushUnderLoad(t *testing.T) {
	t.Parallel()

	m, _ := newManager(t, "", "")

	ch := channel.New("app.busy", channel.WithManager(m))

	stop := make(chan struct{})

	var wg sync.WaitGroup

	wg.Go(func() {
		state := false
		for {
			select {
			case <-stop:
				return
			default:
			}

			state = !state
			m.Update(state, ch)
		}
	})

	t.Cleanup(func() {
		close(stop)
		wg.Wait()
	})

	for range 20 {
		flushed := make(chan struct{})

		go func() {
			m.Flush()
			close(flushed)
		}()

		select {
		case <-flushed:
		case <-time.After(10 * time.Second):
			require.FailNow(t, "flush did not return while updates kept arriving")
		}
	}
}

func TestManagerPersistKeepsUnregisteredNames(t *testing.T) {
	t.Parallel()

	m, store := newManager(t, "net,later,lib.db", "")

	net := channel.New("app.net", channel.WithManager(m))
	m.Update(false, net)
	m.Flush()

	assert.Equal(t, "default.stdout,later,lib.db", store.Snapshot()[settings.KeyEnabled])

	// A fresh run on the same store still enables the late channel.
	m2, err := channel.NewManager(t.Context(), store, channel.WithDefaultHandlers(&recorder{}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = m2.Close() })

	assert.True(t, channel.New("app.later", channel.WithManager(m2)).Enabled())
	assert.False(t, channel.New("app.net", channel.WithManager(m2)).Enabled())
}

func TestManagerPersistFailureIsLogged(t *testing.T) {
	t.Parallel()

	store := &flakyStore{MemoryStore: settings.MemoryStore{}}

	m, err := channel.NewManager(t.Context(), store,
		channel.WithDefaultHandlers(&recorder{}),
		channel.WithLogger(slog.New(slog.DiscardHandler)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })

	store.fail.Store(true)

	ch := channel.New("app.net", channel.WithManager(m))
	m.Update(true, ch)
	m.Flush()

	assert.True(t, ch.Enabled(), "toggles survive persistence failures")
}

func TestManagerRegistrationNotifies(t *testing.T) {
	t.Parallel()

	m, _ := newManager(t, "net", "")
	obs := &batches{}

	m.AddObserver(obs)
	channel.New("app.net", channel.WithManager(m))
	channel.New("app.ui", channel.WithManager(m))
	m.Flush()

	got := obs.list()
	require.NotEmpty(t, got)

	var updated []string
	for _, b := range got {
		updated = append(updated, b.updated...)
	}

	assert.Contains(t, updated, "app.net")
	assert.Contains(t, updated, "app.ui")

	last := got[len(got)-1]
	assert.Contains(t, last.all, "app.net")
	assert.Contains(t, last.all, "app.ui")
}

func TestManagerUpdateNotifiesOnce(t *testing.T) {
	t.Parallel()

	m, _ := newManager(t, "", "")

	chs := make([]*channel.Channel, 5)
	for i := range chs {
		chs[i] = channel.New(fmt.Sprintf("app.ch%d", i), channel.WithManager(m))
	}

	m.Update(true, chs[3], chs[4])
	m.Flush()

	obs := &batches{}
	m.AddObserver(obs)

	m.Update(false, chs...)
	m.Flush()

	got := obs.list()
	require.Len(t, got, 1, "one update of many channels is one batch")
	assert.Equal(t, []string{"app.ch0", "app.ch1", "app.ch2", "app.ch3", "app.ch4"}, got[0].updated)
	assert.Empty(t, got[0].enabled)
	assert.Len(t, got[0].all, 6)
}

func TestManagerNotificationsCoalesceWhileDelivering(t *testing.T) {
	t.Parallel()

	m, _ := newManager(t, "", "")

	a := channel.New("app.a", channel.WithManager(m))
	b := channel.New("app.b", channel.WithManager(m))
	c := channel.New("app.c", channel.WithManager(m))
	d := channel.New("app.d", channel.WithManager(m))
	m.Flush()

	entered := make(chan struct{})
	release := make(chan struct{})
	obs := &batches{}

	var once sync.Once

	m.AddObserver(channel.ObserverFunc(func(updated, all, enabled []*channel.Channel) {
		obs.ChannelsUpdated(updated, all, enabled)
		once.Do(func() {
			close(entered)
			<-release
		})
	}))

	m.Update(true, a)
	<-entered

	// The manager is busy delivering; these pile up into one batch.
	m.Update(false, b)
	m.Update(false, c)
	m.Update(true, d)
	close(release)
	m.Flush()

	got := obs.list()
	require.Len(t, got, 2)
	assert.Equal(t, []string{"app.a"}, got[0].updated)
	assert.Equal(t, []string{"app.b", "app.c", "app.d"}, got[1].updated)
	assert.Equal(t, []string{"app.d"}, got[1].enabled)
}

func TestManagerObserverFilter(t *testing.T) {
	t.Parallel()

	m, _ := newManager(t, "", "")

	a := channel.New("app.a", channel.WithManager(m))
	b := channel.New("app.b", channel.WithManager(m))
	c := channel.New("app.c", channel.WithManager(m))
	m.Flush()

	filtered := &batches{}
	everything := &batches{}

	m.AddObserver(filtered, a, c)
	m.AddObserver(everything)

	m.Update(true, b)
	m.Flush()

	assert.Empty(t, filtered.list(), "no intersection with the filter")
	require.Len(t, everything.list(), 1)

	m.Update(true, a, b)
	m.Flush()

	got := filtered.list()
	require.Len(t, got, 1)
	assert.Equal(t, []string{"app.a"}, got[0].updated)
	assert.Equal(t, []string{"app.a", "app.b"}, got[0].enabled)

	require.Len(t, everything.list(), 2)
	assert.Equal(t, []string{"app.a", "app.b"}, everything.list()[1].updated)
}

func TestManagerRemoveObserver(t *testing.T) {
	t.Parallel()

	m, _ := newManager(t, "", "")
	ch := channel.New("app.a", channel.WithManager(m))
	m.Flush()

	obs := &batches{}
	id := m.AddObserver(obs)
	other := m.AddObserver(&batches{})
	assert.NotEqual(t, id, other)
	assert.NotEmpty(t, id.String())

	m.Update(true, ch)
	m.Flush()
	require.Len(t, obs.list(), 1)

	m.RemoveObserver(id)
	m.Update(false, ch)
	m.Flush()
	assert.Len(t, obs.list(), 1)
}

func TestManagerClose(t *testing.T) {
	t.Parallel()

	store := settings.NewMemoryStore(nil)

	m, err := channel.NewManager(t.Context(), store, channel.WithDefaultHandlers(&recorder{}))
	require.NoError(t, err)

	ch := channel.New("app.net", channel.WithManager(m))
	m.Update(true, ch)

	require.NoError(t, m.Close())
	require.NoError(t, m.Close())

	// Work issued before Close was drained.
	assert.True(t, ch.Enabled())
	assert.Contains(t, store.Snapshot()[settings.KeyEnabled], "app.net")

	got, ok := m.Lookup("app.net")
	require.True(t, ok)
	assert.Same(t, ch, got)

	// Later requests are dropped without blocking.
	late := channel.New("app.late", channel.WithManager(m))
	m.Update(false, ch)
	m.Flush()

	_, ok = m.Lookup(late.FullName())
	assert.False(t, ok)
	assert.True(t, ch.Enabled())
}

//nolint:paralleltest // Replaces the process-wide default manager.
func TestSetDefault(t *testing.T) {
	m, _ := newManager(t, "net", "")

	channel.SetDefault(m)
	t.Cleanup(func() { channel.SetDefault(nil) })

	assert.Same(t, m, channel.Default())

	ch := channel.New("app.net")
	assert.Same(t, m, ch.Manager())
	assert.True(t, ch.Enabled())
}
