package channel

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"slices"
	"sync"
	"sync/atomic"

	"go.jacobcolvin.com/logchan/settings"
)

// StdoutName is the name of the channel every [Manager] pre-registers.
const StdoutName = "stdout"

// Manager owns a set of [Channel]s and their persisted state.
//
// All mutation of the manager's state runs on a single goroutine in the
// order it was requested. [Manager.Register], [Manager.Update],
// [Manager.AddObserver] and [Manager.RemoveObserver] hand work to that
// goroutine and return immediately; [Manager.Flush] waits for it.
//
// Create instances with [NewManager].
type Manager struct {
	store    settings.Store
	logger   *slog.Logger
	fatal    atomic.Pointer[FatalHandler]
	stdout   *Channel
	wake     chan struct{}
	done     chan struct{}
	resolved settings.Result
	handlers []Handler

	// Guards queue and closed.
	mu     sync.Mutex
	queue  []func()
	closed bool

	// Owned by the run goroutine.
	channels  map[string]*Channel
	observers []observerEntry
	pending   map[string]*Channel
	// Number of completed deliveries.
	delivered uint64
}

// ManagerOption configures a [Manager].
type ManagerOption func(*Manager)

// WithLogger sets the logger used for the manager's own diagnostics, such
// as failures to persist settings. The default is [slog.Default].
func WithLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithDefaultHandlers sets the handlers used by channels created without
// [WithHandlers]. The default writes to [os.Stdout] with a [WriterHandler].
func WithDefaultHandlers(handlers ...Handler) ManagerOption {
	return func(m *Manager) {
		m.handlers = handlers
	}
}

// WithFatalHandler installs h as the initial [FatalHandler].
func WithFatalHandler(h FatalHandler) ManagerOption {
	return func(m *Manager) {
		m.fatal.Store(&h)
	}
}

// NewManager creates a [Manager] whose initial channel state is resolved
// from store with [settings.Apply]. A nil store is replaced by an empty
// [settings.MemoryStore].
//
// The resolved set is captured once; channels created later consult this
// snapshot, not the live store. The manager starts a goroutine that runs
// until [Manager.Close].
func NewManager(ctx context.Context, store settings.Store, opts ...ManagerOption) (*Manager, error) {
	if store == nil {
		store = &settings.MemoryStore{}
	}

	res, err := settings.Apply(ctx, store)
	if err != nil {
		return nil, fmt.Errorf("resolve channel settings: %w", err)
	}

	m := &Manager{
		store:    store,
		logger:   slog.Default(),
		resolved: res,
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
		channels: map[string]*Channel{},
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.handlers == nil {
		m.handlers = []Handler{NewWriterHandler(os.Stdout)}
	}

	go m.run()

	m.stdout = New(StdoutName, WithManager(m), WithAlwaysEnabled())

	return m, nil
}

// Resolved returns the settings snapshot captured when the manager was
// created.
func (m *Manager) Resolved() settings.Result {
	return settings.Result{
		Enabled: slices.Clone(m.resolved.Enabled),
		Mode:    m.resolved.Mode,
	}
}

// Stdout returns the always-enabled channel registered by the manager.
func (m *Manager) Stdout() *Channel {
	return m.stdout
}

// Register adds ch to the manager and schedules a change notification for
// it. Registering a channel whose full name is already registered keeps the
// first channel in the set. [New] calls Register; calling it directly is
// only needed for channels moved between managers.
func (m *Manager) Register(ch *Channel) {
	m.submit(func() {
		if _, ok := m.channels[ch.fullName]; !ok {
			m.channels[ch.fullName] = ch
		}

		m.schedule(ch)
	})
}

// Update sets the enabled state of chs, persists the enabled set and
// schedules a single change notification covering all of them.
//
// A channel that was not added to the set because another channel with the
// same full name was registered first updates that registered channel too,
// so the new state is persisted under the shared full name.
func (m *Manager) Update(state bool, chs ...*Channel) {
	if len(chs) == 0 {
		return
	}

	chs = slices.Clone(chs)

	m.submit(func() {
		for i, ch := range chs {
			ch.enabled.Store(state)

			if reg, ok := m.channels[ch.fullName]; ok && reg != ch {
				reg.enabled.Store(state)
				chs[i] = reg
			}
		}

		m.save()
		m.schedule(chs...)
	})
}

// Lookup returns the registered channel with the given full name.
// Registrations still in flight are waited for.
func (m *Manager) Lookup(fullName string) (*Channel, bool) {
	var (
		ch *Channel
		ok bool
	)

	m.sync(func() {
		ch, ok = m.channels[fullName]
	})

	return ch, ok
}

// Channels returns all registered channels ordered by full name.
func (m *Manager) Channels() []*Channel {
	var all []*Channel

	m.sync(func() {
		all = sortedChannels(m.channels)
	})

	return all
}

// Flush blocks until every operation requested before the call has run,
// including the delivery of any notification those operations scheduled.
// Batches started by requests made after the call are not waited for.
// Flush must not be called from an [Observer].
func (m *Manager) Flush() {
	done := make(chan struct{})

	var (
		barrier func()
		target  uint64
		waiting bool
	)

	barrier = func() {
		if !waiting {
			if m.pending == nil {
				close(done)

				return
			}

			// The pending batch is delivered next; wait for it only.
			waiting = true
			target = m.delivered + 1
		}

		if m.delivered < target {
			m.enqueue(barrier)

			return
		}

		close(done)
	}

	if !m.submit(barrier) {
		<-m.done

		return
	}

	<-done
}

// Close drains outstanding work, stops the manager's goroutine and returns.
// Later requests are dropped. Close is idempotent.
func (m *Manager) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()

	m.signal()
	<-m.done

	return nil
}

// submit queues fn for the run goroutine. It reports false if the manager is
// closed.
func (m *Manager) submit(fn func()) bool {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		m.logger.Debug("channel manager closed, dropping request")

		return false
	}

	m.queue = append(m.queue, fn)
	m.mu.Unlock()

	m.signal()

	return true
}

// enqueue queues fn from the run goroutine itself, bypassing the closed
// check so work scheduled while draining still runs.
func (m *Manager) enqueue(fn func()) {
	m.mu.Lock()
	m.queue = append(m.queue, fn)
	m.mu.Unlock()
}

func (m *Manager) signal() {
	select {
	case m.wake <- struct{}{}:
	default:
	}
}

// sync runs fn on the run goroutine and waits for it. Once the manager is
// closed fn runs on the caller's goroutine.
func (m *Manager) sync(fn func()) {
	done := make(chan struct{})

	if !m.submit(func() {
		fn()
		close(done)
	}) {
		<-m.done
		fn()

		return
	}

	<-done
}

func (m *Manager) run() {
	defer close(m.done)

	for range m.wake {
		for {
			m.mu.Lock()
			ops := m.queue
			m.queue = nil
			closed := m.closed
			m.mu.Unlock()

			if len(ops) == 0 {
				if closed {
					return
				}

				break
			}

			for _, op := range ops {
				op()
			}
		}
	}
}

// schedule adds chs to the pending notification, queueing its delivery if
// this starts a new batch. Runs on the run goroutine.
func (m *Manager) schedule(chs ...*Channel) {
	if m.pending == nil {
		m.pending = map[string]*Channel{}
		m.enqueue(m.deliver)
	}

	for _, ch := range chs {
		m.pending[ch.fullName] = ch
	}
}

// deliver notifies observers of the pending batch and persists the enabled
// set. Runs on the run goroutine.
func (m *Manager) deliver() {
	updated := sortedChannels(m.pending)
	all := sortedChannels(m.channels)

	enabled := make([]*Channel, 0, len(updated))
	for _, ch := range updated {
		if ch.Enabled() {
			enabled = append(enabled, ch)
		}
	}

	for _, o := range slices.Clone(m.observers) {
		matching := o.match(updated)
		if len(matching) == 0 {
			continue
		}

		o.observer.ChannelsUpdated(matching, all, enabled)
	}

	m.pending = nil
	m.delivered++
	m.save()
}

// save persists the full names of the enabled registered channels, plus any
// resolved names that match no registered channel so channels registered
// later keep their state. Runs on the run goroutine.
func (m *Manager) save() {
	known := map[string]bool{}

	var names []string

	for _, ch := range m.channels {
		known[ch.name] = true
		known[ch.fullName] = true

		if ch.Enabled() {
			names = append(names, ch.fullName)
		}
	}

	for _, name := range m.resolved.Enabled {
		if !known[name] {
			names = append(names, name)
		}
	}

	slices.Sort(names)
	names = slices.Compact(names)

	err := m.store.Set(context.Background(), settings.KeyEnabled, settings.Join(names))
	if err != nil {
		m.logger.Warn("persist enabled channels", slog.Any("err", err))
	}
}

func sortedChannels(set map[string]*Channel) []*Channel {
	return slices.SortedFunc(maps.Values(set), func(a, b *Channel) int {
		return cmp.Compare(a.fullName, b.fullName)
	})
}
