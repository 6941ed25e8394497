package log

import (
	"sync"
	"sync/atomic"
	"time"

	"go.jacobcolvin.com/logchan/channel"
)

const defaultBufferSize = 64

// Entry is one value logged on a channel, as delivered by a [Publisher].
type Entry struct {
	Time    time.Time      `json:"time"`
	Channel string         `json:"channel"`
	Source  channel.Source `json:"source"`
	Message string         `json:"message"`
}

// Publisher is a [channel.Handler] that fans out entries to subscribers.
//
// Each call to [Publisher.Log] builds one [Entry] and delivers it to every
// active [Subscription] via a buffered channel with ring-buffer semantics:
// when a subscriber's channel is full the oldest entry is dropped so Log
// never blocks. Safe for concurrent use.
//
// Create instances with [NewPublisher].
type Publisher struct {
	now         func() time.Time
	subscribers []*Subscription
	bufSize     int
	mu          sync.Mutex
	closed      bool
}

// NewPublisher creates a [Publisher] with the given options.
// The default buffer size is 64.
func NewPublisher(opts ...PublisherOption) *Publisher {
	p := &Publisher{
		bufSize: defaultBufferSize,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}

	return p
}

// PublisherOption configures a [Publisher].
type PublisherOption func(*Publisher)

// WithBufferSize sets the channel buffer size for new subscriptions.
// Values less than 1 are clamped to 1.
func WithBufferSize(n int) PublisherOption {
	return func(p *Publisher) {
		if n < 1 {
			n = 1
		}

		p.bufSize = n
	}
}

// WithClock sets the function used to timestamp entries.
func WithClock(now func() time.Time) PublisherOption {
	return func(p *Publisher) {
		p.now = now
	}
}

// Log implements [channel.Handler].
func (p *Publisher) Log(ch *channel.Channel, src channel.Source, value any) {
	p.Publish(Entry{
		Time:    p.now(),
		Channel: ch.FullName(),
		Source:  src,
		Message: formatValue(value),
	})
}

// Publish sends e to all active subscribers. When a subscriber's channel is
// full the oldest entry is dropped to make room. Closed subscriptions are
// compacted out of the subscriber list.
func (p *Publisher) Publish(e Entry) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}

	// Compact closed subscriptions and deliver in one pass.
	alive := p.subscribers[:0]
	for _, sub := range p.subscribers {
		if sub.closed.Load() {
			close(sub.ch)
			continue
		}
		// Ring-buffer: drop oldest if full.
		select {
		case sub.ch <- e:
		default:
			<-sub.ch

			sub.ch <- e
		}

		alive = append(alive, sub)
	}

	clear(p.subscribers[len(alive):])

	p.subscribers = alive
}

// Subscribe creates and registers a new [Subscription]. If the Publisher is
// already closed the returned subscription's channel is immediately closed.
func (p *Publisher) Subscribe() *Subscription {
	p.mu.Lock()
	defer p.mu.Unlock()

	sub := &Subscription{
		ch: make(chan Entry, p.bufSize),
	}

	if p.closed {
		close(sub.ch)
		return sub
	}

	p.subscribers = append(p.subscribers, sub)

	return sub
}

// Close marks the Publisher as closed, closes all subscription channels,
// and releases the subscriber list. Idempotent.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}

	p.closed = true
	for _, sub := range p.subscribers {
		close(sub.ch)
	}

	p.subscribers = nil

	return nil
}

// Subscription receives entries from a [Publisher].
type Subscription struct {
	ch     chan Entry
	closed atomic.Bool
}

// C returns the read-only channel that delivers entries.
func (s *Subscription) C() <-chan Entry {
	return s.ch
}

// Close marks the subscription as closed. The Publisher will close the
// underlying channel on its next Publish or Close call. Idempotent.
func (s *Subscription) Close() {
	s.closed.Store(true)
}
