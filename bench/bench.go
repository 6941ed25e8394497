package bench

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.jacobcolvin.com/logchan/channel"
)

// ChannelName is the name of the channel created for a run.
const ChannelName = "bench.hot"

// ErrInvalidConfig indicates a [Config] that cannot be run.
var ErrInvalidConfig = errors.New("invalid benchmark config")

// Report summarizes a run.
type Report struct {
	// Calls is the total number of log calls.
	Calls int64
	// Evaluated is the number of values that were computed. Calls made
	// while the channel was disabled do not evaluate their value.
	Evaluated int64
	// Emitted is the number of values that reached the channel's handler.
	Emitted int64
	// Toggles is the number of state changes made during the run.
	Toggles int
	Elapsed time.Duration
}

// PerCall returns the mean wall time of one log call.
func (r Report) PerCall() time.Duration {
	if r.Calls == 0 {
		return 0
	}

	return r.Elapsed / time.Duration(r.Calls)
}

// String formats the report on one line.
func (r Report) String() string {
	return fmt.Sprintf("%d calls, %d evaluated, %d emitted, %d toggles in %s (%s/call)",
		r.Calls, r.Evaluated, r.Emitted, r.Toggles, r.Elapsed, r.PerCall())
}

// Run logs on a fresh [ChannelName] channel of m as configured and returns
// the resulting [Report]. Profiles named in the config are written before
// Run returns. The channel starts disabled unless Toggles is zero.
func (c *Config) Run(ctx context.Context, m *channel.Manager) (Report, error) {
	if c.Calls < 0 || c.Goroutines < 1 || c.Toggles < 0 {
		return Report{}, fmt.Errorf("%w: calls=%d goroutines=%d toggles=%d",
			ErrInvalidConfig, c.Calls, c.Goroutines, c.Toggles)
	}

	var emitted atomic.Int64

	ch := channel.New(ChannelName,
		channel.WithManager(m),
		channel.WithHandlers(channel.HandlerFunc(func(*channel.Channel, channel.Source, any) {
			emitted.Add(1)
		})),
	)

	m.Update(c.Toggles == 0, ch)
	m.Flush()

	p := c.newProfiler()

	err := p.start()
	if err != nil {
		return Report{}, err
	}

	evaluated, toggles, elapsed := c.run(ctx, m, ch)

	err = p.stop()
	if err != nil {
		return Report{}, err
	}

	m.Flush()

	return Report{
		Calls:     int64(c.Calls) * int64(c.Goroutines),
		Evaluated: evaluated,
		Emitted:   emitted.Load(),
		Toggles:   toggles,
		Elapsed:   elapsed,
	}, nil
}

func (c *Config) run(ctx context.Context, m *channel.Manager, ch *channel.Channel) (int64, int, time.Duration) {
	var (
		evaluated atomic.Int64
		wg        sync.WaitGroup
		toggles   int
	)

	done := make(chan struct{})
	start := time.Now()

	for range c.Goroutines {
		wg.Go(func() {
			for i := range c.Calls {
				ch.Log(func() any {
					evaluated.Add(1)
					return i
				})
			}
		})
	}

	toggled := make(chan struct{})

	go func() {
		defer close(toggled)

		state := false
		for toggles < c.Toggles {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			default:
			}

			state = !state
			m.Update(state, ch)

			toggles++
		}
	}()

	wg.Wait()

	elapsed := time.Since(start)

	close(done)
	<-toggled

	return evaluated.Load(), toggles, elapsed
}
