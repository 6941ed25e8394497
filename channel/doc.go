// Package channel provides named log channels that can be switched on and
// off at run time, remember their state across runs, and forward messages to
// pluggable [Handler]s.
//
// A [Channel] is created once, typically as a package-level variable, and
// left in place permanently. When a channel is disabled its log calls cost a
// single atomic load: the value passed to [Channel.Log] is a closure that is
// never invoked.
//
//	var netLog = channel.New("myapp.net", channel.WithHandlers(h))
//
//	netLog.Log(func() any { return expensiveDump(conn) })
//	netLog.Logf("dialing %s", addr)
//
// Channels belong to a [Manager]. The manager computes each channel's
// initial state from a [settings.Store], serializes registration and
// toggling through a single goroutine, persists the enabled set after every
// change, and notifies [Observer]s with coalesced batches: any number of
// registrations and [Manager.Update] calls issued before a notification is
// delivered are reported together.
//
//	m, err := channel.NewManager(ctx, store)
//	ch := channel.New("myapp.net", channel.WithManager(m))
//	m.AddObserver(channel.ObserverFunc(func(updated, all, enabled []*channel.Channel) {
//	    // Refresh a settings view.
//	}))
//	m.Update(false, ch)
//	m.Flush()
//
// [Default] returns a process-wide manager backed by a settings file in the
// user's configuration directory; tests and applications that need control
// construct their own with [NewManager] or replace it with [SetDefault].
package channel
