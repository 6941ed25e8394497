package channel

import (
	"slices"

	"github.com/google/uuid"
)

// Observer is notified when channels are registered or toggled.
//
// ChannelsUpdated receives the changed channels that match the observer's
// filter, every registered channel, and the changed channels that are
// enabled, each ordered by full name. The slices are shared between
// observers and must not be modified. ChannelsUpdated runs on the manager's
// goroutine and must not call [Manager.Flush], [Manager.Lookup] or
// [Manager.Channels].
type Observer interface {
	ChannelsUpdated(updated, all, enabled []*Channel)
}

// ObserverFunc adapts a function to the [Observer] interface.
type ObserverFunc func(updated, all, enabled []*Channel)

// ChannelsUpdated calls f.
func (f ObserverFunc) ChannelsUpdated(updated, all, enabled []*Channel) {
	f(updated, all, enabled)
}

// ObserverID identifies an observer registration.
type ObserverID uuid.UUID

// String returns the canonical UUID form of id.
func (id ObserverID) String() string {
	return uuid.UUID(id).String()
}

type observerEntry struct {
	observer Observer
	filter   map[string]bool
	id       ObserverID
}

// match returns the channels in updated that pass the filter. An empty
// filter matches every channel.
func (e observerEntry) match(updated []*Channel) []*Channel {
	if len(e.filter) == 0 {
		return updated
	}

	return slices.DeleteFunc(slices.Clone(updated), func(ch *Channel) bool {
		return !e.filter[ch.fullName]
	})
}

// AddObserver registers o for notifications about the channels in filter,
// or about every channel if filter is empty. The first notification may
// include changes requested before this call if they have not been delivered
// yet.
func (m *Manager) AddObserver(o Observer, filter ...*Channel) ObserverID {
	e := observerEntry{
		observer: o,
		filter:   make(map[string]bool, len(filter)),
		id:       ObserverID(uuid.New()),
	}
	for _, ch := range filter {
		e.filter[ch.fullName] = true
	}

	m.submit(func() {
		m.observers = append(m.observers, e)
	})

	return e.id
}

// RemoveObserver unregisters the observer registered under id.
func (m *Manager) RemoveObserver(id ObserverID) {
	m.submit(func() {
		m.observers = slices.DeleteFunc(m.observers, func(e observerEntry) bool {
			return e.id == id
		})
	})
}
