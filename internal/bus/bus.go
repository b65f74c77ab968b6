// internal/bus/bus.go
package bus

import (
	"sync"

	"github.com/tellmebaby/nugunaup-console-sub000/internal/models"
)

// Topic is a single named event channel. Delivery is synchronous and
// at-most-once per Publish: every listener registered at publish time is
// invoked in registration order, late subscribers never see past events.
type Topic[T any] struct {
	mu        sync.Mutex
	nextID    int
	listeners []listener[T]
}

type listener[T any] struct {
	id int
	fn func(T)
}

// Subscribe registers fn and returns its unsubscribe func. Unsubscribing is
// idempotent and safe to call from inside a listener.
func (t *Topic[T]) Subscribe(fn func(T)) func() {
	t.mu.Lock()
	id := t.nextID
	t.nextID++
	t.listeners = append(t.listeners, listener[T]{id: id, fn: fn})
	t.mu.Unlock()

	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		for i, l := range t.listeners {
			if l.id == id {
				t.listeners = append(t.listeners[:i], t.listeners[i+1:]...)
				return
			}
		}
	}
}

// Publish delivers v to all current listeners. The listener set is snapshotted
// first so a listener unsubscribing (itself or a sibling) mid-dispatch cannot
// skip or double-deliver.
func (t *Topic[T]) Publish(v T) {
	t.mu.Lock()
	snapshot := make([]listener[T], len(t.listeners))
	copy(snapshot, t.listeners)
	t.mu.Unlock()

	for _, l := range snapshot {
		l.fn(v)
	}
}

// ListenerCount reports the number of active listeners.
func (t *Topic[T]) ListenerCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.listeners)
}

// Bus carries the cross-widget events of one console session. Widgets that
// never met each other communicate only through these topics; nothing here
// touches the network layer.
type Bus struct {
	SearchUsers           Topic[string]
	DisplayUsers          Topic[[]models.User]
	SelectUser            Topic[int64]
	AddMembersToNote      Topic[[]int64]
	RemoveMembersFromNote Topic[[]int64]
	SMSSelectedUsers      Topic[[]models.SMSRecipient]
}

// New creates an empty bus. Lifetime is the owning session's: it is dropped,
// with all listeners, when the session is torn down.
func New() *Bus {
	return &Bus{}
}
