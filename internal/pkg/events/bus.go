// Package events provides the auth event bus: a small synchronous
// publish/subscribe channel so independent consumers of auth state stay in
// sync without polling the session manager.
package events

import (
	"sync"
)

// Event identifies an auth state transition.
type Event string

const (
	EventLogin   Event = "login"
	EventLogout  Event = "logout"
	EventRefresh Event = "refresh"
	EventExpired Event = "expired"
)

// Listener receives an event tag and an optional payload.
type Listener func(event Event, data interface{})

type subscription struct {
	id int64
	fn Listener
}

// Bus delivers events synchronously, in subscription order. There is no
// buffering: a listener subscribed after an emission never sees it.
type Bus struct {
	mu     sync.Mutex
	nextID int64
	subs   []subscription
}

func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a listener and returns a function that removes it.
// Unsubscribing twice is a no-op.
func (b *Bus) Subscribe(fn Listener) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, fn: fn})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, s := range b.subs {
			if s.id == id {
				b.subs = append(b.subs[:i], b.subs[i+1:]...)
				return
			}
		}
	}
}

// Emit invokes every currently subscribed listener in subscription order.
// A panicking listener must not prevent the remaining listeners from running.
func (b *Bus) Emit(event Event, data interface{}) {
	b.mu.Lock()
	subs := make([]subscription, len(b.subs))
	copy(subs, b.subs)
	b.mu.Unlock()

	for _, s := range subs {
		func() {
			defer func() { _ = recover() }()
			s.fn(event, data)
		}()
	}
}

// Len returns the number of active subscriptions.
func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
