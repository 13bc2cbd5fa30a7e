// Package binding provides change-tracked values that widgets subscribe to.
//
// A [Binding] is a shared cell. Widgets register as subscribers by reading the
// binding through a [Tracker] during render, or by binding explicitly. Every
// successful [Binding.Set] marks all current subscribers dirty; subscriptions
// survive writes and are only released by [Binding.Unsubscribe].
//
// Bindings are safe for concurrent use. A Set that has returned is visible to
// every later Get on any goroutine.
package binding

import (
	"reflect"
	"slices"
	"sync"
)

// Subscriber is notified when a subscribed source changes.
//
// Subscribers are compared with ==, so implementations must be comparable.
type Subscriber interface {
	MarkDirty()
}

// Source is the value-independent side of a binding.
type Source interface {
	// Subscribe adds s to the subscriber set. It reports false if s was
	// already subscribed.
	Subscribe(s Subscriber) bool
	// Unsubscribe removes s. It reports false if s was not subscribed.
	Unsubscribe(s Subscriber) bool
	// SubscriberCount returns the number of current subscribers.
	SubscriberCount() int
}

// Tracker records sources read during a render evaluation.
type Tracker interface {
	Track(src Source)
}

// Binding is a reactive value cell.
type Binding[T any] struct {
	mu        sync.RWMutex
	value     T
	version   uint64
	equal     func(a, b T) bool
	subs      []Subscriber
	listeners map[uint64]func(T)
	nextID    uint64
}

// Bind wraps value in a new binding with no subscribers.
//
// Writes of a value that is reflect.DeepEqual to the current one are ignored.
func Bind[T any](value T) *Binding[T] {
	return &Binding[T]{
		value: value,
		equal: func(a, b T) bool { return reflect.DeepEqual(a, b) },
	}
}

// BindFunc is like [Bind] but uses equal to detect no-op writes.
// A nil equal makes every write notify.
func BindFunc[T any](value T, equal func(a, b T) bool) *Binding[T] {
	return &Binding[T]{value: value, equal: equal}
}

// Get returns the current value without subscribing.
func (b *Binding[T]) Get() T {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.value
}

// Read returns the current value and registers the tracker's owner as a
// subscriber. A nil tracker makes Read equivalent to Get.
func (b *Binding[T]) Read(t Tracker) T {
	if t != nil {
		t.Track(b)
	}
	return b.Get()
}

// Version returns the number of effective writes so far.
func (b *Binding[T]) Version() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.version
}

// Set replaces the value and marks every subscriber dirty.
//
// If the new value equals the current one, Set does nothing and returns
// false. Otherwise it returns true.
func (b *Binding[T]) Set(value T) bool {
	b.mu.Lock()
	if b.equal != nil && b.equal(b.value, value) {
		b.mu.Unlock()
		return false
	}
	b.value = value
	b.version++
	subs, listeners := b.snapshotLocked()
	b.mu.Unlock()

	notify(subs, listeners, value)
	return true
}

// Update applies fn to the current value and stores the result, with the
// same notification rules as Set. fn runs without the lock held, so it may
// read this binding. If another write lands while fn runs, fn is called
// again with the newer value; concurrent Updates never lose writes. fn must
// not write to the binding itself.
func (b *Binding[T]) Update(fn func(T) T) bool {
	for {
		b.mu.RLock()
		current, version := b.value, b.version
		b.mu.RUnlock()

		value := fn(current)

		b.mu.Lock()
		if b.version != version {
			b.mu.Unlock()
			continue
		}
		if b.equal != nil && b.equal(b.value, value) {
			b.mu.Unlock()
			return false
		}
		b.value = value
		b.version++
		subs, listeners := b.snapshotLocked()
		b.mu.Unlock()

		notify(subs, listeners, value)
		return true
	}
}

// Notify marks every subscriber dirty and calls every listener without
// changing the value.
func (b *Binding[T]) Notify() {
	b.mu.RLock()
	value := b.value
	subs, listeners := b.snapshotLocked()
	b.mu.RUnlock()

	notify(subs, listeners, value)
}

func (b *Binding[T]) snapshotLocked() ([]Subscriber, []func(T)) {
	subs := slices.Clone(b.subs)
	var listeners []func(T)
	if len(b.listeners) > 0 {
		ids := make([]uint64, 0, len(b.listeners))
		for id := range b.listeners {
			ids = append(ids, id)
		}
		slices.Sort(ids)
		listeners = make([]func(T), 0, len(ids))
		for _, id := range ids {
			listeners = append(listeners, b.listeners[id])
		}
	}
	return subs, listeners
}

func notify[T any](subs []Subscriber, listeners []func(T), value T) {
	for _, s := range subs {
		s.MarkDirty()
	}
	for _, fn := range listeners {
		fn(value)
	}
}

// Subscribe adds s to the subscriber set.
func (b *Binding[T]) Subscribe(s Subscriber) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if slices.Contains(b.subs, s) {
		return false
	}
	b.subs = append(b.subs, s)
	return true
}

// Unsubscribe removes s from the subscriber set.
func (b *Binding[T]) Unsubscribe(s Subscriber) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	i := slices.Index(b.subs, s)
	if i < 0 {
		return false
	}
	b.subs = slices.Delete(b.subs, i, i+1)
	return true
}

// SubscriberCount returns the number of subscribers.
func (b *Binding[T]) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// AddListener registers fn to be called with the new value after every
// effective write. Listeners run after subscribers are marked, in
// registration order. The returned function removes the listener.
func (b *Binding[T]) AddListener(fn func(T)) (remove func()) {
	if fn == nil {
		return func() {}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.listeners == nil {
		b.listeners = make(map[uint64]func(T))
	}
	id := b.nextID
	b.nextID++
	b.listeners[id] = fn
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.listeners, id)
	}
}
