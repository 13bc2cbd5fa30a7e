// Package arena provides a generation-tagged slot array.
//
// Values live in slots addressed by an [Index]. Removing a value frees its
// slot for reuse, and every reuse bumps the slot generation, so an Index held
// past the removal of its value never resolves to the slot's next occupant.
//
// An Arena is not safe for concurrent use.
package arena

import (
	"fmt"
	"iter"
)

// Index identifies a value in an [Arena].
//
// The zero Index is [Invalid] and never refers to a live value.
type Index struct {
	slot uint32
	gen  uint32
}

// Invalid is the Index that refers to nothing.
var Invalid = Index{}

// IsValid reports whether the index could refer to a value. It does not
// check whether the value is still present in any arena.
func (i Index) IsValid() bool {
	return i.gen != 0
}

// Slot returns the slot position of the index.
func (i Index) Slot() uint32 {
	return i.slot
}

// Generation returns the generation the index was issued for.
func (i Index) Generation() uint32 {
	return i.gen
}

// String formats the index as slot#generation, or "invalid".
func (i Index) String() string {
	if !i.IsValid() {
		return "invalid"
	}
	return fmt.Sprintf("%d#%d", i.slot, i.gen)
}

type entry[T any] struct {
	value T
	gen   uint32
	live  bool
}

// Arena stores values of type T under stable indices.
type Arena[T any] struct {
	entries []entry[T]
	free    []uint32
	len     int
}

// New creates an empty arena.
func New[T any]() *Arena[T] {
	return &Arena[T]{}
}

// Insert stores value and returns its index. Freed slots are reused most
// recently freed first.
func (a *Arena[T]) Insert(value T) Index {
	a.len++
	if n := len(a.free); n > 0 {
		slot := a.free[n-1]
		a.free = a.free[:n-1]
		e := &a.entries[slot]
		e.gen = nextGen(e.gen)
		e.value = value
		e.live = true
		return Index{slot: slot, gen: e.gen}
	}
	slot := uint32(len(a.entries))
	a.entries = append(a.entries, entry[T]{value: value, gen: 1, live: true})
	return Index{slot: slot, gen: 1}
}

// nextGen skips zero on wrap-around so a reused slot never yields Invalid.
func nextGen(gen uint32) uint32 {
	gen++
	if gen == 0 {
		gen = 1
	}
	return gen
}

func (a *Arena[T]) lookup(i Index) *entry[T] {
	if !i.IsValid() || int(i.slot) >= len(a.entries) {
		return nil
	}
	e := &a.entries[i.slot]
	if !e.live || e.gen != i.gen {
		return nil
	}
	return e
}

// Get returns the value stored under i.
func (a *Arena[T]) Get(i Index) (T, bool) {
	if e := a.lookup(i); e != nil {
		return e.value, true
	}
	var zero T
	return zero, false
}

// Set replaces the value stored under i. It reports false if i is stale.
func (a *Arena[T]) Set(i Index, value T) bool {
	e := a.lookup(i)
	if e == nil {
		return false
	}
	e.value = value
	return true
}

// Contains reports whether i refers to a live value.
func (a *Arena[T]) Contains(i Index) bool {
	return a.lookup(i) != nil
}

// Remove deletes the value stored under i and returns it.
func (a *Arena[T]) Remove(i Index) (T, bool) {
	var zero T
	e := a.lookup(i)
	if e == nil {
		return zero, false
	}
	value := e.value
	e.value = zero
	e.live = false
	a.free = append(a.free, i.slot)
	a.len--
	return value, true
}

// Len returns the number of live values.
func (a *Arena[T]) Len() int {
	return a.len
}

// All iterates live values in slot order.
func (a *Arena[T]) All() iter.Seq2[Index, T] {
	return func(yield func(Index, T) bool) {
		for slot := range a.entries {
			e := &a.entries[slot]
			if !e.live {
				continue
			}
			if !yield(Index{slot: uint32(slot), gen: e.gen}, e.value) {
				return
			}
		}
	}
}

// Clear removes every value. Indices issued before Clear stay stale forever.
func (a *Arena[T]) Clear() {
	var zero T
	a.free = a.free[:0]
	for slot := len(a.entries) - 1; slot >= 0; slot-- {
		e := &a.entries[slot]
		if e.live {
			e.value = zero
			e.live = false
		}
		a.free = append(a.free, uint32(slot))
	}
	a.len = 0
}
