package core

import "sync"

// scheduler tracks nodes that need to render. It is the only part of a
// Context written from outside the render goroutine.
type scheduler struct {
	mu       sync.Mutex
	dirty    []Index
	dirtySet map[Index]bool

	// onNeedsRender is called when a node is newly scheduled, so an idle host
	// loop can wake up.
	onNeedsRender func()
}

// schedule marks id dirty. It reports whether id was not already pending.
func (s *scheduler) schedule(id Index) bool {
	added, notify := func() (bool, func()) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.dirtySet[id] {
			return false, nil
		}
		if s.dirtySet == nil {
			s.dirtySet = make(map[Index]bool)
		}
		s.dirtySet[id] = true
		s.dirty = append(s.dirty, id)
		return true, s.onNeedsRender
	}()

	if added && notify != nil {
		notify()
	}
	return added
}

// drain returns the pending nodes in scheduling order and empties the set.
func (s *scheduler) drain() []Index {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.dirty) == 0 {
		return nil
	}
	out := make([]Index, 0, len(s.dirty))
	seen := make(map[Index]bool, len(s.dirty))
	for _, id := range s.dirty {
		if !s.dirtySet[id] || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	s.dirty = nil
	clear(s.dirtySet)
	return out
}

// forget drops a pending mark, typically because the node is rendering now
// or was removed.
func (s *scheduler) forget(id Index) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.dirtySet, id)
}

func (s *scheduler) isDirty(id Index) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirtySet[id]
}

func (s *scheduler) pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.dirtySet)
}

func (s *scheduler) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dirty = nil
	clear(s.dirtySet)
}

func (s *scheduler) setOnNeedsRender(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onNeedsRender = fn
}
