package binding

import (
	"sync"
	"testing"
	"time"
)

type fakeSub struct {
	name  string
	dirty *int
}

func (s fakeSub) MarkDirty() { *s.dirty++ }

type recorder struct {
	sub  Subscriber
	seen []Source
}

func (r *recorder) Track(src Source) {
	r.seen = append(r.seen, src)
	src.Subscribe(r.sub)
}

func TestLatestSetWins(t *testing.T) {
	b := Bind(0)
	for _, v := range []int{3, 1, 4, 1, 5} {
		b.Set(v)
	}
	if got := b.Get(); got != 5 {
		t.Errorf("Get() = %d, want 5", got)
	}
}

func TestReadSubscribes(t *testing.T) {
	var dirty int
	b := Bind("a")
	r := &recorder{sub: fakeSub{name: "w", dirty: &dirty}}

	if got := b.Read(r); got != "a" {
		t.Errorf("Read() = %q, want \"a\"", got)
	}
	if b.SubscriberCount() != 1 {
		t.Fatalf("SubscriberCount() = %d, want 1", b.SubscriberCount())
	}

	b.Set("b")
	if dirty != 1 {
		t.Errorf("dirty marks = %d, want 1", dirty)
	}
}

func TestReadNilTracker(t *testing.T) {
	b := Bind(2)
	if got := b.Read(nil); got != 2 {
		t.Errorf("Read(nil) = %d, want 2", got)
	}
	if b.SubscriberCount() != 0 {
		t.Errorf("SubscriberCount() = %d, want 0", b.SubscriberCount())
	}
}

func TestSubscriptionsPersistAcrossWrites(t *testing.T) {
	var dirty int
	b := Bind(0)
	b.Subscribe(fakeSub{name: "w", dirty: &dirty})

	b.Set(1)
	b.Set(2)
	b.Set(3)

	if dirty != 3 {
		t.Errorf("dirty marks = %d, want 3", dirty)
	}
	if b.SubscriberCount() != 1 {
		t.Errorf("SubscriberCount() = %d, want 1", b.SubscriberCount())
	}
}

func TestEqualSetIsNoOp(t *testing.T) {
	var dirty int
	b := Bind([]int{1, 2})
	b.Subscribe(fakeSub{name: "w", dirty: &dirty})

	if b.Set([]int{1, 2}) {
		t.Error("Set of an equal value reported a change")
	}
	if dirty != 0 {
		t.Errorf("equal Set marked subscribers dirty %d times", dirty)
	}
	if b.Version() != 0 {
		t.Errorf("Version() = %d after no-op Set, want 0", b.Version())
	}

	if !b.Set([]int{1, 3}) {
		t.Error("Set of a different value reported no change")
	}
	if dirty != 1 || b.Version() != 1 {
		t.Errorf("dirty = %d version = %d, want 1 and 1", dirty, b.Version())
	}
}

func TestBindFuncNilEqualAlwaysNotifies(t *testing.T) {
	var dirty int
	b := BindFunc(7, nil)
	b.Subscribe(fakeSub{name: "w", dirty: &dirty})

	b.Set(7)
	b.Set(7)
	if dirty != 2 {
		t.Errorf("dirty marks = %d, want 2", dirty)
	}
}

func TestBindFuncCustomEquality(t *testing.T) {
	var dirty int
	// Values are equal when they round to the same ten.
	b := BindFunc(10, func(a, b int) bool { return a/10 == b/10 })
	b.Subscribe(fakeSub{name: "w", dirty: &dirty})

	b.Set(12)
	if dirty != 0 || b.Get() != 10 {
		t.Errorf("dirty = %d value = %d, want 0 and 10", dirty, b.Get())
	}
	b.Set(25)
	if dirty != 1 || b.Get() != 25 {
		t.Errorf("dirty = %d value = %d, want 1 and 25", dirty, b.Get())
	}
}

func TestSubscribeIsIdempotent(t *testing.T) {
	var dirty int
	b := Bind(0)
	s := fakeSub{name: "w", dirty: &dirty}

	if !b.Subscribe(s) {
		t.Error("first Subscribe returned false")
	}
	if b.Subscribe(s) {
		t.Error("second Subscribe returned true")
	}
	b.Set(1)
	if dirty != 1 {
		t.Errorf("dirty marks = %d, want 1", dirty)
	}
}

func TestUnsubscribe(t *testing.T) {
	var dirty int
	b := Bind(0)
	s := fakeSub{name: "w", dirty: &dirty}
	b.Subscribe(s)

	if !b.Unsubscribe(s) {
		t.Fatal("Unsubscribe returned false")
	}
	if b.Unsubscribe(s) {
		t.Error("second Unsubscribe returned true")
	}
	b.Set(1)
	if dirty != 0 {
		t.Errorf("unsubscribed subscriber marked %d times", dirty)
	}
}

func TestNotifyKeepsValue(t *testing.T) {
	var dirty int
	b := Bind("x")
	b.Subscribe(fakeSub{name: "w", dirty: &dirty})

	var heard []string
	b.AddListener(func(v string) { heard = append(heard, v) })

	b.Notify()
	if dirty != 1 || len(heard) != 1 || heard[0] != "x" {
		t.Errorf("dirty = %d heard = %v, want 1 and [x]", dirty, heard)
	}
	if b.Version() != 0 {
		t.Errorf("Notify changed version to %d", b.Version())
	}
}

func TestUpdate(t *testing.T) {
	b := Bind(1)
	if !b.Update(func(v int) int { return v + 1 }) {
		t.Error("Update reported no change")
	}
	if b.Update(func(v int) int { return v }) {
		t.Error("identity Update reported a change")
	}
	if b.Get() != 2 {
		t.Errorf("Get() = %d, want 2", b.Get())
	}
}

func TestUpdateCanReadBinding(t *testing.T) {
	b := Bind(3)
	done := make(chan bool)
	go func() {
		done <- b.Update(func(v int) int { return v + b.Get() + int(b.Version()) })
	}()
	select {
	case changed := <-done:
		if !changed {
			t.Error("Update reported no change")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Update blocked while fn read the binding")
	}
	if got := b.Get(); got != 6 {
		t.Errorf("Get() = %d, want 6", got)
	}
}

func TestUpdateRetriesAfterConcurrentWrite(t *testing.T) {
	b := Bind(1)
	var seen []int
	b.Update(func(v int) int {
		seen = append(seen, v)
		if len(seen) == 1 {
			written := make(chan struct{})
			go func() {
				b.Set(10)
				close(written)
			}()
			<-written
		}
		return v * 2
	})

	if len(seen) != 2 || seen[0] != 1 || seen[1] != 10 {
		t.Errorf("fn saw %v, want [1 10]", seen)
	}
	if got := b.Get(); got != 20 {
		t.Errorf("Get() = %d, want 20", got)
	}
	if got := b.Version(); got != 2 {
		t.Errorf("Version() = %d, want 2", got)
	}
}

func TestListenersOrderAndRemoval(t *testing.T) {
	b := Bind(0)
	var order []string
	b.AddListener(func(int) { order = append(order, "first") })
	remove := b.AddListener(func(int) { order = append(order, "second") })
	b.AddListener(func(int) { order = append(order, "third") })

	b.Set(1)
	remove()
	b.Set(2)

	want := []string{"first", "second", "third", "first", "third"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestConcurrentUpdates(t *testing.T) {
	b := Bind(0)
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				b.Update(func(v int) int { return v + 1 })
			}
		}()
	}
	wg.Wait()

	if got := b.Get(); got != 800 {
		t.Errorf("Get() = %d, want 800", got)
	}
}

func TestSetVisibleAcrossGoroutines(t *testing.T) {
	b := Bind(0)
	done := make(chan struct{})
	go func() {
		b.Set(42)
		close(done)
	}()
	<-done
	if got := b.Get(); got != 42 {
		t.Errorf("Get() after Set on another goroutine = %d, want 42", got)
	}
}
