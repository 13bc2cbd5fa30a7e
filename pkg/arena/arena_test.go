package arena

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestInsertGet(t *testing.T) {
	a := New[string]()
	first := a.Insert("a")
	second := a.Insert("b")

	if first == second {
		t.Fatalf("indices should differ, both %v", first)
	}
	if got, ok := a.Get(first); !ok || got != "a" {
		t.Errorf("Get(first) = %q, %v; want \"a\", true", got, ok)
	}
	if got, ok := a.Get(second); !ok || got != "b" {
		t.Errorf("Get(second) = %q, %v; want \"b\", true", got, ok)
	}
	if a.Len() != 2 {
		t.Errorf("Len() = %d, want 2", a.Len())
	}
}

func TestZeroIndexIsInvalid(t *testing.T) {
	a := New[int]()
	a.Insert(1)

	if Invalid.IsValid() {
		t.Error("Invalid.IsValid() = true")
	}
	if _, ok := a.Get(Invalid); ok {
		t.Error("Get(Invalid) resolved a value")
	}
	if Invalid.String() != "invalid" {
		t.Errorf("Invalid.String() = %q", Invalid.String())
	}
}

func TestStaleIndexAfterReuse(t *testing.T) {
	a := New[string]()
	old := a.Insert("old")
	if _, ok := a.Remove(old); !ok {
		t.Fatal("Remove(old) failed")
	}

	reused := a.Insert("new")
	if reused.Slot() != old.Slot() {
		t.Fatalf("expected slot reuse, got slot %d want %d", reused.Slot(), old.Slot())
	}
	if reused.Generation() == old.Generation() {
		t.Fatal("generation was not bumped on reuse")
	}
	if _, ok := a.Get(old); ok {
		t.Error("stale index resolved after slot reuse")
	}
	if a.Set(old, "clobber") {
		t.Error("Set through stale index succeeded")
	}
	if got, _ := a.Get(reused); got != "new" {
		t.Errorf("Get(reused) = %q, want \"new\"", got)
	}
}

func TestRemoveTwice(t *testing.T) {
	a := New[int]()
	i := a.Insert(7)
	if v, ok := a.Remove(i); !ok || v != 7 {
		t.Fatalf("Remove = %d, %v; want 7, true", v, ok)
	}
	if _, ok := a.Remove(i); ok {
		t.Error("second Remove succeeded")
	}
	if a.Len() != 0 {
		t.Errorf("Len() = %d, want 0", a.Len())
	}
}

func TestAllSkipsRemoved(t *testing.T) {
	a := New[string]()
	a.Insert("a")
	b := a.Insert("b")
	a.Insert("c")
	a.Remove(b)

	var got []string
	for _, v := range a.All() {
		got = append(got, v)
	}
	if diff := cmp.Diff([]string{"a", "c"}, got); diff != "" {
		t.Errorf("All() mismatch (-want +got):\n%s", diff)
	}
}

func TestClear(t *testing.T) {
	a := New[int]()
	i := a.Insert(1)
	a.Insert(2)
	a.Clear()

	if a.Len() != 0 {
		t.Errorf("Len() = %d after Clear", a.Len())
	}
	if a.Contains(i) {
		t.Error("index survived Clear")
	}
	j := a.Insert(3)
	if j == i {
		t.Error("index issued after Clear equals a pre-Clear index")
	}
}

func TestGenerationWrap(t *testing.T) {
	if got := nextGen(^uint32(0)); got != 1 {
		t.Errorf("nextGen(max) = %d, want 1", got)
	}
}
