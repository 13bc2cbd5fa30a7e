package core

import (
	stderrors "errors"
	"fmt"
	"reflect"
	"sync"
)

// ErrNotFound is returned when no global state of the requested type is
// registered.
var ErrNotFound = stderrors.New("core: global state not found")

// LookupError reports a failed [GetGlobalState]. It matches [ErrNotFound]
// with errors.Is.
type LookupError struct {
	Type reflect.Type
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("core: no global state of type %s", e.Type)
}

func (e *LookupError) Unwrap() error {
	return ErrNotFound
}

// globalRegistry holds at most one value per type.
type globalRegistry struct {
	mu     sync.RWMutex
	values map[reflect.Type]any
}

func (g *globalRegistry) set(t reflect.Type, v any) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.values == nil {
		g.values = make(map[reflect.Type]any)
	}
	_, replaced := g.values[t]
	g.values[t] = v
	return replaced
}

func (g *globalRegistry) get(t reflect.Type) (any, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	v, ok := g.values[t]
	return v, ok
}

func (g *globalRegistry) remove(t reflect.Type) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.values[t]
	delete(g.values, t)
	return ok
}

func (g *globalRegistry) clear() {
	g.mu.Lock()
	defer g.mu.Unlock()
	clear(g.values)
}

func (g *globalRegistry) len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.values)
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// ProvideGlobalState registers v as the context's value of type T. A later
// registration of the same type replaces the earlier one; the result reports
// whether a value was replaced.
//
// Registering does not schedule any render. Hosts typically provide their
// globals before the first pass, or mark the root dirty afterwards.
func ProvideGlobalState[T any](ctx *Context, v T) bool {
	return ctx.globals.set(typeOf[T](), v)
}

// GetGlobalState returns the context's value of type T. If none is
// registered it returns the zero T and a *LookupError matching ErrNotFound.
//
// Lookup is by exact type: a value provided as *World is not found as World.
func GetGlobalState[T any](ctx *Context) (T, error) {
	t := typeOf[T]()
	v, ok := ctx.globals.get(t)
	if !ok {
		var zero T
		return zero, &LookupError{Type: t}
	}
	return v.(T), nil
}

// RemoveGlobalState drops the context's value of type T. It reports whether
// one was registered.
func RemoveGlobalState[T any](ctx *Context) bool {
	return ctx.globals.remove(typeOf[T]())
}
