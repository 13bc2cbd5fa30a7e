package core

import "reflect"

// Cloner is implemented by values that know how to copy themselves for a
// producer snapshot.
type Cloner[T any] interface {
	Clone() T
}

// Clone returns an independent copy of v for use inside a [Children]
// producer. Values implementing Cloner[T] are copied with their Clone method.
// Slices and maps are copied one level deep; everything else is copied by
// assignment, so pointers, bindings and channels stay shared.
func Clone[T any](v T) T {
	if c, ok := any(v).(Cloner[T]); ok {
		return c.Clone()
	}
	rv := reflect.ValueOf(&v).Elem()
	switch rv.Kind() {
	case reflect.Slice:
		if rv.IsNil() {
			return v
		}
		out := reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len())
		reflect.Copy(out, rv)
		return out.Interface().(T)
	case reflect.Map:
		if rv.IsNil() {
			return v
		}
		out := reflect.MakeMapWithSize(rv.Type(), rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), iter.Value())
		}
		return out.Interface().(T)
	default:
		return v
	}
}
