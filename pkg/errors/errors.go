// Package errors provides structured error reporting for Kayak.
package errors

import (
	"fmt"
	"time"
)

// ErrorKind identifies the category of an error.
type ErrorKind int

const (
	// KindUnknown indicates an error of unknown type.
	KindUnknown ErrorKind = iota
	// KindRender indicates a widget render failure.
	KindRender
	// KindPanic indicates a recovered panic.
	KindPanic
	// KindParse indicates a markup parse failure.
	KindParse
	// KindHost indicates a failure in the host loop or debug tooling.
	KindHost
)

func (k ErrorKind) String() string {
	switch k {
	case KindRender:
		return "render"
	case KindPanic:
		return "panic"
	case KindParse:
		return "parse"
	case KindHost:
		return "host"
	default:
		return "unknown"
	}
}

// KayakError is a structured framework error.
type KayakError struct {
	// Op is the operation that failed (e.g., "engine.StepFrame").
	Op string
	// Kind categorizes the error.
	Kind ErrorKind
	// Err is the underlying error.
	Err error
	// StackTrace contains the call stack at the time of the error.
	StackTrace string
	// Timestamp is when the error occurred.
	Timestamp time.Time
}

func (e *KayakError) Error() string {
	return fmt.Sprintf("%s [%s]: %v", e.Op, e.Kind, e.Err)
}

func (e *KayakError) Unwrap() error {
	return e.Err
}

// PanicError represents a recovered panic.
type PanicError struct {
	// Op is the operation that panicked (e.g., "engine.Dispatch").
	Op string
	// Value is the value passed to panic().
	Value any
	// StackTrace contains the call stack at the time of the panic.
	StackTrace string
	// Timestamp is when the panic occurred.
	Timestamp time.Time
}

func (e *PanicError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("panic in %s: %v", e.Op, e.Value)
	}
	return fmt.Sprintf("panic: %v", e.Value)
}

// RenderError represents a failed widget render.
type RenderError struct {
	// Widget is the type name of the widget that failed.
	Widget string
	// Node is the tree index of the failing node.
	Node string
	// Recovered is the panic value (nil for returned errors).
	Recovered any
	// Err is the returned error (nil for panics).
	Err error
	// StackTrace contains the call stack at the time of a panic.
	StackTrace string
	// Timestamp is when the error occurred.
	Timestamp time.Time
}

func (e *RenderError) Error() string {
	if e.Recovered != nil {
		return fmt.Sprintf("panic in %s.Render(): %v", e.Widget, e.Recovered)
	}
	if e.Err != nil {
		return fmt.Sprintf("error in %s.Render(): %v", e.Widget, e.Err)
	}
	return fmt.Sprintf("unknown error in %s.Render()", e.Widget)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// ErrorHandler receives errors reported by the framework.
type ErrorHandler interface {
	// HandleError is called when an error occurs.
	HandleError(err *KayakError)
	// HandlePanic is called when a panic is recovered.
	HandlePanic(err *PanicError)
	// HandleRenderError is called when a widget render fails.
	HandleRenderError(err *RenderError)
}
