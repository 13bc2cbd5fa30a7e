package errors

import (
	"runtime"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

// handlerBox lets an interface value live in an atomic.Pointer.
type handlerBox struct {
	h ErrorHandler
}

var current atomic.Pointer[handlerBox]

func init() {
	current.Store(&handlerBox{h: &LogHandler{}})
}

// SetHandler installs the process-wide error handler and returns the
// previous one. Pass nil to restore the default LogHandler writing to stderr.
func SetHandler(h ErrorHandler) ErrorHandler {
	if h == nil {
		h = &LogHandler{}
	}
	return current.Swap(&handlerBox{h: h}).h
}

func getHandler() ErrorHandler {
	return current.Load().h
}

// stamp sets *t to now unless it is already set.
func stamp(t *time.Time) {
	if t.IsZero() {
		*t = time.Now()
	}
}

// Report sends err to the handler, stamping it if needed.
func Report(err *KayakError) {
	if err == nil {
		return
	}
	stamp(&err.Timestamp)
	getHandler().HandleError(err)
}

// ReportPanic sends a recovered panic to the handler.
func ReportPanic(err *PanicError) {
	if err == nil {
		return
	}
	stamp(&err.Timestamp)
	getHandler().HandlePanic(err)
}

// ReportRenderError sends a failed render to the handler.
func ReportRenderError(err *RenderError) {
	if err == nil {
		return
	}
	stamp(&err.Timestamp)
	getHandler().HandleRenderError(err)
}

// Recover reports a panic in progress as a PanicError for op. It must be
// deferred directly:
//
//	defer errors.Recover("engine.Dispatch")
func Recover(op string) {
	if r := recover(); r != nil {
		ReportPanic(&PanicError{Op: op, Value: r, StackTrace: CaptureStack()})
	}
}

// CaptureStack returns the caller's stack, one "function\n\tfile:line"
// entry per frame, without the CaptureStack frame itself.
func CaptureStack() string {
	const maxDepth = 32
	var pcs [maxDepth]uintptr
	n := runtime.Callers(3, pcs[:])
	if n == 0 {
		return ""
	}

	frames := runtime.CallersFrames(pcs[:n])
	var sb strings.Builder
	for {
		frame, more := frames.Next()
		sb.WriteString(frame.Function)
		sb.WriteString("\n\t")
		sb.WriteString(frame.File)
		sb.WriteByte(':')
		sb.WriteString(strconv.Itoa(frame.Line))
		sb.WriteByte('\n')
		if !more {
			break
		}
	}
	return sb.String()
}
