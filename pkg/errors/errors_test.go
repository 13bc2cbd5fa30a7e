package errors

import (
	"bytes"
	stderrors "errors"
	"strings"
	"testing"
	"time"
)

func TestKayakErrorString(t *testing.T) {
	err := &KayakError{
		Op:   "engine.StepFrame",
		Kind: KindHost,
		Err:  stderrors.New("boom"),
	}
	want := "engine.StepFrame [host]: boom"
	if got := err.Error(); got != want {
		t.Errorf("KayakError.Error() = %q, want %q", got, want)
	}
}

func TestKayakErrorUnwrap(t *testing.T) {
	base := stderrors.New("base")
	err := &KayakError{Op: "x", Err: base}
	if !stderrors.Is(err, base) {
		t.Error("errors.Is should see through KayakError")
	}
}

func TestErrorKindString(t *testing.T) {
	tests := []struct {
		kind ErrorKind
		want string
	}{
		{KindUnknown, "unknown"},
		{KindRender, "render"},
		{KindPanic, "panic"},
		{KindParse, "parse"},
		{KindHost, "host"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("ErrorKind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestPanicErrorString(t *testing.T) {
	err := &PanicError{
		Value:     "test panic",
		Timestamp: time.Now(),
	}
	if got, want := err.Error(), "panic: test panic"; got != want {
		t.Errorf("PanicError.Error() = %q, want %q", got, want)
	}

	err.Op = "engine.Dispatch"
	if got, want := err.Error(), "panic in engine.Dispatch: test panic"; got != want {
		t.Errorf("PanicError.Error() = %q, want %q", got, want)
	}
}

func TestRenderErrorString(t *testing.T) {
	tests := []struct {
		name string
		err  *RenderError
		want string
	}{
		{
			name: "panic",
			err:  &RenderError{Widget: "main.Counter", Recovered: "nil map"},
			want: "panic in main.Counter.Render(): nil map",
		},
		{
			name: "error",
			err:  &RenderError{Widget: "main.Counter", Err: stderrors.New("no world")},
			want: "error in main.Counter.Render(): no world",
		},
		{
			name: "unknown",
			err:  &RenderError{Widget: "main.Counter"},
			want: "unknown error in main.Counter.Render()",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReport(t *testing.T) {
	var captured *KayakError
	withHandler(t, &testHandler{onError: func(err *KayakError) { captured = err }})

	Report(&KayakError{Op: "test.op", Kind: KindParse, Err: stderrors.New("x")})

	if captured == nil {
		t.Fatal("expected error to be captured")
	}
	if captured.Op != "test.op" {
		t.Errorf("Op = %q, want %q", captured.Op, "test.op")
	}
	if captured.Timestamp.IsZero() {
		t.Error("expected Timestamp to be set")
	}
}

func TestReportNil(t *testing.T) {
	called := false
	withHandler(t, &testHandler{
		onError:       func(*KayakError) { called = true },
		onPanic:       func(*PanicError) { called = true },
		onRenderError: func(*RenderError) { called = true },
	})

	Report(nil)
	ReportPanic(nil)
	ReportRenderError(nil)

	if called {
		t.Error("nil reports reached the handler")
	}
}

func TestRecover(t *testing.T) {
	var captured *PanicError
	withHandler(t, &testHandler{onPanic: func(err *PanicError) { captured = err }})

	func() {
		defer Recover("test.recover")
		panic("intentional test panic")
	}()

	if captured == nil {
		t.Fatal("expected panic to be recovered and captured")
	}
	if captured.Value != "intentional test panic" {
		t.Errorf("Value = %v, want %q", captured.Value, "intentional test panic")
	}
	if captured.Op != "test.recover" {
		t.Errorf("Op = %q, want %q", captured.Op, "test.recover")
	}
}

func TestReportRenderError(t *testing.T) {
	var captured *RenderError
	withHandler(t, &testHandler{onRenderError: func(err *RenderError) { captured = err }})

	ReportRenderError(&RenderError{Widget: "main.Test", Node: "1#1", Recovered: "test panic"})

	if captured == nil {
		t.Fatal("expected render error to be captured")
	}
	if captured.Widget != "main.Test" {
		t.Errorf("Widget = %q, want %q", captured.Widget, "main.Test")
	}
	if captured.Timestamp.IsZero() {
		t.Error("expected Timestamp to be set")
	}
}

func TestCaptureStack(t *testing.T) {
	stack := CaptureStack()
	if stack == "" {
		t.Fatal("expected non-empty stack trace")
	}
	if !strings.Contains(stack, "testing") && !strings.Contains(stack, "runtime") {
		t.Errorf("stack trace should contain testing or runtime frames, got: %s", stack)
	}
}

func TestSetHandlerNil(t *testing.T) {
	withHandler(t, &testHandler{})

	if _, ok := SetHandler(nil).(*testHandler); !ok {
		t.Error("SetHandler should return the previous handler")
	}
	if _, ok := getHandler().(*LogHandler); !ok {
		t.Errorf("SetHandler(nil) should set LogHandler, got %T", getHandler())
	}
}

func TestLogHandlerOutput(t *testing.T) {
	var buf bytes.Buffer
	h := &LogHandler{Out: &buf}

	h.HandleError(&KayakError{Op: "kayak check", Kind: KindParse, Err: stderrors.New("missing")})
	h.HandlePanic(&PanicError{Op: "engine.Dispatch", Value: "bad"})
	h.HandleRenderError(&RenderError{Widget: "main.Counter", Node: "2#1", Err: stderrors.New("nope")})

	out := buf.String()
	for _, want := range []string{
		"[kayak error] kayak check: missing",
		"[kayak panic] engine.Dispatch: bad",
		"[kayak render error] node 2#1: error in main.Counter.Render(): nope",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

func TestLogHandlerVerboseStack(t *testing.T) {
	var buf bytes.Buffer
	h := &LogHandler{Out: &buf, Verbose: true}
	h.HandlePanic(&PanicError{Value: "bad", StackTrace: "main.main\n"})
	if !strings.Contains(buf.String(), "Stack trace:\nmain.main") {
		t.Errorf("verbose output should include the stack, got:\n%s", buf.String())
	}
}

func withHandler(t *testing.T, h ErrorHandler) {
	t.Helper()
	old := SetHandler(h)
	t.Cleanup(func() { SetHandler(old) })
}

type testHandler struct {
	onError       func(*KayakError)
	onPanic       func(*PanicError)
	onRenderError func(*RenderError)
}

func (h *testHandler) HandleError(err *KayakError) {
	if h.onError != nil {
		h.onError(err)
	}
}

func (h *testHandler) HandlePanic(err *PanicError) {
	if h.onPanic != nil {
		h.onPanic(err)
	}
}

func (h *testHandler) HandleRenderError(err *RenderError) {
	if h.onRenderError != nil {
		h.onRenderError(err)
	}
}
