package rsx

import (
	"fmt"
	"go/token"
)

// Error types.
const (
	ParseError  = "parse error"
	ExpandError = "expand error"
)

// Error is a positioned markup diagnostic.
type Error struct {
	Type    string
	Message string
	Pos     token.Position
}

// Error returns "file:line:col: message".
func (e *Error) Error() string {
	if !e.Pos.IsValid() {
		return fmt.Sprintf("%s: %s", e.Type, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Pos, e.Message)
}

// Shift moves the position by line and column offsets. It is used when the
// markup was extracted from a larger file, e.g. a comment block.
func (e *Error) Shift(filename string, line, col int) {
	if filename != "" {
		e.Pos.Filename = filename
	}
	if e.Pos.Line > 0 {
		e.Pos.Line += line
		e.Pos.Column += col
	}
}

func newError(typ string, pos token.Position, format string, args ...any) *Error {
	return &Error{Type: typ, Message: fmt.Sprintf(format, args...), Pos: pos}
}
