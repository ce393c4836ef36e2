package front

import (
	"bytes"
	"fmt"

	"tlog.app/go/errors"
)

type (
	// Error is a lex error with its source location.
	Error struct {
		Err  error
		Line int
		Col  int
		Text string
	}
)

var (
	ErrUnknownKeyword   = errors.New("unknown keyword")
	ErrIntRange         = errors.New("integer out of range")
	ErrUnterminatedSpan = errors.New("unterminated span")
	ErrMismatchedEnd    = errors.New("end without matching if")
	ErrUnclosedIf       = errors.New("if without matching end")
	ErrUnguardedIf      = errors.New("if must follow a comparison")
	ErrDanglingGuard    = errors.New("comparison must be followed by if")
)

func (s *state) errorf(pos int, err error, format string, args ...any) error {
	line := 1 + bytes.Count(s.b[:pos], []byte{'\n'})
	col := pos + 1

	if nl := bytes.LastIndexByte(s.b[:pos], '\n'); nl >= 0 {
		col = pos - nl
	}

	return Error{
		Err:  err,
		Line: line,
		Col:  col,
		Text: fmt.Sprintf(format, args...),
	}
}

func (e Error) Error() string {
	if e.Text == "" {
		return fmt.Sprintf("%d:%d: %v", e.Line, e.Col, e.Err)
	}

	return fmt.Sprintf("%d:%d: %v: %s", e.Line, e.Col, e.Err, e.Text)
}

func (e Error) Unwrap() error { return e.Err }
