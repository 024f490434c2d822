package session

import (
	"errors"
	"fmt"
)

// Kind classifies a failure to produce an analysis.
type Kind int

const (
	// KindNetwork covers unreachable backends, non-2xx replies and
	// success=false responses.
	KindNetwork Kind = iota
	// KindSession is a missing or malformed session token.
	KindSession
	// KindEmpty is a backend reply with no analysis document.
	KindEmpty
	// KindInput is a local validation failure before any request is sent.
	KindInput
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindSession:
		return "session"
	case KindEmpty:
		return "empty"
	case KindInput:
		return "input"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is an orchestration failure. Every kind is shown the same way.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Msg
	}
	return e.Msg + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of err, or KindNetwork when err carries none.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindNetwork
}

// Message is the text shown on the error screen.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var se *Error
	if errors.As(err, &se) {
		return se.Error()
	}
	return err.Error()
}
