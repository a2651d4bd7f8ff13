package proteome

import (
	"errors"
	"fmt"
)

// Error kinds shared by the model, the remote clients and the file adapters.
var (
	ErrNotFound  = errors.New("not found")
	ErrTransport = errors.New("transport failure")
	ErrParse     = errors.New("parse failure")
)

// Error carries the kind of failure together with the identifier and
// endpoint (URL, file path) it concerns.
type Error struct {
	Kind       error
	Identifier string
	Endpoint   string
	Message    string
	Err        error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.Error()
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Is matches the error kind, so errors.Is(err, ErrNotFound) works on any
// *Error of that kind.
func (e *Error) Is(target error) bool { return target == e.Kind }

func (e *Error) Unwrap() error { return e.Err }

func NotFound(identifier, endpoint, message string) *Error {
	return &Error{Kind: ErrNotFound, Identifier: identifier, Endpoint: endpoint, Message: message}
}

func Transport(endpoint string, err error) *Error {
	return &Error{Kind: ErrTransport, Endpoint: endpoint, Message: withTarget("request", endpoint), Err: err}
}

func Parse(source string, err error) *Error {
	return &Error{Kind: ErrParse, Endpoint: source, Message: withTarget("parse", source), Err: err}
}

func withTarget(verb, target string) string {
	if target == "" {
		return verb
	}
	return verb + " " + target
}
