package chat

import "errors"

// Kind classifies caller-visible errors. The synchronous chat path always
// resolves to one of these; internal detail stays in the logs.
type Kind int

const (
	KindInternal Kind = iota
	KindInvalidArgument
	KindUnauthenticated
)

// Error is a caller-visible error with a human-readable message.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

// ErrInvalidArgument creates an invalid-argument error.
func ErrInvalidArgument(msg string) error {
	return &Error{Kind: KindInvalidArgument, Message: msg}
}

// ErrUnauthenticated creates an unauthenticated error.
func ErrUnauthenticated(msg string) error {
	return &Error{Kind: KindUnauthenticated, Message: msg}
}

// ErrInternal creates an internal error with a safe message.
func ErrInternal(msg string) error {
	return &Error{Kind: KindInternal, Message: msg}
}

// KindOf returns the kind of a caller-visible error, defaulting to
// KindInternal for anything unclassified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
