package domain

import "fmt"

// Kind is the category of a delivery or submission failure.
type Kind int

const (
	KindInvalidBody Kind = iota + 1
	KindTimedOut
	KindClientError
	KindServerError
	KindNetworkError
)

// String returns the wire name of the kind.
func (k Kind) String() string {
	switch k {
	case KindInvalidBody:
		return "INVALID_BODY"
	case KindTimedOut:
		return "TIMEDOUT"
	case KindClientError:
		return "CLIENT_ERROR"
	case KindServerError:
		return "SERVER_ERROR"
	case KindNetworkError:
		return "NETWORK_ERROR"
	default:
		return "UNKNOWN"
	}
}

// Error is the error value handed to callers and to the error sink.
type Error struct {
	Kind    Kind
	Message string

	// Status is the HTTP status code when the server answered, 0 otherwise.
	Status int

	// Records is the number of records the failure covers.
	Records int
}

// NewError creates an Error of the given kind.
func NewError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.Message
}

// Is reports whether target is an *Error of the same kind, so that
// errors.Is(err, ErrTimedOut) matches every timeout regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Sentinels for errors.Is comparisons.
var (
	ErrInvalidBody  = &Error{Kind: KindInvalidBody}
	ErrTimedOut     = &Error{Kind: KindTimedOut}
	ErrClientError  = &Error{Kind: KindClientError}
	ErrServerError  = &Error{Kind: KindServerError}
	ErrNetworkError = &Error{Kind: KindNetworkError}
)
