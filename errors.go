package qoncrete

import "github.com/qoncrete/qoncrete-go/internal/domain"

// Error is the error type reported by the client, both from New and to the
// error logger. Compare with errors.Is against the Err* values below.
type Error = domain.Error

// Kind is the category of an Error.
type Kind = domain.Kind

// Error kinds.
const (
	KindInvalidBody  = domain.KindInvalidBody
	KindTimedOut     = domain.KindTimedOut
	KindClientError  = domain.KindClientError
	KindServerError  = domain.KindServerError
	KindNetworkError = domain.KindNetworkError
)

// Sentinels matching any Error of the corresponding kind.
var (
	ErrInvalidBody  = domain.ErrInvalidBody
	ErrTimedOut     = domain.ErrTimedOut
	ErrClientError  = domain.ErrClientError
	ErrServerError  = domain.ErrServerError
	ErrNetworkError = domain.ErrNetworkError
)
