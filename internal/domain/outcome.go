package domain

// Outcome is the terminal state of one delivery.
type Outcome int

const (
	Success Outcome = iota
	NetworkError
	TimedOut
	ClientError
	ServerError
)

// String returns a human-readable representation of the outcome.
func (o Outcome) String() string {
	switch o {
	case Success:
		return "Success"
	case NetworkError:
		return "NetworkError"
	case TimedOut:
		return "TimedOut"
	case ClientError:
		return "ClientError"
	case ServerError:
		return "ServerError"
	default:
		return "Unknown"
	}
}

// Result describes how a delivery ended.
type Result struct {
	Outcome Outcome

	// Status is the HTTP status of the last attempt, 0 on transport errors.
	Status int

	// Message carries the response body or transport error text.
	Message string

	// Attempts counts every request sent for the batch, retries included.
	Attempts int

	// Records is the size of the delivered batch.
	Records int
}

// OK returns true if the delivery succeeded.
func (r Result) OK() bool {
	return r.Outcome == Success
}

// Classify maps a delivery result to the error reported to callers.
// It returns nil for a successful delivery.
func Classify(r Result) *Error {
	var kind Kind
	msg := r.Message
	switch r.Outcome {
	case Success:
		return nil
	case TimedOut:
		kind = KindTimedOut
		if msg == "" {
			msg = "The request took too long time."
		}
	case NetworkError:
		kind = KindNetworkError
	case ClientError:
		kind = KindClientError
	default:
		kind = KindServerError
	}
	return &Error{Kind: kind, Message: msg, Status: r.Status, Records: r.Records}
}
