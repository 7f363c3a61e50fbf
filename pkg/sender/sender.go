package sender

import (
	"context"

	"github.com/qoncrete/qoncrete-go/internal/domain"
)

// Sender delivers one batch and reports how the delivery ended.
type Sender interface {
	Deliver(ctx context.Context, b domain.Batch) domain.Result
}
