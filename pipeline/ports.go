package pipeline

import (
	"context"
	"time"

	"github.com/Pratik-1-11/posfrontend-sub000/domain"
)

// Gateway submits one order to the POS server. Implementations must return a
// *domain.RejectionError for 4xx business rejections and a
// *domain.NetworkError for anything transport-level, so the pipeline can tell
// "never retry" from "queue and retry".
type Gateway interface {
	SubmitOrder(ctx context.Context, sub domain.OrderSubmission) (domain.Invoice, error)
}

// QueueStore appends a submission to the durable offline queue as PENDING.
type QueueStore interface {
	Append(ctx context.Context, sub domain.OrderSubmission) (domain.QueueEntry, error)
}

// ConnectivityProbe is the host environment's online/offline indicator.
// Advisory only: a definitive network failure on attempt overrides "online".
type ConnectivityProbe interface {
	Online() bool
}

// Clock is injected so tests control time.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall-clock implementation used outside tests.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
