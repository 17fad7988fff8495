package domain

import "time"

// EntryState is the lifecycle of a queued submission.
//
//	PENDING -> SENDING -> {SYNCED | PENDING (retry) | FAILED}
//
// SENDING is transient and must not survive a process restart: an entry found
// SENDING on startup is demoted to PENDING, because the outcome of its
// in-flight attempt is unknown. Re-sending is safe; the server de-duplicates
// on the idempotency key.
type EntryState string

const (
	StatePending EntryState = "PENDING"
	StateSending EntryState = "SENDING"
	StateFailed  EntryState = "FAILED"
	StateSynced  EntryState = "SYNCED"
)

// QueueEntry is one durably persisted, not-yet-confirmed order submission.
type QueueEntry struct {
	Seq           int64
	Submission    OrderSubmission
	State         EntryState
	Attempts      int
	LastError     string
	EnqueuedAt    time.Time
	LastAttemptAt time.Time
	NextAttemptAt time.Time
}

// LocalRef is the placeholder identifier shown while the entry is queued.
// Never a server-issued invoice number.
func (e QueueEntry) LocalRef() string {
	return "local-" + e.Submission.IdempotencyKey
}
