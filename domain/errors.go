package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a record does not exist, either on the server
// or in a local snapshot.
var ErrNotFound = errors.New("not found")

// ValidationError marks bad allocation or commit input. Never retried, never
// queued.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// CreditLimitError signals that an allocation would push the customer past
// their credit limit. Surfaced to the operator immediately; nothing is
// partially applied.
type CreditLimitError struct {
	BalanceCents     int64
	CreditLimitCents int64
	DebtDeltaCents   int64
}

func (e *CreditLimitError) Error() string {
	return fmt.Sprintf("credit limit exceeded: balance=%d delta=%d limit=%d",
		e.BalanceCents, e.DebtDeltaCents, e.CreditLimitCents)
}

// NetworkError wraps a transport-level failure: timeout, DNS, connection
// reset, 5xx, or an open circuit breaker. Transient; the submission is queued
// and retried with backoff.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network failure during %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// IsNetwork reports whether err is (or wraps) a NetworkError.
func IsNetwork(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// RejectionError is a 4xx business rejection from the server for a submitted
// idempotency key (stock unavailable, credit re-check failed, ...). Retrying
// would fail identically, so it is never queued or re-queued.
type RejectionError struct {
	Status int
	Reason string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("server rejected order (%d): %s", e.Status, e.Reason)
}

// IsRejection reports whether err is (or wraps) a RejectionError.
func IsRejection(err error) bool {
	var re *RejectionError
	return errors.As(err, &re)
}

// ExhaustedError marks a queue entry that hit its retry ceiling. The entry is
// kept as FAILED for manual operator review; no sale is silently dropped.
type ExhaustedError struct {
	Seq      int64
	Attempts int
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("queue entry %d exhausted after %d attempts", e.Seq, e.Attempts)
}
