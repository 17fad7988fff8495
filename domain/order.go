// Package domain holds the entities shared by the commit core: cart lines,
// payment allocations, order submissions, queue entries, and the error
// taxonomy. Money is carried as integer minor units everywhere; rounding to
// display units is a presentation concern.
package domain

import "time"

// CartLine is one cart row. Immutable once an order is being committed.
type CartLine struct {
	ProductID      string `json:"productId"`
	UnitPriceCents int64  `json:"unitPrice"`
	Quantity       int64  `json:"quantity"`
}

func (l CartLine) SubtotalCents() int64 {
	return l.UnitPriceCents * l.Quantity
}

// CartTotalCents sums the line subtotals.
func CartTotalCents(lines []CartLine) int64 {
	var sum int64
	for _, l := range lines {
		sum += l.SubtotalCents()
	}
	return sum
}

// CustomerLedgerSnapshot is a read-only view of a customer's outstanding
// balance and credit limit. The client never mutates it; the server adjusts
// the ledger after commit. A CreditLimitCents of 0 means unlimited.
type CustomerLedgerSnapshot struct {
	CustomerID       string `json:"customerId"`
	BalanceCents     int64  `json:"currentBalance"`
	CreditLimitCents int64  `json:"creditLimit"`
}

// OrderSubmission is one sale as handed to the server. The idempotency key is
// generated once at cart-freeze time and reused verbatim on every retry.
type OrderSubmission struct {
	IdempotencyKey string            `json:"idempotencyKey"`
	Lines          []CartLine        `json:"lines"`
	Allocation     PaymentAllocation `json:"allocation"`
	CustomerID     string            `json:"customerId,omitempty"`
	CreatedAtLocal time.Time         `json:"createdAtLocal"`
}

// ProductIDs lists the products touched by this submission, for cache refresh.
func (s OrderSubmission) ProductIDs() []string {
	ids := make([]string, 0, len(s.Lines))
	for _, l := range s.Lines {
		ids = append(ids, l.ProductID)
	}
	return ids
}

// Invoice is the server's acknowledgment of a recorded sale.
type Invoice struct {
	InvoiceID  string `json:"invoiceId"`
	TotalCents int64  `json:"total"`
	// AlreadyProcessed is set when the server recognized a reused idempotency
	// key; the sale was recorded by an earlier attempt.
	AlreadyProcessed bool `json:"alreadyProcessed,omitempty"`
}

// Product is the catalog snapshot shape served to read paths.
type Product struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	PriceCents int64  `json:"price"`
	Stock      int64  `json:"stock"`
}

// Customer is the customer snapshot shape served to read paths.
type Customer struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	BalanceCents     int64  `json:"currentBalance"`
	CreditLimitCents int64  `json:"creditLimit"`
}

// Ledger projects the snapshot the allocation engine consumes.
func (c Customer) Ledger() CustomerLedgerSnapshot {
	return CustomerLedgerSnapshot{
		CustomerID:       c.ID,
		BalanceCents:     c.BalanceCents,
		CreditLimitCents: c.CreditLimitCents,
	}
}
