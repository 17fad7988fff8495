// Package allocation computes how a sale total is covered across payment
// methods and customer debt. Pure computation: no I/O, no clock, integer
// minor units throughout. Same input always yields the same allocation or
// the same error.
package allocation

import (
	"github.com/Pratik-1-11/posfrontend-sub000/domain"
)

// Input is everything the engine needs for one allocation.
type Input struct {
	TotalCents int64
	Method     domain.Method
	// Tendered is the raw amount handed over per method, minor units.
	Tendered map[domain.Method]int64
	// Ledger is present only when a customer is attached to the sale.
	Ledger *domain.CustomerLedgerSnapshot
	// ApplyChangeToDebt redirects change into reducing an existing positive
	// balance. Explicit opt-in from the operator; never inferred.
	ApplyChangeToDebt bool
}

// Allocate validates the input and produces the payment breakdown.
//
// Single-method cash/card/wallet requires tender >= total; the surplus is
// change. Store credit (whole or mixed) turns the unpaid remainder into a
// positive debt delta, gated by the customer's credit limit. The returned
// allocation always satisfies sum(tendered) + debtDelta == total.
func Allocate(in Input) (domain.PaymentAllocation, error) {
	var zero domain.PaymentAllocation

	if in.TotalCents < 0 {
		return zero, &domain.ValidationError{Field: "total", Reason: "cart total cannot be negative"}
	}
	if !in.Method.Valid() {
		return zero, &domain.ValidationError{Field: "method", Reason: "unknown payment method"}
	}
	for m, v := range in.Tendered {
		if !m.Tenderable() {
			return zero, &domain.ValidationError{Field: "tendered", Reason: "method " + string(m) + " cannot be tendered"}
		}
		if v < 0 {
			return zero, &domain.ValidationError{Field: "tendered", Reason: "negative tender for " + string(m)}
		}
	}

	if in.Method.Tenderable() {
		return allocateSingle(in)
	}
	return allocateCredit(in)
}

// allocateSingle handles the cash/card/wallet path.
func allocateSingle(in Input) (domain.PaymentAllocation, error) {
	var zero domain.PaymentAllocation

	raw := in.Tendered[in.Method]
	for m, v := range in.Tendered {
		if m != in.Method && v != 0 {
			return zero, &domain.ValidationError{Field: "tendered", Reason: "multiple methods tendered; use MIXED"}
		}
	}
	if raw < in.TotalCents {
		return zero, &domain.ValidationError{Field: "tendered", Reason: "insufficient tender for total"}
	}

	change := raw - in.TotalCents
	retained := in.TotalCents
	var debtDelta int64
	applied := false

	if in.ApplyChangeToDebt {
		if in.Method != domain.MethodCash {
			return zero, &domain.ValidationError{Field: "applyChangeToDebt", Reason: "change applies to debt on cash tender only"}
		}
		if in.Ledger == nil {
			return zero, &domain.ValidationError{Field: "applyChangeToDebt", Reason: "no customer attached"}
		}
		if in.Ledger.BalanceCents > 0 && change > 0 {
			redirect := min(change, in.Ledger.BalanceCents)
			change -= redirect
			retained += redirect
			debtDelta = -redirect
			applied = true
		}
	}

	return domain.PaymentAllocation{
		Method:         in.Method,
		TenderedCents:  map[domain.Method]int64{in.Method: retained},
		ChangeCents:    change,
		DebtDeltaCents: debtDelta,
		DebtApplied:    applied,
	}, nil
}

// allocateCredit handles whole store credit and mixed tender. The unpaid
// remainder becomes the debt delta.
func allocateCredit(in Input) (domain.PaymentAllocation, error) {
	var zero domain.PaymentAllocation

	if in.ApplyChangeToDebt {
		return zero, &domain.ValidationError{Field: "applyChangeToDebt", Reason: "change applies to debt on cash tender only"}
	}

	tendered := make(map[domain.Method]int64, len(in.Tendered))
	var paid int64
	for m, v := range in.Tendered {
		if v == 0 {
			continue
		}
		tendered[m] = v
		paid += v
	}

	if in.Method == domain.MethodStoreCredit && paid != 0 {
		return zero, &domain.ValidationError{Field: "tendered", Reason: "store credit sale cannot carry tender; use MIXED"}
	}
	if paid > in.TotalCents {
		return zero, &domain.ValidationError{Field: "tendered", Reason: "tender exceeds total; change is not supported on split payment"}
	}

	debtDelta := in.TotalCents - paid
	if debtDelta > 0 {
		if in.Ledger == nil {
			return zero, &domain.ValidationError{Field: "ledger", Reason: "store credit requires an attached customer"}
		}
		// CreditLimitCents == 0 means unlimited.
		if in.Ledger.CreditLimitCents != 0 && in.Ledger.BalanceCents+debtDelta > in.Ledger.CreditLimitCents {
			return zero, &domain.CreditLimitError{
				BalanceCents:     in.Ledger.BalanceCents,
				CreditLimitCents: in.Ledger.CreditLimitCents,
				DebtDeltaCents:   debtDelta,
			}
		}
	}

	return domain.PaymentAllocation{
		Method:         in.Method,
		TenderedCents:  tendered,
		DebtDeltaCents: debtDelta,
	}, nil
}
