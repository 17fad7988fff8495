package domain

// Method identifies how a sale (or part of one) is paid.
type Method string

const (
	MethodCash        Method = "CASH"
	MethodCard        Method = "CARD"
	MethodWallet      Method = "WALLET"
	MethodStoreCredit Method = "STORE_CREDIT"
	MethodMixed       Method = "MIXED"
)

func (m Method) Valid() bool {
	switch m {
	case MethodCash, MethodCard, MethodWallet, MethodStoreCredit, MethodMixed:
		return true
	}
	return false
}

// Tenderable reports whether money can be handed over under this method.
// Store credit is never tendered; it becomes a debt delta instead.
func (m Method) Tenderable() bool {
	switch m {
	case MethodCash, MethodCard, MethodWallet:
		return true
	}
	return false
}

// PaymentAllocation is the validated breakdown of how a sale total is covered.
// All amounts are integer minor units (cents). TenderedCents records the
// amount retained per method (raw tender minus change returned), so
// sum(TenderedCents) + DebtDeltaCents == cart total holds exactly.
type PaymentAllocation struct {
	Method         Method           `json:"method"`
	TenderedCents  map[Method]int64 `json:"tenderedByMethod"`
	ChangeCents    int64            `json:"changeAmount"`
	DebtDeltaCents int64            `json:"debtDelta"`
	DebtApplied    bool             `json:"resultingDebtApplied"`
}

// TenderedTotalCents sums the retained tender across methods.
func (a PaymentAllocation) TenderedTotalCents() int64 {
	var sum int64
	for _, v := range a.TenderedCents {
		sum += v
	}
	return sum
}

// Validate checks the allocation invariants against the cart total.
func (a PaymentAllocation) Validate(totalCents int64) error {
	if !a.Method.Valid() {
		return &ValidationError{Field: "method", Reason: "unknown payment method"}
	}
	if a.ChangeCents < 0 {
		return &ValidationError{Field: "changeAmount", Reason: "change cannot be negative"}
	}
	for m, v := range a.TenderedCents {
		if !m.Tenderable() {
			return &ValidationError{Field: "tenderedByMethod", Reason: "method " + string(m) + " cannot be tendered"}
		}
		if v < 0 {
			return &ValidationError{Field: "tenderedByMethod", Reason: "negative tender for " + string(m)}
		}
	}
	if a.DebtDeltaCents < 0 && !a.DebtApplied {
		return &ValidationError{Field: "debtDelta", Reason: "negative debt delta without change applied to debt"}
	}
	if a.TenderedTotalCents()+a.DebtDeltaCents != totalCents {
		return &ValidationError{Field: "allocation", Reason: "tendered plus debt delta does not equal cart total"}
	}
	return nil
}
