package lease

import (
	"errors"
	"fmt"
)

// ChargeKind names what a budget deduction paid for.
type ChargeKind string

const (
	ChargeRent        ChargeKind = "rent"
	ChargeCommitments ChargeKind = "commitments"
	ChargeAction      ChargeKind = "action"
)

// Budget tracks one epoch's step and action counters.
//
// The step budget is reset to the cap at epoch start. Deductions are
// applied in a fixed order: rent, then commitment cost, then action steps.
// A deduction larger than what remains is not applied; the caller treats
// it as exhaustion. A deduction leaving exactly zero is absorbed.
type Budget struct {
	StepsCap   int
	ActionsCap int

	Remaining      int
	Rent           int
	CommitmentCost int
	StepsUsed      int
	ActionsUsed    int
	ActionsDenied  int
}

// NewBudget creates a budget already reset to its caps.
func NewBudget(stepsCap, actionsCap int) Budget {
	return Budget{StepsCap: stepsCap, ActionsCap: actionsCap, Remaining: stepsCap}
}

// Charge deducts amount for kind. It returns an *ExhaustedError and leaves
// the budget unchanged when amount exceeds the remaining steps.
func (b *Budget) Charge(kind ChargeKind, amount int) error {
	if amount < 0 {
		return fmt.Errorf("negative %s charge %d", kind, amount)
	}
	if amount > b.Remaining {
		return &ExhaustedError{Kind: kind, Amount: amount, Remaining: b.Remaining}
	}
	b.Remaining -= amount
	switch kind {
	case ChargeRent:
		b.Rent += amount
	case ChargeCommitments:
		b.CommitmentCost += amount
	case ChargeAction:
		b.StepsUsed += amount
		b.ActionsUsed++
	}
	return nil
}

// ActionsRemaining is how many more actions the epoch admits.
func (b *Budget) ActionsRemaining() int {
	return max(0, b.ActionsCap-b.ActionsUsed)
}

// Deny records an action refused by the action cap.
func (b *Budget) Deny() {
	b.ActionsDenied++
}

// ExhaustedError reports a charge the budget could not absorb.
type ExhaustedError struct {
	Kind      ChargeKind
	Amount    int
	Remaining int
}

// Error implements the error interface.
func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("budget exhausted: %s charge %d > %d remaining", e.Kind, e.Amount, e.Remaining)
}

// IsExhausted reports whether err is, or wraps, an ExhaustedError.
func IsExhausted(err error) bool {
	var ee *ExhaustedError
	return errors.As(err, &ee)
}
