// Package contract defines the error raised when a frozen structural
// invariant of the simulation is broken.
//
// A Violation is never an experimental outcome. Bankruptcy, revocation and
// lapse are recorded in the run result; a Violation aborts the run.
package contract

import (
	"errors"
	"fmt"
)

// Code identifies which invariant was broken.
type Code string

const (
	// CodeRenewalMidEpoch: a renewal check was attempted while an epoch was open.
	CodeRenewalMidEpoch Code = "RENEWAL_MID_EPOCH"

	// CodeStreakDuringLapse: an eligibility streak update arrived while lapsed.
	CodeStreakDuringLapse Code = "STREAK_DURING_LAPSE"

	// CodeEpochNotOpen: a budget charge or action arrived outside an open epoch.
	CodeEpochNotOpen Code = "EPOCH_NOT_OPEN"

	// CodeEpochAlreadyOpen: an epoch was opened twice.
	CodeEpochAlreadyOpen Code = "EPOCH_ALREADY_OPEN"

	// CodeNoActiveTenure: a tenure operation arrived under NULL_AUTHORITY.
	CodeNoActiveTenure Code = "NO_ACTIVE_TENURE"

	// CodeTenureStillActive: endorsement attempted over a live tenure.
	CodeTenureStillActive Code = "TENURE_STILL_ACTIVE"

	// CodeLedgerReseeded: the commitment ledger was seeded twice.
	CodeLedgerReseeded Code = "LEDGER_RESEEDED"

	// CodeEvaluationOrder: commitments evaluated twice for one epoch or out of order.
	CodeEvaluationOrder Code = "EVALUATION_ORDER"

	// CodeLogMutated: the true action log diverged from what the successor emitted.
	CodeLogMutated Code = "LOG_MUTATED"
)

// Violation is returned when a frozen invariant is broken.
type Violation struct {
	Code    Code
	Message string

	// Epoch is the epoch index at which the violation was detected, or -1.
	Epoch int
}

// Error implements the error interface.
func (v *Violation) Error() string {
	if v.Epoch >= 0 {
		return fmt.Sprintf("contract violation %s: %s (epoch=%d)", v.Code, v.Message, v.Epoch)
	}
	return fmt.Sprintf("contract violation %s: %s", v.Code, v.Message)
}

// New creates a Violation at the given epoch.
func New(code Code, epoch int, format string, args ...any) *Violation {
	return &Violation{Code: code, Message: fmt.Sprintf(format, args...), Epoch: epoch}
}

// IsViolation reports whether err is, or wraps, a Violation.
func IsViolation(err error) bool {
	var v *Violation
	return errors.As(err, &v)
}

// CodeOf returns the violation code carried by err, or "".
func CodeOf(err error) Code {
	var v *Violation
	if errors.As(err, &v) {
		return v.Code
	}
	return ""
}
