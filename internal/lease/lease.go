// Package lease implements the authority state machine: the current
// tenure, its per-epoch budget, bankruptcy, renewal and revocation.
//
// States:
//
//	NULL_AUTHORITY ──Endorse──→ ACTIVE
//	ACTIVE ──charge > remaining──→ EXPIRED_BANKRUPT
//	ACTIVE ──renewal check, violation──→ REVOKED
//	ACTIVE ──renewal check, limit reached──→ EXPIRED_RENEWAL_LIMIT
//
// Every terminal outcome returns the lease to NULL_AUTHORITY until the next
// endorsement. A tenure terminates exactly once.
package lease

import (
	"github.com/roach88/tenure/internal/contract"
	"github.com/roach88/tenure/internal/eclass"
	"github.com/roach88/tenure/internal/rent"
	"github.com/roach88/tenure/internal/telemetry"
)

// Status of a tenure.
type Status string

const (
	StatusActive              Status = "ACTIVE"
	StatusExpiredBankrupt     Status = "EXPIRED_BANKRUPT"
	StatusExpiredRenewalLimit Status = "EXPIRED_RENEWAL_LIMIT"
	StatusRevoked             Status = "REVOKED"
)

// Authority is the system-level authority state.
type Authority string

const (
	AuthorityActive Authority = telemetry.AuthorityActive
	AuthorityNull   Authority = telemetry.AuthorityNull
)

// Tenure is one continuous period a single policy holds authority.
type Tenure struct {
	Index      int          `json:"index"`
	PolicyID   string       `json:"policy_id"`
	EClass     eclass.Class `json:"eclass"`
	Rent       int          `json:"rent"`
	StartEpoch int          `json:"start_epoch"`
	EndEpoch   int          `json:"end_epoch"` // -1 while active
	Status     Status       `json:"status"`
	Renewals   int          `json:"renewals"`
}

// Renewal is the outcome of one renewal check.
type Renewal string

const (
	RenewalNone    Renewal = ""
	RenewalRenewed Renewal = "RENEWED"
	RenewalRevoked Renewal = "REVOKED"
	RenewalLimit   Renewal = "RENEWAL_LIMIT"
)

// Config holds the lease parameters.
type Config struct {
	ActionsCap           int
	RenewalCheckInterval int // cycles; < 1 disables renewal checks
	MaxRenewals          int // < 1 means unlimited
}

// Lease owns the current tenure and its budget. It is the only writer of
// tenure status, E-class and rent.
type Lease struct {
	schedule *rent.Schedule
	cfg      Config

	current *Tenure
	history []Tenure
	budget  Budget
	open    bool
	epoch   int

	tenureCycles  int
	checksApplied int
}

// New creates a lease in NULL_AUTHORITY.
func New(schedule *rent.Schedule, cfg Config) *Lease {
	return &Lease{
		schedule: schedule,
		cfg:      cfg,
		budget:   NewBudget(schedule.StepsCap(), cfg.ActionsCap),
		epoch:    -1,
	}
}

// Authority reports whether a tenure is active.
func (l *Lease) Authority() Authority {
	if l.current == nil {
		return AuthorityNull
	}
	return AuthorityActive
}

// Current returns a copy of the active tenure.
func (l *Lease) Current() (Tenure, bool) {
	if l.current == nil {
		return Tenure{}, false
	}
	return *l.current, true
}

// History returns all terminated tenures in termination order.
func (l *Lease) History() []Tenure {
	return append([]Tenure(nil), l.history...)
}

// Tenures returns terminated tenures followed by the active one, if any.
func (l *Lease) Tenures() []Tenure {
	out := l.History()
	if l.current != nil {
		out = append(out, *l.current)
	}
	return out
}

// Budget returns a copy of the current epoch's budget counters.
func (l *Lease) Budget() Budget {
	return l.budget
}

// EpochOpen reports whether an epoch is in progress.
func (l *Lease) EpochOpen() bool {
	return l.open
}

// Endorse starts a new ACTIVE tenure for policyID at class. The rent is
// fixed for the life of the tenure.
func (l *Lease) Endorse(policyID string, class eclass.Class, epoch int) (Tenure, error) {
	if l.current != nil {
		return Tenure{}, contract.New(contract.CodeTenureStillActive, epoch,
			"endorse %q over active tenure of %q", policyID, l.current.PolicyID)
	}
	if l.open {
		return Tenure{}, contract.New(contract.CodeEpochAlreadyOpen, epoch,
			"endorse %q inside an open epoch", policyID)
	}
	l.current = &Tenure{
		Index:      len(l.history),
		PolicyID:   policyID,
		EClass:     class,
		Rent:       l.schedule.Rent(class),
		StartEpoch: epoch,
		EndEpoch:   -1,
		Status:     StatusActive,
	}
	l.tenureCycles = 0
	l.checksApplied = 0
	return *l.current, nil
}

// BeginEpoch opens epoch, resets the budget and charges rent. It reports
// false when rent could not be absorbed; the tenure is then bankrupt.
func (l *Lease) BeginEpoch(epoch int) (bool, error) {
	if l.current == nil {
		return false, contract.New(contract.CodeNoActiveTenure, epoch, "begin epoch without a tenure")
	}
	if l.open {
		return false, contract.New(contract.CodeEpochAlreadyOpen, epoch, "epoch %d still open", l.epoch)
	}
	l.open = true
	l.epoch = epoch
	l.budget = NewBudget(l.schedule.StepsCap(), l.cfg.ActionsCap)
	return l.charge(ChargeRent, l.current.Rent)
}

// ChargeCommitments deducts the epoch's commitment cost after rent.
func (l *Lease) ChargeCommitments(cost int) (bool, error) {
	if err := l.requireOpen("charge commitments"); err != nil {
		return false, err
	}
	return l.charge(ChargeCommitments, cost)
}

// Spend deducts steps for one executed action. It reports false when the
// action could not be paid for; the tenure is then bankrupt.
func (l *Lease) Spend(steps int) (bool, error) {
	if err := l.requireOpen("spend"); err != nil {
		return false, err
	}
	return l.charge(ChargeAction, steps)
}

// Deny records an action refused by the action cap.
func (l *Lease) Deny() {
	l.budget.Deny()
}

// Tick advances the tenure's cycle count by one. Cycles are counted only
// while a tenure is active so renewal boundaries are tenure-relative.
func (l *Lease) Tick() {
	if l.current != nil {
		l.tenureCycles++
	}
}

// RenewalDue reports whether a renewal boundary has been crossed since the
// last check.
func (l *Lease) RenewalDue() bool {
	if l.current == nil || l.cfg.RenewalCheckInterval < 1 {
		return false
	}
	return l.tenureCycles/l.cfg.RenewalCheckInterval > l.checksApplied
}

// EndEpoch closes the open epoch and returns its final budget.
func (l *Lease) EndEpoch() (Budget, error) {
	if !l.open {
		return Budget{}, contract.New(contract.CodeEpochNotOpen, l.epoch, "end epoch with no open epoch")
	}
	l.open = false
	return l.budget, nil
}

// CheckRenewal evaluates renewal for the active tenure. It must be called
// with the epoch closed. Boundaries crossed since the previous check are
// settled by this one check.
func (l *Lease) CheckRenewal(violation bool) (Renewal, error) {
	if l.open {
		return RenewalNone, contract.New(contract.CodeRenewalMidEpoch, l.epoch, "renewal check inside open epoch")
	}
	if l.current == nil {
		return RenewalNone, contract.New(contract.CodeNoActiveTenure, l.epoch, "renewal check without a tenure")
	}
	if l.cfg.RenewalCheckInterval > 0 {
		l.checksApplied = l.tenureCycles / l.cfg.RenewalCheckInterval
	}
	switch {
	case violation:
		l.terminate(StatusRevoked)
		return RenewalRevoked, nil
	case l.cfg.MaxRenewals > 0 && l.current.Renewals >= l.cfg.MaxRenewals:
		l.terminate(StatusExpiredRenewalLimit)
		return RenewalLimit, nil
	default:
		l.current.Renewals++
		return RenewalRenewed, nil
	}
}

func (l *Lease) requireOpen(op string) error {
	if !l.open {
		return contract.New(contract.CodeEpochNotOpen, l.epoch, "%s outside an open epoch", op)
	}
	if l.current == nil {
		return contract.New(contract.CodeNoActiveTenure, l.epoch, "%s without a tenure", op)
	}
	return nil
}

func (l *Lease) charge(kind ChargeKind, amount int) (bool, error) {
	err := l.budget.Charge(kind, amount)
	if err == nil {
		return true, nil
	}
	if IsExhausted(err) {
		l.terminate(StatusExpiredBankrupt)
		return false, nil
	}
	return false, err
}

func (l *Lease) terminate(status Status) {
	l.current.Status = status
	l.current.EndEpoch = l.epoch
	l.history = append(l.history, *l.current)
	l.current = nil
}
