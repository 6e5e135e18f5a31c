// Package telemetry holds the append-only epoch log, the event stream and
// the immutable Run Result produced at the end of a run.
package telemetry

import (
	"fmt"
	"slices"
)

// Verdict is an epoch's aggregate commitment judgment.
type Verdict string

const (
	VerdictPass Verdict = "PASS"
	VerdictFail Verdict = "FAIL"

	// VerdictNone marks an epoch with no live commitments.
	VerdictNone Verdict = "NONE"
)

// Authority labels recorded in EpochRecord.Authority.
const (
	AuthorityActive = "ACTIVE"
	AuthorityNull   = "NULL_AUTHORITY"
)

// EpochRecord is one epoch's accounting. Immutable once appended.
type EpochRecord struct {
	Index      int    `json:"index"`
	StartCycle int    `json:"start_cycle"`
	Authority  string `json:"authority"`
	PolicyID   string `json:"policy_id"`
	EClass     string `json:"eclass"`

	RentCharged    int `json:"rent_charged"`
	CommitmentCost int `json:"commitment_cost"`
	EffectiveSteps int `json:"effective_steps"`
	StepsUsed      int `json:"steps_used"`
	ActionsUsed    int `json:"actions_used"`
	ActionsDenied  int `json:"actions_denied"`

	CommitmentsEvaluated int     `json:"commitments_evaluated"`
	CommitmentsSatisfied int     `json:"commitments_satisfied"`
	CommitmentsExpired   int     `json:"commitments_expired"`
	SemanticPass         Verdict `json:"semantic_pass"`

	Renewal        string `json:"renewal"`
	AdversaryState int    `json:"adversary_state"`
}

// EventKind classifies a recorded event.
type EventKind string

const (
	EventEndorsed          EventKind = "ENDORSED"
	EventRenewed           EventKind = "RENEWED"
	EventBankrupt          EventKind = "BANKRUPT"
	EventRevoked           EventKind = "REVOKED"
	EventRenewalLimit      EventKind = "RENEWAL_LIMIT"
	EventLapse             EventKind = "LAPSE"
	EventRecovery          EventKind = "RECOVERY"
	EventCommitmentExpired EventKind = "COMMITMENT_EXPIRED"
)

// Lapse event details: why the entering succession attempt failed.
const (
	LapseIneligible = "ineligible"
	LapseTier       = "tier"
)

// Event is a discrete state change.
type Event struct {
	Epoch    int       `json:"epoch"`
	Kind     EventKind `json:"kind"`
	PolicyID string    `json:"policy_id"`
	Detail   string    `json:"detail"`
}

// Recorder accumulates the epoch log and events during a run.
type Recorder struct {
	epochs []EpochRecord
	events []Event
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Append adds the next epoch record. Records must arrive in index order
// with no gaps.
func (r *Recorder) Append(rec EpochRecord) error {
	if rec.Index != len(r.epochs) {
		return fmt.Errorf("epoch record %d appended at position %d", rec.Index, len(r.epochs))
	}
	r.epochs = append(r.epochs, rec)
	return nil
}

// Emit records an event.
func (r *Recorder) Emit(ev Event) {
	r.events = append(r.events, ev)
}

// Epochs returns a copy of the epoch log.
func (r *Recorder) Epochs() []EpochRecord {
	return slices.Clone(r.epochs)
}

// Events returns a copy of the event stream.
func (r *Recorder) Events() []Event {
	return slices.Clone(r.events)
}

// Count returns the number of events of kind.
func Count(events []Event, kind EventKind) int {
	n := 0
	for _, ev := range events {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}
