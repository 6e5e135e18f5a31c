// Package classify assigns exactly one regime label to a finished run.
//
// Classification reads only recorded telemetry. Rules are checked in order
// and the first match wins.
package classify

import (
	"github.com/roach88/tenure/internal/telemetry"
)

// Regime labels.
const (
	StableAuthority                 telemetry.Regime = "STABLE_AUTHORITY"
	BoundedDegradation              telemetry.Regime = "BOUNDED_DEGRADATION"
	StructuralThrashing             telemetry.Regime = "STRUCTURAL_THRASHING"
	AsymptoticDenialOfContinuity    telemetry.Regime = "ASYMPTOTIC_DENIAL_OF_CONTINUITY"
	TerminalCollapse                telemetry.Regime = "TERMINAL_COLLAPSE"
	IrreversibleRecoverySuppression telemetry.Regime = "IRREVERSIBLE_RECOVERY_SUPPRESSION"
)

// Frozen thresholds.
const (
	// SuppressionMinEpochs is the trailing lapse length after which a
	// lapse is treated as permanent.
	SuppressionMinEpochs = 10

	// ThrashingMinTerminations is the bankruptcy+revocation count needed
	// before high succession churn counts as thrashing.
	ThrashingMinTerminations = 3

	// ThrashingSuccessionRate is endorsements per epoch at or above which
	// churn counts as thrashing.
	ThrashingSuccessionRate = 0.1

	// DenialLapseFraction is the share of lapsed epochs at or above which
	// continuity is considered denied.
	DenialLapseFraction = 0.5

	// DegradationFailFraction is the share of judged epochs failing
	// commitments at or above which authority is degraded.
	DegradationFailFraction = 0.1
)

// Summary is the trajectory statistics the rules read.
type Summary struct {
	Epochs         int
	LapsedEpochs   int
	TrailingLapse  int
	JudgedEpochs   int
	FailedEpochs   int
	Endorsements   int
	Bankruptcies   int
	Revocations    int
	Lapses         int
	LastLapseCause string
}

// Summarize computes trajectory statistics.
func Summarize(epochs []telemetry.EpochRecord, events []telemetry.Event) Summary {
	s := Summary{Epochs: len(epochs)}
	for _, e := range epochs {
		if e.Authority != telemetry.AuthorityActive {
			s.LapsedEpochs++
			s.TrailingLapse++
		} else {
			s.TrailingLapse = 0
		}
		switch e.SemanticPass {
		case telemetry.VerdictPass:
			s.JudgedEpochs++
		case telemetry.VerdictFail:
			s.JudgedEpochs++
			s.FailedEpochs++
		}
	}
	for _, ev := range events {
		switch ev.Kind {
		case telemetry.EventEndorsed:
			s.Endorsements++
		case telemetry.EventBankrupt:
			s.Bankruptcies++
		case telemetry.EventRevoked:
			s.Revocations++
		case telemetry.EventLapse:
			s.Lapses++
			s.LastLapseCause = ev.Detail
		}
	}
	return s
}

// Classify labels a run from its epoch log, events and terminal cause.
func Classify(epochs []telemetry.EpochRecord, events []telemetry.Event, cause telemetry.TerminalCause) telemetry.Regime {
	return Label(Summarize(epochs, events), cause)
}

// Label applies the rules to precomputed statistics.
func Label(s Summary, cause telemetry.TerminalCause) telemetry.Regime {
	if s.Epochs == 0 {
		return TerminalCollapse
	}
	// A long trailing lapse decides the label even when the lapse itself
	// tripped the degeneracy stop.
	if s.TrailingLapse >= SuppressionMinEpochs {
		if s.LastLapseCause == telemetry.LapseIneligible {
			return IrreversibleRecoverySuppression
		}
		return TerminalCollapse
	}

	switch cause {
	case telemetry.CauseStoppedOnBankruptcy,
		telemetry.CauseStoppedOnRevocation,
		telemetry.CauseStoppedOnRenewalFail,
		telemetry.CauseDegeneracyDetected:
		return TerminalCollapse
	}

	n := float64(s.Epochs)
	terminations := s.Bankruptcies + s.Revocations
	if terminations >= ThrashingMinTerminations && float64(s.Endorsements)/n >= ThrashingSuccessionRate {
		return StructuralThrashing
	}
	if float64(s.LapsedEpochs)/n >= DenialLapseFraction {
		return AsymptoticDenialOfContinuity
	}

	failing := s.JudgedEpochs > 0 && float64(s.FailedEpochs)/float64(s.JudgedEpochs) >= DegradationFailFraction
	if s.Lapses > 0 || terminations > 0 || failing {
		return BoundedDegradation
	}
	return StableAuthority
}
