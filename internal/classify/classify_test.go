package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/tenure/internal/telemetry"
)

func active(n int, verdict telemetry.Verdict) []telemetry.EpochRecord {
	out := make([]telemetry.EpochRecord, n)
	for i := range out {
		out[i] = telemetry.EpochRecord{Authority: telemetry.AuthorityActive, SemanticPass: verdict}
	}
	return out
}

func lapsed(n int) []telemetry.EpochRecord {
	out := make([]telemetry.EpochRecord, n)
	for i := range out {
		out[i] = telemetry.EpochRecord{Authority: telemetry.AuthorityNull, SemanticPass: telemetry.VerdictNone}
	}
	return out
}

func events(kinds ...telemetry.EventKind) []telemetry.Event {
	out := make([]telemetry.Event, len(kinds))
	for i, k := range kinds {
		out[i] = telemetry.Event{Kind: k}
	}
	return out
}

func TestClassify(t *testing.T) {
	endorsed := events(telemetry.EventEndorsed)
	lapseIneligible := append(events(telemetry.EventEndorsed, telemetry.EventBankrupt),
		telemetry.Event{Kind: telemetry.EventLapse, Detail: telemetry.LapseIneligible})
	lapseTier := append(events(telemetry.EventEndorsed, telemetry.EventBankrupt),
		telemetry.Event{Kind: telemetry.EventLapse, Detail: telemetry.LapseTier})

	churn := events(
		telemetry.EventEndorsed, telemetry.EventBankrupt,
		telemetry.EventEndorsed, telemetry.EventRevoked,
		telemetry.EventEndorsed, telemetry.EventBankrupt,
		telemetry.EventEndorsed,
	)

	mostlyLapsed := append(active(10, telemetry.VerdictPass), lapsed(12)...)
	mostlyLapsed = append(mostlyLapsed, active(2, telemetry.VerdictPass)...)

	someFails := append(active(18, telemetry.VerdictPass), active(2, telemetry.VerdictFail)...)

	tests := []struct {
		name   string
		epochs []telemetry.EpochRecord
		events []telemetry.Event
		cause  telemetry.TerminalCause
		want   telemetry.Regime
	}{
		{"empty run", nil, nil, telemetry.CauseHorizonExhausted, TerminalCollapse},
		{"stable", active(40, telemetry.VerdictPass), endorsed, telemetry.CauseHorizonExhausted, StableAuthority},
		{"renewal limit rotation stays stable", active(40, telemetry.VerdictPass),
			events(telemetry.EventEndorsed, telemetry.EventRenewalLimit, telemetry.EventEndorsed),
			telemetry.CauseHorizonExhausted, StableAuthority},
		{"stop on bankruptcy", active(5, telemetry.VerdictPass), endorsed, telemetry.CauseStoppedOnBankruptcy, TerminalCollapse},
		{"degeneracy", active(5, telemetry.VerdictNone), endorsed, telemetry.CauseDegeneracyDetected, TerminalCollapse},
		{"suppressed by eligibility", append(active(5, telemetry.VerdictFail), lapsed(12)...), lapseIneligible,
			telemetry.CauseHorizonExhausted, IrreversibleRecoverySuppression},
		{"suppression that tripped degeneracy", append(active(4, telemetry.VerdictFail), lapsed(10)...), lapseIneligible,
			telemetry.CauseDegeneracyDetected, IrreversibleRecoverySuppression},
		{"tier lapse that tripped degeneracy", append(active(4, telemetry.VerdictFail), lapsed(10)...), lapseTier,
			telemetry.CauseDegeneracyDetected, TerminalCollapse},
		{"short lapse under degeneracy", append(active(8, telemetry.VerdictNone), lapsed(2)...), lapseIneligible,
			telemetry.CauseDegeneracyDetected, TerminalCollapse},
		{"collapsed by tier", append(active(5, telemetry.VerdictFail), lapsed(12)...), lapseTier,
			telemetry.CauseHorizonExhausted, TerminalCollapse},
		{"thrashing", active(30, telemetry.VerdictPass), churn, telemetry.CauseHorizonExhausted, StructuralThrashing},
		{"denial of continuity", mostlyLapsed,
			append(lapseTier, telemetry.Event{Kind: telemetry.EventRecovery}, telemetry.Event{Kind: telemetry.EventEndorsed}),
			telemetry.CauseHorizonExhausted, AsymptoticDenialOfContinuity},
		{"bounded degradation by failures", someFails, endorsed, telemetry.CauseHorizonExhausted, BoundedDegradation},
		{"bounded degradation by bankruptcy", active(40, telemetry.VerdictPass),
			events(telemetry.EventEndorsed, telemetry.EventBankrupt, telemetry.EventEndorsed),
			telemetry.CauseHorizonExhausted, BoundedDegradation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.epochs, tt.events, tt.cause))
		})
	}
}

func TestSummarize(t *testing.T) {
	epochs := append(active(3, telemetry.VerdictPass), lapsed(2)...)
	epochs = append(epochs, active(1, telemetry.VerdictNone))

	s := Summarize(epochs, events(telemetry.EventEndorsed, telemetry.EventLapse, telemetry.EventRecovery))
	assert.Equal(t, 6, s.Epochs)
	assert.Equal(t, 2, s.LapsedEpochs)
	assert.Zero(t, s.TrailingLapse)
	assert.Equal(t, 3, s.JudgedEpochs)
	assert.Zero(t, s.FailedEpochs)
	assert.Equal(t, 1, s.Lapses)
}

func TestClassify_Deterministic(t *testing.T) {
	epochs := append(active(7, telemetry.VerdictFail), lapsed(3)...)
	evs := events(telemetry.EventEndorsed, telemetry.EventBankrupt, telemetry.EventLapse)
	first := Classify(epochs, evs, telemetry.CauseHorizonExhausted)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Classify(epochs, evs, telemetry.CauseHorizonExhausted))
	}
}
