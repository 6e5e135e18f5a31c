package harness

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/tenure/internal/lease"
	"github.com/roach88/tenure/internal/telemetry"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// AssertionContext provides what assertions need beyond the result itself.
type AssertionContext struct {
	Ctx context.Context

	// Rerun repeats the scenario's run from scratch.
	Rerun func(ctx context.Context) (*telemetry.RunResult, error)
}

// EvaluateAssertions evaluates all assertions against run and returns one
// message per failure.
func EvaluateAssertions(run *telemetry.RunResult, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertRegime:
			err = assertRegime(run, assertion)
		case AssertTerminalCause:
			err = assertTerminalCause(run, assertion)
		case AssertSuccessions:
			err = assertSuccessions(run, assertion)
		case AssertEventCount:
			err = assertEventCount(run, assertion)
		case AssertNoBankruptcy:
			err = assertNoBankruptcy(run)
		case AssertDeterministic:
			if actx == nil || actx.Rerun == nil {
				err = fmt.Errorf("assertion[%d]: deterministic requires a rerun hook", i)
			} else {
				err = assertDeterministic(actx, run)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}

func assertRegime(run *telemetry.RunResult, a Assertion) error {
	if string(run.Regime) == a.Regime {
		return nil
	}
	return &AssertionError{Type: AssertRegime, Expected: a.Regime, Actual: string(run.Regime)}
}

func assertTerminalCause(run *telemetry.RunResult, a Assertion) error {
	if string(run.TerminalCause) == a.Cause {
		return nil
	}
	return &AssertionError{Type: AssertTerminalCause, Expected: a.Cause, Actual: string(run.TerminalCause)}
}

func assertSuccessions(run *telemetry.RunResult, a Assertion) error {
	n := run.SuccessionCount
	if (a.Min == nil || n >= *a.Min) && (a.Max == nil || n <= *a.Max) {
		return nil
	}
	return &AssertionError{
		Type:     AssertSuccessions,
		Expected: bounds(a.Min, a.Max),
		Actual:   fmt.Sprintf("%d successions", n),
	}
}

func bounds(lo, hi *int) string {
	switch {
	case lo != nil && hi != nil:
		return fmt.Sprintf("between %d and %d successions", *lo, *hi)
	case lo != nil:
		return fmt.Sprintf("at least %d successions", *lo)
	default:
		return fmt.Sprintf("at most %d successions", *hi)
	}
}

func assertEventCount(run *telemetry.RunResult, a Assertion) error {
	n := telemetry.Count(run.Events, telemetry.EventKind(a.Kind))
	if n == *a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertEventCount,
		Expected: fmt.Sprintf("%d %s events", *a.Count, a.Kind),
		Actual:   fmt.Sprintf("%d %s events", n, a.Kind),
	}
}

func assertNoBankruptcy(run *telemetry.RunResult) error {
	var bankrupt []string
	for _, t := range run.Tenures {
		if t.Status == string(lease.StatusExpiredBankrupt) {
			bankrupt = append(bankrupt, fmt.Sprintf("tenure %d (%s, epoch %d)", t.Index, t.PolicyID, t.EndEpoch))
		}
	}
	if len(bankrupt) == 0 {
		return nil
	}
	return &AssertionError{
		Type:     AssertNoBankruptcy,
		Expected: "no bankrupt tenures",
		Actual:   strings.Join(bankrupt, ", "),
	}
}

func assertDeterministic(actx *AssertionContext, run *telemetry.RunResult) error {
	ctx := actx.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	again, err := actx.Rerun(ctx)
	if err != nil {
		return fmt.Errorf("deterministic: rerun failed: %w", err)
	}
	if again.Fingerprint == run.Fingerprint {
		return nil
	}
	return &AssertionError{
		Type:     AssertDeterministic,
		Expected: "fingerprint " + run.Fingerprint,
		Actual:   "fingerprint " + again.Fingerprint,
	}
}
