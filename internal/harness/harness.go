package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/tenure/internal/engine"
	"github.com/roach88/tenure/internal/telemetry"
)

// Harness executes scenarios.
type Harness struct {
	logger *slog.Logger
}

// Option configures a Harness.
type Option func(*Harness)

// WithLogger sets the logger handed to every engine run.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) {
		if l != nil {
			h.logger = l
		}
	}
}

// New creates a harness. Logs are discarded unless WithLogger is given.
func New(opts ...Option) *Harness {
	h := &Harness{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run executes scenario with a default harness.
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	return New().Run(ctx, scenario)
}

// Run executes one scenario and evaluates its assertions.
//
// The returned error covers scenarios that could not run at all: bad
// overrides, an unknown policy, a contract violation. Failed assertions are
// reported in the Result.
func (h *Harness) Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	run, err := h.execute(ctx, scenario)
	if err != nil {
		return nil, err
	}

	result := NewResult(scenario.Name)
	result.Run = run

	actx := &AssertionContext{
		Ctx: ctx,
		Rerun: func(ctx context.Context) (*telemetry.RunResult, error) {
			return h.execute(ctx, scenario)
		},
	}
	for _, msg := range EvaluateAssertions(run, scenario.Assertions, actx) {
		result.AddError(msg)
	}

	h.logger.Info("scenario finished",
		"scenario", scenario.Name,
		"pass", result.Pass,
		"regime", run.Regime,
		"terminal_cause", run.TerminalCause,
		"fingerprint", run.Fingerprint)
	return result, nil
}

func (h *Harness) execute(ctx context.Context, scenario *Scenario) (*telemetry.RunResult, error) {
	cfg, err := scenario.Resolve()
	if err != nil {
		return nil, err
	}

	eng, err := engine.New(scenario.Seed, cfg, engine.WithLogger(h.logger))
	if err != nil {
		return nil, fmt.Errorf("scenario %q: %w", scenario.Name, err)
	}
	run, err := eng.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("scenario %q: %w", scenario.Name, err)
	}
	return run, nil
}
