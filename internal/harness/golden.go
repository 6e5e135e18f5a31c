package harness

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/tenure/internal/telemetry"
)

// GoldenDir is where RunWithGolden keeps its fixtures.
const GoldenDir = "testdata/golden"

// RunWithGolden executes a scenario and compares its canonical Run Result
// against GoldenDir/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, GoldenDir, scenario.Name, result.Run); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares the canonical bytes of run against the golden file
// name in dir.
func AssertGolden(t *testing.T, dir, name string, run *telemetry.RunResult) error {
	t.Helper()

	data, err := run.Canonical()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir(dir),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
