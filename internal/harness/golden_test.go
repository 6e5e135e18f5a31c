package harness

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tenure/internal/telemetry"
)

func TestAssertGolden_StableAcrossRuns(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/greedy_thrashing.yaml")
	require.NoError(t, err)

	first, err := Run(context.Background(), s)
	require.NoError(t, err)
	data, err := first.Run.Canonical()
	require.NoError(t, err)

	dir := t.TempDir()
	g := goldie.New(t, goldie.WithFixtureDir(dir), goldie.WithNameSuffix(".golden"))
	require.NoError(t, g.Update(t, s.Name, data))

	second, err := Run(context.Background(), s)
	require.NoError(t, err)
	require.NoError(t, AssertGolden(t, dir, s.Name, second.Run))

	stored, err := os.ReadFile(filepath.Join(dir, s.Name+".golden"))
	require.NoError(t, err)
	decoded, err := telemetry.Decode(stored)
	require.NoError(t, err)
	assert.Equal(t, first.Run.Fingerprint, decoded.Fingerprint)
	assert.Equal(t, first.Run.Regime, decoded.Regime)
}
