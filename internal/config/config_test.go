package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tenure/internal/eclass"
	"github.com/roach88/tenure/internal/rent"
)

func TestDefault_Valid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	require.NoError(t, CheckSchema(cfg))
	assert.Equal(t, 300, cfg.Epochs())

	sched, err := cfg.Schedule()
	require.NoError(t, err)
	assert.Equal(t, 80, sched.Rent(eclass.E3))
	assert.Len(t, cfg.Specs(), 3)
}

func TestParse_YAMLOverlay(t *testing.T) {
	doc := `
horizon: 500
steps_cap_epoch: 10000
rent_fractions:
  E4: 0.7
candidate_weights:
  greedy: 0
interference:
  model: periodic
  period: 9
`
	cfg, err := Parse([]byte(doc), FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, 500, cfg.Horizon)
	assert.Equal(t, 10, cfg.EpochLength, "unset fields keep defaults")
	assert.Equal(t, 0.7, cfg.RentFractions["E4"])
	assert.Equal(t, 0.4, cfg.RentFractions["E3"], "map entries merge")
	assert.Zero(t, cfg.CandidateWeights["greedy"])
	assert.Equal(t, 4, cfg.CandidateWeights["compliant"])
	assert.Equal(t, 9, cfg.Interference.Period)

	// The default is not aliased by the overlay.
	assert.Equal(t, 0.6, Default().RentFractions["E4"])
}

func TestParse_EmptyDocumentIsDefault(t *testing.T) {
	cfg, err := Parse(nil, FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParse_RejectsUnknownField(t *testing.T) {
	_, err := Parse([]byte("horizont: 5\n"), FormatYAML)
	assert.Error(t, err)

	_, err = Parse([]byte(`{"horizont": 5}`), FormatJSON)
	assert.Error(t, err)
}

func TestParse_CUE(t *testing.T) {
	doc := `
horizon:      2 * 100
epoch_length: 20
max_eclass:   "E3"
stop: on_bankruptcy: true
`
	cfg, err := Parse([]byte(doc), FormatCUE)
	require.NoError(t, err)
	assert.Equal(t, 200, cfg.Horizon)
	assert.Equal(t, 20, cfg.EpochLength)
	assert.True(t, cfg.Stop.OnBankruptcy)
	tier, err := cfg.Tier()
	require.NoError(t, err)
	assert.Equal(t, eclass.E3, tier)
}

func TestParse_CUEMustBeConcrete(t *testing.T) {
	_, err := Parse([]byte("horizon: int\n"), FormatCUE)
	assert.Error(t, err)
}

func TestParse_SchemaViolations(t *testing.T) {
	docs := map[string]string{
		"fraction out of range": "rent_fractions: {E2: 1.5}\n",
		"unknown class key":     "rent_fractions: {E7: 0.5}\n",
		"bad tier":              "max_eclass: E9\n",
		"bad model":             "interference: {model: chaos}\n",
		"zero epoch length":     "epoch_length: 0\n",
		"negative weight":       "candidate_weights: {minimal: -1}\n",
	}
	for name, doc := range docs {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc), FormatYAML)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
		})
	}
}

func TestParse_NonMonotonicFractions(t *testing.T) {
	_, err := Parse([]byte("rent_fractions: {E2: 0.05}\n"), FormatYAML)
	var se *rent.ScheduleError
	require.ErrorAs(t, err, &se)
}

func TestValidate_CrossFieldRules(t *testing.T) {
	cfg := Default()
	cfg.Interference.Target = "C9_MISSING"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.CandidateWeights = map[string]int{"compliant": 0}
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Interference.Model = "flip"
	cfg.Interference.FlipRate = 2
	assert.Error(t, cfg.Validate())
}

func TestLoad_ByExtension(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "run.yaml")
	cuePath := filepath.Join(dir, "run.cue")
	require.NoError(t, os.WriteFile(yamlPath, []byte("horizon: 40\n"), 0o644))
	require.NoError(t, os.WriteFile(cuePath, []byte("horizon: 50\n"), 0o644))

	a, err := Load(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, 40, a.Horizon)

	b, err := Load(cuePath)
	require.NoError(t, err)
	assert.Equal(t, 50, b.Horizon)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
	assert.Equal(t, FormatJSON, FormatOf("x.JSON"))
}

func TestDigest(t *testing.T) {
	a, err := Default().Digest()
	require.NoError(t, err)
	b, err := Default().Digest()
	require.NoError(t, err)
	assert.Equal(t, a, b)

	changed := Default()
	changed.RentFractions["E1"] = 0.11
	c, err := changed.Digest()
	require.NoError(t, err)
	assert.NotEqual(t, a, c)

	pinned := Default()
	pinned.Policy = "greedy"
	d, err := pinned.Digest()
	require.NoError(t, err)
	assert.NotEqual(t, a, d)
}

func TestParse_Policy(t *testing.T) {
	cfg, err := Parse([]byte("policy: near_cap\n"), FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, "near_cap", cfg.Policy)

	cfg, err = Parse([]byte(`{"policy": "minimal"}`), FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, "minimal", cfg.Policy)
}
