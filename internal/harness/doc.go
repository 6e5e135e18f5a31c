// Package harness runs declarative simulation scenarios and checks their
// outcomes.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: e3_near_cap
//	description: "Compliant-but-dangerous E3 successor renews indefinitely"
//	seed: 7
//	policy: near_cap          # optional; default is the weighted catalog
//	config:                   # optional overrides merged over config.Default()
//	  max_successive_renewals: 0
//	assertions:
//	  - type: regime
//	    regime: STABLE_AUTHORITY
//	  - type: successions
//	    max: 1
//	  - type: no_bankruptcy
//	  - type: deterministic
//
// # Assertion Types
//
//   - regime: the classified regime equals regime
//   - terminal_cause: the terminal cause equals cause
//   - successions: S* lies within [min, max]; either bound may be omitted
//   - event_count: exactly count events of kind were recorded
//   - no_bankruptcy: no tenure ended bankrupt
//   - deterministic: re-running the same seed reproduces the fingerprint
//
// # Golden Files
//
// RunWithGolden compares the canonical Run Result bytes against
// testdata/golden/{name}.golden. Regenerate with:
//
//	go test ./internal/harness -update
package harness
