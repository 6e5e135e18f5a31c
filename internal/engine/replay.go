package engine

import (
	"context"

	"github.com/roach88/tenure/internal/config"
	"github.com/roach88/tenure/internal/telemetry"
)

// Verify re-runs seed under cfg and compares the result with want.
//
// Determinism is structural: every random draw comes from a named stream
// derived from the seed, the loop is single-threaded, and the result is
// fingerprinted over canonical JSON. A mismatch therefore means the
// configuration, the policy catalog or the code changed.
func Verify(ctx context.Context, seed int64, cfg config.Config, want *telemetry.RunResult, opts ...Option) (*telemetry.RunResult, error) {
	h, err := New(seed, cfg, opts...)
	if err != nil {
		return nil, err
	}
	got, err := h.Run(ctx)
	if err != nil {
		return nil, err
	}
	if got.Fingerprint == want.Fingerprint {
		return got, nil
	}
	return got, &ReplayMismatchError{
		Seed:       seed,
		Want:       want.Fingerprint,
		Got:        got.Fingerprint,
		FirstEpoch: firstDivergence(want.Epochs, got.Epochs),
	}
}

func firstDivergence(a, b []telemetry.EpochRecord) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	if len(a) != len(b) {
		return n
	}
	return -1
}
