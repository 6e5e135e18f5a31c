package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/tenure/internal/config"
	"github.com/roach88/tenure/internal/engine"
	"github.com/roach88/tenure/internal/telemetry"
	"github.com/roach88/tenure/internal/testutil"
)

// createTestStore creates a new file-backed store with sequential run IDs.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, WithIDGenerator(testutil.NewSequentialIDs("run")))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// testConfig is a short configuration that exercises renewals and events.
func testConfig() config.Config {
	cfg := config.Default()
	cfg.Horizon = 300
	cfg.RenewalCheckInterval = 40
	cfg.MaxRenewals = 2
	return cfg
}

// createTestRun runs the engine once.
func createTestRun(t *testing.T, seed int64, cfg config.Config) *telemetry.RunResult {
	t.Helper()
	h, err := engine.New(seed, cfg)
	if err != nil {
		t.Fatalf("engine.New() failed: %v", err)
	}
	res, err := h.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	return res
}

// pragma reads a single pragma value.
func (s *Store) pragma(t *testing.T, name string) string {
	t.Helper()
	var value string
	if err := s.db.QueryRow("PRAGMA " + name).Scan(&value); err != nil {
		t.Fatalf("PRAGMA %s: %v", name, err)
	}
	return value
}
