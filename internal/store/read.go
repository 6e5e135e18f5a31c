package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/tenure/internal/config"
	"github.com/roach88/tenure/internal/telemetry"
)

// ErrRunNotFound is returned when no run has the requested ID.
var ErrRunNotFound = errors.New("run not found")

// RunSummary is one row of the runs table without its payloads.
type RunSummary struct {
	ID              string                  `json:"id"`
	Seq             int64                   `json:"seq"`
	Seed            int64                   `json:"seed"`
	ConfigDigest    string                  `json:"config_digest"`
	Policy          string                  `json:"policy,omitempty"`
	Fingerprint     string                  `json:"fingerprint"`
	Regime          telemetry.Regime        `json:"regime"`
	TerminalCause   telemetry.TerminalCause `json:"terminal_cause"`
	SuccessionCount int                     `json:"succession_count"`
	Epochs          int                     `json:"epochs"`
}

// StoredRun is a fully loaded run.
type StoredRun struct {
	RunSummary
	Config config.Config
	Result *telemetry.RunResult
}

// LoadRun reads a run by ID. The stored result's fingerprint is verified
// and the stored configuration is revalidated.
func (s *Store) LoadRun(ctx context.Context, id string) (*StoredRun, error) {
	var (
		run        StoredRun
		configJSON string
		resultJSON string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, seq, seed, config_digest, policy, fingerprint, regime, terminal_cause, succession_count, epochs, config, result
		FROM runs
		WHERE id = ?
	`, id).Scan(
		&run.ID,
		&run.Seq,
		&run.Seed,
		&run.ConfigDigest,
		&run.Policy,
		&run.Fingerprint,
		&run.Regime,
		&run.TerminalCause,
		&run.SuccessionCount,
		&run.Epochs,
		&configJSON,
		&resultJSON,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("load run %q: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load run %q: %w", id, err)
	}

	run.Result, err = telemetry.Decode([]byte(resultJSON))
	if err != nil {
		return nil, fmt.Errorf("load run %q: %w", id, err)
	}
	// The stored document is complete, so it is not layered over defaults.
	run.Config, err = config.Overlay(config.Config{}, []byte(configJSON), config.FormatJSON)
	if err != nil {
		return nil, fmt.Errorf("load run %q: stored config: %w", id, err)
	}
	digest, err := run.Config.Digest()
	if err != nil {
		return nil, fmt.Errorf("load run %q: %w", id, err)
	}
	if digest != run.ConfigDigest {
		return nil, fmt.Errorf("load run %q: stored config digest %s, computed %s", id, run.ConfigDigest, digest)
	}
	return &run, nil
}

// ListRuns returns every stored run in insertion order.
// Returns an empty slice (not nil) if the store is empty.
func (s *Store) ListRuns(ctx context.Context) ([]RunSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, seq, seed, config_digest, policy, fingerprint, regime, terminal_cause, succession_count, epochs
		FROM runs
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []RunSummary{}
	for rows.Next() {
		var r RunSummary
		if err := rows.Scan(
			&r.ID,
			&r.Seq,
			&r.Seed,
			&r.ConfigDigest,
			&r.Policy,
			&r.Fingerprint,
			&r.Regime,
			&r.TerminalCause,
			&r.SuccessionCount,
			&r.Epochs,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// FindByFingerprint returns the IDs of runs with fingerprint, in insertion
// order.
func (s *Store) FindByFingerprint(ctx context.Context, fingerprint string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id FROM runs
		WHERE fingerprint = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, fingerprint)
	if err != nil {
		return nil, fmt.Errorf("query fingerprint: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan run id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run ids: %w", err)
	}
	return ids, nil
}

// Events returns a run's events in recorded order. An empty kind matches
// every event.
func (s *Store) Events(ctx context.Context, runID string, kind telemetry.EventKind) ([]telemetry.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT epoch, kind, policy_id, detail
		FROM events
		WHERE run_id = ? AND (? = '' OR kind = ?)
		ORDER BY idx ASC
	`, runID, string(kind), string(kind))
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []telemetry.Event{}
	for rows.Next() {
		var ev telemetry.Event
		if err := rows.Scan(&ev.Epoch, &ev.Kind, &ev.PolicyID, &ev.Detail); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}
