package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/roach88/tenure/internal/config"
	"github.com/roach88/tenure/internal/telemetry"
)

// SaveRun stores res together with the configuration it was produced
// under and returns the new run ID.
//
// The result is validated against the Run Result schema first; a result
// whose fingerprint does not match its content is rejected.
func (s *Store) SaveRun(ctx context.Context, cfg config.Config, res *telemetry.RunResult) (string, error) {
	fp, err := res.ComputeFingerprint()
	if err != nil {
		return "", fmt.Errorf("save run: %w", err)
	}
	if fp != res.Fingerprint {
		return "", fmt.Errorf("save run: fingerprint %s does not match content %s", res.Fingerprint, fp)
	}
	resultJSON, err := telemetry.Export(res)
	if err != nil {
		return "", fmt.Errorf("save run: %w", err)
	}
	digest, err := cfg.Digest()
	if err != nil {
		return "", fmt.Errorf("save run: %w", err)
	}
	if digest != res.ConfigDigest {
		return "", fmt.Errorf("save run: config digest %s does not match result %s", digest, res.ConfigDigest)
	}
	configJSON, err := json.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("save run: encode config: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("save run: begin: %w", err)
	}
	defer tx.Rollback()

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM runs`).Scan(&seq); err != nil {
		return "", fmt.Errorf("save run: next seq: %w", err)
	}

	id := s.ids.Generate()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, seq, seed, config_digest, config, policy, fingerprint, regime, terminal_cause, succession_count, epochs, result)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		id,
		seq,
		res.Seed,
		res.ConfigDigest,
		string(configJSON),
		cfg.Policy,
		res.Fingerprint,
		string(res.Regime),
		string(res.TerminalCause),
		res.SuccessionCount,
		len(res.Epochs),
		string(resultJSON),
	)
	if err != nil {
		return "", fmt.Errorf("save run: insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO events (run_id, idx, epoch, kind, policy_id, detail)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return "", fmt.Errorf("save run: prepare events: %w", err)
	}
	defer stmt.Close()
	for i, ev := range res.Events {
		if _, err := stmt.ExecContext(ctx, id, i, ev.Epoch, string(ev.Kind), ev.PolicyID, ev.Detail); err != nil {
			return "", fmt.Errorf("save run: insert event %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("save run: commit: %w", err)
	}
	return id, nil
}

// DeleteRun removes a run and its events.
func (s *Store) DeleteRun(ctx context.Context, id string) error {
	r, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	n, err := r.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("delete run %q: %w", id, ErrRunNotFound)
	}
	return nil
}
