package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/tenure/internal/engine"
	"github.com/roach88/tenure/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
}

// ReplayResult holds the replay verdict for one stored run.
type ReplayResult struct {
	RunID         string `json:"run_id"`
	Seed          int64  `json:"seed"`
	Want          string `json:"want"`
	Got           string `json:"got"`
	Deterministic bool   `json:"deterministic"`
	FirstEpoch    int    `json:"first_divergent_epoch,omitempty"`
}

// String renders the verdict for text output.
func (r ReplayResult) String() string {
	if r.Deterministic {
		return fmt.Sprintf("✓ %s replayed (seed %d, fingerprint %s)", r.RunID, r.Seed, r.Got)
	}
	return fmt.Sprintf("✗ %s diverged at epoch %d\n  want %s\n  got  %s", r.RunID, r.FirstEpoch, r.Want, r.Got)
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay <run-id>",
		Short: "Re-run a stored run and verify its fingerprint",
		Long: `Load a stored run, re-run it from its seed and stored configuration,
and compare the new fingerprint with the stored one.

Exit codes:
  0 - Replay reproduced the stored fingerprint
  1 - Fingerprints differ
  2 - Command error (database or run not found, etc.)
  3 - Contract violation inside the harness

Examples:
  tenure replay --db ./runs.db 01939f0e-7c1a-7b7e-8c55-2f1d3e4a5b6c`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runReplay(opts *ReplayOptions, runID string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	ctx := commandContext(cmd)

	logger, closeLog, err := newLogger(opts.RootOptions, cmd.ErrOrStderr())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to configure logging", err)
	}
	defer closeLog()

	st, err := openStore(opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	stored, err := st.LoadRun(ctx, runID)
	if errors.Is(err, store.ErrRunNotFound) {
		_ = formatter.Error(ErrCodeNotFound, err.Error(), nil)
		return WrapExitError(ExitCommandError, "run not found", err)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load run", err)
	}
	formatter.VerboseLog("replaying %s (seed %d, %d epochs)", runID, stored.Seed, stored.Epochs)

	got, err := engine.Verify(ctx, stored.Seed, stored.Config, stored.Result, engine.WithLogger(logger))
	result := ReplayResult{
		RunID:         runID,
		Seed:          stored.Seed,
		Want:          stored.Fingerprint,
		Deterministic: err == nil,
	}
	if got != nil {
		result.Got = got.Fingerprint
	}

	var mismatch *engine.ReplayMismatchError
	if errors.As(err, &mismatch) {
		result.FirstEpoch = mismatch.FirstEpoch
		if fmtErr := formatter.Success(result); fmtErr != nil {
			return fmtErr
		}
		return WrapExitError(ExitFailure, "replay mismatch", err)
	}
	if err != nil {
		return wrapRunError("replay failed", err)
	}
	return formatter.Success(result)
}
