package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/tenure/internal/config"
	"github.com/roach88/tenure/internal/engine"
	"github.com/roach88/tenure/internal/store"
	"github.com/roach88/tenure/internal/telemetry"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Config   string
	Seed     int64
	Database string
	Out      string
	Policy   string

	// IDs overrides the store's run ID generator (for testing).
	IDs store.IDGenerator
}

// RunSummary is the run command's output.
type RunSummary struct {
	RunID           string                  `json:"run_id,omitempty"`
	Seed            int64                   `json:"seed"`
	ConfigDigest    string                  `json:"config_digest"`
	Epochs          int                     `json:"epochs"`
	SuccessionCount int                     `json:"succession_count"`
	Bankruptcies    int                     `json:"bankruptcies"`
	Revocations     int                     `json:"revocations"`
	TerminalCause   telemetry.TerminalCause `json:"terminal_cause"`
	Regime          telemetry.Regime        `json:"regime"`
	Fingerprint     string                  `json:"fingerprint"`
}

// String renders the summary for text output.
func (s RunSummary) String() string {
	var b strings.Builder
	if s.RunID != "" {
		fmt.Fprintf(&b, "Run:            %s\n", s.RunID)
	}
	fmt.Fprintf(&b, "Seed:           %d\n", s.Seed)
	fmt.Fprintf(&b, "Epochs:         %d\n", s.Epochs)
	fmt.Fprintf(&b, "Successions:    %d\n", s.SuccessionCount)
	fmt.Fprintf(&b, "Bankruptcies:   %d\n", s.Bankruptcies)
	fmt.Fprintf(&b, "Revocations:    %d\n", s.Revocations)
	fmt.Fprintf(&b, "Terminal cause: %s\n", s.TerminalCause)
	fmt.Fprintf(&b, "Regime:         %s\n", s.Regime)
	fmt.Fprintf(&b, "Fingerprint:    %s", s.Fingerprint)
	return b.String()
}

func summarize(id string, res *telemetry.RunResult) RunSummary {
	return RunSummary{
		RunID:           id,
		Seed:            res.Seed,
		ConfigDigest:    res.ConfigDigest,
		Epochs:          len(res.Epochs),
		SuccessionCount: res.SuccessionCount,
		Bankruptcies:    res.Bankruptcies,
		Revocations:     res.Revocations,
		TerminalCause:   res.TerminalCause,
		Regime:          res.Regime,
		Fingerprint:     res.Fingerprint,
	}
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return newRunCommand(&RunOptions{RootOptions: rootOpts})
}

func newRunCommand(opts *RunOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one seeded simulation",
		Long: `Run one seeded simulation to its horizon or stop condition and print
a summary.

With --db the Run Result is stored for later replay. With --out the
canonical Run Result JSON is written to a file after schema validation.

Exit codes:
  0 - Run completed
  2 - Command error (bad config, unknown policy, etc.)
  3 - Contract violation inside the harness

Examples:
  tenure run --seed 42
  tenure run --config run.yaml --seed 7 --db ./runs.db
  tenure run --policy near_cap --out result.json --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulation(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Config, "config", "c", "", "configuration file (.yaml, .json or .cue)")
	cmd.Flags().Int64Var(&opts.Seed, "seed", 0, "run seed")
	cmd.Flags().StringVar(&opts.Database, "db", "", "store the result in this SQLite database")
	cmd.Flags().StringVarP(&opts.Out, "out", "o", "", "write canonical Run Result JSON to this file")
	cmd.Flags().StringVar(&opts.Policy, "policy", "", "pin every succession to one catalog policy")

	return cmd
}

func runSimulation(opts *RunOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	logger, closeLog, err := newLogger(opts.RootOptions, cmd.ErrOrStderr())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to configure logging", err)
	}
	defer closeLog()

	cfg, err := loadConfig(opts.Config)
	if err != nil {
		_ = formatter.Error(ErrCodeConfig, err.Error(), configErrorDetails(err))
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	if opts.Policy != "" {
		cfg.Policy = opts.Policy
	}

	h, err := engine.New(opts.Seed, cfg, engine.WithLogger(logger))
	if err != nil {
		_ = formatter.Error(ErrCodeConfig, err.Error(), configErrorDetails(err))
		return wrapRunError("invalid configuration", err)
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := h.Run(ctx)
	if err != nil {
		return wrapRunError("run failed", err)
	}

	if opts.Out != "" {
		if err := writeResult(opts.Out, res); err != nil {
			return WrapExitError(ExitCommandError, "failed to write result", err)
		}
		formatter.VerboseLog("wrote %s", opts.Out)
	}

	var id string
	if opts.Database != "" {
		id, err = saveRun(ctx, opts, cfg, res)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to store result", err)
		}
		formatter.VerboseLog("stored run %s in %s", id, opts.Database)
	}

	return formatter.Success(summarize(id, res))
}

func saveRun(ctx context.Context, opts *RunOptions, cfg config.Config, res *telemetry.RunResult) (string, error) {
	st, err := store.Open(opts.Database, store.WithIDGenerator(opts.IDs))
	if err != nil {
		return "", err
	}
	defer st.Close()
	return st.SaveRun(ctx, cfg, res)
}

func writeResult(path string, res *telemetry.RunResult) error {
	data, err := telemetry.Export(res)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// commandContext returns the command's context, or Background when the
// command runs outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
