package cli

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/tenure/internal/store"
	"github.com/roach88/tenure/internal/telemetry"
)

// RunsOptions holds flags for the runs command and its subcommands.
type RunsOptions struct {
	*RootOptions
	Database    string
	Fingerprint string
	Kind        string
}

// RunList is the runs command's output.
type RunList struct {
	Runs []store.RunSummary `json:"runs"`
}

// String renders the list for text output.
func (l RunList) String() string {
	if len(l.Runs) == 0 {
		return "No runs stored."
	}
	var b strings.Builder
	for i, r := range l.Runs {
		fmt.Fprintf(&b, "%s  seed=%d epochs=%d successions=%d %s %s",
			r.ID, r.Seed, r.Epochs, r.SuccessionCount, r.Regime, r.Fingerprint[:12])
		if r.Policy != "" {
			fmt.Fprintf(&b, " policy=%s", r.Policy)
		}
		if i < len(l.Runs)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// EventList is the runs events command's output.
type EventList struct {
	RunID  string            `json:"run_id"`
	Events []telemetry.Event `json:"events"`
}

// String renders the events for text output.
func (l EventList) String() string {
	if len(l.Events) == 0 {
		return fmt.Sprintf("No events for %s.", l.RunID)
	}
	var b strings.Builder
	for i, ev := range l.Events {
		fmt.Fprintf(&b, "%4d  %-19s %-10s %s", ev.Epoch, ev.Kind, ev.PolicyID, ev.Detail)
		if i < len(l.Events)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// DeleteResult is the runs delete command's output.
type DeleteResult struct {
	RunID   string `json:"run_id"`
	Deleted bool   `json:"deleted"`
}

// String renders the result for text output.
func (r DeleteResult) String() string {
	return fmt.Sprintf("✓ deleted %s", r.RunID)
}

// NewRunsCommand creates the runs command.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List and manage stored runs",
		Long: `List the runs stored in a database, oldest first.

With --fingerprint only runs with that exact fingerprint are listed, which
finds every stored reproduction of one result.

Examples:
  tenure runs --db ./runs.db
  tenure runs --db ./runs.db --fingerprint 3f9a...
  tenure runs events --db ./runs.db --kind BANKRUPT <run-id>
  tenure runs delete --db ./runs.db <run-id>`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(opts, cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkPersistentFlagRequired("db")
	cmd.Flags().StringVar(&opts.Fingerprint, "fingerprint", "", "only list runs with this fingerprint")

	cmd.AddCommand(newRunsEventsCommand(opts))
	cmd.AddCommand(newRunsDeleteCommand(opts))

	return cmd
}

func newRunsEventsCommand(opts *RunsOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "events <run-id>",
		Short:         "Print a stored run's events",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvents(opts, args[0], cmd)
		},
	}
	cmd.Flags().StringVar(&opts.Kind, "kind", "", "only print events of this kind")
	return cmd
}

func newRunsDeleteCommand(opts *RunsOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "delete <run-id>",
		Short:         "Delete a stored run and its events",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDelete(opts, args[0], cmd)
		},
	}
}

// openStore opens an existing database for a runs subcommand.
func openStore(path string) (*store.Store, error) {
	if err := requireFile(path); err != nil {
		return nil, WrapExitError(ExitCommandError, "database not found", err)
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

func runList(opts *RunsOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	ctx := commandContext(cmd)

	st, err := openStore(opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.ListRuns(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}
	if opts.Fingerprint != "" {
		ids, err := st.FindByFingerprint(ctx, opts.Fingerprint)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to find runs", err)
		}
		runs = slices.DeleteFunc(runs, func(r store.RunSummary) bool {
			return !slices.Contains(ids, r.ID)
		})
	}
	return formatter.Success(RunList{Runs: runs})
}

func runEvents(opts *RunsOptions, runID string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	st, err := openStore(opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	events, err := st.Events(commandContext(cmd), runID, telemetry.EventKind(opts.Kind))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read events", err)
	}
	return formatter.Success(EventList{RunID: runID, Events: events})
}

func runDelete(opts *RunsOptions, runID string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	st, err := openStore(opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	err = st.DeleteRun(commandContext(cmd), runID)
	if errors.Is(err, store.ErrRunNotFound) {
		_ = formatter.Error(ErrCodeNotFound, err.Error(), nil)
		return WrapExitError(ExitCommandError, "run not found", err)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to delete run", err)
	}
	return formatter.Success(DeleteResult{RunID: runID, Deleted: true})
}

// requireFile rejects paths that do not exist, so read-only commands never
// create an empty database.
func requireFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}
