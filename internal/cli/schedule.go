package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/tenure/internal/eclass"
	"github.com/roach88/tenure/internal/rent"
)

// ScheduleOptions holds flags for the schedule command.
type ScheduleOptions struct {
	*RootOptions
	Config string
}

// ScheduleEntry is one rent table row with the action types its class
// adds over the class below.
type ScheduleEntry struct {
	rent.Entry
	Actions []eclass.ActionType `json:"actions"`
}

// ScheduleResult is the resolved rent table.
type ScheduleResult struct {
	StepsCap int             `json:"steps_cap"`
	Entries  []ScheduleEntry `json:"entries"`
}

// String renders the table for text output.
func (r ScheduleResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Steps cap: %d\n", r.StepsCap)
	fmt.Fprintf(&b, "%-6s %-9s %-6s %-10s %s\n", "CLASS", "FRACTION", "RENT", "EFFECTIVE", "ACTIONS")
	for i, e := range r.Entries {
		fraction := "-"
		if e.Fraction > 0 {
			fraction = fmt.Sprintf("%.2f", e.Fraction)
		}
		actions := make([]string, len(e.Actions))
		for j, a := range e.Actions {
			actions[j] = string(a)
		}
		fmt.Fprintf(&b, "%-6s %-9s %-6d %-10d %s", e.Class, fraction, e.Rent, e.EffectiveSteps, strings.Join(actions, ","))
		if i < len(r.Entries)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// NewScheduleCommand creates the schedule command.
func NewScheduleCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ScheduleOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Print the resolved rent schedule",
		Long: `Print the rent charged per epoch for each expressivity class and the
steps left to a successor after rent.

Examples:
  tenure schedule
  tenure schedule --config run.yaml --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchedule(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Config, "config", "c", "", "configuration file (.yaml, .json or .cue)")

	return cmd
}

func runSchedule(opts *ScheduleOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	cfg, err := loadConfig(opts.Config)
	if err != nil {
		_ = formatter.Error(ErrCodeConfig, err.Error(), configErrorDetails(err))
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	schedule, err := cfg.Schedule()
	if err != nil {
		_ = formatter.Error(ErrCodeConfig, err.Error(), configErrorDetails(err))
		return WrapExitError(ExitCommandError, "invalid rent schedule", err)
	}

	table := schedule.Table()
	entries := make([]ScheduleEntry, len(table))
	for i, e := range table {
		entries[i] = ScheduleEntry{Entry: e, Actions: eclass.TypesIn(e.Class)}
	}
	return formatter.Success(ScheduleResult{
		StepsCap: schedule.StepsCap(),
		Entries:  entries,
	})
}
