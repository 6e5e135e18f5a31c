package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool   `json:"valid"`
	Path   string `json:"path"`
	Digest string `json:"config_digest"`
	Epochs int    `json:"epochs"`
}

// String renders the result for text output.
func (r ValidationResult) String() string {
	return fmt.Sprintf("✓ %s is valid (%d epochs, digest %s)", r.Path, r.Epochs, r.Digest)
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <config>",
		Short: "Validate a configuration file",
		Long: `Validate a YAML, JSON or CUE configuration against the configuration
schema and the rent feasibility rules, without running anything.

Exit codes:
  0 - Configuration is valid
  2 - Configuration is invalid or unreadable`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	cfg, err := loadConfig(path)
	if err != nil {
		_ = formatter.Error(ErrCodeConfig, err.Error(), configErrorDetails(err))
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	digest, err := cfg.Digest()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to hash configuration", err)
	}

	return formatter.Success(ValidationResult{
		Valid:  true,
		Path:   path,
		Digest: digest,
		Epochs: cfg.Epochs(),
	})
}
