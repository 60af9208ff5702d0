package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fieldpatch/fieldpatch/internal/cueload"
	"github.com/fieldpatch/fieldpatch/internal/patch"
	"github.com/fieldpatch/fieldpatch/internal/policy"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	PolicyPath string
}

// validationReport summarizes per-request validation outcomes.
type validationReport struct {
	Valid    int              `json:"valid"`
	Failures []requestFailure `json:"failures,omitempty"`
}

type requestFailure struct {
	Index int                     `json:"index"`
	Err   *policy.ValidationError `json:"error"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <batch-file>",
		Short: "Validate a mutation batch against a policy without compiling",
		Long: `Validate checks every request in the batch against the policy and
reports each failure. Unlike compile, failOnError is ignored: all requests
are checked regardless of earlier failures.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.PolicyPath, "policy", "p", "", "CUE policy document (default: permissive built-in policy)")

	return cmd
}

func runValidate(opts *ValidateOptions, batchPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	pol := policy.Default()
	if opts.PolicyPath != "" {
		loaded, err := cueload.LoadPolicy(opts.PolicyPath)
		if err != nil {
			formatter.Error("POLICY_LOAD_FAILED", err.Error(), nil)
			return &ExitError{Code: ExitCommandError, Message: err.Error(), Err: err}
		}
		pol = loaded
	}
	if err := pol.Check(); err != nil {
		formatter.Error("POLICY_INVALID", err.Error(), nil)
		return &ExitError{Code: ExitCommandError, Message: err.Error(), Err: err}
	}

	batchFile, err := LoadBatchFile(batchPath)
	if err != nil {
		formatter.Error("BATCH_LOAD_FAILED", err.Error(), nil)
		return &ExitError{Code: ExitCommandError, Message: err.Error(), Err: err}
	}

	eff := pol.Effective()
	report := validationReport{}
	for i := range batchFile.Requests {
		req := &batchFile.Requests[i]
		if verr := policy.Validate(patch.Classify(req), req, eff); verr != nil {
			report.Failures = append(report.Failures, requestFailure{Index: i, Err: verr})
			continue
		}
		report.Valid++
	}

	if opts.Format == "json" {
		if err := formatter.Success(report); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "%d valid, %d invalid\n", report.Valid, len(report.Failures))
		for _, failure := range report.Failures {
			fmt.Fprintf(cmd.OutOrStdout(), "  request #%d: %v\n", failure.Index, failure.Err)
		}
	}

	if len(report.Failures) > 0 {
		return &ExitError{Code: ExitFailure, Message: fmt.Sprintf("%d request(s) failed validation", len(report.Failures))}
	}
	return nil
}
