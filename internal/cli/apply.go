package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fieldpatch/fieldpatch/internal/store"
)

// ApplyOptions holds flags for the apply command.
type ApplyOptions struct {
	*RootOptions
	PolicyPath string
	StorePath  string
}

// applyReport summarizes an apply run for output.
type applyReport struct {
	Token    string   `json:"token"`
	Applied  int      `json:"applied"`
	Skipped  int      `json:"skipped"`
	Failures []string `json:"failures,omitempty"`
}

// NewApplyCommand creates the apply command.
func NewApplyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ApplyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "apply <batch-file>",
		Short: "Compile a batch and submit it to the reference store",
		Long: `Apply compiles the batch like the compile command, then submits each
operation to the SQLite reference store as a conditional partial update.
Operations against records that do not exist fail their condition and are
reported individually.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.PolicyPath, "policy", "p", "", "CUE policy document (default: permissive built-in policy)")
	cmd.Flags().StringVar(&opts.StorePath, "store", "fieldpatch.db", "path to the store database")

	return cmd
}

func runApply(opts *ApplyOptions, batchPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	result, err := compileBatch(opts.PolicyPath, batchPath, formatter)
	if err != nil {
		formatter.Error("COMPILE_FAILED", err.Error(), nil)
		return &ExitError{Code: exitCodeFor(err), Message: err.Error(), Err: err}
	}

	db, err := store.Open(opts.StorePath)
	if err != nil {
		formatter.Error("STORE_OPEN_FAILED", err.Error(), nil)
		return &ExitError{Code: ExitCommandError, Message: err.Error(), Err: err}
	}
	defer db.Close()

	report := applyReport{Token: result.Token, Skipped: len(result.Skipped)}
	for i, applyErr := range db.ApplyAll(cmd.Context(), result.Operations) {
		if applyErr != nil {
			op := result.Operations[i]
			report.Failures = append(report.Failures,
				fmt.Sprintf("%s/%s/%s: %v", op.Table, op.Key.Partition, op.Key.Sort, applyErr))
			continue
		}
		report.Applied++
	}

	if opts.Format == "json" {
		if err := formatter.Success(report); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "batch %s: %d applied, %d skipped, %d failed\n",
			report.Token, report.Applied, report.Skipped, len(report.Failures))
		for _, failure := range report.Failures {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", failure)
		}
	}

	if len(report.Failures) > 0 {
		return &ExitError{Code: ExitFailure, Message: fmt.Sprintf("%d operation(s) failed", len(report.Failures))}
	}
	return nil
}
