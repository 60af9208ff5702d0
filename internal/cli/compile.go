package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fieldpatch/fieldpatch/internal/batch"
	"github.com/fieldpatch/fieldpatch/internal/cueload"
	"github.com/fieldpatch/fieldpatch/internal/policy"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	PolicyPath string
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <batch-file>",
		Short: "Compile a mutation batch to operation descriptors",
		Long: `Compile validates each request in the batch against the policy and
prints the resulting conditional update operations. Nothing is submitted
to a store.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.PolicyPath, "policy", "p", "", "CUE policy document (default: permissive built-in policy)")

	return cmd
}

func runCompile(opts *CompileOptions, batchPath string, cmd *cobra.Command) error {
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

	if opts.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "batch %s: %d operation(s), %d skipped\n",
		result.Token, len(result.Operations), len(result.Skipped))
	for _, op := range result.Operations {
		fmt.Fprintf(cmd.OutOrStdout(), "  %s/%s/%s: %s\n", op.Table, op.Key.Partition, op.Key.Sort, op.UpdateExpression)
	}
	for _, skipped := range result.Skipped {
		fmt.Fprintf(cmd.OutOrStdout(), "  request #%d skipped: %v\n", skipped.Index, skipped.Err)
	}
	return nil
}

// compileBatch loads the policy and batch file and runs the batch
// compiler. Shared by compile and apply.
func compileBatch(policyPath, batchPath string, formatter *OutputFormatter) (*batch.Result, error) {
	pol := policy.Default()
	if policyPath != "" {
		loaded, err := cueload.LoadPolicy(policyPath)
		if err != nil {
			return nil, err
		}
		pol = loaded
		formatter.VerboseLog("loaded policy from %s", policyPath)
	}

	batchFile, err := LoadBatchFile(batchPath)
	if err != nil {
		return nil, err
	}
	formatter.VerboseLog("compiling %d request(s) against table %s", len(batchFile.Requests), batchFile.Table)

	return batch.NewCompiler().Compile(batchFile.Table, batchFile.Requests, pol)
}

// exitCodeFor distinguishes unreadable inputs from validation failures.
func exitCodeFor(err error) int {
	if errors.Is(err, os.ErrNotExist) {
		return ExitCommandError
	}
	return ExitFailure
}
