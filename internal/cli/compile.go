package cli

import (
	"os"

	"github.com/spf13/cobra"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <query.yaml>",
		Short: "Compile a YAML query spec to SurrealQL",
		Long: `Compile a YAML query spec to SurrealQL text.

The spec names a collection plus filters, ordering, paging, grouping
and optional aggregation stages; the compiler emits the query text
without touching any database.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompile(opts *CompileOptions, specPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	spec, err := LoadQuerySpec(specPath)
	if err != nil {
		formatter.Error("C001", err.Error(), nil)
		return &ExitError{Code: ExitCommandError, Message: err.Error(), Err: err}
	}
	formatter.VerboseLog("Loaded query spec for collection %s", spec.Collection)

	text, err := spec.Compile()
	if err != nil {
		formatter.Error("C002", err.Error(), nil)
		return &ExitError{Code: ExitFailure, Message: err.Error(), Err: err}
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, []byte(text+"\n"), 0o644); err != nil {
			formatter.Error("C003", err.Error(), nil)
			return &ExitError{Code: ExitCommandError, Message: err.Error(), Err: err}
		}
		formatter.VerboseLog("Wrote %s", opts.Output)
		return nil
	}

	return formatter.Success(text)
}
