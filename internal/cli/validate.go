package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/surq-db/surq/schema"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	ShowDDL bool
}

// ValidationReport summarizes a schema directory load.
type ValidationReport struct {
	Entities []string `json:"entities"`
	Errors   []string `json:"errors,omitempty"`
	DDL      []string `json:"ddl,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "validate <schemas-dir>",
		Short:         "Validate CUE entity schemas",
		Long:          "Load CUE entity definitions from a directory, report every entity found and any definition errors.",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.ShowDDL, "ddl", false, "print DEFINE statements for each entity")

	return cmd
}

func runValidate(opts *ValidateOptions, dir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	registry, errs := schema.LoadDir(dir)
	if registry == nil {
		err := errs[0]
		code := "V001"
		var loadErr *schema.LoadError
		if errors.As(err, &loadErr) {
			code = loadErr.Code
		}
		formatter.Error(code, err.Error(), nil)
		return &ExitError{Code: ExitCommandError, Message: err.Error(), Err: err}
	}

	report := ValidationReport{Entities: registry.Names()}
	for _, err := range errs {
		report.Errors = append(report.Errors, err.Error())
	}
	formatter.VerboseLog("Loaded %d entities from %s", len(report.Entities), dir)

	if opts.ShowDDL {
		for _, name := range report.Entities {
			entity, _ := registry.Get(name)
			ddl, err := schema.DDL(entity)
			if err != nil {
				report.Errors = append(report.Errors, err.Error())
				continue
			}
			report.DDL = append(report.DDL, ddl)
		}
	}

	if len(report.Errors) > 0 {
		formatter.Error("V002", "schema validation failed", report)
		return &ExitError{Code: ExitFailure, Message: "schema validation failed"}
	}
	return formatter.Success(report)
}
