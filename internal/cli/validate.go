package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/mixer/internal/compiler"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool                       `json:"valid"`
	Targets  int                        `json:"targets"`
	Errors   []compiler.ValidationError `json:"errors,omitempty"`
	Warnings []compiler.CycleWarning    `json:"warnings,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <config-dir>",
		Short: "Validate a mixin configuration",
		Long: `Validate a CUE mixin configuration without composing it.

Compiles the configuration, then reports assignments that compile but have
no effect or cannot be persisted: unknown dependencies, overrides that match
nothing, unserializable overrides, unknown interfaces and self mixins.
Dependency cycles are reported as warnings, since suppression may break them.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, configDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	loadResult, err := loadOrFail(formatter, configDir)
	if err != nil {
		return err
	}
	cfg := loadResult.Config

	result := ValidationResult{
		Targets:  len(cfg.Targets),
		Errors:   compiler.Validate(cfg),
		Warnings: compiler.AnalyzeCycles(cfg),
	}
	result.Valid = len(result.Errors) == 0

	for _, w := range result.Warnings {
		formatter.VerboseLog("cycle: %s", w.Message)
	}

	if !result.Valid {
		return outputValidationErrors(formatter, result)
	}
	return outputValidateSuccess(formatter, result)
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.IsJSON() {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ Configuration valid (%d target(s))\n", result.Targets)
	writeWarnings(formatter, result.Warnings)
	return nil
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, result ValidationResult) error {
	first := result.Errors[0]
	if err := formatter.Failure(first.Code, first.Message, result); err != nil {
		return err
	}

	if !formatter.IsJSON() {
		fmt.Fprintln(formatter.Writer, "✗ Validation failed")
		fmt.Fprintln(formatter.Writer)
		for _, e := range result.Errors {
			fmt.Fprintf(formatter.Writer, "  %s %s\n      %s\n\n", e.Code, e.Field, e.Message)
		}
		writeWarnings(formatter, result.Warnings)
	}

	// Validation failures = exit code 1
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)))
}

func writeWarnings(formatter *OutputFormatter, warnings []compiler.CycleWarning) {
	for _, w := range warnings {
		fmt.Fprintf(formatter.Writer, "⚠ %s\n", w.Message)
	}
}

// ValidateConfigDir validates the configuration in a directory.
// This is a helper function for external callers.
func ValidateConfigDir(configDir string) ([]compiler.ValidationError, error) {
	loadResult, err := LoadConfig(configDir)
	if err != nil {
		return nil, err
	}
	return compiler.Validate(loadResult.Config), nil
}
