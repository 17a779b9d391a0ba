package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/odo/internal/harness"
)

// ValidationResult holds validation results for one or more scenario files.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationIssue `json:"errors,omitempty"`
}

// ValidationIssue is one schema problem in one file.
type ValidationIssue struct {
	File    string `json:"file"`
	Message string `json:"message"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <scenario.yaml> [more.yaml ...]",
		Short: "Validate scenario files without running them",
		Long: `Validate scenario YAML files against the scenario schema without
executing them. Faster than run for development feedback.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	var issues []ValidationIssue
	for _, path := range paths {
		formatter.VerboseLog("Validating %s", path)

		_, err := harness.LoadScenario(path)
		if err == nil {
			continue
		}

		var verr *harness.ValidationError
		if errors.As(err, &verr) {
			for _, p := range verr.Problems {
				issues = append(issues, ValidationIssue{File: verr.File, Message: p})
			}
			continue
		}
		// Unreadable file or semantic (non-schema) problem.
		issues = append(issues, ValidationIssue{File: path, Message: err.Error()})
	}

	if len(issues) > 0 {
		return outputValidationIssues(formatter, issues)
	}
	return outputValidateSuccess(formatter, len(paths))
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, count int) error {
	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true})
	}

	fmt.Fprintf(formatter.Writer, "✓ %d scenario(s) valid\n", count)
	return nil
}

// outputValidationIssues outputs validation failures.
func outputValidationIssues(formatter *OutputFormatter, issues []ValidationIssue) error {
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Errors: issues},
			Error: &CLIError{
				Code:    ErrCodeSchema,
				Message: issues[0].Message,
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(issues)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, issue := range issues {
		fmt.Fprintf(formatter.Writer, "  %s: %s\n", issue.File, issue.Message)
	}

	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(issues)))
}
