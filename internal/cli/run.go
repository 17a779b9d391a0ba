package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/odo/internal/harness"
	"github.com/roach88/odo/internal/trace"
)

// CLI error codes.
const (
	ErrCodeLoad     = "E001" // scenario could not be read or decoded
	ErrCodeSchema   = "E002" // scenario failed schema validation
	ErrCodeRun      = "E003" // enumeration aborted (protocol violation)
	ErrCodeDatabase = "E004" // trace database problem
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string // optional trace database
}

// RunResult is the run command's output payload.
type RunResult struct {
	Scenario       string   `json:"scenario"`
	Token          string   `json:"token"`
	Pass           bool     `json:"pass"`
	Errors         []string `json:"errors,omitempty"`
	Iterations     uint64   `json:"iterations"`
	Skipped        uint64   `json:"skipped"`
	Failures       uint64   `json:"failures"`
	CompletedEarly bool     `json:"completed_early"`
	Summary        string   `json:"summary,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Run a scenario through the enumeration engine",
		Long: `Run a scenario file through the enumeration engine and report the
outcome against the scenario's expectations.

With --db, the full iteration trace is recorded to a SQLite database
for later inspection with the trace command.

Examples:
  odo run scenario.yaml
  odo run scenario.yaml --db ./odo.db
  odo run scenario.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenario(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite trace database (optional)")

	return cmd
}

func runScenario(opts *RunOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	sc, err := harness.LoadScenario(path)
	if err != nil {
		_ = formatter.Error(ErrCodeLoad, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}
	formatter.VerboseLog("Loaded scenario %s (%d parameters)", sc.Name, len(sc.Parameters))

	res, err := harness.Run(sc)
	if err != nil {
		_ = formatter.Error(ErrCodeRun, err.Error(), nil)
		return WrapExitError(ExitCommandError, "enumeration aborted", err)
	}

	if opts.Database != "" {
		if err := recordTrace(opts.Database, res); err != nil {
			_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to record trace", err)
		}
		formatter.VerboseLog("Recorded %d iteration(s) to %s", len(res.Trace), opts.Database)
	}

	return outputRunResult(formatter, sc.Name, res)
}

// recordTrace persists a completed run's trace to a SQLite database.
func recordTrace(path string, res *harness.Result) error {
	ctx := context.Background()

	rec, err := trace.Open(path)
	if err != nil {
		return err
	}
	defer rec.Close()

	for _, it := range res.Trace {
		if err := rec.WriteIteration(ctx, it); err != nil {
			return err
		}
	}
	return rec.WriteRun(ctx, res.Token, res.Completion, res.Summary)
}

func outputRunResult(formatter *OutputFormatter, name string, res *harness.Result) error {
	result := RunResult{
		Scenario:       name,
		Token:          res.Token,
		Pass:           res.Pass,
		Errors:         res.Errors,
		Iterations:     res.Completion.Iterations,
		Skipped:        res.Completion.Skipped,
		Failures:       res.Completion.Failures,
		CompletedEarly: res.Completion.CompletedEarly,
		Summary:        res.Summary,
	}

	if formatter.Format == "json" {
		if res.Pass {
			if err := formatter.Success(result); err != nil {
				return err
			}
		} else {
			response := CLIResponse{
				Status: "error",
				Data:   result,
				Error: &CLIError{
					Code:    ErrCodeRun,
					Message: fmt.Sprintf("scenario failed with %d expectation error(s)", len(res.Errors)),
				},
			}
			encoder := json.NewEncoder(formatter.Writer)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(response); err != nil {
				return err
			}
		}
	} else {
		if res.Pass {
			fmt.Fprintf(formatter.Writer, "✓ %s passed (%d iterations, %d skipped, %d failures)\n",
				name, result.Iterations, result.Skipped, result.Failures)
		} else {
			fmt.Fprintf(formatter.Writer, "✗ %s failed\n", name)
			for _, e := range res.Errors {
				fmt.Fprintf(formatter.Writer, "  %s\n", e)
			}
		}
		if res.Summary != "" && formatter.Verbose {
			fmt.Fprintln(formatter.Writer, res.Summary)
		}
	}

	if !res.Pass {
		return NewExitError(ExitFailure, fmt.Sprintf("scenario failed with %d expectation error(s)", len(res.Errors)))
	}
	return nil
}
