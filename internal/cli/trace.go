package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/odo"
	"github.com/roach88/odo/internal/harness"
	"github.com/roach88/odo/internal/trace"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	RunToken string // optional - dump one run's iterations instead of the run list
}

// TraceResult holds the complete trace output for one run.
type TraceResult struct {
	Run        trace.RunRecord       `json:"run"`
	Iterations []odo.IterationRecord `json:"iterations"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Inspect recorded runs in a trace database",
		Long: `Inspect runs recorded with "odo run --db".

Without --run, lists every recorded run with its counts. With --run,
dumps the run's full iteration trace in execution order.

Examples:
  odo trace --db ./odo.db
  odo trace --db ./odo.db --run run-letters_numbers
  odo trace --db ./odo.db --run run-letters_numbers --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTraceCmd(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite trace database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunToken, "run", "", "run token to dump")

	return cmd
}

func runTraceCmd(opts *TraceOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if _, err := os.Stat(opts.Database); err != nil {
		_ = formatter.Error(ErrCodeDatabase, fmt.Sprintf("database not found: %s", opts.Database), nil)
		return WrapExitError(ExitCommandError, "database not found", err)
	}

	rec, err := trace.Open(opts.Database)
	if err != nil {
		_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer rec.Close()

	ctx := context.Background()
	if opts.RunToken == "" {
		return outputRunList(formatter, ctx, rec)
	}
	return outputRunTrace(formatter, ctx, rec, opts.RunToken)
}

func outputRunList(formatter *OutputFormatter, ctx context.Context, rec *trace.Recorder) error {
	runs, err := rec.Runs(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read runs", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(runs)
	}

	if len(runs) == 0 {
		fmt.Fprintln(formatter.Writer, "no recorded runs")
		return nil
	}
	for _, r := range runs {
		marker := ""
		if r.CompletedEarly {
			marker = " (early)"
		}
		fmt.Fprintf(formatter.Writer, "%s: %d iterations, %d skipped, %d failures%s\n",
			r.Token, r.Iterations, r.Skipped, r.Failures, marker)
	}
	return nil
}

func outputRunTrace(formatter *OutputFormatter, ctx context.Context, rec *trace.Recorder, token string) error {
	runs, err := rec.Runs(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read runs", err)
	}
	var run *trace.RunRecord
	for i := range runs {
		if runs[i].Token == token {
			run = &runs[i]
			break
		}
	}
	if run == nil {
		_ = formatter.Error(ErrCodeDatabase, fmt.Sprintf("run not found: %s", token), nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("run not found: %s", token))
	}

	iters, err := rec.Iterations(ctx, token)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read iterations", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(TraceResult{Run: *run, Iterations: iters})
	}

	fmt.Fprintf(formatter.Writer, "%s: %d iterations, %d skipped, %d failures\n",
		run.Token, run.Iterations, run.Skipped, run.Failures)
	for _, it := range iters {
		line := fmt.Sprintf("  %4d %-7s %s", it.Index, it.Outcome, harness.FormatCombination(it.Arguments))
		if it.Error != "" {
			line += "  # " + it.Error
		}
		fmt.Fprintln(formatter.Writer, line)
	}
	if run.Summary != "" {
		fmt.Fprintln(formatter.Writer, run.Summary)
	}
	return nil
}
