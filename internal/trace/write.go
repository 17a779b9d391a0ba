package trace

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/roach88/odo"
)

// WriteIteration inserts an iteration record.
// Uses ON CONFLICT DO NOTHING for idempotency; duplicate (run, index)
// pairs are silently ignored.
func (r *Recorder) WriteIteration(ctx context.Context, rec odo.IterationRecord) error {
	args, err := json.Marshal(rec.Arguments)
	if err != nil {
		return fmt.Errorf("write iteration: marshal arguments: %w", err)
	}
	if rec.Arguments == nil {
		args = []byte("[]")
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO iterations (run_token, idx, outcome, arguments, error)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(run_token, idx) DO NOTHING
	`,
		rec.RunToken,
		rec.Index,
		rec.Outcome,
		string(args),
		rec.Error,
	)
	if err != nil {
		return fmt.Errorf("write iteration: %w", err)
	}
	return nil
}

// WriteRun inserts the summary row for a completed run. The summary is the
// aggregate error message, or empty for a silent run.
func (r *Recorder) WriteRun(ctx context.Context, token string, c *odo.Completion, summary string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO runs (token, iterations, skipped, failures, completed_early, summary)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(token) DO NOTHING
	`,
		token,
		c.Iterations,
		c.Skipped,
		c.Failures,
		boolToInt(c.CompletedEarly),
		summary,
	)
	if err != nil {
		return fmt.Errorf("write run %s: %w", token, err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
