package trace

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/roach88/odo"
)

// RunRecord is one run's summary row.
type RunRecord struct {
	Token          string `json:"token"`
	Iterations     uint64 `json:"iterations"`
	Skipped        uint64 `json:"skipped"`
	Failures       uint64 `json:"failures"`
	CompletedEarly bool   `json:"completed_early"`
	Summary        string `json:"summary,omitempty"`
}

// Runs returns every recorded run, ordered by token. Tokens from the
// UUIDv7 generator sort by creation time.
func (r *Recorder) Runs(ctx context.Context) ([]RunRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT token, iterations, skipped, failures, completed_early, summary
		FROM runs
		ORDER BY token
	`)
	if err != nil {
		return nil, fmt.Errorf("read runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var rec RunRecord
		var early int
		if err := rows.Scan(&rec.Token, &rec.Iterations, &rec.Skipped, &rec.Failures, &early, &rec.Summary); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		rec.CompletedEarly = early != 0
		runs = append(runs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read runs: %w", err)
	}
	return runs, nil
}

// Iterations returns a run's iteration records in execution order.
func (r *Recorder) Iterations(ctx context.Context, token string) ([]odo.IterationRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT run_token, idx, outcome, arguments, error
		FROM iterations
		WHERE run_token = ?
		ORDER BY idx
	`, token)
	if err != nil {
		return nil, fmt.Errorf("read iterations for %s: %w", token, err)
	}
	defer rows.Close()

	var recs []odo.IterationRecord
	for rows.Next() {
		var rec odo.IterationRecord
		var args string
		if err := rows.Scan(&rec.RunToken, &rec.Index, &rec.Outcome, &args, &rec.Error); err != nil {
			return nil, fmt.Errorf("scan iteration: %w", err)
		}
		if err := json.Unmarshal([]byte(args), &rec.Arguments); err != nil {
			return nil, fmt.Errorf("decode arguments for %s/%d: %w", token, rec.Index, err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read iterations for %s: %w", token, err)
	}
	return recs, nil
}
