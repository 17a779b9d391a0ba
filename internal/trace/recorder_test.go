package trace

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/odo"
)

func openTestRecorder(t *testing.T) *Recorder {
	t.Helper()
	r, err := Open(filepath.Join(t.TempDir(), "trace.db"))
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.db")

	r1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, r1.Close())

	r2, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, r2.Close())
}

func TestRecorder_RecordsRunThroughObserver(t *testing.T) {
	r := openTestRecorder(t)
	ctx := context.Background()

	ns := odo.NewParam("n", odo.Values(1, 2, 3))
	err := odo.Run(func(s *odo.Scope) error {
		if ns.Bind(s) == 2 {
			return errors.New("two is bad")
		}
		return nil
	},
		odo.WithTokenGenerator(odo.NewFixedGenerator("run-0001")),
		odo.WithObserver(r.Observer(ctx)),
		odo.WithOnComplete(func(c *odo.Completion) error {
			return r.WriteRun(ctx, "run-0001", c, "Failed 1/3 cases")
		}),
	)
	require.NoError(t, err)

	runs, err := r.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, RunRecord{
		Token:      "run-0001",
		Iterations: 3,
		Failures:   1,
		Summary:    "Failed 1/3 cases",
	}, runs[0])

	iters, err := r.Iterations(ctx, "run-0001")
	require.NoError(t, err)
	require.Len(t, iters, 3)

	assert.Equal(t, odo.OutcomeOK, iters[0].Outcome)
	assert.Equal(t, []odo.ArgumentValue{{Name: "n", Value: "1"}}, iters[0].Arguments)

	assert.Equal(t, odo.OutcomeFailed, iters[1].Outcome)
	assert.Equal(t, "two is bad", iters[1].Error)

	assert.Equal(t, uint64(3), iters[2].Index)
}

func TestWriteIteration_DuplicateIsIgnored(t *testing.T) {
	r := openTestRecorder(t)
	ctx := context.Background()

	rec := odo.IterationRecord{RunToken: "run-1", Index: 1, Outcome: odo.OutcomeOK}
	require.NoError(t, r.WriteIteration(ctx, rec))

	dup := rec
	dup.Outcome = odo.OutcomeFailed
	require.NoError(t, r.WriteIteration(ctx, dup))

	iters, err := r.Iterations(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, iters, 1)
	assert.Equal(t, odo.OutcomeOK, iters[0].Outcome, "first write wins")
}

func TestIterations_UnknownRunIsEmpty(t *testing.T) {
	r := openTestRecorder(t)

	iters, err := r.Iterations(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, iters)
}
