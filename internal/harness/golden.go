package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"
)

// snapshot is the golden-file representation of one scenario run. Arguments
// are flattened to the "name=value" form so goldens stay readable.
type snapshot struct {
	Scenario       string              `json:"scenario"`
	Token          string              `json:"token"`
	Iterations     uint64              `json:"iterations"`
	Skipped        uint64              `json:"skipped"`
	Failures       uint64              `json:"failures"`
	CompletedEarly bool                `json:"completed_early"`
	Summary        string              `json:"summary,omitempty"`
	Trace          []snapshotIteration `json:"trace"`
}

type snapshotIteration struct {
	Index     uint64 `json:"index"`
	Outcome   string `json:"outcome"`
	Arguments string `json:"arguments"`
	Error     string `json:"error,omitempty"`
}

// newSnapshot flattens a result for golden comparison.
func newSnapshot(sc *Scenario, res *Result) snapshot {
	snap := snapshot{
		Scenario:       sc.Name,
		Token:          res.Token,
		Iterations:     res.Completion.Iterations,
		Skipped:        res.Completion.Skipped,
		Failures:       res.Completion.Failures,
		CompletedEarly: res.Completion.CompletedEarly,
		Summary:        res.Summary,
		Trace:          make([]snapshotIteration, len(res.Trace)),
	}
	for i, rec := range res.Trace {
		snap.Trace[i] = snapshotIteration{
			Index:     rec.Index,
			Outcome:   rec.Outcome,
			Arguments: FormatCombination(rec.Arguments),
			Error:     rec.Error,
		}
	}
	return snap
}

// RunGolden executes a scenario, requires its expectations to hold, and
// compares the trace snapshot against testdata/golden/<name>.golden.
//
// Run with -update to regenerate goldens after intentional engine changes.
func RunGolden(t *testing.T, sc *Scenario) *Result {
	t.Helper()

	res, err := Run(sc)
	require.NoError(t, err)
	require.True(t, res.Pass, "scenario expectations failed: %v", res.Errors)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.AssertJson(t, sc.Name, newSnapshot(sc, res))
	return res
}
