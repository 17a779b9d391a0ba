package harness

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/odo"
)

// Result is the outcome of one scenario execution.
type Result struct {
	// Pass indicates every expectation matched.
	Pass bool `json:"pass"`

	// Errors lists expectation mismatches. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Token is the fixed run token the scenario executed under.
	Token string `json:"token"`

	// Trace contains one record per iteration, in execution order.
	Trace []odo.IterationRecord `json:"trace"`

	// Completion holds the run's final counts.
	Completion *odo.Completion `json:"completion"`

	// Summary is the aggregate error message the default completion
	// handler would raise, or empty for a silent run.
	Summary string `json:"summary,omitempty"`
}

// addError records an expectation mismatch and fails the result.
func (r *Result) addError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	r.Pass = false
}

// Run executes a scenario against the real engine and evaluates its
// expectations.
//
// A returned error means the scenario could not be executed (a protocol
// violation, or an inconsistent scenario); expectation mismatches are
// reported through Result.Errors instead.
func Run(sc *Scenario) (*Result, error) {
	if err := sc.check(); err != nil {
		return nil, err
	}

	res := &Result{Pass: true, Token: sc.token()}

	opts := []odo.Option{
		odo.WithTokenGenerator(odo.NewFixedGenerator(res.Token)),
		odo.WithObserver(func(rec odo.IterationRecord) {
			res.Trace = append(res.Trace, rec)
		}),
		odo.WithOnComplete(func(c *odo.Completion) error {
			res.Completion = c
			if err := odo.DefaultOnComplete(c); err != nil {
				res.Summary = err.Error()
			}
			return nil
		}),
	}
	if sc.BreakOnFailure {
		opts = append(opts, odo.WithOnFailure(func(f *odo.FailureContext) error {
			f.BreakEarly = true
			return nil
		}))
	}
	if sc.MaxRecorded > 0 {
		opts = append(opts, odo.WithMaxRecorded(sc.MaxRecorded))
	}

	if err := odo.Run(sc.block(), opts...); err != nil {
		return nil, fmt.Errorf("run scenario %s: %w", sc.Name, err)
	}

	sc.evaluate(res)
	return res, nil
}

// block builds the enumeration block for the scenario's parameter grid.
func (sc *Scenario) block() odo.Block {
	if sc.Pairwise {
		p0, p1 := sc.Parameters[0], sc.Parameters[1]
		pair := odo.NewPairwise(p0.Name+"_"+p1.Name, p0.Values, p1.Values)
		return func(s *odo.Scope) error {
			a, b := pair.Bind(s)
			bound := map[string]string{
				p0.Name: display(a),
				p1.Name: display(b),
			}
			return sc.injectFailure(bound)
		}
	}

	return func(s *odo.Scope) error {
		bound := make(map[string]string, len(sc.Parameters))
		for _, p := range sc.Parameters {
			if p.When != nil && !matches(bound, p.When) {
				continue
			}
			v := odo.Bind(s, p.Name, p.Values...)
			bound[p.Name] = display(v)
		}
		return sc.injectFailure(bound)
	}
}

// injectFailure fails the iteration when the bound combination matches a
// fail_on entry.
func (sc *Scenario) injectFailure(bound map[string]string) error {
	for _, combo := range sc.FailOn {
		if matches(bound, combo) {
			return fmt.Errorf("injected failure on %s", describeCombo(combo))
		}
	}
	return nil
}

// evaluate checks the scenario's expectations against the result.
func (sc *Scenario) evaluate(res *Result) {
	e := sc.Expect
	if e == nil {
		return
	}
	c := res.Completion

	if e.Iterations != nil && c.Iterations != *e.Iterations {
		res.addError("iterations: expected %d, got %d", *e.Iterations, c.Iterations)
	}
	if e.Skipped != nil && c.Skipped != *e.Skipped {
		res.addError("skipped: expected %d, got %d", *e.Skipped, c.Skipped)
	}
	if e.Failures != nil && c.Failures != *e.Failures {
		res.addError("failures: expected %d, got %d", *e.Failures, c.Failures)
	}
	if e.CompletedEarly != nil && c.CompletedEarly != *e.CompletedEarly {
		res.addError("completed_early: expected %v, got %v", *e.CompletedEarly, c.CompletedEarly)
	}
	if e.SummaryPrefix != nil {
		switch {
		case *e.SummaryPrefix == "" && res.Summary != "":
			res.addError("summary: expected silent run, got %q", firstLine(res.Summary))
		case !strings.HasPrefix(res.Summary, *e.SummaryPrefix):
			res.addError("summary: expected prefix %q, got %q", *e.SummaryPrefix, firstLine(res.Summary))
		}
	}
	if e.Order != nil {
		got := make([]string, len(res.Trace))
		for i, rec := range res.Trace {
			got[i] = FormatCombination(rec.Arguments)
		}
		if len(got) != len(e.Order) {
			res.addError("order: expected %d combinations, got %d", len(e.Order), len(got))
		} else {
			for i := range got {
				if got[i] != e.Order[i] {
					res.addError("order[%d]: expected %q, got %q", i, e.Order[i], got[i])
				}
			}
		}
	}
}

// FormatCombination renders an argument list as space-separated
// "name=value" pairs, the format scenario order expectations use.
func FormatCombination(args []odo.ArgumentValue) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.Name + "=" + a.Value
	}
	return strings.Join(parts, " ")
}

// display renders an argument the way the engine does.
func display(v any) string {
	return fmt.Sprintf("%v", v)
}

// matches reports whether every wanted (name, value) pair is bound, by
// displayed value.
func matches(bound map[string]string, want map[string]any) bool {
	for name, v := range want {
		got, ok := bound[name]
		if !ok || got != display(v) {
			return false
		}
	}
	return true
}

// describeCombo renders a fail_on entry deterministically for failure
// messages.
func describeCombo(combo map[string]any) string {
	parts := make([]string, 0, len(combo))
	for name, v := range combo {
		parts = append(parts, name+"="+display(v))
	}
	// Map order is random; sort for stable messages and goldens.
	sort.Strings(parts)
	return strings.Join(parts, " ")
}

// firstLine truncates a message to its first line.
func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
