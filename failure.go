package odo

import (
	"fmt"
	"strings"
)

// Failure records one failing iteration together with the arguments that
// produced it. Immutable once created.
type Failure struct {
	// Err is the failure the iteration produced.
	Err error

	// Arguments are the (name, displayed value) pairs of every parameter
	// declared at the time of failure, in declaration order.
	Arguments []ArgumentValue
}

// accumulator keeps the failures selected for recording, up to a cap.
type accumulator struct {
	max      int // negative means unlimited
	recorded []Failure
}

// record adds a failure unless the cap is reached.
func (a *accumulator) record(f Failure) {
	if a.max >= 0 && len(a.recorded) >= a.max {
		return
	}
	a.recorded = append(a.recorded, f)
}

// FailedCasesError is the aggregate error raised at the end of a run that
// had failing iterations. Its message summarizes the counts and lists each
// recorded failure with the arguments that produced it:
//
//	Failed 2/8 cases
//		*errors.errorString: boom
//			letter = a
//			number = 1
//		...
//
// A trailing "+" after the total marks a run that completed early, and a
// trailing "..." line marks that not all failures were recorded.
type FailedCasesError struct {
	Failures       uint64
	Iterations     uint64
	CompletedEarly bool
	Recorded       []Failure
	Truncated      bool
}

// Error implements the error interface.
func (e *FailedCasesError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Failed %d/%d", e.Failures, e.Iterations)
	if e.CompletedEarly {
		b.WriteByte('+')
	}
	b.WriteString(" cases")

	for _, f := range e.Recorded {
		fmt.Fprintf(&b, "\n\t%T: %s", f.Err, firstLine(f.Err.Error()))
		for _, a := range f.Arguments {
			fmt.Fprintf(&b, "\n\t\t%s = %s", a.Name, a.Value)
		}
	}
	if e.Truncated {
		b.WriteString("\n\t...")
	}
	return b.String()
}

// firstLine truncates a message to its first line.
func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
