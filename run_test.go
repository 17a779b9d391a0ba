package odo

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Enumeration Order
// =============================================================================

func TestRun_CartesianProduct_LastDeclaredVariesFastest(t *testing.T) {
	primes := NewParam("prime", Values(2, 3, 5, 7))
	letters := NewParam("letter", Values("x", "y"))

	var seen []string
	err := Run(func(s *Scope) error {
		p := primes.Bind(s)
		l := letters.Bind(s)
		seen = append(seen, fmt.Sprintf("%d%s", p, l))
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"2x", "2y", "3x", "3y", "5x", "5y", "7x", "7y"}, seen,
		"first parameter is the slow digit")
}

func TestRun_ProductOfSizes(t *testing.T) {
	a := NewParam("a", IntRange(1, 3))
	b := NewParam("b", IntRange(1, 4))
	c := NewParam("c", IntRange(1, 2))

	count := 0
	err := Run(func(s *Scope) error {
		a.Bind(s)
		b.Bind(s)
		c.Bind(s)
		count++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3*4*2, count)
}

func TestRun_ZeroParameters_ExactlyOneIteration(t *testing.T) {
	count := 0
	err := Run(func(s *Scope) error {
		count++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRun_ConditionalParameters_ReDerivedSubtree(t *testing.T) {
	letters := NewParam("letter", Values("a", "b"))
	styled := NewParam("styled", Values(false, true))

	var seen []string
	err := Run(func(s *Scope) error {
		l := letters.Bind(s)
		st := styled.Bind(s)
		if st {
			style := Bind(s, "style", "bold", "italic")
			seen = append(seen, l+"+"+style)
			return nil
		}
		seen = append(seen, l)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"a", "a+bold", "a+italic",
		"b", "b+bold", "b+italic",
	}, seen)
}

func TestRun_RedeclaredSequenceIsNotReset(t *testing.T) {
	// Re-supplying a parameter's construction expression on re-execution
	// keeps the original sequence and position; wrap-around re-iterates
	// the sequence supplied at first declaration.
	ns := NewParam("n", Values(1, 2))

	var seen []string
	err := Run(func(s *Scope) error {
		n := ns.Bind(s)
		m := Bind(s, "m", n*10, n*10+1)
		seen = append(seen, fmt.Sprintf("%d:%d", n, m))
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"1:10", "1:11", "2:10", "2:11"}, seen)
}

// =============================================================================
// Continue: Empty Argument Sequences
// =============================================================================

func TestRun_EmptySequence_SkipsIteration(t *testing.T) {
	ns := NewParam("n", Values(1, 2))

	var seen []string
	var completion *Completion
	err := Run(func(s *Scope) error {
		n := ns.Bind(s)
		if n == 1 {
			Bind[string](s, "none") // empty: iteration contributes nothing
		}
		x := Bind(s, "x", "x")
		seen = append(seen, fmt.Sprintf("%d%s", n, x))
		return nil
	}, WithOnComplete(func(c *Completion) error {
		completion = c
		return nil
	}))
	require.NoError(t, err)

	assert.Equal(t, []string{"2x"}, seen)
	require.NotNil(t, completion)
	assert.Equal(t, uint64(2), completion.Iterations, "skipped iterations count toward the total")
	assert.Equal(t, uint64(1), completion.Skipped)
	assert.Equal(t, uint64(0), completion.Failures)
}

// =============================================================================
// Break: Declaration-Order Violations
// =============================================================================

func TestRun_DifferentSiteAtOccupiedPosition_AbortsRun(t *testing.T) {
	ns := NewParam("n", Values(1, 2))

	completed := false
	err := Run(func(s *Scope) error {
		n := ns.Bind(s)
		if n == 1 {
			Bind(s, "x", 10, 20)
		} else {
			Bind(s, "y", 10, 20) // different site at position 1
		}
		return nil
	}, WithOnComplete(func(c *Completion) error {
		completed = true
		return nil
	}))

	require.Error(t, err)
	assert.True(t, IsOrderViolation(err))
	assert.False(t, completed, "break must not invoke the completion handler")
}

// =============================================================================
// Failure Accumulation & Aggregate Error
// =============================================================================

func TestRun_DefaultConfig_AggregateError(t *testing.T) {
	ns := NewParam("n", IntRange(1, 11))

	err := Run(func(s *Scope) error {
		n := ns.Bind(s)
		if n == 3 || n == 7 {
			return fmt.Errorf("bad n %d", n)
		}
		return nil
	})

	require.Error(t, err)
	var agg *FailedCasesError
	require.True(t, errors.As(err, &agg))
	assert.Equal(t, uint64(2), agg.Failures)
	assert.Equal(t, uint64(11), agg.Iterations)
	assert.False(t, agg.CompletedEarly)
	require.Len(t, agg.Recorded, 2)

	msg := err.Error()
	assert.True(t, len(msg) > 0)
	assert.Contains(t, msg, "Failed 2/11 cases")
	assert.Contains(t, msg, "bad n 3")
	assert.Contains(t, msg, "bad n 7")
	assert.Contains(t, msg, "n = 3")
	assert.Contains(t, msg, "n = 7")
}

func TestRun_AllIterationsSucceed_Silent(t *testing.T) {
	ns := NewParam("n", IntRange(1, 5))
	err := Run(func(s *Scope) error {
		ns.Bind(s)
		return nil
	})
	assert.NoError(t, err)
}

func TestRun_DefaultRecordCap_Truncates(t *testing.T) {
	ns := NewParam("n", IntRange(1, 15))

	err := Run(func(s *Scope) error {
		ns.Bind(s)
		return errors.New("always fails")
	})

	var agg *FailedCasesError
	require.True(t, errors.As(err, &agg))
	assert.Equal(t, uint64(15), agg.Failures)
	assert.Len(t, agg.Recorded, DefaultMaxRecorded)
	assert.True(t, agg.Truncated)
	assert.Contains(t, err.Error(), "\n\t...")
}

func TestRun_WithMaxRecorded_Unlimited(t *testing.T) {
	ns := NewParam("n", IntRange(1, 15))

	err := Run(func(s *Scope) error {
		ns.Bind(s)
		return errors.New("always fails")
	}, WithMaxRecorded(-1))

	var agg *FailedCasesError
	require.True(t, errors.As(err, &agg))
	assert.Len(t, agg.Recorded, 15)
	assert.False(t, agg.Truncated)
}

func TestRun_FailureRecord_CapturesDeclaredArguments(t *testing.T) {
	letters := NewParam("letter", Values("a", "b"))
	ns := NewParam("n", Values(1, 2))

	var failures []*FailureContext
	err := Run(func(s *Scope) error {
		l := letters.Bind(s)
		n := ns.Bind(s)
		if l == "b" && n == 2 {
			return errors.New("boom")
		}
		return nil
	}, WithOnFailure(func(f *FailureContext) error {
		failures = append(failures, f)
		return nil
	}), WithOnComplete(func(c *Completion) error { return nil }))
	require.NoError(t, err)

	require.Len(t, failures, 1)
	assert.Equal(t, []ArgumentValue{
		{Name: "letter", Value: "b"},
		{Name: "n", Value: "2"},
	}, failures[0].Arguments)
	assert.Equal(t, uint64(4), failures[0].Iteration)
}

// =============================================================================
// Early Break
// =============================================================================

func TestRun_BreakEarly_MidSpace(t *testing.T) {
	is := NewParam("i", IntRange(0, 9))
	js := NewParam("j", IntRange(0, 9))

	iterations := 0
	var completion *Completion
	err := Run(func(s *Scope) error {
		is.Bind(s)
		js.Bind(s)
		iterations++
		if iterations == 50 {
			return errors.New("stop here")
		}
		return nil
	}, WithOnFailure(func(f *FailureContext) error {
		f.BreakEarly = true
		return nil
	}), WithOnComplete(func(c *Completion) error {
		completion = c
		return nil
	}))
	require.NoError(t, err)

	assert.Equal(t, 50, iterations, "no further combinations tried after the break")
	require.NotNil(t, completion)
	assert.True(t, completion.CompletedEarly)
	assert.Equal(t, uint64(50), completion.Iterations)
}

func TestRun_BreakEarly_OnFinalCombination(t *testing.T) {
	ns := NewParam("n", Values(1, 2, 3))

	var completion *Completion
	err := Run(func(s *Scope) error {
		if ns.Bind(s) == 3 {
			return errors.New("last one fails")
		}
		return nil
	}, WithOnFailure(func(f *FailureContext) error {
		f.BreakEarly = true
		return nil
	}), WithOnComplete(func(c *Completion) error {
		completion = c
		return nil
	}))
	require.NoError(t, err)

	require.NotNil(t, completion)
	assert.False(t, completion.CompletedEarly, "nothing was left to skip")
	assert.Equal(t, uint64(3), completion.Iterations)
}

// =============================================================================
// Decorator
// =============================================================================

func TestRun_Decorator_WrapsEveryIteration(t *testing.T) {
	ns := NewParam("n", IntRange(1, 4))

	var events []string
	err := Run(func(s *Scope) error {
		ns.Bind(s)
		events = append(events, "block")
		return nil
	}, WithDecorator(func(iteration func() error) error {
		events = append(events, "before")
		err := iteration()
		events = append(events, "after")
		return err
	}))
	require.NoError(t, err)

	require.Len(t, events, 12)
	for i := 0; i < 12; i += 3 {
		assert.Equal(t, []string{"before", "block", "after"}, events[i:i+3])
	}
}

func TestRun_Decorator_NeverInvokesIteration(t *testing.T) {
	err := Run(func(s *Scope) error {
		return nil
	}, WithDecorator(func(iteration func() error) error {
		return nil
	}))

	require.Error(t, err)
	var pe *ProtocolError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, ErrCodeDecorator, pe.Code)
}

func TestRun_Decorator_InvokesIterationTwice(t *testing.T) {
	err := Run(func(s *Scope) error {
		return nil
	}, WithDecorator(func(iteration func() error) error {
		_ = iteration()
		return iteration()
	}))

	require.Error(t, err)
	var pe *ProtocolError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, ErrCodeDecorator, pe.Code)
}

func TestRun_Decorator_ReturnedErrorIsTheFailure(t *testing.T) {
	ns := NewParam("n", Values(1, 2))

	wrapped := errors.New("decorated failure")
	var failures []error
	err := Run(func(s *Scope) error {
		ns.Bind(s)
		return nil
	}, WithDecorator(func(iteration func() error) error {
		if err := iteration(); err != nil {
			return err
		}
		return wrapped
	}), WithOnFailure(func(f *FailureContext) error {
		failures = append(failures, f.Err)
		return nil
	}), WithOnComplete(func(c *Completion) error { return nil }))
	require.NoError(t, err)

	require.Len(t, failures, 2)
	assert.ErrorIs(t, failures[0], wrapped)
}

// =============================================================================
// Handler Errors & Panics
// =============================================================================

func TestRun_FailureHandlerError_PropagatesUnwrapped(t *testing.T) {
	boom := errors.New("handler logic error")
	ns := NewParam("n", Values(1, 2, 3))

	count := 0
	err := Run(func(s *Scope) error {
		ns.Bind(s)
		count++
		return errors.New("iteration fails")
	}, WithOnFailure(func(f *FailureContext) error {
		return boom
	}))

	assert.Equal(t, boom, err)
	assert.Equal(t, 1, count, "run aborts on the first handler error")
}

func TestRun_CompletionHandlerError_PropagatesUnwrapped(t *testing.T) {
	boom := errors.New("completion logic error")
	err := Run(func(s *Scope) error {
		return nil
	}, WithOnComplete(func(c *Completion) error {
		return boom
	}))
	assert.Equal(t, boom, err)
}

func TestRun_PanicInBlock_RoutedAsFailure(t *testing.T) {
	ns := NewParam("n", Values(1, 2, 3))

	var failures []error
	err := Run(func(s *Scope) error {
		if ns.Bind(s) == 2 {
			panic("unexpected state")
		}
		return nil
	}, WithOnFailure(func(f *FailureContext) error {
		failures = append(failures, f.Err)
		return nil
	}), WithOnComplete(func(c *Completion) error { return nil }))
	require.NoError(t, err)

	require.Len(t, failures, 1)
	var pf *PanicFailure
	require.True(t, errors.As(failures[0], &pf))
	assert.Equal(t, "unexpected state", pf.Value)
	assert.NotEmpty(t, pf.Stack)
}

// =============================================================================
// Observers & Tokens
// =============================================================================

func TestRun_Observer_ReceivesPerIterationRecords(t *testing.T) {
	ns := NewParam("n", Values(1, 2))

	var records []IterationRecord
	err := Run(func(s *Scope) error {
		if ns.Bind(s) == 2 {
			return errors.New("two is bad")
		}
		return nil
	},
		WithTokenGenerator(NewFixedGenerator("run-0001")),
		WithObserver(func(r IterationRecord) { records = append(records, r) }),
		WithOnComplete(func(c *Completion) error { return nil }),
	)
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, "run-0001", records[0].RunToken)
	assert.Equal(t, uint64(1), records[0].Index)
	assert.Equal(t, OutcomeOK, records[0].Outcome)
	assert.Equal(t, []ArgumentValue{{Name: "n", Value: "1"}}, records[0].Arguments)

	assert.Equal(t, OutcomeFailed, records[1].Outcome)
	assert.Equal(t, "two is bad", records[1].Error)
}

func TestFixedGenerator_ReturnsTokensInOrder(t *testing.T) {
	gen := NewFixedGenerator("a", "b")
	assert.Equal(t, "a", gen.Generate())
	assert.Equal(t, "b", gen.Generate())
	assert.Panics(t, func() { gen.Generate() })
}

func TestUUIDv7Generator_ProducesDistinctTokens(t *testing.T) {
	gen := UUIDv7Generator{}
	a := gen.Generate()
	b := gen.Generate()
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
}
