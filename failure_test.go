package odo

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFailedCasesError_MessageFormat(t *testing.T) {
	err := &FailedCasesError{
		Failures:   2,
		Iterations: 8,
		Recorded: []Failure{
			{
				Err: errors.New("boom"),
				Arguments: []ArgumentValue{
					{Name: "letter", Value: "a"},
					{Name: "number", Value: "1"},
				},
			},
			{
				Err:       errors.New("first line\nsecond line"),
				Arguments: []ArgumentValue{{Name: "letter", Value: "b"}},
			},
		},
	}

	expected := "Failed 2/8 cases" +
		"\n\t*errors.errorString: boom" +
		"\n\t\tletter = a" +
		"\n\t\tnumber = 1" +
		"\n\t*errors.errorString: first line" +
		"\n\t\tletter = b"
	assert.Equal(t, expected, err.Error())
}

func TestFailedCasesError_EarlyCompletionMarker(t *testing.T) {
	err := &FailedCasesError{Failures: 1, Iterations: 50, CompletedEarly: true}
	assert.Equal(t, "Failed 1/50+ cases", err.Error())
}

func TestFailedCasesError_TruncationMarker(t *testing.T) {
	err := &FailedCasesError{
		Failures:   12,
		Iterations: 20,
		Recorded: []Failure{
			{Err: errors.New("one of many")},
		},
		Truncated: true,
	}

	msg := err.Error()
	assert.Contains(t, msg, "Failed 12/20 cases")
	assert.Contains(t, msg, "one of many")
	assert.Equal(t, "\n\t...", msg[len(msg)-5:])
}

func TestFailedCasesError_NamedErrorType(t *testing.T) {
	err := &FailedCasesError{
		Failures:   1,
		Iterations: 1,
		Recorded: []Failure{
			{Err: &StateError{Code: ErrCodeUndeclared, Message: "x", Position: -1}},
		},
	}
	assert.Contains(t, err.Error(), "*odo.StateError: UNDECLARED_PARAMETER: x")
}

func TestAccumulator_CapsRecordedFailures(t *testing.T) {
	acc := &accumulator{max: 2}
	for i := 0; i < 5; i++ {
		acc.record(Failure{Err: errors.New("f")})
	}
	assert.Len(t, acc.recorded, 2)

	unlimited := &accumulator{max: -1}
	for i := 0; i < 5; i++ {
		unlimited.record(Failure{Err: errors.New("f")})
	}
	assert.Len(t, unlimited.recorded, 5)
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "only", firstLine("only"))
	assert.Equal(t, "head", firstLine("head\ntail\nmore"))
	assert.Equal(t, "", firstLine("\nbody"))
}
