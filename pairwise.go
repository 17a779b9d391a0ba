package odo

import (
	"fmt"
	"iter"
)

// Pair declares two parameters enumerated pairwise rather than as a
// cartesian product: iteration k selects the k-th element of both
// sequences, so two sequences of length n produce exactly n iterations.
//
// Pair is a consumer of the declaration protocol, not part of the engine:
// it binds a single hidden index parameter over the common length and
// indexes both sequences with it.
type Pair[A, B any] struct {
	name   string
	first  []A
	second []B
	index  *Param[int]
}

// NewPairwise creates a pairwise parameter over two equal-length argument
// slices. The name identifies the pair in failure records and traces.
func NewPairwise[A, B any](name string, first []A, second []B) *Pair[A, B] {
	p := &Pair[A, B]{name: name, first: first, second: second}
	var indexes iter.Seq[int] = func(yield func(int) bool) {
		for i := range p.first {
			if !yield(i) {
				return
			}
		}
	}
	p.index = NewParam(name, indexes)
	return p
}

// Bind declares the pair in the scope and returns the currently selected
// elements of both sequences. Mismatched lengths abort the run with a
// descriptive protocol error.
func (p *Pair[A, B]) Bind(s *Scope) (A, B) {
	if len(p.first) != len(p.second) {
		raiseBreak(&ProtocolError{
			Code:    ErrCodePairwiseLength,
			Message: lengthMismatch("first", len(p.first), "second", len(p.second)),
			Site:    p.name,
		})
	}
	i := p.index.Bind(s)
	return p.first[i], p.second[i]
}

// Pair3 is the three-sequence pairwise variant.
type Pair3[A, B, C any] struct {
	name   string
	first  []A
	second []B
	third  []C
	index  *Param[int]
}

// NewPairwise3 creates a pairwise parameter over three equal-length
// argument slices.
func NewPairwise3[A, B, C any](name string, first []A, second []B, third []C) *Pair3[A, B, C] {
	p := &Pair3[A, B, C]{name: name, first: first, second: second, third: third}
	var indexes iter.Seq[int] = func(yield func(int) bool) {
		for i := range p.first {
			if !yield(i) {
				return
			}
		}
	}
	p.index = NewParam(name, indexes)
	return p
}

// Bind declares the triple in the scope and returns the currently selected
// elements of all three sequences.
func (p *Pair3[A, B, C]) Bind(s *Scope) (A, B, C) {
	if len(p.second) != len(p.first) {
		raiseBreak(&ProtocolError{
			Code:    ErrCodePairwiseLength,
			Message: lengthMismatch("first", len(p.first), "second", len(p.second)),
			Site:    p.name,
		})
	}
	if len(p.third) != len(p.first) {
		raiseBreak(&ProtocolError{
			Code:    ErrCodePairwiseLength,
			Message: lengthMismatch("first", len(p.first), "third", len(p.third)),
			Site:    p.name,
		})
	}
	i := p.index.Bind(s)
	return p.first[i], p.second[i], p.third[i]
}

// lengthMismatch names the shorter side first, whichever it is.
func lengthMismatch(aName string, aLen int, bName string, bLen int) string {
	if aLen > bLen {
		aName, aLen, bName, bLen = bName, bLen, aName, aLen
	}
	return fmt.Sprintf("pairwise sequences differ in length: %s is shorter (%d elements) than %s (%d elements)", aName, aLen, bName, bLen)
}
