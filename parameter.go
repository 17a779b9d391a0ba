package odo

import (
	"errors"
	"fmt"
	"iter"
)

// Param is a handle for one parameter: a name and the sequence of candidate
// arguments it may take. Create a Param once, outside the block, and call
// Bind inside the block; the handle's pointer identity is the binding site
// the engine uses to recognize re-declarations across executions.
//
// A Param created inline on every block execution still works - site
// recognition falls back to comparing names - but distinct parameters must
// then have distinct names.
type Param[T any] struct {
	name string
	seq  iter.Seq[T]
}

// NewParam creates a parameter bound to an argument sequence.
func NewParam[T any](name string, seq iter.Seq[T]) *Param[T] {
	return &Param[T]{name: name, seq: seq}
}

// Name returns the parameter's declared name.
func (p *Param[T]) Name() string {
	return p.name
}

// Bind declares the parameter at the next position in the scope and returns
// its currently selected argument. Re-binding the same parameter within one
// run keeps the existing iteration position; the argument sequence is not
// reset by re-execution.
func (p *Param[T]) Bind(s *Scope) T {
	v := s.declareParameter(site{ref: p, name: p.name}, eraseSeq(p.seq))
	return v.(T)
}

// Bind declares an inline parameter over a fixed list of values and returns
// the currently selected one. Site identity is by name only, so distinct
// inline parameters must use distinct names.
func Bind[T any](s *Scope, name string, values ...T) T {
	return NewParam(name, Values(values...)).Bind(s)
}

// seqSource produces a fresh pull iterator over a type-erased argument
// sequence. Called once at declaration and once per wrap-around.
type seqSource func() (next func() (any, bool), stop func())

// eraseSeq adapts a typed sequence to the engine's untyped pull protocol.
func eraseSeq[T any](seq iter.Seq[T]) seqSource {
	return func() (func() (any, bool), func()) {
		next, stop := iter.Pull(seq)
		return func() (any, bool) {
			v, ok := next()
			if !ok {
				return nil, false
			}
			return v, true
		}, stop
	}
}

// errEmptySequence is returned by declare when the argument sequence yields
// no elements. The scope translates it into the Continue signal.
var errEmptySequence = errors.New("argument sequence is empty")

// paramState owns the iteration state for exactly one declared parameter
// across the lifetime of a run: the site that declared it, a pull iterator
// over its argument sequence, the current argument, and whether the current
// argument is the last one available.
//
// INVARIANTS:
//   - declared is false until the first successful declaration; every
//     accessor other than declare fails while undeclared
//   - once declared, the site is fixed for the remainder of this state's
//     life
//   - current always holds the value most recently produced by the
//     iterator; isLast is recomputed whenever current changes, by peeking
//     one element ahead
type paramState struct {
	position int
	site     site
	source   seqSource

	next func() (any, bool)
	stop func()

	current any
	peeked  any
	hasPeek bool
	isLast  bool

	declared bool
}

// declare binds the state to a site and argument source.
//
// If already declared at a matching site this is a no-op: the original
// sequence and iteration position are kept, because a block re-executes
// from the top each iteration and re-supplying the same parameter must not
// reset progress. A non-matching site is a declaration-order violation.
//
// An empty sequence leaves the state undeclared and returns
// errEmptySequence; a later declare with a non-empty sequence succeeds
// normally.
func (p *paramState) declare(st site, source seqSource) error {
	if p.declared {
		if p.site.matches(st) {
			return nil
		}
		return &ProtocolError{
			Code:     ErrCodeOrderViolated,
			Message:  "different parameter declared at an already-occupied position",
			Position: p.position,
			Site:     st.name,
			Previous: p.site.name,
		}
	}

	next, stop := source()
	v, ok := next()
	if !ok {
		stop()
		return errEmptySequence
	}

	p.site = st
	p.source = source
	p.next = next
	p.stop = stop
	p.current = v
	p.peek()
	p.declared = true
	return nil
}

// advance pulls the next element from the stored iterator. When the
// iterator is exhausted it creates a fresh iterator from the original
// sequence and pulls its first element (wrap-around).
func (p *paramState) advance() error {
	if !p.declared {
		return &StateError{
			Code:     ErrCodeUndeclared,
			Message:  "advance on undeclared parameter",
			Position: p.position,
		}
	}

	if p.hasPeek {
		p.current = p.peeked
		p.peek()
		return nil
	}

	// Wrap around: fresh iterator, first element. A sequence that was
	// non-empty at declaration but yields nothing on re-iteration leaves
	// the state unable to produce a current argument.
	p.stop()
	p.next, p.stop = p.source()
	v, ok := p.next()
	if !ok {
		return &StateError{
			Code:     ErrCodeEmptyReiteration,
			Message:  "argument sequence yielded no elements on re-iteration",
			Position: p.position,
		}
	}
	p.current = v
	p.peek()
	return nil
}

// peek buffers one element of lookahead and recomputes isLast.
func (p *paramState) peek() {
	p.peeked, p.hasPeek = p.next()
	p.isLast = !p.hasPeek
}

// currentArgument returns the currently selected argument. The querying
// site must match the declaring site; a mismatch indicates the state was
// cross-wired to the wrong call.
func (p *paramState) currentArgument(st site) (any, error) {
	if !p.declared {
		return nil, &StateError{
			Code:     ErrCodeUndeclared,
			Message:  "current argument of undeclared parameter",
			Position: p.position,
		}
	}
	if !p.site.matches(st) {
		return nil, &ProtocolError{
			Code:     ErrCodeSiteMismatch,
			Message:  fmt.Sprintf("parameter state belongs to %q", p.site.name),
			Position: p.position,
			Site:     st.name,
		}
	}
	return p.current, nil
}

// isLastArgument reports whether the current argument is the last one the
// sequence has available before wrap-around.
func (p *paramState) isLastArgument() (bool, error) {
	if !p.declared {
		return false, &StateError{
			Code:     ErrCodeUndeclared,
			Message:  "isLast of undeclared parameter",
			Position: p.position,
		}
	}
	return p.isLast, nil
}

// display renders the current argument for failure records and traces.
func (p *paramState) display() string {
	return fmt.Sprintf("%v", p.current)
}
