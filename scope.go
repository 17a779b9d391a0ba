package odo

import (
	"errors"
	"log/slog"
)

// Scope owns the ordered collection of parameter states declared so far in
// one run and implements the combination advance. It is created by Run,
// threaded through the caller's block, and must never be referenced after
// Run returns.
//
// Positions are indexed by declaration order within one execution of the
// block: position 0 is the first parameter declared, and so on. States are
// created lazily the first time each position is reached and reused on
// every subsequent execution.
type Scope struct {
	token  string
	logger *slog.Logger

	params []*paramState

	// used counts the positions declared by the current execution. Reset
	// to zero before each iteration; the odometer scan starts from
	// position used-1.
	used int

	iteration uint64
}

// Token returns the run's correlation token, stamped on every log line and
// trace record produced for this run.
func (s *Scope) Token() string {
	return s.token
}

// Iteration returns the one-based index of the iteration currently
// executing.
func (s *Scope) Iteration() uint64 {
	return s.iteration
}

// beginIteration resets per-execution bookkeeping. Parameter states persist
// across executions; only the declared count restarts.
func (s *Scope) beginIteration() {
	s.used = 0
	s.iteration++
}

// declareParameter declares a parameter at the next position and returns
// its current argument.
//
// Failures do not return: an empty argument sequence raises the Continue
// signal, and a declaration-order violation raises the Break signal. Both
// unwind to the run loop.
func (s *Scope) declareParameter(st site, source seqSource) any {
	pos := s.used
	var p *paramState
	if pos < len(s.params) {
		p = s.params[pos]
	} else {
		p = &paramState{position: pos}
		s.params = append(s.params, p)
	}

	if err := p.declare(st, source); err != nil {
		if errors.Is(err, errEmptySequence) {
			s.logger.Debug("empty argument sequence, skipping iteration",
				"run", s.token,
				"site", st.name,
				"position", pos,
			)
			raiseContinue()
		}
		var pe *ProtocolError
		if errors.As(err, &pe) {
			raiseBreak(pe)
		}
		// declare only fails with the two cases above
		raiseBreak(&ProtocolError{Code: ErrCodeOrderViolated, Message: err.Error(), Position: pos})
	}

	s.used = pos + 1

	v, err := p.currentArgument(st)
	if err != nil {
		var pe *ProtocolError
		if errors.As(err, &pe) {
			raiseBreak(pe)
		}
		raiseBreak(&ProtocolError{Code: ErrCodeSiteMismatch, Message: err.Error(), Position: pos})
	}
	return v
}

// nextCombination performs the odometer advance after one full execution of
// the block. It scans declared states from the last declared position
// backward: the first state not on its last argument is advanced and the
// scan stops - that is the next combination. States already on their last
// argument are advanced anyway, wrapping back to their first argument, and
// the carry continues toward position 0. If the carry runs past the first
// position, every state wrapped and enumeration is exhausted.
//
// The most-recently-declared parameter is the fastest-changing digit.
// Undeclared placeholder states (left by empty sequences) contribute no
// digit and are skipped.
//
// Returns false when no further combinations exist. With zero parameters
// declared, enumeration has exactly one combination, so the first call
// reports exhaustion.
func (s *Scope) nextCombination() (bool, error) {
	for i := s.used - 1; i >= 0; i-- {
		p := s.params[i]
		if !p.declared {
			continue
		}
		wasLast := p.isLast
		if err := p.advance(); err != nil {
			return false, err
		}
		if !wasLast {
			return true, nil
		}
	}
	return false, nil
}

// arguments snapshots the name and displayed value of every parameter
// declared by the current execution, in declaration order. Captured for
// failure records and iteration traces.
func (s *Scope) arguments() []ArgumentValue {
	if s.used == 0 {
		return nil
	}
	args := make([]ArgumentValue, 0, s.used)
	for _, p := range s.params[:s.used] {
		if !p.declared {
			continue
		}
		args = append(args, ArgumentValue{Name: p.site.name, Value: p.display()})
	}
	return args
}

// ArgumentValue is one (parameter name, displayed argument) pair captured
// from a declared parameter.
type ArgumentValue struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}
