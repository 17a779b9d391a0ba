package odo

// Run repeatedly executes block, once per combination of the arguments of
// the parameters it declares, until enumeration is exhausted or a failure
// handler requests an early break.
//
// Each failing iteration is routed through the configured failure handler;
// the completion handler runs exactly once at the end and decides whether
// the run raises an error. With the default configuration, Run returns nil
// when every iteration succeeded and a *FailedCasesError otherwise.
//
// Run returns immediately, without invoking the completion handler, on a
// protocol violation (the block declared parameters non-deterministically,
// or a decorator broke its contract) and on an error returned by the
// failure or completion handler itself.
//
// Everything runs on the calling goroutine in strict sequence: the block,
// the decorator, and both handlers. The Scope passed to block is owned by
// this call and must not be retained after Run returns.
func Run(block Block, opts ...Option) error {
	cfg := newConfig(opts...)
	s := &Scope{token: cfg.tokens.Generate(), logger: cfg.logger}
	acc := &accumulator{max: cfg.maxRecorded}

	var iterations, skipCount, failures uint64
	breakEarly := false

	cfg.logger.Debug("enumeration starting", "run", s.token)

	for {
		s.beginIteration()
		out := runIteration(cfg, s, block)

		if out.fatal != nil {
			cfg.logger.Debug("enumeration aborted",
				"run", s.token,
				"iteration", s.iteration,
				"error", out.fatal,
			)
			return out.fatal
		}

		iterations++
		record := IterationRecord{
			RunToken:  s.token,
			Index:     iterations,
			Outcome:   OutcomeOK,
			Arguments: s.arguments(),
		}

		switch {
		case out.skipped:
			skipCount++
			record.Outcome = OutcomeSkipped

		case out.failure != nil:
			failures++
			record.Outcome = OutcomeFailed
			record.Error = out.failure.Error()

			fc := &FailureContext{
				Err:           out.failure,
				Arguments:     record.Arguments,
				Iteration:     iterations,
				Failures:      failures,
				RecordFailure: true,
			}
			if err := cfg.onFailure(fc); err != nil {
				return err
			}
			if fc.RecordFailure {
				acc.record(Failure{Err: out.failure, Arguments: fc.Arguments})
			}
			if fc.BreakEarly {
				breakEarly = true
			}
		}

		if cfg.observer != nil {
			cfg.observer(record)
		}

		more, err := s.nextCombination()
		if err != nil {
			return err
		}
		if more && !breakEarly {
			continue
		}

		completion := &Completion{
			Iterations:        iterations,
			Skipped:           skipCount,
			Failures:          failures,
			CompletedEarly:    breakEarly && more,
			Recorded:          acc.recorded,
			RecordedTruncated: uint64(len(acc.recorded)) < failures,
		}
		cfg.logger.Debug("enumeration finished",
			"run", s.token,
			"iterations", iterations,
			"skipped", skipCount,
			"failures", failures,
			"completed_early", completion.CompletedEarly,
		)
		return cfg.onComplete(completion)
	}
}

// iterationOutcome is the tagged result of one iteration slot: success,
// skipped (Continue signal), ordinary failure, or a fatal protocol error
// (Break signal or decorator contract violation).
type iterationOutcome struct {
	skipped bool
	failure error
	fatal   *ProtocolError
}

// runIteration executes one iteration through the decorator, recovering
// control-flow signals and caller panics at the run-loop boundary.
func runIteration(cfg *config, s *Scope, block Block) iterationOutcome {
	var out iterationOutcome
	calls := 0

	iteration := func() error {
		calls++
		if calls > 1 {
			// Re-running the block would redeclare positions mid-state;
			// refuse and report the decorator after it returns.
			return nil
		}
		return executeBlock(s, block, &out)
	}

	err := cfg.decorator(iteration)

	switch {
	case out.fatal != nil:
		// Break wins over whatever the decorator returned.
	case calls == 0:
		out.fatal = &ProtocolError{
			Code:    ErrCodeDecorator,
			Message: "decorator never invoked its iteration",
		}
	case calls > 1:
		out.fatal = &ProtocolError{
			Code:    ErrCodeDecorator,
			Message: "decorator invoked its iteration more than once",
		}
	case out.skipped:
		// A skipped iteration produced no value to report; the decorator's
		// return does not turn it into a failure.
	default:
		out.failure = err
	}
	return out
}

// executeBlock runs the caller's block, translating panics: control-flow
// signals set the outcome, any other panic becomes an ordinary failure
// carrying the panic value and stack.
func executeBlock(s *Scope, block Block, out *iterationOutcome) (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		switch sig := r.(type) {
		case continueSignal:
			out.skipped = true
		case breakSignal:
			out.fatal = sig.err
		default:
			err = newPanicFailure(r)
		}
	}()
	return block(s)
}
