package odo

// Control-flow signals abort a block execution mid-flight. They are raised
// by declaration (via panic) and recovered ONLY by the run loop. Both types
// are unexported and carry nothing useful outside the engine, so third-party
// code cannot meaningfully intercept them; caller code must not recover
// them.

// continueSignal abandons the remainder of the current block execution and
// proceeds straight to the combination advance, as if the iteration
// produced no failure. Raised when a parameter's argument sequence is
// empty: the position contributes no usable value.
type continueSignal struct{}

// breakSignal aborts the entire run. Raised when the declaration-order
// invariant is violated: the enumeration structure can no longer be
// trusted, so no further combinations are attempted.
type breakSignal struct {
	err *ProtocolError
}

// raiseContinue signals the run loop to skip the rest of this iteration.
func raiseContinue() {
	panic(continueSignal{})
}

// raiseBreak signals the run loop to abort the run with a protocol error.
func raiseBreak(err *ProtocolError) {
	panic(breakSignal{err: err})
}
