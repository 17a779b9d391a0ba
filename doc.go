// Package odo enumerates every combination of a set of runtime-declared
// parameters by re-executing a single block of code, odometer-style.
//
// A caller writes one block that declares zero or more parameters, each
// bound to a sequence of candidate arguments. Run executes the block once
// per combination without the caller writing nested loops:
//
//	letter := odo.NewParam("letter", odo.Values('a', 'b', 'c'))
//	number := odo.NewParam("number", odo.IntRange(1, 2))
//
//	err := odo.Run(func(s *odo.Scope) error {
//	    l := letter.Bind(s)
//	    n := number.Bind(s)
//	    return check(l, n) // runs 6 times: (a,1) (a,2) (b,1) (b,2) (c,1) (c,2)
//	})
//
// The loop nest is not statically known. Which parameters a block declares,
// and their argument sequences, may depend on runtime values, including the
// currently selected arguments of earlier parameters. The engine discovers
// the nesting by re-running the block from the top and observing which
// parameters it declares, in what order.
//
// ARCHITECTURE:
//
// Single-Threaded Re-Execution Loop:
// The engine runs the block, the decorator, and both handlers on the
// caller's goroutine in strict sequence. This ensures:
//   - Predictable enumeration order (last-declared parameter varies fastest)
//   - Reproducible traces for golden comparison
//   - No concurrent mutation of iteration state, by construction
//
// Iteration Flow:
//  1. Run invokes the configured decorator with a "run one iteration" func
//  2. Inside it, the block executes against the current Scope, declaring
//     parameters position by position
//  3. The outcome (success, failure, or an internal control-flow signal) is
//     reported back to the Scope, which advances to the next combination
//     or declares enumeration finished
//  4. On finish, OnComplete receives final counts and recorded failures
//
// CRITICAL INVARIANT:
//
// Declaration order must be identical on every execution that reaches the
// same parameter positions - it is how the engine recovers the implicit
// nested-loop structure. Declaring a different parameter at an
// already-occupied position is a protocol violation that aborts the run.
//
// The engine is designed for correctness and determinism, not throughput.
// Combinations are enumerated exhaustively and deterministically; there is
// no parallelism, sampling, or persistence of iteration state.
package odo
