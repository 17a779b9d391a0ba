package odo

import (
	"iter"
	"sync"
)

// Argument sequences are plain iter.Seq values: lazy, possibly infinite,
// and re-iterable on demand. The engine materializes a fresh iterator each
// time it wraps a parameter back to its first argument, so sequences with
// side effects observe those effects once per full wrap. Sources that must
// run their side effects only once should be wrapped with Once.

// Values returns a sequence over a fixed list of arguments.
func Values[T any](values ...T) iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, v := range values {
			if !yield(v) {
				return
			}
		}
	}
}

// IntRange returns a sequence over the integers from lo to hi inclusive.
func IntRange(lo, hi int) iter.Seq[int] {
	return func(yield func(int) bool) {
		for v := lo; v <= hi; v++ {
			if !yield(v) {
				return
			}
		}
	}
}

// Once returns a sequence whose elements are computed by f exactly once,
// on first iteration, and reused for every re-iteration. Use it for
// argument sources whose computation is expensive or side-effecting.
func Once[T any](f func() []T) iter.Seq[T] {
	var once sync.Once
	var values []T
	return func(yield func(T) bool) {
		once.Do(func() { values = f() })
		for _, v := range values {
			if !yield(v) {
				return
			}
		}
	}
}
