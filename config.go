package odo

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Block is the caller's code, executed once per argument combination. A
// returned error is an ordinary per-iteration failure, routed through the
// configured failure handler; it does not stop enumeration unless the
// handler requests an early break.
type Block func(*Scope) error

// Decorator wraps the execution of one iteration. The decorator must invoke
// iteration exactly once, before or after any of its own logic; invoking it
// zero or multiple times is a configuration error that aborts the run.
// The error returned by the decorator is the iteration's failure outcome.
type Decorator func(iteration func() error) error

// FailureHandler is invoked after each failing iteration. It may mutate the
// context's RecordFailure and BreakEarly fields. A non-nil returned error is
// a configuration logic error and propagates out of Run immediately.
type FailureHandler func(*FailureContext) error

// CompletionHandler is invoked exactly once at the end of a run, whether or
// not any iteration failed. It is the last chance to turn accumulated
// failures into a reportable error; if it returns nil the run ends
// silently. A returned error propagates out of Run unwrapped.
type CompletionHandler func(*Completion) error

// Observer receives one record per iteration, after the iteration's outcome
// is known. Used by trace recorders and conformance harnesses.
type Observer func(IterationRecord)

// FailureContext describes one failing iteration to the failure handler.
type FailureContext struct {
	// Err is the failure the iteration produced.
	Err error

	// Arguments holds the (name, displayed value) of every parameter
	// declared at the time of failure, in declaration order.
	Arguments []ArgumentValue

	// Iteration is the one-based index of the failing iteration.
	Iteration uint64

	// Failures counts failing iterations so far, including this one.
	Failures uint64

	// RecordFailure requests that this failure be added to the
	// accumulator for the completion handler and the aggregate error.
	// Preset to true; the recorded-failure cap still applies.
	RecordFailure bool

	// BreakEarly requests that enumeration stop after this iteration
	// without trying further combinations.
	BreakEarly bool
}

// Completion carries the final counts and recorded failures to the
// completion handler.
//
// Iterations counts every execution slot, including iterations skipped
// because a parameter's argument sequence was empty; Skipped reports those
// separately. The product of unconditionally-declared sequence sizes equals
// Iterations minus Skipped.
type Completion struct {
	// Iterations is the total number of iterations run.
	Iterations uint64

	// Skipped counts iterations abandoned because a declared parameter
	// had no arguments available.
	Skipped uint64

	// Failures is the total number of failing iterations.
	Failures uint64

	// CompletedEarly is true when an early break was requested while
	// further combinations remained untried.
	CompletedEarly bool

	// Recorded holds the failures selected for recording, in order.
	Recorded []Failure

	// RecordedTruncated is true when not every failure was recorded.
	RecordedTruncated bool
}

// IterationRecord is the per-iteration trace record handed to observers.
type IterationRecord struct {
	// RunToken correlates records belonging to one run.
	RunToken string `json:"run_token"`

	// Index is the one-based iteration index.
	Index uint64 `json:"index"`

	// Outcome is "ok", "failed", or "skipped".
	Outcome string `json:"outcome"`

	// Arguments are the declared parameters at the end of the iteration.
	Arguments []ArgumentValue `json:"arguments,omitempty"`

	// Error is the failure message for failed iterations.
	Error string `json:"error,omitempty"`
}

// Iteration outcomes reported to observers.
const (
	OutcomeOK      = "ok"
	OutcomeFailed  = "failed"
	OutcomeSkipped = "skipped"
)

// TokenGenerator produces run correlation tokens.
// Implemented by UUIDv7Generator (production) and FixedGenerator (tests).
type TokenGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 run tokens.
//
// UUIDv7 embeds a timestamp in the most significant bits, making tokens
// sortable by creation time, which keeps recorded traces in run order.
//
// Thread-safety: stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
// Panics if UUID generation fails (should never happen in practice).
func (g UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedGenerator returns predetermined run tokens for testing. This enables
// deterministic trace output and golden comparison.
type FixedGenerator struct {
	mu     sync.Mutex
	tokens []string
	idx    int
}

// NewFixedGenerator creates a generator that returns tokens in order.
// Generate panics once all tokens have been consumed; exhaustion means the
// test ran more runs than it planned for.
func NewFixedGenerator(tokens ...string) *FixedGenerator {
	return &FixedGenerator{tokens: tokens}
}

// Generate returns the next predetermined token.
func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.idx >= len(g.tokens) {
		panic("odo: FixedGenerator exhausted")
	}
	t := g.tokens[g.idx]
	g.idx++
	return t
}

// DefaultMaxRecorded is the number of failures the default configuration
// records for the completion handler and the aggregate error.
const DefaultMaxRecorded = 10

// config bundles the overridable behaviors of one run. Immutable once the
// run starts; options copy replacements over the defaults.
type config struct {
	decorator   Decorator
	onFailure   FailureHandler
	onComplete  CompletionHandler
	observer    Observer
	maxRecorded int
	tokens      TokenGenerator
	logger      *slog.Logger
}

// Option overrides one behavior of a run's configuration.
type Option func(*config)

// WithDecorator sets the wrapper invoked around each iteration.
func WithDecorator(d Decorator) Option {
	return func(c *config) { c.decorator = d }
}

// WithOnFailure sets the handler invoked after each failing iteration.
func WithOnFailure(h FailureHandler) Option {
	return func(c *config) { c.onFailure = h }
}

// WithOnComplete sets the handler invoked exactly once at the end of a run.
func WithOnComplete(h CompletionHandler) Option {
	return func(c *config) { c.onComplete = h }
}

// WithObserver sets a per-iteration trace observer.
func WithObserver(o Observer) Option {
	return func(c *config) { c.observer = o }
}

// WithMaxRecorded caps how many failures the accumulator keeps. Negative
// means unlimited.
func WithMaxRecorded(n int) Option {
	return func(c *config) { c.maxRecorded = n }
}

// WithTokenGenerator sets the run token source.
// Use NewFixedGenerator for deterministic tests.
func WithTokenGenerator(g TokenGenerator) Option {
	return func(c *config) { c.tokens = g }
}

// WithLogger sets the structured logger for engine debug output.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// newConfig applies options over the documented defaults: a pass-through
// decorator, a failure handler that records every failure (capped at
// DefaultMaxRecorded) and never breaks early, and a completion handler that
// raises the aggregate error if any failure occurred.
func newConfig(opts ...Option) *config {
	c := &config{
		decorator:   func(iteration func() error) error { return iteration() },
		onFailure:   defaultOnFailure,
		onComplete:  DefaultOnComplete,
		maxRecorded: DefaultMaxRecorded,
		tokens:      UUIDv7Generator{},
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// defaultOnFailure records the failure and keeps enumerating.
func defaultOnFailure(f *FailureContext) error {
	f.RecordFailure = true
	return nil
}

// DefaultOnComplete raises the aggregate error when any iteration failed,
// and otherwise ends the run silently. Custom completion handlers can call
// it to preserve the default reporting after their own logic.
func DefaultOnComplete(c *Completion) error {
	if c.Failures == 0 {
		return nil
	}
	return &FailedCasesError{
		Failures:       c.Failures,
		Iterations:     c.Iterations,
		CompletedEarly: c.CompletedEarly,
		Recorded:       c.Recorded,
		Truncated:      c.RecordedTruncated,
	}
}
