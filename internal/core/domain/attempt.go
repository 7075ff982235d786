package domain

import (
	"time"
)

// LoopState is a state of the verification loop.
type LoopState string

const (
	// StateNeedsFullBuild is the initial state: the pipeline rebuilds every input.
	StateNeedsFullBuild LoopState = "needs-full-build"
	// StateRetryWithCachedBuild re-verifies using the inputs produced by the first iteration.
	StateRetryWithCachedBuild LoopState = "retry-with-cached-build"
	// StateVerified is terminal: the pipeline exited successfully.
	StateVerified LoopState = "verified"
	// StateAbandoned is terminal: the loop stopped without success because of a
	// configured bound, a fail-fast classification, an environment failure, or cancellation.
	StateAbandoned LoopState = "abandoned"
)

// IsTerminal reports whether no further attempts follow this state.
func (s LoopState) IsTerminal() bool {
	return s == StateVerified || s == StateAbandoned
}

// Attempt is one invocation of the verification pipeline.
type Attempt struct {
	Iteration       int
	RebuildRequired bool
	ExitStatus      int
	Duration        time.Duration
	Failure         FailureReport
}

// NewAttempt creates the attempt for iteration i.
// Only iteration 0 rebuilds; every later iteration reuses the inputs it produced.
func NewAttempt(i int) Attempt {
	return Attempt{
		Iteration:       i,
		RebuildRequired: i == 0,
	}
}

// State returns the loop state an attempt runs in.
func (a Attempt) State() LoopState {
	if a.RebuildRequired {
		return StateNeedsFullBuild
	}
	return StateRetryWithCachedBuild
}

// Succeeded reports whether the pipeline exited with status 0.
func (a Attempt) Succeeded() bool {
	return a.ExitStatus == 0
}

// RetryPolicy bounds the verification loop. The zero value retries forever
// without delay or per-attempt timeout.
type RetryPolicy struct {
	// MaxAttempts caps the number of invocations. Zero means unbounded.
	MaxAttempts int
	// AttemptTimeout cancels a single invocation after this long. Zero disables it.
	AttemptTimeout time.Duration
	// RetryDelay waits between a failed attempt and the next one.
	RetryDelay time.Duration
	// FailFastOnDeterministic stops the loop when the pipeline reports a deterministic failure.
	FailFastOnDeterministic bool
}

// Bounded reports whether the policy caps the number of attempts.
func (p RetryPolicy) Bounded() bool {
	return p.MaxAttempts > 0
}

// VerificationResult summarizes a finished verification loop.
type VerificationResult struct {
	RunID    string
	State    LoopState
	Attempts []Attempt
}

// Iterations returns how many times the pipeline was invoked.
func (r VerificationResult) Iterations() int {
	return len(r.Attempts)
}

// FinalIteration returns the index of the last attempt, or -1 if none ran.
func (r VerificationResult) FinalIteration() int {
	return len(r.Attempts) - 1
}
