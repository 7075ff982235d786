// Package verifier implements the retry-driven verification loop.
package verifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.trai.ch/blitz/internal/core/domain"
	"go.trai.ch/blitz/internal/core/ports"
	"go.trai.ch/zerr"
)

// Loop invokes the verification pipeline until it exits successfully.
//
// Only the first attempt rebuilds the pipeline's inputs. Every retry re-verifies
// the cached build. Without a configured bound the loop runs until success or
// until its context is cancelled.
type Loop struct {
	executor  ports.Executor
	reporter  ports.FailureReporter
	telemetry ports.Telemetry
	logger    ports.Logger

	policy domain.RetryPolicy
	newID  func() string
}

// Option configures a Loop.
type Option func(*Loop)

// WithPolicy replaces the whole retry policy.
func WithPolicy(policy domain.RetryPolicy) Option {
	return func(l *Loop) {
		l.policy = policy
	}
}

// WithMaxAttempts caps the number of invocations. Zero means unbounded.
func WithMaxAttempts(n int) Option {
	return func(l *Loop) {
		l.policy.MaxAttempts = n
	}
}

// WithAttemptTimeout cancels a single invocation after d. A timed out attempt is retried.
func WithAttemptTimeout(d time.Duration) Option {
	return func(l *Loop) {
		l.policy.AttemptTimeout = d
	}
}

// WithRetryDelay waits d between a failed attempt and the next one.
func WithRetryDelay(d time.Duration) Option {
	return func(l *Loop) {
		l.policy.RetryDelay = d
	}
}

// WithFailFastOnDeterministic stops the loop when the pipeline reports a deterministic failure.
func WithFailFastOnDeterministic(enabled bool) Option {
	return func(l *Loop) {
		l.policy.FailFastOnDeterministic = enabled
	}
}

// WithIDGenerator sets the generator for run IDs.
func WithIDGenerator(newID func() string) Option {
	return func(l *Loop) {
		l.newID = newID
	}
}

// NewLoop creates a new Loop.
func NewLoop(
	executor ports.Executor,
	reporter ports.FailureReporter,
	telemetry ports.Telemetry,
	logger ports.Logger,
	opts ...Option,
) *Loop {
	l := &Loop{
		executor:  executor,
		reporter:  reporter,
		telemetry: telemetry,
		logger:    logger,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Policy returns the effective retry policy.
func (l *Loop) Policy() domain.RetryPolicy {
	return l.policy
}

// Run drives the pipeline to a terminal state. The result lists every attempt
// made, including the last one, whatever the outcome.
func (l *Loop) Run(ctx context.Context, pipeline domain.PipelineSpec) (domain.VerificationResult, error) {
	result := domain.VerificationResult{
		RunID: l.newID(),
		State: domain.StateNeedsFullBuild,
	}

	if len(pipeline.Command) == 0 {
		result.State = domain.StateAbandoned
		err := zerr.Wrap(domain.ErrInvalidConfig, "pipeline command is required")
		return result, zerr.With(err, "field", "pipeline.cmd")
	}

	for i := 0; !result.State.IsTerminal(); i++ {
		if err := l.iterate(ctx, pipeline, &result, i); err != nil {
			return abandon(result, err)
		}
	}

	l.logger.Info(fmt.Sprintf("verified after %d attempt(s)", result.Iterations()))
	return result, nil
}

// iterate runs iteration i and advances result. A returned error abandons the run.
func (l *Loop) iterate(ctx context.Context, pipeline domain.PipelineSpec, result *domain.VerificationResult, i int) error {
	if err := ctx.Err(); err != nil {
		return zerr.Wrap(err, "verification cancelled")
	}

	attempt := domain.NewAttempt(i)
	result.State = attempt.State()

	attempt, err := l.runAttempt(ctx, pipeline, attempt)
	result.Attempts = append(result.Attempts, attempt)
	if err != nil {
		return err
	}

	if attempt.Succeeded() {
		result.State = domain.StateVerified
		return nil
	}

	if err := l.stopReason(*result, attempt); err != nil {
		return err
	}

	l.logger.Warn(fmt.Sprintf(
		"attempt %d failed with status %d, retrying with cached build", i, attempt.ExitStatus,
	))

	if err := l.wait(ctx); err != nil {
		return zerr.Wrap(err, "verification cancelled")
	}
	return nil
}

// runAttempt invokes the pipeline once. A returned error means the attempt could
// not be judged at all (cancellation or an environment failure); a failed
// pipeline is reported through the attempt's exit status instead.
func (l *Loop) runAttempt(
	ctx context.Context,
	pipeline domain.PipelineSpec,
	attempt domain.Attempt,
) (domain.Attempt, error) {
	if err := l.reporter.Clear(pipeline.FailureReport); err != nil {
		return attempt, err
	}

	attemptCtx := ctx
	if l.policy.AttemptTimeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, l.policy.AttemptTimeout)
		defer cancel()
	}

	cmd := pipeline.CommandFor(attempt)
	vCtx, vertex := l.telemetry.Record(attemptCtx, fmt.Sprintf("attempt %d: %s", attempt.Iteration, attempt.State()))

	l.logger.Info(fmt.Sprintf("attempt %d (%s): %s", attempt.Iteration, attempt.State(), cmd.String()))

	start := time.Now()
	err := l.executor.Execute(vCtx, cmd)
	attempt.Duration = time.Since(start)

	if err == nil {
		attempt.ExitStatus = 0
		vertex.Complete(nil)
		return attempt, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		vertex.Complete(err)
		return attempt, zerr.Wrap(ctxErr, "verification cancelled")
	}
	if errors.Is(err, domain.ErrCommandNotStarted) || errors.Is(err, domain.ErrEmptyCommand) {
		vertex.Log(domain.LogLevelError, "pipeline could not be started")
		vertex.Complete(err)
		return attempt, zerr.With(err, "iteration", attempt.Iteration)
	}

	attempt.ExitStatus = -1
	if code, ok := domain.ExitCodeOf(err); ok && code != 0 {
		attempt.ExitStatus = code
	}
	if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
		msg := fmt.Sprintf("attempt %d timed out after %s", attempt.Iteration, l.policy.AttemptTimeout)
		l.logger.Warn(msg)
		vertex.Log(domain.LogLevelWarn, msg)
	}

	report, rerr := l.reporter.Read(pipeline.FailureReport)
	if rerr != nil {
		l.logger.Error(rerr)
		report = domain.UnclassifiedFailure()
	}
	attempt.Failure = report

	vertex.Log(domain.LogLevelWarn, describeFailure(attempt))
	vertex.Complete(err)
	return attempt, nil
}

// describeFailure summarizes a failed attempt for its vertex.
func describeFailure(attempt domain.Attempt) string {
	msg := fmt.Sprintf("exit status %d, %s failure", attempt.ExitStatus, attempt.Failure.Category)
	if attempt.Failure.Reason != "" {
		msg += ": " + attempt.Failure.Reason
	}
	return msg
}

// stopReason returns the error ending the loop after a failed attempt, or nil to retry.
func (l *Loop) stopReason(result domain.VerificationResult, attempt domain.Attempt) error {
	if l.policy.FailFastOnDeterministic && attempt.Failure.Category == domain.FailureDeterministic {
		reason := attempt.Failure.Reason
		if reason == "" {
			reason = "no reason given"
		}
		err := zerr.Wrap(domain.ErrDeterministicFailure, reason)
		err = zerr.With(err, "iteration", attempt.Iteration)
		return zerr.With(err, domain.ExitCodeKey, attempt.ExitStatus)
	}
	if l.policy.Bounded() && result.Iterations() >= l.policy.MaxAttempts {
		err := zerr.Wrap(domain.ErrRetriesExhausted, "pipeline never exited successfully")
		err = zerr.With(err, "attempts", result.Iterations())
		return zerr.With(err, domain.ExitCodeKey, attempt.ExitStatus)
	}
	return nil
}

func (l *Loop) wait(ctx context.Context) error {
	if l.policy.RetryDelay <= 0 {
		return nil
	}
	timer := time.NewTimer(l.policy.RetryDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func abandon(result domain.VerificationResult, err error) (domain.VerificationResult, error) {
	result.State = domain.StateAbandoned
	return result, err
}
