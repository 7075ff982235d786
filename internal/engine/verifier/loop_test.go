package verifier_test

import (
	"context"
	"errors"
	"slices"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/blitz/internal/adapters/telemetry"
	"go.trai.ch/blitz/internal/core/domain"
	"go.trai.ch/blitz/internal/core/ports"
	"go.trai.ch/blitz/internal/core/ports/mocks"
	"go.trai.ch/blitz/internal/engine/verifier"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"
)

const reportPath = "out/failure.yaml"

// scriptedExecutor returns the scripted results in order and repeats the last one.
type scriptedExecutor struct {
	results []func(ctx context.Context) error
	calls   [][]string
}

func (e *scriptedExecutor) Execute(ctx context.Context, cmd *domain.Command) error {
	e.calls = append(e.calls, slices.Clone(cmd.Args))
	i := min(len(e.calls)-1, len(e.results)-1)
	return e.results[i](ctx)
}

func pass(context.Context) error { return nil }

func fail(code int) func(context.Context) error {
	return func(context.Context) error {
		err := zerr.Wrap(domain.ErrCommandFailed, "verify")
		return zerr.With(err, domain.ExitCodeKey, code)
	}
}

func blockUntilDone(ctx context.Context) error {
	<-ctx.Done()
	return zerr.Wrap(ctx.Err(), "command interrupted")
}

func testPipeline() domain.PipelineSpec {
	return domain.PipelineSpec{
		Command:       []string{"./configure-and-test.sh"},
		Preset:        "gekko",
		Release:       true,
		Flags:         domain.DefaultPipelineFlags(),
		FailureReport: reportPath,
	}
}

func quietLogger(ctrl *gomock.Controller) *mocks.MockLogger {
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Debug(gomock.Any()).AnyTimes()
	log.EXPECT().Info(gomock.Any()).AnyTimes()
	log.EXPECT().Warn(gomock.Any()).AnyTimes()
	return log
}

func unclassifiedReporter(ctrl *gomock.Controller) *mocks.MockFailureReporter {
	rep := mocks.NewMockFailureReporter(ctrl)
	rep.EXPECT().Clear(reportPath).Return(nil).AnyTimes()
	rep.EXPECT().Read(reportPath).Return(domain.UnclassifiedFailure(), nil).AnyTimes()
	return rep
}

func newLoop(t *testing.T, exec *scriptedExecutor, opts ...verifier.Option) *verifier.Loop {
	t.Helper()
	ctrl := gomock.NewController(t)
	return verifier.NewLoop(
		exec,
		unclassifiedReporter(ctrl),
		telemetry.NewNoOp(),
		quietLogger(ctrl),
		append([]verifier.Option{verifier.WithIDGenerator(func() string { return "run-1" })}, opts...)...,
	)
}

func TestLoop_SucceedsOnFirstAttempt(t *testing.T) {
	t.Parallel()

	exec := &scriptedExecutor{results: []func(context.Context) error{pass}}
	result, err := newLoop(t, exec).Run(context.Background(), testPipeline())

	require.NoError(t, err)
	assert.Equal(t, "run-1", result.RunID)
	assert.Equal(t, domain.StateVerified, result.State)
	assert.Equal(t, 0, result.FinalIteration())
	require.Len(t, exec.calls, 1)
	assert.Equal(t,
		[]string{"./configure-and-test.sh", "--release", "--preset=gekko"},
		exec.calls[0],
	)
}

func TestLoop_RetriesWithCachedBuildUntilSuccess(t *testing.T) {
	t.Parallel()

	const failures = 3
	exec := &scriptedExecutor{results: []func(context.Context) error{fail(1), fail(1), fail(2), pass}}
	result, err := newLoop(t, exec).Run(context.Background(), testPipeline())

	require.NoError(t, err)
	assert.Equal(t, domain.StateVerified, result.State)
	assert.Equal(t, failures, result.FinalIteration())
	require.Len(t, exec.calls, failures+1)

	assert.NotContains(t, exec.calls[0], "--skip-rebuild")
	for i, args := range exec.calls[1:] {
		assert.Equal(t, "--skip-rebuild", args[len(args)-1], "iteration %d", i+1)
	}

	assert.True(t, result.Attempts[0].RebuildRequired)
	assert.Equal(t, 2, result.Attempts[2].ExitStatus)
	for _, a := range result.Attempts[1:] {
		assert.False(t, a.RebuildRequired)
	}
}

func TestLoop_UnboundedRunsUntilCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	exec := &scriptedExecutor{}
	exec.results = []func(context.Context) error{func(ctx context.Context) error {
		if len(exec.calls) == 50 {
			cancel()
		}
		return fail(1)(ctx)
	}}

	result, err := newLoop(t, exec).Run(ctx, testPipeline())

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, domain.StateAbandoned, result.State)
	assert.Equal(t, 50, result.Iterations())
}

func TestLoop_MaxAttemptsExhausted(t *testing.T) {
	t.Parallel()

	exec := &scriptedExecutor{results: []func(context.Context) error{fail(7)}}
	result, err := newLoop(t, exec, verifier.WithMaxAttempts(3)).Run(context.Background(), testPipeline())

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRetriesExhausted)
	assert.Equal(t, domain.StateAbandoned, result.State)
	assert.Equal(t, 3, result.Iterations())
	assert.Len(t, exec.calls, 3)

	code, ok := domain.ExitCodeOf(err)
	require.True(t, ok)
	assert.Equal(t, 7, code)
}

func TestLoop_DeterministicFailure(t *testing.T) {
	t.Parallel()

	deterministic := domain.FailureReport{Category: domain.FailureDeterministic, Reason: "assertion in patch 12"}

	t.Run("fail fast stops after first report", func(t *testing.T) {
		t.Parallel()
		ctrl := gomock.NewController(t)

		rep := mocks.NewMockFailureReporter(ctrl)
		rep.EXPECT().Clear(reportPath).Return(nil).Times(1)
		rep.EXPECT().Read(reportPath).Return(deterministic, nil).Times(1)

		exec := &scriptedExecutor{results: []func(context.Context) error{fail(1), pass}}
		loop := verifier.NewLoop(exec, rep, telemetry.NewNoOp(), quietLogger(ctrl),
			verifier.WithFailFastOnDeterministic(true))

		result, err := loop.Run(context.Background(), testPipeline())

		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrDeterministicFailure)
		assert.Contains(t, err.Error(), "assertion in patch 12")
		assert.Equal(t, domain.StateAbandoned, result.State)
		require.Len(t, result.Attempts, 1)
		assert.Equal(t, domain.FailureDeterministic, result.Attempts[0].Failure.Category)
	})

	t.Run("retried when fail fast is off", func(t *testing.T) {
		t.Parallel()
		ctrl := gomock.NewController(t)

		rep := mocks.NewMockFailureReporter(ctrl)
		rep.EXPECT().Clear(reportPath).Return(nil).Times(2)
		rep.EXPECT().Read(reportPath).Return(deterministic, nil).Times(1)

		exec := &scriptedExecutor{results: []func(context.Context) error{fail(1), pass}}
		loop := verifier.NewLoop(exec, rep, telemetry.NewNoOp(), quietLogger(ctrl))

		result, err := loop.Run(context.Background(), testPipeline())

		require.NoError(t, err)
		assert.Equal(t, domain.StateVerified, result.State)
		assert.Equal(t, 2, result.Iterations())
	})
}

func TestLoop_EnvironmentFailureAbandons(t *testing.T) {
	t.Parallel()

	exec := &scriptedExecutor{results: []func(context.Context) error{func(context.Context) error {
		return zerr.Wrap(domain.ErrCommandNotStarted, "exec: no such file or directory")
	}}}
	result, err := newLoop(t, exec).Run(context.Background(), testPipeline())

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrCommandNotStarted)
	assert.Equal(t, domain.StateAbandoned, result.State)
	assert.Len(t, exec.calls, 1)
}

func TestLoop_EmptyPipelineCommand(t *testing.T) {
	t.Parallel()

	exec := &scriptedExecutor{results: []func(context.Context) error{pass}}
	pipeline := testPipeline()
	pipeline.Command = nil

	result, err := newLoop(t, exec).Run(context.Background(), pipeline)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
	assert.Equal(t, domain.StateAbandoned, result.State)
	assert.Empty(t, result.Attempts)
	assert.Empty(t, exec.calls)
}

func TestLoop_ClearFailureAbandons(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	clearErr := errors.New("permission denied")
	rep := mocks.NewMockFailureReporter(ctrl)
	rep.EXPECT().Clear(reportPath).Return(clearErr)

	exec := &scriptedExecutor{results: []func(context.Context) error{pass}}
	loop := verifier.NewLoop(exec, rep, telemetry.NewNoOp(), quietLogger(ctrl))

	result, err := loop.Run(context.Background(), testPipeline())

	require.ErrorIs(t, err, clearErr)
	assert.Equal(t, domain.StateAbandoned, result.State)
	assert.Empty(t, exec.calls)
}

func TestLoop_UnreadableReportIsUnclassified(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	rep := mocks.NewMockFailureReporter(ctrl)
	rep.EXPECT().Clear(reportPath).Return(nil).AnyTimes()
	rep.EXPECT().Read(reportPath).Return(domain.FailureReport{}, domain.ErrReportParseFailed)

	log := quietLogger(ctrl)
	log.EXPECT().Error(gomock.Any()).Times(1)

	exec := &scriptedExecutor{results: []func(context.Context) error{fail(1), pass}}
	loop := verifier.NewLoop(exec, rep, telemetry.NewNoOp(), log, verifier.WithFailFastOnDeterministic(true))

	result, err := loop.Run(context.Background(), testPipeline())

	require.NoError(t, err)
	assert.Equal(t, domain.FailureUnknown, result.Attempts[0].Failure.Category)
}

func TestLoop_AttemptTimeoutIsRetried(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		exec := &scriptedExecutor{results: []func(context.Context) error{blockUntilDone, pass}}
		loop := newLoop(t, exec, verifier.WithAttemptTimeout(time.Minute))

		start := time.Now()
		result, err := loop.Run(context.Background(), testPipeline())

		require.NoError(t, err)
		assert.Equal(t, domain.StateVerified, result.State)
		require.Len(t, result.Attempts, 2)
		assert.Equal(t, -1, result.Attempts[0].ExitStatus)
		assert.Equal(t, time.Minute, result.Attempts[0].Duration)
		assert.Equal(t, time.Minute, time.Since(start))
	})
}

func TestLoop_RetryDelay(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		exec := &scriptedExecutor{results: []func(context.Context) error{fail(1), fail(1), pass}}
		loop := newLoop(t, exec, verifier.WithRetryDelay(10*time.Second))

		start := time.Now()
		result, err := loop.Run(context.Background(), testPipeline())

		require.NoError(t, err)
		assert.Equal(t, 3, result.Iterations())
		assert.Equal(t, 20*time.Second, time.Since(start))
	})
}

func TestLoop_CancelDuringRetryDelay(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		exec := &scriptedExecutor{results: []func(context.Context) error{fail(1)}}
		loop := newLoop(t, exec, verifier.WithRetryDelay(time.Hour))

		result, err := loop.Run(ctx, testPipeline())

		require.Error(t, err)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Equal(t, domain.StateAbandoned, result.State)
		assert.Equal(t, 1, result.Iterations())
	})
}

func TestLoop_PolicyOptions(t *testing.T) {
	t.Parallel()

	loop := newLoop(t, &scriptedExecutor{},
		verifier.WithPolicy(domain.RetryPolicy{MaxAttempts: 9, RetryDelay: time.Second}),
		verifier.WithMaxAttempts(4),
		verifier.WithAttemptTimeout(time.Hour),
	)

	assert.Equal(t, domain.RetryPolicy{
		MaxAttempts:    4,
		AttemptTimeout: time.Hour,
		RetryDelay:     time.Second,
	}, loop.Policy())
}

// recordsVertex makes the mock telemetry hand out v for the attempt named name.
func recordsVertex(tel *mocks.MockTelemetry, name string, v ports.Vertex) *gomock.Call {
	return tel.EXPECT().Record(gomock.Any(), name).DoAndReturn(
		func(ctx context.Context, _ string) (context.Context, ports.Vertex) {
			return ports.ContextWithVertex(ctx, v), v
		},
	)
}

func TestLoop_AttemptOutcomeOnVertex(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	rep := mocks.NewMockFailureReporter(ctrl)
	rep.EXPECT().Clear(reportPath).Return(nil).Times(2)
	rep.EXPECT().Read(reportPath).Return(domain.FailureReport{
		Category: domain.FailureTransient,
		Reason:   "port 5555 in use",
	}, nil)

	tel := mocks.NewMockTelemetry(ctrl)
	first := mocks.NewMockVertex(ctrl)
	second := mocks.NewMockVertex(ctrl)
	gomock.InOrder(
		recordsVertex(tel, "attempt 0: needs-full-build", first),
		first.EXPECT().Log(domain.LogLevelWarn, "exit status 3, transient failure: port 5555 in use"),
		first.EXPECT().Complete(gomock.Not(gomock.Nil())),
		recordsVertex(tel, "attempt 1: retry-with-cached-build", second),
		second.EXPECT().Complete(nil),
	)

	exec := &scriptedExecutor{results: []func(context.Context) error{fail(3), pass}}
	loop := verifier.NewLoop(exec, rep, tel, quietLogger(ctrl))

	result, err := loop.Run(context.Background(), testPipeline())

	require.NoError(t, err)
	assert.Equal(t, domain.StateVerified, result.State)
	assert.True(t, result.State.IsTerminal())
}

func TestLoop_EnvironmentFailureOnVertex(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	tel := mocks.NewMockTelemetry(ctrl)
	v := mocks.NewMockVertex(ctrl)
	gomock.InOrder(
		recordsVertex(tel, "attempt 0: needs-full-build", v),
		v.EXPECT().Log(domain.LogLevelError, "pipeline could not be started"),
		v.EXPECT().Complete(gomock.Not(gomock.Nil())),
	)

	exec := &scriptedExecutor{results: []func(context.Context) error{func(context.Context) error {
		return zerr.Wrap(domain.ErrCommandNotStarted, "exec: no such file or directory")
	}}}
	loop := verifier.NewLoop(exec, unclassifiedReporter(ctrl), tel, quietLogger(ctrl))

	result, err := loop.Run(context.Background(), testPipeline())

	require.ErrorIs(t, err, domain.ErrCommandNotStarted)
	assert.Equal(t, domain.StateAbandoned, result.State)
	assert.True(t, result.State.IsTerminal())
}
