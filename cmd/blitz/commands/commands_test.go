package commands_test

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/blitz/cmd/blitz/commands"
	"go.trai.ch/blitz/internal/adapters/telemetry"
	"go.trai.ch/blitz/internal/app"
	"go.trai.ch/blitz/internal/build"
	"go.trai.ch/blitz/internal/core/domain"
	"go.trai.ch/blitz/internal/core/ports/mocks"
	"go.trai.ch/blitz/internal/engine/verifier"
	"go.uber.org/mock/gomock"
)

type cliMocks struct {
	loader   *mocks.MockConfigLoader
	executor *mocks.MockExecutor
	reporter *mocks.MockFailureReporter
}

func newCLI(t *testing.T, opts ...verifier.Option) (*commands.CLI, *cliMocks, *bytes.Buffer) {
	t.Helper()
	ctrl := gomock.NewController(t)

	m := &cliMocks{
		loader:   mocks.NewMockConfigLoader(ctrl),
		executor: mocks.NewMockExecutor(ctrl),
		reporter: mocks.NewMockFailureReporter(ctrl),
	}
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Debug(gomock.Any()).AnyTimes()
	log.EXPECT().Info(gomock.Any()).AnyTimes()
	log.EXPECT().Warn(gomock.Any()).AnyTimes()

	a := app.New(m.loader, log, m.executor, nil, nil, m.reporter, telemetry.NewNoOp(), nil, nil, nil).
		WithLoopOptions(opts...)

	out := &bytes.Buffer{}
	cli := commands.New(a)
	cli.SetOutput(out)
	return cli, m, out
}

func pipelineConfig(dir string) *domain.Config {
	return &domain.Config{
		StateDir: filepath.Join(dir, ".blitz"),
		Release:  domain.NewReleaseInfo("8.1.37", 59, 'b', "https://example.invalid/blitz"),
		Pipeline: domain.PipelineSpec{
			Command: []string{"./regress.sh"},
			Flags:   domain.DefaultPipelineFlags(),
		},
	}
}

func TestVerify_UsesConfigFlag(t *testing.T) {
	t.Parallel()
	cli, m, out := newCLI(t, verifier.WithIDGenerator(func() string { return "run-7" }))

	m.loader.EXPECT().Load("custom.yaml").Return(pipelineConfig(t.TempDir()), nil)
	m.reporter.EXPECT().Clear(gomock.Any()).Return(nil)
	m.executor.EXPECT().Execute(gomock.Any(), gomock.Any()).Return(nil)

	cli.SetArgs([]string{"-c", "custom.yaml", "verify"})
	require.NoError(t, cli.Execute(context.Background()))

	assert.Equal(t, "verified after 1 attempt(s) (run run-7)\n", out.String())
}

func TestVerify_FlagOverrides(t *testing.T) {
	t.Parallel()
	cli, m, _ := newCLI(t)

	cfg := pipelineConfig(t.TempDir())
	cfg.Policy = domain.RetryPolicy{MaxAttempts: 5, AttemptTimeout: time.Hour}
	m.loader.EXPECT().Load(commands.DefaultConfigPath).Return(cfg, nil)
	m.reporter.EXPECT().Clear(gomock.Any()).Return(nil)
	m.reporter.EXPECT().Read(gomock.Any()).Return(domain.UnclassifiedFailure(), nil)
	m.executor.EXPECT().Execute(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ *domain.Command) error {
			deadline, ok := ctx.Deadline()
			require.True(t, ok)
			assert.WithinDuration(t, time.Now().Add(time.Minute), deadline, 10*time.Second)
			return domain.ErrCommandFailed
		},
	)

	cli.SetArgs([]string{"verify", "--max-attempts", "1", "--attempt-timeout", "1m"})
	err := cli.Execute(context.Background())

	require.ErrorIs(t, err, domain.ErrRetriesExhausted)
}

func TestVersion(t *testing.T) {
	t.Parallel()

	t.Run("with release record", func(t *testing.T) {
		t.Parallel()
		cli, m, out := newCLI(t)
		m.loader.EXPECT().Load(commands.DefaultConfigPath).Return(pipelineConfig(t.TempDir()), nil)

		cli.SetArgs([]string{"version"})
		require.NoError(t, cli.Execute(context.Background()))

		assert.Equal(t,
			"blitz version "+build.String()+"\n"+
				"release 8.1.37 blitz-59\n"+
				"branch b https://example.invalid/blitz\n",
			out.String(),
		)
	})

	t.Run("without branch", func(t *testing.T) {
		t.Parallel()
		cli, m, out := newCLI(t)
		cfg := pipelineConfig(t.TempDir())
		cfg.Release = domain.NewReleaseInfo("8.1.37", 59, 0, "https://example.invalid/blitz")
		m.loader.EXPECT().Load(commands.DefaultConfigPath).Return(cfg, nil)

		cli.SetArgs([]string{"version"})
		require.NoError(t, cli.Execute(context.Background()))

		assert.Equal(t, "blitz version "+build.String()+"\nrelease 8.1.37 blitz-59\n", out.String())
		assert.NotContains(t, out.String(), "\x00")
	})

	t.Run("branch without url", func(t *testing.T) {
		t.Parallel()
		cli, m, out := newCLI(t)
		cfg := pipelineConfig(t.TempDir())
		cfg.Release = domain.NewReleaseInfo("8.1.37", 59, 'b', "")
		m.loader.EXPECT().Load(commands.DefaultConfigPath).Return(cfg, nil)

		cli.SetArgs([]string{"version"})
		require.NoError(t, cli.Execute(context.Background()))

		assert.Equal(t, "blitz version "+build.String()+"\nrelease 8.1.37 blitz-59\nbranch b\n", out.String())
	})

	t.Run("without config", func(t *testing.T) {
		t.Parallel()
		cli, m, out := newCLI(t)
		m.loader.EXPECT().Load(commands.DefaultConfigPath).Return(nil, domain.ErrConfigReadFailed)

		cli.SetArgs([]string{"version"})
		require.NoError(t, cli.Execute(context.Background()))

		assert.Equal(t, "blitz version "+build.String()+"\n", out.String())
	})
}

func TestClean(t *testing.T) {
	t.Parallel()
	cli, m, _ := newCLI(t)

	cfg := pipelineConfig(t.TempDir())
	m.loader.EXPECT().Load(commands.DefaultConfigPath).Return(cfg, nil)

	cli.SetArgs([]string{"clean"})
	require.NoError(t, cli.Execute(context.Background()))
	assert.NoDirExists(t, cfg.StateDir)
}

func TestRoot_Help(t *testing.T) {
	t.Parallel()
	cli, _, out := newCLI(t)

	cli.SetArgs([]string{"--help"})
	require.NoError(t, cli.Execute(context.Background()))

	for _, sub := range []string{"build", "verify", "version", "clean"} {
		assert.Contains(t, out.String(), sub)
	}
}

func TestRoot_RejectsArguments(t *testing.T) {
	t.Parallel()
	cli, _, _ := newCLI(t)

	cli.SetArgs([]string{"build", "extra"})
	require.Error(t, cli.Execute(context.Background()))
}
