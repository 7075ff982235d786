package rustup_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/blitz/internal/adapters/rustup"
	"go.trai.ch/blitz/internal/adapters/telemetry"
	"go.trai.ch/blitz/internal/core/domain"
	"go.trai.ch/blitz/internal/core/ports/mocks"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"
)

func TestInstaller_EnsureToolchain(t *testing.T) {
	ctrl := gomock.NewController(t)
	executor := mocks.NewMockExecutor(ctrl)

	var got [][]string
	executor.EXPECT().Execute(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, cmd *domain.Command) error {
			got = append(got, cmd.Args)
			return nil
		}).Times(1)

	installer := rustup.NewInstaller(executor, telemetry.NewNoOp(), "")

	require.NoError(t, installer.EnsureToolchain(context.Background(), "nightly-2023-06-30"))
	// Second call is served from memory.
	require.NoError(t, installer.EnsureToolchain(context.Background(), "nightly-2023-06-30"))

	assert.Equal(t, [][]string{{"rustup", "toolchain", "install", "nightly-2023-06-30"}}, got)
}

func TestInstaller_EnsureComponents(t *testing.T) {
	ctrl := gomock.NewController(t)
	executor := mocks.NewMockExecutor(ctrl)

	var got [][]string
	executor.EXPECT().Execute(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, cmd *domain.Command) error {
			got = append(got, cmd.Args)
			return nil
		}).Times(2)

	installer := rustup.NewInstaller(executor, telemetry.NewNoOp(), "my-rustup")

	err := installer.EnsureComponents(context.Background(), "nightly-2023-06-30", []string{"llvm-tools", "rust-src"})
	require.NoError(t, err)
	err = installer.EnsureComponents(context.Background(), "nightly-2023-06-30", []string{"rust-src"})
	require.NoError(t, err)

	assert.Equal(t, [][]string{
		{"my-rustup", "component", "add", "llvm-tools", "--toolchain=nightly-2023-06-30"},
		{"my-rustup", "component", "add", "rust-src", "--toolchain=nightly-2023-06-30"},
	}, got)
}

func TestInstaller_ToolchainFailureKeepsExitCode(t *testing.T) {
	ctrl := gomock.NewController(t)
	executor := mocks.NewMockExecutor(ctrl)

	cmdErr := zerr.With(zerr.Wrap(domain.ErrCommandFailed, "install"), domain.ExitCodeKey, 1)
	executor.EXPECT().Execute(gomock.Any(), gomock.Any()).Return(cmdErr).Times(2)

	installer := rustup.NewInstaller(executor, telemetry.NewNoOp(), "")

	err := installer.EnsureToolchain(context.Background(), "nightly-2023-06-30")
	require.ErrorIs(t, err, domain.ErrToolchainInstallFailed)
	code, ok := domain.ExitCodeOf(err)
	require.True(t, ok)
	assert.Equal(t, 1, code)

	// Failures are not remembered.
	err = installer.EnsureToolchain(context.Background(), "nightly-2023-06-30")
	require.ErrorIs(t, err, domain.ErrToolchainInstallFailed)
}

func TestInstaller_ComponentFailureStops(t *testing.T) {
	ctrl := gomock.NewController(t)
	executor := mocks.NewMockExecutor(ctrl)

	cmdErr := zerr.With(zerr.Wrap(domain.ErrCommandFailed, "add"), domain.ExitCodeKey, 2)
	executor.EXPECT().Execute(gomock.Any(), gomock.Any()).Return(cmdErr).Times(1)

	installer := rustup.NewInstaller(executor, telemetry.NewNoOp(), "")

	err := installer.EnsureComponents(context.Background(), "nightly-2023-06-30", []string{"a", "b"})
	require.ErrorIs(t, err, domain.ErrComponentInstallFailed)

	var zErr *zerr.Error
	require.ErrorAs(t, err, &zErr)
	assert.Equal(t, "a", zErr.Metadata()["component"])
}

func TestInstaller_ConcurrentRequestsCollapse(t *testing.T) {
	ctrl := gomock.NewController(t)
	executor := mocks.NewMockExecutor(ctrl)

	release := make(chan struct{})
	executor.EXPECT().Execute(gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, *domain.Command) error {
			<-release
			return nil
		}).Times(1)

	installer := rustup.NewInstaller(executor, telemetry.NewNoOp(), "")

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for n := range errs {
		wg.Go(func() {
			errs[n] = installer.EnsureToolchain(context.Background(), "nightly-2023-06-30")
		})
	}
	close(release)
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
}

func TestInstaller_RecordsVertex(t *testing.T) {
	ctrl := gomock.NewController(t)
	executor := mocks.NewMockExecutor(ctrl)
	tel := mocks.NewMockTelemetry(ctrl)
	vertex := mocks.NewMockVertex(ctrl)

	gomock.InOrder(
		tel.EXPECT().Record(gomock.Any(), "install toolchain nightly-2023-06-30").
			Return(context.Background(), vertex),
		executor.EXPECT().Execute(gomock.Any(), gomock.Any()).Return(nil),
		vertex.EXPECT().Complete(nil),
		tel.EXPECT().Record(gomock.Any(), "install toolchain nightly-2023-06-30").
			Return(context.Background(), vertex),
		vertex.EXPECT().Cached(),
	)

	installer := rustup.NewInstaller(executor, tel, "")
	require.NoError(t, installer.EnsureToolchain(context.Background(), "nightly-2023-06-30"))
	require.NoError(t, installer.EnsureToolchain(context.Background(), "nightly-2023-06-30"))
}
