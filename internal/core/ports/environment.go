package ports

import (
	"context"
)

// EnvironmentChecker ensures the pinned toolchain environment exists before a build.
//
// Implementations must be idempotent: ensuring an already present toolchain or
// component succeeds without side effects.
//
//go:generate go run go.uber.org/mock/mockgen -source=environment.go -destination=mocks/mock_environment.go -package=mocks
type EnvironmentChecker interface {
	// EnsureToolchain installs the exact toolchain channel if it is missing.
	EnsureToolchain(ctx context.Context, channel string) error

	// EnsureComponents adds the named components to the given toolchain channel.
	EnsureComponents(ctx context.Context, channel string, components []string) error
}

// EnvironmentCheckerFactory creates an EnvironmentChecker driving the named installer program.
type EnvironmentCheckerFactory func(program string) EnvironmentChecker
