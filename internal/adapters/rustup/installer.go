// Package rustup ensures the pinned compiler toolchain and its components are installed.
package rustup

import (
	"context"
	"sync"

	"go.trai.ch/blitz/internal/core/domain"
	"go.trai.ch/blitz/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/singleflight"
)

// DefaultProgram is the installer used when the config names none.
const DefaultProgram = "rustup"

var _ ports.EnvironmentChecker = (*Installer)(nil)

// Installer implements ports.EnvironmentChecker by shelling out to rustup.
//
// A toolchain or component ensured once is not installed again for the lifetime
// of the Installer. Concurrent requests for the same key share one invocation.
type Installer struct {
	executor  ports.Executor
	telemetry ports.Telemetry
	program   string

	requestGroup singleflight.Group
	mu           sync.Mutex
	ensured      map[string]struct{}
}

// NewInstaller creates an Installer that runs program. An empty program selects rustup.
func NewInstaller(executor ports.Executor, telemetry ports.Telemetry, program string) *Installer {
	if program == "" {
		program = DefaultProgram
	}
	return &Installer{
		executor:  executor,
		telemetry: telemetry,
		program:   program,
		ensured:   make(map[string]struct{}),
	}
}

// EnsureToolchain runs `<program> toolchain install <channel>`.
func (i *Installer) EnsureToolchain(ctx context.Context, channel string) error {
	cmd := domain.NewCommand(
		"install toolchain "+channel,
		[]string{i.program, "toolchain", "install", channel},
		"",
		nil,
	)

	if err := i.ensure(ctx, "toolchain:"+channel, cmd); err != nil {
		if ctx.Err() != nil {
			return err
		}
		failed := domain.WrapCommandError(domain.ErrToolchainInstallFailed, err)
		return zerr.With(failed, "channel", channel)
	}
	return nil
}

// EnsureComponents runs `<program> component add <c> --toolchain=<channel>` for
// every component, in order, stopping at the first failure.
func (i *Installer) EnsureComponents(ctx context.Context, channel string, components []string) error {
	for _, component := range components {
		cmd := domain.NewCommand(
			"add component "+component,
			[]string{i.program, "component", "add", component, "--toolchain=" + channel},
			"",
			nil,
		)

		if err := i.ensure(ctx, "component:"+channel+":"+component, cmd); err != nil {
			if ctx.Err() != nil {
				return err
			}
			failed := domain.WrapCommandError(domain.ErrComponentInstallFailed, err)
			failed = zerr.With(failed, "channel", channel)
			return zerr.With(failed, "component", component)
		}
	}
	return nil
}

func (i *Installer) ensure(ctx context.Context, key string, cmd *domain.Command) error {
	_, err, _ := i.requestGroup.Do(key, func() (any, error) {
		vCtx, vertex := i.telemetry.Record(ctx, cmd.Name)

		if i.isEnsured(key) {
			vertex.Cached()
			return nil, nil
		}

		err := i.executor.Execute(vCtx, cmd)
		vertex.Complete(err)
		if err != nil {
			return nil, err
		}

		i.mu.Lock()
		i.ensured[key] = struct{}{}
		i.mu.Unlock()
		return nil, nil
	})
	return err
}

func (i *Installer) isEnsured(key string) bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	_, ok := i.ensured[key]
	return ok
}
