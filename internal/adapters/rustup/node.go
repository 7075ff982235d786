package rustup

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/blitz/internal/adapters/shell"
	"go.trai.ch/blitz/internal/adapters/telemetry/progrock"
	"go.trai.ch/blitz/internal/core/ports"
)

// NodeID is the unique identifier for the environment checker factory Graft node.
const NodeID graft.ID = "adapter.rustup"

func init() {
	graft.Register(graft.Node[ports.EnvironmentCheckerFactory]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{shell.NodeID, progrock.NodeID},
		Run: func(ctx context.Context) (ports.EnvironmentCheckerFactory, error) {
			executor, err := graft.Dep[ports.Executor](ctx)
			if err != nil {
				return nil, err
			}
			telemetry, err := graft.Dep[ports.Telemetry](ctx)
			if err != nil {
				return nil, err
			}
			return func(program string) ports.EnvironmentChecker {
				return NewInstaller(executor, telemetry, program)
			}, nil
		},
	})
}
