package cargo

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/blitz/internal/adapters/shell"
	"go.trai.ch/blitz/internal/adapters/telemetry/progrock"
	"go.trai.ch/blitz/internal/core/domain"
	"go.trai.ch/blitz/internal/core/ports"
)

// NodeID is the unique identifier for the build tool factory Graft node.
const NodeID graft.ID = "adapter.cargo"

func init() {
	graft.Register(graft.Node[ports.BuildToolFactory]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{shell.NodeID, progrock.NodeID},
		Run: func(ctx context.Context) (ports.BuildToolFactory, error) {
			executor, err := graft.Dep[ports.Executor](ctx)
			if err != nil {
				return nil, err
			}
			telemetry, err := graft.Dep[ports.Telemetry](ctx)
			if err != nil {
				return nil, err
			}
			table := domain.DefaultCompatTable()
			return func(program string) ports.BuildTool {
				return NewBuildTool(executor, telemetry, table, program)
			}, nil
		},
	})
}
