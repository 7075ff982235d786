package report

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/blitz/internal/core/ports"
)

// NodeID is the unique identifier for the failure reporter Graft node.
const NodeID graft.ID = "adapter.failure_reporter"

func init() {
	graft.Register(graft.Node[ports.FailureReporter]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.FailureReporter, error) {
			return NewReporter(), nil
		},
	})
}
