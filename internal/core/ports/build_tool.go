package ports

import (
	"context"

	"go.trai.ch/blitz/internal/core/domain"
)

// BuildTool invokes the compiler front end for a build plan.
//
//go:generate go run go.uber.org/mock/mockgen -source=build_tool.go -destination=mocks/mock_build_tool.go -package=mocks
type BuildTool interface {
	// Build compiles the plan's package for the embedded target.
	// The build tool's exit status is propagated verbatim in the returned error.
	Build(ctx context.Context, plan domain.BuildPlan) error
}

// BuildToolFactory creates a BuildTool driving the named build program.
type BuildToolFactory func(program string) BuildTool
