package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/blitz/internal/adapters/cargo"              //nolint:depguard // Wired in app layer
	"go.trai.ch/blitz/internal/adapters/cas"                //nolint:depguard // Wired in app layer
	"go.trai.ch/blitz/internal/adapters/config"             //nolint:depguard // Wired in app layer
	"go.trai.ch/blitz/internal/adapters/fs"                 //nolint:depguard // Wired in app layer
	"go.trai.ch/blitz/internal/adapters/logger"             //nolint:depguard // Wired in app layer
	"go.trai.ch/blitz/internal/adapters/report"             //nolint:depguard // Wired in app layer
	"go.trai.ch/blitz/internal/adapters/rustup"             //nolint:depguard // Wired in app layer
	"go.trai.ch/blitz/internal/adapters/shell"              //nolint:depguard // Wired in app layer
	"go.trai.ch/blitz/internal/adapters/telemetry/progrock" //nolint:depguard // Wired in app layer
	"go.trai.ch/blitz/internal/core/ports"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

func init() {
	// App Node
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			logger.NodeID,
			shell.NodeID,
			fs.HasherNodeID,
			fs.VerifierNodeID,
			report.NodeID,
			progrock.NodeID,
			rustup.NodeID,
			cargo.NodeID,
			cas.NodeID,
		},
		Run: runAppNode,
	})

	// Components Node
	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Components, error) {
			app, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			return NewComponents(app, log), nil
		},
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	loader, err := graft.Dep[ports.ConfigLoader](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	executor, err := graft.Dep[ports.Executor](ctx)
	if err != nil {
		return nil, err
	}

	hasher, err := graft.Dep[ports.Hasher](ctx)
	if err != nil {
		return nil, err
	}

	verifier, err := graft.Dep[ports.Verifier](ctx)
	if err != nil {
		return nil, err
	}

	reporter, err := graft.Dep[ports.FailureReporter](ctx)
	if err != nil {
		return nil, err
	}

	telemetry, err := graft.Dep[ports.Telemetry](ctx)
	if err != nil {
		return nil, err
	}

	envFactory, err := graft.Dep[ports.EnvironmentCheckerFactory](ctx)
	if err != nil {
		return nil, err
	}

	toolFactory, err := graft.Dep[ports.BuildToolFactory](ctx)
	if err != nil {
		return nil, err
	}

	storeFactory, err := graft.Dep[ports.ArtifactStoreFactory](ctx)
	if err != nil {
		return nil, err
	}

	return New(
		loader, log, executor, hasher, verifier, reporter, telemetry,
		envFactory, toolFactory, storeFactory,
	), nil
}
