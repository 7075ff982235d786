// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/blitz/internal/adapters/cargo"
	_ "go.trai.ch/blitz/internal/adapters/cas"
	_ "go.trai.ch/blitz/internal/adapters/config"
	_ "go.trai.ch/blitz/internal/adapters/fs"
	_ "go.trai.ch/blitz/internal/adapters/logger"
	_ "go.trai.ch/blitz/internal/adapters/report"
	_ "go.trai.ch/blitz/internal/adapters/rustup"
	_ "go.trai.ch/blitz/internal/adapters/shell"
	_ "go.trai.ch/blitz/internal/adapters/telemetry/progrock"
	// Register app nodes.
	_ "go.trai.ch/blitz/internal/app"
)
