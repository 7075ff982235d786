// Package ports defines the core interfaces for the application.
package ports

import (
	"context"

	"go.trai.ch/blitz/internal/core/domain"
)

// Executor runs child processes.
//
//go:generate go run go.uber.org/mock/mockgen -source=executor.go -destination=mocks/mock_executor.go -package=mocks
type Executor interface {
	// Execute runs the command and blocks until it exits.
	//
	// A non-zero exit returns an error wrapping domain.ErrCommandFailed with the
	// status recorded under domain.ExitCodeKey. A process that cannot be started
	// returns an error wrapping domain.ErrCommandNotStarted.
	Execute(ctx context.Context, cmd *domain.Command) error
}
