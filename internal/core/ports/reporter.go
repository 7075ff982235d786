package ports

import "go.trai.ch/blitz/internal/core/domain"

// FailureReporter reads the failure classification a pipeline run may leave behind.
//
//go:generate go run go.uber.org/mock/mockgen -source=reporter.go -destination=mocks/mock_reporter.go -package=mocks
type FailureReporter interface {
	// Clear removes any report left by a previous attempt.
	Clear(path string) error

	// Read returns the report at path, or domain.UnclassifiedFailure if none was written.
	Read(path string) (domain.FailureReport, error)
}
