package ports

import "go.trai.ch/blitz/internal/core/domain"

// ArtifactStore persists the last successful build record per package.
//
//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type ArtifactStore interface {
	// Get retrieves the record for a package.
	// Returns nil, nil if not found.
	Get(pkg string) (*domain.ArtifactRecord, error)

	// Put stores the record, replacing any previous record for the same package.
	Put(record domain.ArtifactRecord) error
}

// ArtifactStoreFactory opens the artifact store kept under a state directory.
type ArtifactStoreFactory func(stateDir string) (ArtifactStore, error)
