package ports

import (
	"context"

	"go.trai.ch/blitz/internal/core/domain"
)

// Hasher computes the fingerprints used to detect artifact drift.
//
//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_hasher.go -package=mocks -source=hasher.go
type Hasher interface {
	// Fingerprint hashes every input of the plan that affects the artifact,
	// including the content of the target descriptor file.
	Fingerprint(plan domain.BuildPlan) (string, error)

	// HashArtifacts hashes the content of the given files into one digest.
	HashArtifacts(ctx context.Context, paths []string) (string, error)
}
