package domain

import "time"

// ArtifactRecord is the persisted outcome of a successful build, used to detect
// artifact drift between builds with identical inputs.
type ArtifactRecord struct {
	BuildID      string    `json:"build_id,omitzero"`
	Package      string    `json:"package,omitzero"`
	Channel      string    `json:"channel,omitzero"`
	Fingerprint  string    `json:"fingerprint,omitzero"`
	ArtifactHash string    `json:"artifact_hash,omitzero"`
	Artifacts    []string  `json:"artifacts,omitempty"`
	Timestamp    time.Time `json:"timestamp,omitzero"`
}

// Drifted reports whether next was built from the same inputs as r but produced a different artifact.
func (r *ArtifactRecord) Drifted(next ArtifactRecord) bool {
	if r == nil {
		return false
	}
	return r.Fingerprint == next.Fingerprint && r.ArtifactHash != next.ArtifactHash
}
