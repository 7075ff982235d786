package domain

import "fmt"

// ReleaseInfo is the version record of the patched build. It is read-only after construction.
type ReleaseInfo struct {
	Base          string
	Supplementary int
	Branch        byte
	BranchURL     string
	Display       string
}

// NewReleaseInfo creates a ReleaseInfo and composes its display string.
func NewReleaseInfo(base string, supplementary int, branch byte, branchURL string) ReleaseInfo {
	return ReleaseInfo{
		Base:          base,
		Supplementary: supplementary,
		Branch:        branch,
		BranchURL:     branchURL,
		Display:       fmt.Sprintf("%s blitz-%d", base, supplementary),
	}
}
