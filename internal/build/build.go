// Package build holds build-time information.
package build

// Version and Commit identify the blitz binary.
// They default to development values and are overwritten by linker flags:
//
//	-ldflags "-X go.trai.ch/blitz/internal/build.Version=v1.2.0 -X go.trai.ch/blitz/internal/build.Commit=abc1234"
var (
	Version = "dev"
	Commit  = "unknown"
)

// String returns the version followed by the short commit, e.g. "v1.2.0 (abc1234)".
func String() string {
	commit := Commit
	if len(commit) > 7 {
		commit = commit[:7]
	}
	return Version + " (" + commit + ")"
}
