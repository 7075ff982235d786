package build_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/blitz/internal/build"
)

func TestString(t *testing.T) {
	version, commit := build.Version, build.Commit
	t.Cleanup(func() {
		build.Version, build.Commit = version, commit
	})

	build.Version = "v0.3.1"
	build.Commit = "9f3c2a1d8e7b"
	assert.Equal(t, "v0.3.1 (9f3c2a1)", build.String())

	build.Commit = "abc"
	assert.Equal(t, "v0.3.1 (abc)", build.String())
}
