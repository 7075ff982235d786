package domain

import (
	"path/filepath"
	"slices"
)

// Defaults for rebuilding the core library without an allocator.
var (
	DefaultCoreLibrary  = []string{"core"}
	DefaultCoreFeatures = []string{"compiler-builtins-mem"}
)

// Defaults for the source files that feed the fingerprint.
var (
	DefaultInputs = []string{"."}
	DefaultIgnore = []string{"target"}
)

// BuildPlan is everything the build driver needs to produce one artifact.
type BuildPlan struct {
	Toolchain ToolchainSpec
	// Package selects the package/artifact to build.
	Package string
	// Dir is the working directory of the build tool.
	Dir string
	// CoreLibrary lists the library crates rebuilt from source instead of linked prebuilt.
	CoreLibrary []string
	// CoreFeatures lists the features enabled while rebuilding the core library.
	CoreFeatures []string
	// Release selects the optimized profile.
	Release bool
	// Artifacts are the expected output paths relative to Dir.
	Artifacts []string
	// Inputs are the source files, directories or glob patterns relative to Dir
	// whose content feeds the fingerprint.
	Inputs []string
	// Ignore lists directories relative to Dir that are never hashed as inputs,
	// e.g. the build tool's output directory.
	Ignore []string
	// StrictDeterminism turns artifact drift into a hard failure.
	StrictDeterminism bool
}

// RebuildsCore reports whether the plan rebuilds the core library from source.
func (p BuildPlan) RebuildsCore() bool {
	return len(p.CoreLibrary) > 0
}

// Validate checks the plan and its toolchain against the compat table.
func (p BuildPlan) Validate(table CompatTable) error {
	if p.Package == "" {
		return wrapInvalid("build package is required", "build.package")
	}
	return p.Toolchain.Validate(table, p.RebuildsCore())
}

// TargetPath returns the target descriptor path resolved against Dir.
func (p BuildPlan) TargetPath() string {
	if filepath.IsAbs(p.Toolchain.Target) || p.Dir == "" {
		return p.Toolchain.Target
	}
	return filepath.Join(p.Dir, p.Toolchain.Target)
}

// ArtifactPaths returns the artifact paths resolved against Dir, sorted.
func (p BuildPlan) ArtifactPaths() []string {
	return p.resolveAll(p.Artifacts)
}

// InputPaths returns the input paths and patterns resolved against Dir, sorted.
func (p BuildPlan) InputPaths() []string {
	return p.resolveAll(p.Inputs)
}

// IgnorePaths returns the ignored directories resolved against Dir, sorted.
func (p BuildPlan) IgnorePaths() []string {
	return p.resolveAll(p.Ignore)
}

func (p BuildPlan) resolveAll(rel []string) []string {
	paths := make([]string, 0, len(rel))
	for _, r := range rel {
		if filepath.IsAbs(r) || p.Dir == "" {
			paths = append(paths, filepath.Clean(r))
			continue
		}
		paths = append(paths, filepath.Join(p.Dir, r))
	}
	slices.Sort(paths)
	return slices.Compact(paths)
}
