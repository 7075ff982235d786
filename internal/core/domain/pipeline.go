package domain

import (
	"maps"
	"slices"
)

// PipelineFlags holds the literal spelling of every flag passed to the regression pipeline.
type PipelineFlags struct {
	Release       string
	NoEmulator    string
	NoInteractive string
	Cosmetics     string
	Preset        string
	SkipRebuild   string
}

// DefaultPipelineFlags returns the flag spellings the regression harness accepts out of the box.
func DefaultPipelineFlags() PipelineFlags {
	return PipelineFlags{
		Release:       "--release",
		NoEmulator:    "--no-emulator",
		NoInteractive: "--no-plan",
		Cosmetics:     "--cosmetics",
		Preset:        "--preset",
		SkipRebuild:   "--skip-rebuild",
	}
}

// PipelineSpec describes the external "configure, then run the regression suite" pipeline.
type PipelineSpec struct {
	// Command is the program followed by any fixed arguments.
	Command []string
	Dir     string
	Env     map[string]string
	// Preset names the configuration preset the pipeline builds.
	Preset string

	Release       bool
	NoEmulator    bool
	NoInteractive bool
	Cosmetics     bool

	Flags PipelineFlags
	// FailureReport is the path where the pipeline may write its failure classification.
	FailureReport string
}

// CommandFor renders the invocation for an attempt. The skip-rebuild flag is
// appended exactly when the attempt does not require a rebuild.
func (p PipelineSpec) CommandFor(a Attempt) *Command {
	args := slices.Clone(p.Command)
	if p.Release {
		args = append(args, p.Flags.Release)
	}
	if p.NoEmulator {
		args = append(args, p.Flags.NoEmulator)
	}
	if p.NoInteractive {
		args = append(args, p.Flags.NoInteractive)
	}
	if p.Cosmetics {
		args = append(args, p.Flags.Cosmetics)
	}
	if p.Preset != "" {
		args = append(args, p.Flags.Preset+"="+p.Preset)
	}
	if !a.RebuildRequired {
		args = append(args, p.Flags.SkipRebuild)
	}

	return &Command{
		Name: string(a.State()),
		Args: args,
		Dir:  p.Dir,
		Env:  maps.Clone(p.Env),
	}
}
