// Package cargo invokes the build tool for a toolchain-pinned build plan.
package cargo

import (
	"context"
	"strings"

	"go.trai.ch/blitz/internal/core/domain"
	"go.trai.ch/blitz/internal/core/ports"
	"go.trai.ch/zerr"
)

const (
	// DefaultProgram is the build tool used when the config names none.
	DefaultProgram = "cargo"
	// RustflagsEnv carries the rendered codegen flags to the compiler.
	RustflagsEnv = "RUSTFLAGS"
)

var _ ports.BuildTool = (*BuildTool)(nil)

// BuildTool implements ports.BuildTool by shelling out to cargo.
type BuildTool struct {
	executor  ports.Executor
	telemetry ports.Telemetry
	table     domain.CompatTable
	program   string
}

// NewBuildTool creates a BuildTool that runs program. An empty program selects cargo.
func NewBuildTool(executor ports.Executor, telemetry ports.Telemetry, table domain.CompatTable, program string) *BuildTool {
	if program == "" {
		program = DefaultProgram
	}
	return &BuildTool{
		executor:  executor,
		telemetry: telemetry,
		table:     table,
		program:   program,
	}
}

// Build compiles the plan's package. A non-zero exit status is returned as
// ErrBuildFailed carrying the build tool's exit code.
func (b *BuildTool) Build(ctx context.Context, plan domain.BuildPlan) error {
	cmd := b.Command(plan)

	vCtx, vertex := b.telemetry.Record(ctx, cmd.Name)
	err := b.executor.Execute(vCtx, cmd)
	vertex.Complete(err)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return err
	}

	failed := domain.WrapCommandError(domain.ErrBuildFailed, err)
	failed = zerr.With(failed, "package", plan.Package)
	return zerr.With(failed, "channel", plan.Toolchain.Channel)
}

// Command renders the build invocation for plan.
func (b *BuildTool) Command(plan domain.BuildPlan) *domain.Command {
	args := []string{b.program, "+" + plan.Toolchain.Channel, "build"}
	if plan.RebuildsCore() {
		args = append(args, "-Z", "build-std="+strings.Join(plan.CoreLibrary, ","))
		if len(plan.CoreFeatures) > 0 {
			args = append(args, "-Z", "build-std-features="+strings.Join(plan.CoreFeatures, ","))
		}
	}
	if plan.Release {
		args = append(args, "--release")
	}
	args = append(args, "-p", plan.Package, "--target", plan.TargetPath())

	var env map[string]string
	if flags := plan.Toolchain.RenderCodegen(b.table); flags != "" {
		env = map[string]string{RustflagsEnv: flags}
	}

	return domain.NewCommand("build "+plan.Package, args, plan.Dir, env)
}
