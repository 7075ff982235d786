// Package config provides the configuration loader for blitz.
package config

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"slices"

	"go.trai.ch/blitz/internal/core/domain"
	"go.trai.ch/blitz/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultFilename is the config file read when no path is given.
	DefaultFilename = "blitz.yaml"
	// CurrentVersion is the only supported schema version.
	CurrentVersion = "1"

	defaultStateDir      = ".blitz"
	defaultInstaller     = "rustup"
	defaultBuildTool     = "cargo"
	defaultFailureReport = "failure.yaml"
)

var _ ports.ConfigLoader = (*Loader)(nil)

// Loader implements ports.ConfigLoader using a YAML file.
type Loader struct {
	logger ports.Logger
}

// NewLoader creates a new configuration loader.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{logger: logger}
}

// Load reads the configuration file at path, applies defaults and validates it.
// Relative paths in the file are resolved against the file's directory.
func (l *Loader) Load(path string) (*domain.Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is provided by user
	if err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrConfigReadFailed, err.Error()), "path", path)
	}

	blitzfile, err := decode(data)
	if err != nil {
		return nil, zerr.With(err, "path", path)
	}

	root, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrConfigReadFailed, err.Error()), "path", path)
	}

	cfg, err := toDomain(blitzfile, root)
	if err != nil {
		return nil, zerr.With(err, "path", path)
	}

	l.logger.Debug("loaded config " + path)
	return cfg, nil
}

// decode parses data strictly: unknown keys and trailing documents are errors.
func decode(data []byte) (*Blitzfile, error) {
	var blitzfile Blitzfile

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&blitzfile); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, zerr.Wrap(domain.ErrConfigParseFailed, "config file is empty")
		}
		return nil, zerr.Wrap(domain.ErrConfigParseFailed, err.Error())
	}

	if blitzfile.Version == "" {
		blitzfile.Version = CurrentVersion
	}
	if blitzfile.Version != CurrentVersion {
		err := zerr.Wrap(domain.ErrUnsupportedConfigVersion, "config version is not supported")
		err = zerr.With(err, "version", blitzfile.Version)
		return nil, zerr.With(err, "supported", CurrentVersion)
	}

	return &blitzfile, nil
}

func toDomain(b *Blitzfile, root string) (*domain.Config, error) {
	release, err := toRelease(b.Release)
	if err != nil {
		return nil, err
	}

	policy, err := toPolicy(b.Pipeline)
	if err != nil {
		return nil, err
	}

	stateDir := resolve(root, withDefault(b.StateDir, defaultStateDir))

	cfg := &domain.Config{
		StateDir: stateDir,
		Log: domain.LogConfig{
			Level:   domain.ParseLogLevel(b.Log.Level),
			File:    resolveOptional(root, b.Log.File),
			Journal: b.Log.Journal,
		},
		Release:   release,
		Installer: withDefault(b.Toolchain.Installer, defaultInstaller),
		BuildTool: withDefault(b.Build.Tool, defaultBuildTool),
		Plan:      toPlan(b.Toolchain, b.Build, root, stateDir),
		Pipeline:  toPipeline(b.Pipeline, root, stateDir),
		Policy:    policy,
	}
	return cfg, nil
}

func toRelease(r ReleaseDTO) (domain.ReleaseInfo, error) {
	if len(r.Branch) > 1 {
		err := zerr.Wrap(domain.ErrInvalidConfig, "release branch must be a single character")
		err = zerr.With(err, "field", "release.branch")
		return domain.ReleaseInfo{}, zerr.With(err, "value", r.Branch)
	}
	if r.Supplementary < 0 {
		err := zerr.Wrap(domain.ErrInvalidConfig, "release supplementary number must not be negative")
		return domain.ReleaseInfo{}, zerr.With(err, "field", "release.supplementary")
	}

	var branch byte
	if r.Branch != "" {
		branch = r.Branch[0]
	}
	return domain.NewReleaseInfo(r.Base, r.Supplementary, branch, r.BranchURL), nil
}

func toPolicy(p PipelineDTO) (domain.RetryPolicy, error) {
	switch {
	case p.MaxAttempts < 0:
		err := zerr.Wrap(domain.ErrInvalidConfig, "max attempts must not be negative")
		return domain.RetryPolicy{}, zerr.With(err, "field", "pipeline.max_attempts")
	case p.AttemptTimeout < 0:
		err := zerr.Wrap(domain.ErrInvalidConfig, "attempt timeout must not be negative")
		return domain.RetryPolicy{}, zerr.With(err, "field", "pipeline.attempt_timeout")
	case p.RetryDelay < 0:
		err := zerr.Wrap(domain.ErrInvalidConfig, "retry delay must not be negative")
		return domain.RetryPolicy{}, zerr.With(err, "field", "pipeline.retry_delay")
	}

	return domain.RetryPolicy{
		MaxAttempts:             p.MaxAttempts,
		AttemptTimeout:          p.AttemptTimeout,
		RetryDelay:              p.RetryDelay,
		FailFastOnDeterministic: p.FailFastOnDeterministic,
	}, nil
}

func toPlan(t ToolchainDTO, b BuildDTO, root, stateDir string) domain.BuildPlan {
	coreLibrary := b.CoreLibrary
	if coreLibrary == nil {
		coreLibrary = domain.DefaultCoreLibrary
	}
	coreFeatures := b.CoreFeatures
	if coreFeatures == nil {
		coreFeatures = domain.DefaultCoreFeatures
	}
	inputs := b.Inputs
	if inputs == nil {
		inputs = domain.DefaultInputs
	}
	ignore := b.Ignore
	if ignore == nil {
		ignore = domain.DefaultIgnore
	}
	// Records and logs under the state dir change on every build.
	ignore = append(slices.Clone(ignore), stateDir)

	return domain.BuildPlan{
		Toolchain:         domain.NewToolchainSpec(t.Channel, t.Components, t.Target, t.Codegen),
		Package:           b.Package,
		Dir:               resolve(root, b.Dir),
		CoreLibrary:       slices.Clone(coreLibrary),
		CoreFeatures:      slices.Clone(coreFeatures),
		Release:           boolOr(b.Release, true),
		Artifacts:         slices.Clone(b.Artifacts),
		Inputs:            slices.Clone(inputs),
		Ignore:            ignore,
		StrictDeterminism: b.StrictDeterminism,
	}
}

func toPipeline(p PipelineDTO, root, stateDir string) domain.PipelineSpec {
	flags := domain.DefaultPipelineFlags()
	flags.Release = withDefault(p.Flags.Release, flags.Release)
	flags.NoEmulator = withDefault(p.Flags.NoEmulator, flags.NoEmulator)
	flags.NoInteractive = withDefault(p.Flags.NoInteractive, flags.NoInteractive)
	flags.Cosmetics = withDefault(p.Flags.Cosmetics, flags.Cosmetics)
	flags.Preset = withDefault(p.Flags.Preset, flags.Preset)
	flags.SkipRebuild = withDefault(p.Flags.SkipRebuild, flags.SkipRebuild)

	report := filepath.Join(stateDir, defaultFailureReport)
	if p.FailureReport != "" {
		report = resolve(root, p.FailureReport)
	}

	return domain.PipelineSpec{
		Command:       slices.Clone(p.Cmd),
		Dir:           resolve(root, p.Dir),
		Env:           p.Environment,
		Preset:        p.Preset,
		Release:       boolOr(p.Release, true),
		NoEmulator:    boolOr(p.NoEmulator, true),
		NoInteractive: boolOr(p.NoInteractive, true),
		Cosmetics:     boolOr(p.Cosmetics, true),
		Flags:         flags,
		FailureReport: report,
	}
}

func resolve(root, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(root, path)
}

func resolveOptional(root, path string) string {
	if path == "" {
		return ""
	}
	return resolve(root, path)
}

func withDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
