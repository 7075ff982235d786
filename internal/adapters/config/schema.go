package config

import "time"

// Blitzfile represents the structure of the blitz.yaml configuration file.
type Blitzfile struct {
	Version   string       `yaml:"version"`
	StateDir  string       `yaml:"state_dir"`
	Log       LogDTO       `yaml:"log"`
	Release   ReleaseDTO   `yaml:"release"`
	Toolchain ToolchainDTO `yaml:"toolchain"`
	Build     BuildDTO     `yaml:"build"`
	Pipeline  PipelineDTO  `yaml:"pipeline"`
}

// LogDTO selects the log destinations.
type LogDTO struct {
	Level   string `yaml:"level"`
	File    string `yaml:"file"`
	Journal bool   `yaml:"journal"`
}

// ReleaseDTO is the version record of the patched build.
type ReleaseDTO struct {
	Base          string `yaml:"base"`
	Supplementary int    `yaml:"supplementary"`
	Branch        string `yaml:"branch"`
	BranchURL     string `yaml:"branch_url"`
}

// ToolchainDTO pins the compiler toolchain.
type ToolchainDTO struct {
	Installer  string            `yaml:"installer"`
	Channel    string            `yaml:"channel"`
	Components []string          `yaml:"components"`
	Target     string            `yaml:"target"`
	Codegen    map[string]string `yaml:"codegen"`
}

// BuildDTO describes the artifact build.
type BuildDTO struct {
	Tool              string   `yaml:"tool"`
	Package           string   `yaml:"package"`
	Dir               string   `yaml:"dir"`
	CoreLibrary       []string `yaml:"core_library"`
	CoreFeatures      []string `yaml:"core_features"`
	Release           *bool    `yaml:"release"`
	Artifacts         []string `yaml:"artifacts"`
	Inputs            []string `yaml:"inputs"`
	Ignore            []string `yaml:"ignore"`
	StrictDeterminism bool     `yaml:"strict_determinism"`
}

// PipelineDTO describes the regression pipeline and its retry policy.
type PipelineDTO struct {
	Cmd           []string          `yaml:"cmd"`
	Dir           string            `yaml:"dir"`
	Environment   map[string]string `yaml:"environment"`
	Preset        string            `yaml:"preset"`
	Release       *bool             `yaml:"release"`
	NoEmulator    *bool             `yaml:"no_emulator"`
	NoInteractive *bool             `yaml:"no_interactive"`
	Cosmetics     *bool             `yaml:"cosmetics"`
	Flags         FlagsDTO          `yaml:"flags"`
	FailureReport string            `yaml:"failure_report"`

	MaxAttempts             int           `yaml:"max_attempts"`
	AttemptTimeout          time.Duration `yaml:"attempt_timeout"`
	RetryDelay              time.Duration `yaml:"retry_delay"`
	FailFastOnDeterministic bool          `yaml:"fail_fast_on_deterministic"`
}

// FlagsDTO overrides the literal spelling of pipeline flags.
type FlagsDTO struct {
	Release       string `yaml:"release"`
	NoEmulator    string `yaml:"no_emulator"`
	NoInteractive string `yaml:"no_interactive"`
	Cosmetics     string `yaml:"cosmetics"`
	Preset        string `yaml:"preset"`
	SkipRebuild   string `yaml:"skip_rebuild"`
}
