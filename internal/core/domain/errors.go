package domain

import "go.trai.ch/zerr"

var (
	// ErrConfigReadFailed is returned when the config file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the config file is not valid YAML or has unknown keys.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrUnsupportedConfigVersion is returned when the config file declares an unknown schema version.
	ErrUnsupportedConfigVersion = zerr.New("unsupported config version")

	// ErrInvalidConfig is returned when a required config value is missing or malformed.
	ErrInvalidConfig = zerr.New("invalid configuration")

	// ErrIncompatibleToolchain is returned when a toolchain channel and its code-generation
	// flags do not match a known-compatible combination.
	ErrIncompatibleToolchain = zerr.New("incompatible toolchain specification")

	// ErrMissingSourceComponent is returned when the core library is rebuilt from source
	// but the toolchain's source component is not requested.
	ErrMissingSourceComponent = zerr.New("core library rebuild requires the toolchain source component")

	// ErrToolchainInstallFailed is returned when the installer cannot install the pinned toolchain.
	ErrToolchainInstallFailed = zerr.New("toolchain installation failed")

	// ErrComponentInstallFailed is returned when the installer cannot add a required component.
	ErrComponentInstallFailed = zerr.New("component installation failed")

	// ErrBuildFailed is returned when the build tool exits with a non-zero status.
	ErrBuildFailed = zerr.New("build failed")

	// ErrArtifactMissing is returned when the build succeeded but an expected artifact is absent.
	ErrArtifactMissing = zerr.New("expected artifact not found")

	// ErrNonDeterministicArtifact is returned when an identical toolchain fingerprint
	// produced a different artifact than the previous recorded build.
	ErrNonDeterministicArtifact = zerr.New("artifact differs from previous build with identical inputs")

	// ErrInputNotFound is returned when a declared build input matches no file.
	ErrInputNotFound = zerr.New("build input not found")

	// ErrCommandFailed is returned when a child process exits with a non-zero status.
	ErrCommandFailed = zerr.New("command failed")

	// ErrCommandNotStarted is returned when a child process could not be started at all.
	ErrCommandNotStarted = zerr.New("command could not be started")

	// ErrEmptyCommand is returned when a command has no program to run.
	ErrEmptyCommand = zerr.New("empty command")

	// ErrRetriesExhausted is returned when the verification loop reaches its configured attempt bound.
	ErrRetriesExhausted = zerr.New("verification attempts exhausted")

	// ErrDeterministicFailure is returned when the pipeline reports a deterministic failure
	// and the loop is configured to fail fast on it.
	ErrDeterministicFailure = zerr.New("pipeline reported a deterministic failure")

	// ErrStoreReadFailed is returned when the artifact record store cannot be read.
	ErrStoreReadFailed = zerr.New("failed to read artifact records")

	// ErrStoreWriteFailed is returned when the artifact record store cannot be written.
	ErrStoreWriteFailed = zerr.New("failed to write artifact records")

	// ErrReportParseFailed is returned when a failure report exists but cannot be decoded.
	ErrReportParseFailed = zerr.New("failed to parse failure report")
)
