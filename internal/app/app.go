// Package app implements the application layer for blitz.
package app

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"go.trai.ch/blitz/internal/core/domain"
	"go.trai.ch/blitz/internal/core/ports"
	"go.trai.ch/blitz/internal/engine/builder"
	"go.trai.ch/blitz/internal/engine/verifier"
	"go.trai.ch/zerr"
)

// JournalFile is the progress journal written under the state directory.
const JournalFile = "progress.journal"

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	logger       ports.Logger
	executor     ports.Executor
	hasher       ports.Hasher
	verifier     ports.Verifier
	reporter     ports.FailureReporter
	telemetry    ports.Telemetry
	envFactory   ports.EnvironmentCheckerFactory
	toolFactory  ports.BuildToolFactory
	storeFactory ports.ArtifactStoreFactory

	driverOpts []builder.Option
	loopOpts   []verifier.Option
}

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	logger ports.Logger,
	executor ports.Executor,
	hasher ports.Hasher,
	verifier ports.Verifier,
	reporter ports.FailureReporter,
	telemetry ports.Telemetry,
	envFactory ports.EnvironmentCheckerFactory,
	toolFactory ports.BuildToolFactory,
	storeFactory ports.ArtifactStoreFactory,
) *App {
	return &App{
		configLoader: loader,
		logger:       logger,
		executor:     executor,
		hasher:       hasher,
		verifier:     verifier,
		reporter:     reporter,
		telemetry:    telemetry,
		envFactory:   envFactory,
		toolFactory:  toolFactory,
		storeFactory: storeFactory,
	}
}

// WithDriverOptions appends options applied to every build driver the app creates.
func (a *App) WithDriverOptions(opts ...builder.Option) *App {
	a.driverOpts = append(a.driverOpts, opts...)
	return a
}

// WithLoopOptions appends options applied after the configured retry policy.
func (a *App) WithLoopOptions(opts ...verifier.Option) *App {
	a.loopOpts = append(a.loopOpts, opts...)
	return a
}

// VerifyOptions controls a verification run. Nil overrides keep the configured value.
type VerifyOptions struct {
	// WithBuild runs the build driver before the first attempt.
	WithBuild      bool
	MaxAttempts    *int
	AttemptTimeout *time.Duration
}

// Build loads the configuration and runs the build driver once.
func (a *App) Build(ctx context.Context, configPath string) (domain.ArtifactRecord, error) {
	cfg, err := a.load(configPath)
	if err != nil {
		return domain.ArtifactRecord{}, err
	}
	return a.build(ctx, cfg)
}

// Verify loads the configuration and drives the verification pipeline until it
// passes, a configured bound stops it, or ctx is cancelled.
func (a *App) Verify(ctx context.Context, configPath string, opts VerifyOptions) (domain.VerificationResult, error) {
	cfg, err := a.load(configPath)
	if err != nil {
		return domain.VerificationResult{State: domain.StateAbandoned}, err
	}

	if opts.WithBuild {
		if _, err := a.build(ctx, cfg); err != nil {
			return domain.VerificationResult{State: domain.StateAbandoned}, err
		}
	}

	policy := cfg.Policy
	if opts.MaxAttempts != nil {
		policy.MaxAttempts = *opts.MaxAttempts
	}
	if opts.AttemptTimeout != nil {
		policy.AttemptTimeout = *opts.AttemptTimeout
	}
	if policy.MaxAttempts < 0 || policy.AttemptTimeout < 0 {
		err := zerr.Wrap(domain.ErrInvalidConfig, "attempt bounds must not be negative")
		err = zerr.With(err, "max_attempts", policy.MaxAttempts)
		return domain.VerificationResult{State: domain.StateAbandoned}, zerr.With(err, "attempt_timeout", policy.AttemptTimeout)
	}

	loopOpts := append([]verifier.Option{verifier.WithPolicy(policy)}, a.loopOpts...)
	loop := verifier.NewLoop(a.executor, a.reporter, a.telemetry, a.logger, loopOpts...)

	result, err := loop.Run(ctx, cfg.Pipeline)
	if err != nil {
		err = zerr.With(zerr.Wrap(err, "verification abandoned"), "run_id", result.RunID)
		return result, zerr.With(err, "attempts", result.Iterations())
	}
	return result, nil
}

// Release loads the configuration and returns its release record.
func (a *App) Release(configPath string) (domain.ReleaseInfo, error) {
	cfg, err := a.configLoader.Load(configPath)
	if err != nil {
		return domain.ReleaseInfo{}, err
	}
	return cfg.Release, nil
}

// Clean removes the state directory, dropping every artifact record and the failure report.
//
// Log destinations are not configured for clean; any opened by an earlier
// command are released before the directory goes away.
func (a *App) Clean(configPath string) error {
	cfg, err := a.configLoader.Load(configPath)
	if err != nil {
		return err
	}

	if sink, ok := a.logger.(ports.LogSink); ok {
		if err := sink.Close(); err != nil {
			return zerr.Wrap(err, "failed to release log destinations")
		}
	}

	if err := os.RemoveAll(cfg.StateDir); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to remove state directory"), "dir", cfg.StateDir)
	}
	a.logger.Info("removed " + cfg.StateDir)
	return nil
}

// Close flushes the telemetry session and releases log destinations.
func (a *App) Close() error {
	err := a.telemetry.Close()
	if sink, ok := a.logger.(ports.LogSink); ok {
		if cerr := sink.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

func (a *App) load(configPath string) (*domain.Config, error) {
	cfg, err := a.configLoader.Load(configPath)
	if err != nil {
		return nil, err
	}

	if sink, ok := a.logger.(ports.LogSink); ok {
		if err := sink.Configure(cfg.Log); err != nil {
			return nil, zerr.Wrap(err, "failed to configure logging")
		}
	}

	if sink, ok := a.telemetry.(ports.TelemetrySink); ok {
		if err := sink.OpenJournal(filepath.Join(cfg.StateDir, JournalFile)); err != nil {
			return nil, zerr.Wrap(err, "failed to open progress journal")
		}
	}
	return cfg, nil
}

func (a *App) build(ctx context.Context, cfg *domain.Config) (domain.ArtifactRecord, error) {
	store, err := a.storeFactory(cfg.StateDir)
	if err != nil {
		return domain.ArtifactRecord{}, err
	}

	driver := builder.NewDriver(
		a.envFactory(cfg.Installer),
		a.toolFactory(cfg.BuildTool),
		a.hasher,
		a.verifier,
		store,
		a.logger,
		a.driverOpts...,
	)

	record, err := driver.Build(ctx, cfg.Plan)
	if err != nil {
		return record, zerr.With(zerr.Wrap(err, "build failed"), "package", cfg.Plan.Package)
	}
	return record, nil
}
