// Package builder implements the toolchain-pinned build driver.
package builder

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.trai.ch/blitz/internal/core/domain"
	"go.trai.ch/blitz/internal/core/ports"
	"go.trai.ch/zerr"
)

// Driver produces the embedded artifact from a build plan, failing fast on the
// first environment or build error. Nothing in a build is retried.
type Driver struct {
	env      ports.EnvironmentChecker
	tool     ports.BuildTool
	hasher   ports.Hasher
	verifier ports.Verifier
	store    ports.ArtifactStore
	logger   ports.Logger

	table domain.CompatTable
	now   func() time.Time
	newID func() string
}

// Option configures a Driver.
type Option func(*Driver)

// WithCompatTable replaces the table the toolchain is validated against.
func WithCompatTable(table domain.CompatTable) Option {
	return func(d *Driver) {
		d.table = table
	}
}

// WithClock sets the clock used to timestamp artifact records.
func WithClock(now func() time.Time) Option {
	return func(d *Driver) {
		d.now = now
	}
}

// WithIDGenerator sets the generator for build IDs.
func WithIDGenerator(newID func() string) Option {
	return func(d *Driver) {
		d.newID = newID
	}
}

// NewDriver creates a new Driver.
func NewDriver(
	env ports.EnvironmentChecker,
	tool ports.BuildTool,
	hasher ports.Hasher,
	verifier ports.Verifier,
	store ports.ArtifactStore,
	logger ports.Logger,
	opts ...Option,
) *Driver {
	d := &Driver{
		env:      env,
		tool:     tool,
		hasher:   hasher,
		verifier: verifier,
		store:    store,
		logger:   logger,
		table:    domain.DefaultCompatTable(),
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Build validates the plan, ensures the pinned toolchain, runs the build tool
// and records the artifact hash. Drift against the previous record for the
// same fingerprint is a warning, or an error under strict determinism.
func (d *Driver) Build(ctx context.Context, plan domain.BuildPlan) (domain.ArtifactRecord, error) {
	if err := plan.Validate(d.table); err != nil {
		return domain.ArtifactRecord{}, err
	}
	spec := plan.Toolchain

	d.logger.Info("ensuring toolchain " + spec.Channel)
	if err := d.env.EnsureToolchain(ctx, spec.Channel); err != nil {
		return domain.ArtifactRecord{}, asStepError(ctx, domain.ErrToolchainInstallFailed, err)
	}
	if len(spec.Components) > 0 {
		if err := d.env.EnsureComponents(ctx, spec.Channel, spec.Components); err != nil {
			return domain.ArtifactRecord{}, asStepError(ctx, domain.ErrComponentInstallFailed, err)
		}
	}

	fingerprint, err := d.hasher.Fingerprint(plan)
	if err != nil {
		return domain.ArtifactRecord{}, zerr.Wrap(err, "failed to fingerprint build inputs")
	}

	d.logger.Info("building " + plan.Package + " with " + spec.Channel)
	if err := d.tool.Build(ctx, plan); err != nil {
		return domain.ArtifactRecord{}, asStepError(ctx, domain.ErrBuildFailed, err)
	}

	record := domain.ArtifactRecord{
		BuildID:     d.newID(),
		Package:     plan.Package,
		Channel:     spec.Channel,
		Fingerprint: fingerprint,
		Artifacts:   plan.ArtifactPaths(),
		Timestamp:   d.now(),
	}

	if len(record.Artifacts) == 0 {
		d.logger.Warn("no artifacts declared for " + plan.Package + ", skipping determinism check")
		return record, nil
	}

	missing, err := d.verifier.VerifyOutputs(record.Artifacts)
	if err != nil {
		return domain.ArtifactRecord{}, zerr.Wrap(err, "failed to verify artifacts")
	}
	if len(missing) > 0 {
		missingErr := zerr.Wrap(domain.ErrArtifactMissing, "build succeeded without producing every artifact")
		missingErr = zerr.With(missingErr, "package", plan.Package)
		return domain.ArtifactRecord{}, zerr.With(missingErr, "missing", missing)
	}

	record.ArtifactHash, err = d.hasher.HashArtifacts(ctx, record.Artifacts)
	if err != nil {
		return domain.ArtifactRecord{}, zerr.Wrap(err, "failed to hash artifacts")
	}

	if err := d.checkDrift(plan, record); err != nil {
		return domain.ArtifactRecord{}, err
	}

	if err := d.store.Put(record); err != nil {
		return domain.ArtifactRecord{}, err
	}

	d.logger.Info("built " + plan.Package + " " + record.ArtifactHash)
	return record, nil
}

func (d *Driver) checkDrift(plan domain.BuildPlan, record domain.ArtifactRecord) error {
	previous, err := d.store.Get(plan.Package)
	if err != nil {
		return err
	}
	if !previous.Drifted(record) {
		return nil
	}

	driftErr := zerr.Wrap(domain.ErrNonDeterministicArtifact, "identical inputs produced a different artifact")
	driftErr = zerr.With(driftErr, "package", plan.Package)
	driftErr = zerr.With(driftErr, "fingerprint", record.Fingerprint)
	driftErr = zerr.With(driftErr, "previous_build", previous.BuildID)
	driftErr = zerr.With(driftErr, "previous_hash", previous.ArtifactHash)
	driftErr = zerr.With(driftErr, "hash", record.ArtifactHash)

	if plan.StrictDeterminism {
		return driftErr
	}
	d.logger.Warn(driftErr.Error())
	return nil
}

// asStepError makes sure a failed step is reported under its sentinel while
// keeping cancellation and any exit status visible.
func asStepError(ctx context.Context, sentinel, err error) error {
	if ctx.Err() != nil || errors.Is(err, sentinel) {
		return err
	}
	return domain.WrapCommandError(sentinel, err)
}
