// Package report reads the failure classification a verification pipeline leaves behind.
package report

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"go.trai.ch/blitz/internal/core/domain"
	"go.trai.ch/blitz/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

var _ ports.FailureReporter = (*Reporter)(nil)

// reportDTO is the on-disk shape of a failure report.
type reportDTO struct {
	Category string `yaml:"category"`
	Reason   string `yaml:"reason"`
}

// Reporter implements ports.FailureReporter for YAML report files.
type Reporter struct{}

// NewReporter creates a new Reporter.
func NewReporter() *Reporter {
	return &Reporter{}
}

// Clear removes a stale report and makes sure its directory exists, so the
// next pipeline run can write a fresh one. An empty path is a no-op.
func (r *Reporter) Clear(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return zerr.With(zerr.Wrap(err, "failed to remove failure report"), "path", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create failure report directory"), "path", path)
	}
	return nil
}

// Read returns the report at path. A missing or empty report is unclassified.
func (r *Reporter) Read(path string) (domain.FailureReport, error) {
	if path == "" {
		return domain.UnclassifiedFailure(), nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // path comes from trusted config
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.UnclassifiedFailure(), nil
		}
		return domain.FailureReport{}, zerr.With(zerr.Wrap(err, "failed to read failure report"), "path", path)
	}

	var dto reportDTO
	if err := yaml.Unmarshal(data, &dto); err != nil {
		return domain.FailureReport{}, zerr.With(zerr.Wrap(domain.ErrReportParseFailed, err.Error()), "path", path)
	}

	return domain.FailureReport{
		Category: domain.NormalizeFailureCategory(dto.Category),
		Reason:   dto.Reason,
	}, nil
}
