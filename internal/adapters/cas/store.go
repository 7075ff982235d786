// Package cas implements the artifact record store used to detect build drift.
package cas

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"go.trai.ch/blitz/internal/core/domain"
	"go.trai.ch/blitz/internal/core/ports"
	"go.trai.ch/zerr"
)

// RecordsDir is the directory below the state directory holding the records.
const RecordsDir = "artifacts"

const (
	dirPerm  = 0o750
	filePerm = 0o644
)

var _ ports.ArtifactStore = (*Store)(nil)

// Store implements ports.ArtifactStore using a file-per-package strategy.
// File names are the SHA-256 of the package name, so any name is a safe path.
type Store struct {
	dir string
	mu  sync.RWMutex
}

// NewStore creates a store keeping its records below stateDir.
func NewStore(stateDir string) *Store {
	return &Store{dir: filepath.Join(filepath.Clean(stateDir), RecordsDir)}
}

// Dir returns the directory holding the records.
func (s *Store) Dir() string {
	return s.dir
}

// Get retrieves the record for a package. It returns nil, nil if none exists.
func (s *Store) Get(pkg string) (*domain.ArtifactRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	filename := s.filename(pkg)
	//nolint:gosec // Path is constructed from trusted directory and hashed filename
	data, err := os.ReadFile(filename)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, zerr.With(zerr.Wrap(domain.ErrStoreReadFailed, err.Error()), "path", filename)
	}

	var record domain.ArtifactRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrStoreReadFailed, err.Error()), "path", filename)
	}

	return &record, nil
}

// Put stores the record, replacing the previous one for the same package.
// The file is replaced atomically so an interrupted write never leaves a torn record.
func (s *Store) Put(record domain.ArtifactRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return zerr.Wrap(domain.ErrStoreWriteFailed, err.Error())
	}

	if err := os.MkdirAll(s.dir, dirPerm); err != nil {
		return zerr.With(zerr.Wrap(domain.ErrStoreWriteFailed, err.Error()), "path", s.dir)
	}

	filename := s.filename(record.Package)
	tmp, err := os.CreateTemp(s.dir, ".record-*")
	if err != nil {
		return zerr.With(zerr.Wrap(domain.ErrStoreWriteFailed, err.Error()), "path", filename)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // Gone after a successful rename

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return zerr.With(zerr.Wrap(domain.ErrStoreWriteFailed, err.Error()), "path", filename)
	}
	if err := tmp.Close(); err != nil {
		return zerr.With(zerr.Wrap(domain.ErrStoreWriteFailed, err.Error()), "path", filename)
	}
	if err := os.Chmod(tmpName, filePerm); err != nil {
		return zerr.With(zerr.Wrap(domain.ErrStoreWriteFailed, err.Error()), "path", filename)
	}
	if err := os.Rename(tmpName, filename); err != nil {
		return zerr.With(zerr.Wrap(domain.ErrStoreWriteFailed, err.Error()), "path", filename)
	}

	return nil
}

func (s *Store) filename(pkg string) string {
	hash := sha256.Sum256([]byte(pkg))
	return filepath.Join(s.dir, hex.EncodeToString(hash[:])+".json")
}
