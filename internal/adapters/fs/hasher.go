package fs

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/blitz/internal/core/domain"
	"go.trai.ch/blitz/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

var _ ports.Hasher = (*Hasher)(nil)

// Hasher computes plan fingerprints and artifact digests with xxhash.
type Hasher struct {
	walker *Walker
}

// NewHasher creates a new Hasher.
func NewHasher(walker *Walker) *Hasher {
	return &Hasher{walker: walker}
}

// ComputeFileHash computes the XXHash of a file's content.
func (h *Hasher) ComputeFileHash(path string) (uint64, error) {
	f, err := os.Open(path) //nolint:gosec // Path is controlled by caller
	if err != nil {
		return 0, zerr.With(zerr.Wrap(err, "failed to open file"), "path", path)
	}
	defer f.Close() //nolint:errcheck // Best effort close in defer

	hasher := xxhash.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return 0, zerr.With(zerr.Wrap(err, "failed to hash file content"), "path", path)
	}

	return hasher.Sum64(), nil
}

// Fingerprint hashes every plan input that affects the produced artifact.
// The target descriptor and the input files contribute their content. Input
// files are named relative to the working directory, so a moved checkout
// keeps its fingerprint. Artifacts are never hashed as inputs.
func (h *Hasher) Fingerprint(plan domain.BuildPlan) (string, error) {
	hasher := xxhash.New()

	spec := plan.Toolchain
	writeField(hasher, spec.Channel)
	writeList(hasher, spec.Components)
	for _, flag := range spec.CodegenKeys() {
		writeField(hasher, flag+"="+spec.Codegen[flag])
	}
	_, _ = hasher.Write([]byte{0})

	targetHash, err := h.ComputeFileHash(plan.TargetPath())
	if err != nil {
		return "", zerr.Wrap(err, "failed to hash target descriptor")
	}
	if err := binary.Write(hasher, binary.LittleEndian, targetHash); err != nil {
		return "", zerr.Wrap(err, "failed to write hash to digest")
	}

	writeField(hasher, plan.Package)
	writeList(hasher, plan.CoreLibrary)
	writeList(hasher, plan.CoreFeatures)
	writeField(hasher, fmt.Sprint(plan.Release))

	if err := h.hashInputFiles(plan, hasher); err != nil {
		return "", err
	}

	return fmt.Sprintf("%016x", hasher.Sum64()), nil
}

func (h *Hasher) hashInputFiles(plan domain.BuildPlan, hasher io.Writer) error {
	files, err := h.inputFiles(plan)
	if err != nil {
		return err
	}

	base := plan.Dir
	if base == "" {
		base = "."
	}
	for _, file := range files {
		rel, err := filepath.Rel(base, file)
		if err != nil {
			rel = file
		}
		writeField(hasher, filepath.ToSlash(rel))

		sum, err := h.ComputeFileHash(file)
		if err != nil {
			return err
		}
		if err := binary.Write(hasher, binary.LittleEndian, sum); err != nil {
			return zerr.Wrap(err, "failed to write hash to digest")
		}
	}
	_, _ = hasher.Write([]byte{0})
	return nil
}

// inputFiles resolves the plan's inputs to files, sorted and de-duplicated.
// Paths that do not exist are tried as glob patterns.
func (h *Hasher) inputFiles(plan domain.BuildPlan) ([]string, error) {
	ignores := plan.IgnorePaths()
	artifacts := plan.ArtifactPaths()

	var files []string
	add := func(path string) error {
		info, err := os.Stat(path)
		if err != nil {
			return zerr.With(zerr.Wrap(err, "failed to stat input"), "path", path)
		}
		if !info.IsDir() {
			files = append(files, filepath.Clean(path))
			return nil
		}
		for file, err := range h.walker.WalkFiles(path, ignores) {
			if err != nil {
				return zerr.With(zerr.Wrap(err, "failed to walk input directory"), "path", path)
			}
			files = append(files, file)
		}
		return nil
	}

	for _, input := range plan.InputPaths() {
		if _, err := os.Stat(input); err == nil {
			if err := add(input); err != nil {
				return nil, err
			}
			continue
		}
		matches, err := filepath.Glob(input)
		if err != nil || len(matches) == 0 {
			return nil, zerr.With(zerr.Wrap(domain.ErrInputNotFound, "no file matches build input"), "path", input)
		}
		for _, match := range matches {
			if err := add(match); err != nil {
				return nil, err
			}
		}
	}

	files = slices.DeleteFunc(files, func(file string) bool {
		return slices.Contains(artifacts, file) || underAny(file, ignores)
	})
	slices.Sort(files)
	return slices.Compact(files), nil
}

func underAny(path string, dirs []string) bool {
	for _, dir := range dirs {
		if path == dir || strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// HashArtifacts hashes the content of paths into one digest. Directories are
// expanded to the files below them. Files are hashed in parallel and combined
// in sorted path order, so the result does not depend on scheduling.
func (h *Hasher) HashArtifacts(ctx context.Context, paths []string) (string, error) {
	files, err := h.expand(paths)
	if err != nil {
		return "", err
	}

	hashes := make([]uint64, len(files))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, file := range files {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			sum, err := h.ComputeFileHash(file)
			if err != nil {
				return err
			}
			hashes[i] = sum
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	hasher := xxhash.New()
	for _, sum := range hashes {
		if err := binary.Write(hasher, binary.LittleEndian, sum); err != nil {
			return "", zerr.Wrap(err, "failed to write hash to digest")
		}
	}
	return fmt.Sprintf("%016x", hasher.Sum64()), nil
}

// expand resolves directories to their files and returns the result sorted and de-duplicated.
func (h *Hasher) expand(paths []string) ([]string, error) {
	files := make([]string, 0, len(paths))
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, "failed to stat artifact"), "path", path)
		}
		if !info.IsDir() {
			files = append(files, path)
			continue
		}
		for file, err := range h.walker.WalkFiles(path, nil) {
			if err != nil {
				return nil, zerr.With(zerr.Wrap(err, "failed to walk artifact directory"), "path", path)
			}
			files = append(files, file)
		}
	}
	slices.Sort(files)
	return slices.Compact(files), nil
}

func writeField(w io.Writer, s string) {
	_, _ = io.WriteString(w, s)
	_, _ = w.Write([]byte{0})
}

func writeList(w io.Writer, items []string) {
	for _, item := range items {
		writeField(w, item)
	}
	_, _ = w.Write([]byte{0}) // Section separator
}
