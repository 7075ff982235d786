// Package progrock provides the Progrock implementation of the telemetry adapter.
package progrock

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/opencontainers/go-digest"
	"github.com/vito/progrock"
	"go.trai.ch/blitz/internal/core/ports"
	"go.trai.ch/zerr"
)

var (
	_ ports.Telemetry     = (*Recorder)(nil)
	_ ports.TelemetrySink = (*Recorder)(nil)
)

// Recorder implements the ports.Telemetry interface using the vito/progrock library.
type Recorder struct {
	out *fanout
	rec *progrock.Recorder
	seq atomic.Uint64
}

// New creates a new Recorder with a default tape.
func New() *Recorder {
	return NewRecorder(progrock.NewTape())
}

// NewRecorder creates a new Recorder with the given writer.
func NewRecorder(w progrock.Writer) *Recorder {
	out := &fanout{base: w}
	return &Recorder{
		out: out,
		rec: progrock.NewRecorder(out),
	}
}

// Record starts recording a new vertex.
//
// Every call gets its own vertex, even for a repeated name: verification attempts
// reuse step names across iterations.
func (r *Recorder) Record(ctx context.Context, name string) (context.Context, ports.Vertex) {
	seq := r.seq.Add(1)
	d := digest.FromString(strconv.FormatUint(seq, 10) + "/" + name)
	vertex := &Vertex{vertex: r.rec.Vertex(d, name)}
	return ports.ContextWithVertex(ctx, vertex), vertex
}

// OpenJournal copies every later status update to a progrock journal at path,
// replacing the journal of a previous run.
func (r *Recorder) OpenJournal(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create journal directory"), "path", path)
	}
	journal, err := progrock.CreateJournal(path)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create progress journal"), "path", path)
	}
	return r.out.attach(journal)
}

// Close flushes and closes the recording session.
func (r *Recorder) Close() error {
	return r.out.Close()
}

// fanout sends status updates to the base writer and the journal once one is attached.
type fanout struct {
	mu      sync.Mutex
	base    progrock.Writer
	journal progrock.Writer
}

func (f *fanout) writers() progrock.MultiWriter {
	if f.journal == nil {
		return progrock.MultiWriter{f.base}
	}
	return progrock.MultiWriter{f.base, f.journal}
}

func (f *fanout) WriteStatus(status *progrock.StatusUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writers().WriteStatus(status)
}

func (f *fanout) attach(journal progrock.Writer) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	var err error
	if f.journal != nil {
		err = f.journal.Close()
	}
	f.journal = journal
	return err
}

func (f *fanout) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	err := f.writers().Close()
	f.journal = nil
	return err
}
