package progrock_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	vprogrock "github.com/vito/progrock"
	"go.trai.ch/blitz/internal/adapters/telemetry/progrock"
	"go.trai.ch/blitz/internal/core/domain"
	"go.trai.ch/blitz/internal/core/ports"
)

func TestNew(t *testing.T) {
	recorder := progrock.New()
	assert.NotNil(t, recorder)
}

func TestRecorder_Lifecycle(t *testing.T) {
	recorder := progrock.New()

	ctx, vertex := recorder.Record(context.Background(), "cargo build")
	fromCtx, ok := ports.VertexFromContext(ctx)
	require.True(t, ok)
	assert.Same(t, vertex, fromCtx)

	_, err := vertex.Stdout().Write([]byte("Compiling core\n"))
	require.NoError(t, err)
	_, err = vertex.Stderr().Write([]byte("warning: unused\n"))
	require.NoError(t, err)

	vertex.Log(domain.LogLevelDebug, "debug msg")
	vertex.Log(domain.LogLevelError, "error msg")
	vertex.Complete(nil)

	require.NoError(t, recorder.Close())
}

func TestRecorder_RepeatedNamesGetDistinctVertices(t *testing.T) {
	recorder := progrock.New()

	_, first := recorder.Record(context.Background(), "attempt")
	_, second := recorder.Record(context.Background(), "attempt")
	assert.NotSame(t, first, second)

	first.Complete(errors.New("exit status 1"))
	second.Cached()

	require.NoError(t, recorder.Close())
}

// readJournal returns the last recorded state of every vertex in the journal, by name.
func readJournal(t *testing.T, path string) map[string]*vprogrock.Vertex {
	t.Helper()

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	vertices := map[string]*vprogrock.Vertex{}
	dec := json.NewDecoder(f)
	for {
		var update vprogrock.StatusUpdate
		err := dec.Decode(&update)
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		for _, v := range update.Vertexes {
			vertices[v.Name] = v
		}
	}
	return vertices
}

func TestRecorder_OpenJournal(t *testing.T) {
	recorder := progrock.New()

	_, before := recorder.Record(context.Background(), "build")
	before.Complete(nil)

	path := filepath.Join(t.TempDir(), ".blitz", "progress.journal")
	require.NoError(t, recorder.OpenJournal(path))

	_, first := recorder.Record(context.Background(), "attempt 1: python3 scripts/regress.py")
	first.Complete(errors.New("exit status 3"))
	_, second := recorder.Record(context.Background(), "attempt 2: python3 scripts/regress.py")
	second.Complete(nil)

	require.NoError(t, recorder.Close())

	vertices := readJournal(t, path)
	assert.NotContains(t, vertices, "build")

	require.Contains(t, vertices, "attempt 1: python3 scripts/regress.py")
	failed := vertices["attempt 1: python3 scripts/regress.py"]
	assert.NotNil(t, failed.Completed)
	require.NotNil(t, failed.Error)
	assert.Equal(t, "exit status 3", *failed.Error)

	require.Contains(t, vertices, "attempt 2: python3 scripts/regress.py")
	passed := vertices["attempt 2: python3 scripts/regress.py"]
	assert.NotNil(t, passed.Completed)
	assert.Nil(t, passed.Error)
}

func TestRecorder_OpenJournalReplacesPrevious(t *testing.T) {
	recorder := progrock.New()
	dir := t.TempDir()

	first := filepath.Join(dir, "first.journal")
	require.NoError(t, recorder.OpenJournal(first))
	_, v := recorder.Record(context.Background(), "attempt 1: cargo test")
	v.Complete(nil)

	second := filepath.Join(dir, "second.journal")
	require.NoError(t, recorder.OpenJournal(second))
	_, v = recorder.Record(context.Background(), "attempt 2: cargo test")
	v.Complete(nil)

	require.NoError(t, recorder.Close())

	assert.Contains(t, readJournal(t, first), "attempt 1: cargo test")
	assert.NotContains(t, readJournal(t, first), "attempt 2: cargo test")
	assert.Contains(t, readJournal(t, second), "attempt 2: cargo test")
}

func TestRecorder_OpenJournalUnwritable(t *testing.T) {
	recorder := progrock.New()

	blocker := filepath.Join(t.TempDir(), "state")
	require.NoError(t, os.WriteFile(blocker, nil, 0o600))

	err := recorder.OpenJournal(filepath.Join(blocker, "progress.journal"))
	require.Error(t, err)
	require.NoError(t, recorder.Close())
}
