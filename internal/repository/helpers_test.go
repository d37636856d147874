package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/stateview/internal/config"
	"github.com/roach88/stateview/internal/document"
	"github.com/roach88/stateview/internal/ir"
	"github.com/roach88/stateview/internal/query"
	"github.com/roach88/stateview/internal/queryir"
	"github.com/roach88/stateview/internal/testutil"
)

// forEachBackend runs fn against a fresh repository on every backend.
func forEachBackend(t *testing.T, fn func(t *testing.T, repo *Repository)) {
	t.Helper()
	backends := []string{
		config.BackendSQLite,
		config.BackendBadger,
		config.BackendBolt,
		config.BackendMemory,
	}
	for _, name := range backends {
		t.Run(name, func(t *testing.T) {
			fn(t, New(openTestBackend(t, name), testutil.NiceDocumentType))
		})
	}
}

func openTestBackend(t *testing.T, name string) Backend {
	t.Helper()
	cfg := config.StorageConfig{Backend: name, Path: filepath.Join(t.TempDir(), "test.db")}
	if name == config.BackendBadger {
		cfg.Path = t.TempDir()
	}
	b, err := OpenBackend(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })
	return b
}

// seedNice stores the three fixture documents.
func seedNice(t *testing.T, repo *Repository) []*document.SVDocument {
	t.Helper()
	docs := testutil.NiceDocuments(3)
	for _, sv := range docs {
		require.NoError(t, repo.Store(context.Background(), sv))
	}
	return docs
}

func mustQuery(t *testing.T, raw string) ir.IRObject {
	t.Helper()
	obj, err := query.ParseJSON([]byte(raw))
	require.NoError(t, err)
	return obj
}

func ids(docs []*document.SVDocument) []string {
	out := make([]string, len(docs))
	for i, sv := range docs {
		out[i] = sv.ID()
	}
	return out
}

var errBackendDown = errors.New("backend down")

// failingBackend fails every call and counts them.
type failingBackend struct {
	calls int
}

func (b *failingBackend) Upsert(context.Context, document.Record) error {
	b.calls++
	return errBackendDown
}

func (b *failingBackend) Get(context.Context, string, string) (*document.Record, error) {
	b.calls++
	return nil, errBackendDown
}

func (b *failingBackend) Query(context.Context, queryir.Plan) ([]document.Record, error) {
	b.calls++
	return nil, errBackendDown
}

func (b *failingBackend) FindByOrigin(context.Context, string, string) ([]document.Record, error) {
	b.calls++
	return nil, errBackendDown
}

func (b *failingBackend) Remove(context.Context, string, string) error {
	b.calls++
	return errBackendDown
}

func (b *failingBackend) SyncState(context.Context) (*document.SyncState, error) {
	b.calls++
	return nil, errBackendDown
}

func (b *failingBackend) SaveSyncState(context.Context, document.SyncState) error {
	b.calls++
	return errBackendDown
}

func (b *failingBackend) Close() error { return nil }

// flakyBackend wraps a working backend and fails writes while failWrites
// is set.
type flakyBackend struct {
	Backend
	failWrites bool
}

func (b *flakyBackend) Upsert(ctx context.Context, rec document.Record) error {
	if b.failWrites {
		return errBackendDown
	}
	return b.Backend.Upsert(ctx, rec)
}

// recordingMetrics counts observations by name.
type recordingMetrics struct {
	ops            map[string]int
	errors         map[string]int
	invalidQueries int
	fetchResults   []int
	rolledBack     int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{ops: map[string]int{}, errors: map[string]int{}}
}

func (m *recordingMetrics) ObserveOperation(op string, err error, _ time.Duration) {
	m.ops[op]++
	if err != nil {
		m.errors[op]++
	}
}

func (m *recordingMetrics) ObserveFetchResults(n int) { m.fetchResults = append(m.fetchResults, n) }
func (m *recordingMetrics) IncInvalidQueries()        { m.invalidQueries++ }
func (m *recordingMetrics) SetBlockHeight(int64)      {}
func (m *recordingMetrics) IncRevisions(string)       {}
func (m *recordingMetrics) AddRolledBack(n int)       { m.rolledBack += n }
