package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/stateview/internal/document"
	"github.com/roach88/stateview/internal/query"
	"github.com/roach88/stateview/internal/queryir"
	"github.com/roach88/stateview/internal/testutil"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// seedStore upserts the given documents.
func seedStore(t *testing.T, s *Store, docs ...*document.SVDocument) {
	t.Helper()
	for _, sv := range docs {
		rec, err := document.NewRecord(sv)
		require.NoError(t, err)
		require.NoError(t, s.Upsert(context.Background(), rec))
	}
}

// planFor validates and translates a JSON query over the fixture type.
func planFor(t *testing.T, raw string) queryir.Plan {
	t.Helper()
	obj, err := query.ParseJSON([]byte(raw))
	require.NoError(t, err)
	q, err := query.NewValidator(query.DefaultLimits()).Parse(obj)
	require.NoError(t, err)
	return queryir.NewTranslator(query.DefaultLimits()).Translate(testutil.NiceDocumentType, q)
}

func recordIDs(recs []document.Record) []string {
	out := make([]string, len(recs))
	for i, rec := range recs {
		out[i] = rec.ID
	}
	return out
}
