package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/stateview/internal/document"
	"github.com/roach88/stateview/internal/ir"
	"github.com/roach88/stateview/internal/testutil"
)

func TestUpsert_GetRoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	sv := testutil.NiceDocument(2, testutil.Ref(7, "st-a"))
	seedStore(t, s, sv)

	rec, err := s.Get(ctx, testutil.NiceDocumentType, "doc-3")
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.Equal(t, "user-3", rec.UserID)
	assert.False(t, rec.Deleted)
	assert.Equal(t, testutil.Ref(7, "st-a"), rec.Reference)
	assert.Equal(t, testutil.NiceData(2), rec.Data)

	restored, err := rec.SVDocument()
	require.NoError(t, err)
	assert.Equal(t, sv.Revisions(), restored.Revisions())
}

func TestGet_Missing(t *testing.T) {
	s := createTestStore(t)

	rec, err := s.Get(context.Background(), testutil.NiceDocumentType, "nope")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestUpsert_ReplacesHistory(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	sv := testutil.NiceDocument(0, testutil.Ref(1, "st-1"))
	doc := sv.Document()
	require.NoError(t, doc.Set("order", ir.IRInt(42)))
	require.NoError(t, sv.AddRevision(doc, testutil.Ref(2, "st-2"), document.ActionUpdate))
	seedStore(t, s, sv)

	rec, err := s.Get(ctx, testutil.NiceDocumentType, "doc-1")
	require.NoError(t, err)
	require.Len(t, rec.Revisions, 2)
	assert.Equal(t, ir.IRInt(42), rec.Data["order"])

	// Roll the update back and store the shorter history.
	assert.Equal(t, 1, sv.RemoveRevisionsByOrigin("st-2"))
	seedStore(t, s, sv)

	rec, err = s.Get(ctx, testutil.NiceDocumentType, "doc-1")
	require.NoError(t, err)
	require.Len(t, rec.Revisions, 1)
	assert.Equal(t, ir.IRInt(0), rec.Data["order"])
	assert.Equal(t, "st-1", rec.Reference.StateTransitionHash)

	var count int
	require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM revisions").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestUpsert_SoftDelete(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	docs := testutil.NiceDocuments(3)
	require.NoError(t, docs[1].MarkAsDeleted(testutil.Ref(9, "st-del")))
	seedStore(t, s, docs...)

	rec, err := s.Get(ctx, testutil.NiceDocumentType, "doc-2")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.True(t, rec.Deleted)

	got, err := s.Query(ctx, planFor(t, `{}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"doc-1", "doc-3"}, recordIDs(got))
}

func TestQuery_Operators(t *testing.T) {
	s := createTestStore(t)
	seedStore(t, s, testutil.NiceDocuments(3)...)

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"all", `{}`, []string{"doc-1", "doc-2", "doc-3"}},
		{"less", `{"where": [["order", "<", 1]]}`, []string{"doc-1"}},
		{"less equal", `{"where": [["order", "<=", 1]]}`, []string{"doc-1", "doc-2"}},
		{"equal", `{"where": [["name", "==", "Cutie"]]}`, []string{"doc-1"}},
		{"greater", `{"where": [["order", ">", 1]]}`, []string{"doc-3"}},
		{"greater equal", `{"where": [["order", ">=", 1]]}`, []string{"doc-2", "doc-3"}},
		{"in", `{"where": [["order", "in", [0, 2]]]}`, []string{"doc-1", "doc-3"}},
		{"in on $id", `{"where": [["$id", "in", ["doc-1", "doc-2"]]]}`, []string{"doc-1", "doc-2"}},
		{"length", `{"where": [["arrayWithObjects", "length", 2]]}`, []string{"doc-2"}},
		{"startsWith", `{"where": [["lastName", "startsWith", "Swe"]]}`, []string{"doc-3"}},
		{"elementMatch", `{"where": [["arrayWithObjects", "elementMatch", [["item", "==", 2], ["flag", "==", true]]]]}`, []string{"doc-2"}},
		{"contains all of array", `{"where": [["arrayWithScalar", "contains", [2, 3]]]}`, []string{"doc-3"}},
		{"contains scalar", `{"where": [["arrayWithScalar", "contains", 2]]}`, []string{"doc-2", "doc-3"}},
		{"no match", `{"where": [["name", "==", "Dash enthusiast"]]}`, []string{}},
		{"nested object fields", `{"where": [["arrayWithObjects.item", "==", 2]]}`, []string{"doc-2"}},
		{"several conditions", `{"where": [["name", "==", "Cutie"], ["arrayWithObjects", "elementMatch", [["item", "==", 1], ["flag", "==", true]]]]}`, []string{"doc-1"}},
		{"equality is strict", `{"where": [["order", "==", true]]}`, []string{}},
		{"no implicit element match", `{"where": [["arrayWithScalar", "==", 2]]}`, []string{}},
		{"whole array equality", `{"where": [["arrayWithScalar", "==", [1, 2]]]}`, []string{"doc-2"}},
		{"indexed path", `{"where": [["arrayWithScalar.1", "==", 3]]}`, []string{"doc-3"}},
		{"range across types", `{"where": [["name", ">", 0]]}`, []string{}},
		{"$userId prefix", `{"where": [["$userId", "startsWith", "user-"]]}`, []string{"doc-1", "doc-2", "doc-3"}},
		{"$id non-string", `{"where": [["$id", "==", 1]]}`, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Query(context.Background(), planFor(t, tt.query))
			require.NoError(t, err)
			assert.Equal(t, tt.want, recordIDs(got))
		})
	}
}

func TestQuery_Ordering(t *testing.T) {
	s := createTestStore(t)
	docs := testutil.NiceDocuments(3)
	for i, primary := range []int64{1, 2, 2} {
		doc := docs[i].Document()
		require.NoError(t, doc.Set("primaryOrder", ir.IRInt(primary)))
		require.NoError(t, docs[i].AddRevision(doc, testutil.Ref(10, "st-order"), document.ActionUpdate))
	}
	seedStore(t, s, docs...)

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"order desc", `{"orderBy": [["order", "desc"]]}`, []string{"doc-3", "doc-2", "doc-1"}},
		{"two fields", `{"orderBy": [["primaryOrder", "asc"], ["order", "desc"]]}`, []string{"doc-1", "doc-3", "doc-2"}},
		{"$id desc", `{"orderBy": [["$id", "desc"]]}`, []string{"doc-3", "doc-2", "doc-1"}},
		{"string desc", `{"orderBy": [["lastName", "desc"]]}`, []string{"doc-3", "doc-2", "doc-1"}},
		{"range with sort", `{"where": [["order", ">", 0]], "orderBy": [["order", "desc"]]}`, []string{"doc-3", "doc-2"}},
		{"limit", `{"orderBy": [["order", "asc"]], "limit": 2}`, []string{"doc-1", "doc-2"}},
		{"startAt", `{"orderBy": [["order", "asc"]], "startAt": 2}`, []string{"doc-2", "doc-3"}},
		{"startAfter", `{"orderBy": [["order", "asc"]], "startAfter": 1}`, []string{"doc-2", "doc-3"}},
		{"past the end", `{"startAfter": 5}`, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Query(context.Background(), planFor(t, tt.query))
			require.NoError(t, err)
			assert.Equal(t, tt.want, recordIDs(got))
		})
	}
}

func TestQuery_MixedTypeSort(t *testing.T) {
	s := createTestStore(t)
	values := []ir.IRValue{
		ir.IRString("b"),
		ir.IRInt(3),
		nil,
		ir.IRBool(true),
		ir.IRArray{ir.IRInt(1)},
		ir.IRNull{},
		ir.IRObject{"k": ir.IRInt(1)},
		ir.IRInt(-1),
	}
	for i, v := range values {
		doc := document.NewDocument(testutil.NiceDocumentType, fmt.Sprintf("doc-%d", i), "user")
		if v != nil {
			doc.Data["v"] = v
		}
		sv, err := document.New(doc, testutil.Ref(1, "st"))
		require.NoError(t, err)
		seedStore(t, s, sv)
	}

	got, err := s.Query(context.Background(), planFor(t, `{"orderBy": [["v", "asc"]]}`))
	require.NoError(t, err)
	// missing and null tie and fall back to id order
	assert.Equal(t, []string{"doc-2", "doc-5", "doc-3", "doc-7", "doc-1", "doc-0", "doc-4", "doc-6"}, recordIDs(got))
}

func TestQuery_DefaultLimit(t *testing.T) {
	s := createTestStore(t)
	for i := 0; i < 101; i++ {
		doc := document.NewDocument(testutil.NiceDocumentType, fmt.Sprintf("doc-%03d", i), "user")
		sv, err := document.New(doc, testutil.Ref(1, "st"))
		require.NoError(t, err)
		seedStore(t, s, sv)
	}

	got, err := s.Query(context.Background(), planFor(t, `{}`))
	require.NoError(t, err)
	assert.Len(t, got, 100)
	assert.Equal(t, "doc-099", got[99].ID)
}

func TestFindByOrigin(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	docs := testutil.NiceDocuments(3)
	require.NoError(t, docs[0].MarkAsDeleted(testutil.Ref(5, "st-shared")))
	doc := docs[2].Document()
	require.NoError(t, doc.Set("order", ir.IRInt(9)))
	require.NoError(t, docs[2].AddRevision(doc, testutil.Ref(5, "st-shared"), document.ActionUpdate))
	seedStore(t, s, docs...)

	got, err := s.FindByOrigin(ctx, testutil.NiceDocumentType, "st-shared")
	require.NoError(t, err)
	assert.Equal(t, []string{"doc-1", "doc-3"}, recordIDs(got))
	assert.True(t, got[0].Deleted)

	// Only the current revision counts.
	got, err = s.FindByOrigin(ctx, testutil.NiceDocumentType, "st-3")
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = s.FindByOrigin(ctx, "otherDocument", "st-shared")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestRemove(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	seedStore(t, s, testutil.NiceDocuments(2)...)

	require.NoError(t, s.Remove(ctx, testutil.NiceDocumentType, "doc-1"))
	require.NoError(t, s.Remove(ctx, testutil.NiceDocumentType, "missing"))

	rec, err := s.Get(ctx, testutil.NiceDocumentType, "doc-1")
	require.NoError(t, err)
	assert.Nil(t, rec)

	var count int
	require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM revisions WHERE id = 'doc-1'").Scan(&count))
	assert.Zero(t, count)

	rec, err = s.Get(ctx, testutil.NiceDocumentType, "doc-2")
	require.NoError(t, err)
	assert.NotNil(t, rec)
}

func TestQuery_NormalizedStrings(t *testing.T) {
	s := createTestStore(t)
	doc := document.NewDocument(testutil.NiceDocumentType, "doc-1", "user")
	doc.Data["name"] = ir.IRString("Jose\u0301")
	sv, err := document.New(doc, testutil.Ref(1, "st"))
	require.NoError(t, err)
	seedStore(t, s, sv)

	got, err := s.Query(context.Background(), planFor(t, `{"where": [["name", "==", "Jos\u00e9"]]}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"doc-1"}, recordIDs(got))
}
