package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/stateview/internal/ir"
)

func TestNiceDocuments(t *testing.T) {
	docs := NiceDocuments(3)
	require.Len(t, docs, 3)

	third := docs[2]
	assert.Equal(t, "doc-3", third.ID())
	assert.Equal(t, "user-3", third.UserID())
	assert.Equal(t, NiceDocumentType, third.Type())

	ref, ok := third.Reference()
	require.True(t, ok)
	assert.Equal(t, "st-3", ref.StateTransitionHash)
	assert.Equal(t, int64(3), ref.BlockHeight)

	data := third.Document().Data
	assert.Equal(t, ir.IRArray{ir.IRInt(2), ir.IRInt(3), ir.IRInt(4)}, data["arrayWithScalar"])
	assert.Len(t, data["arrayWithObjects"], 3)
	assert.Equal(t, ir.IRString("Sweety"), data["lastName"])
}

func TestNiceData_BeyondNamedDocuments(t *testing.T) {
	data := NiceData(5)

	_, named := data["name"]
	assert.False(t, named)
	assert.Equal(t, ir.IRInt(5), data["order"])
}
