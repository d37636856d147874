package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/stateview/internal/document"
	"github.com/roach88/stateview/internal/ir"
	"github.com/roach88/stateview/internal/testutil"
)

func TestLoadBlocks(t *testing.T) {
	blocks, err := LoadBlocks("testdata/blocks.yaml", testutil.NiceDocumentType)
	require.NoError(t, err)
	require.Len(t, blocks, 3)

	first := blocks[0]
	assert.Equal(t, int64(1), first.Height)
	assert.Equal(t, "block-1", first.Hash)
	require.Len(t, first.Quorum, 2)
	assert.Equal(t, []byte{0x0a, 0x0b, 0x0c}, first.Quorum[0].ProTxHash)
	assert.Equal(t, int64(200), first.VotingPower())
	assert.Equal(t, []string{"st-1", "st-2"}, first.StateTransitionHashes())

	create := first.Transitions[0]
	assert.Equal(t, document.ActionCreate, create.Action)
	assert.Equal(t, testutil.NiceDocumentType, create.Document.Type)
	assert.Equal(t, "user-1", create.Document.Metadata.UserID)
	assert.Equal(t, ir.IRArray{ir.IRInt(0)}, create.Document.Data["arrayWithScalar"])

	ref, err := first.Reference(create)
	require.NoError(t, err)
	assert.Equal(t, document.MustReference("block-1", 1, "st-1", "packet-1"), ref)

	del := blocks[1].Transitions[1]
	assert.Equal(t, document.ActionDelete, del.Action)
	assert.Empty(t, del.Document.Data)

	nested, ok := blocks[2].Transitions[0].Document.Get("nested.flag")
	require.True(t, ok)
	assert.Equal(t, ir.IRBool(true), nested)
}

func TestDecodeBlocks_JSON(t *testing.T) {
	blocks, err := DecodeBlocks([]byte(`{"blocks": [{"height": 7, "hash": "b7", "transitions": [
		{"stHash": "st-7", "stPacketHash": "p-7", "action": "create", "id": "doc-7", "userId": "u", "data": {"n": 7}}
	]}]}`), "thing")
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, "thing", blocks[0].Transitions[0].Document.Type)
	assert.Equal(t, ir.IRInt(7), blocks[0].Transitions[0].Document.Data["n"])
}

func TestDecodeBlocks_Decimals(t *testing.T) {
	blocks, err := DecodeBlocks([]byte("blocks: [{height: 1, hash: b1, transitions: "+
		"[{stHash: s, stPacketHash: p, action: create, id: d, data: {price: 1.5, qty: 2.0}}]}]"), "item")
	require.NoError(t, err)
	data := blocks[0].Transitions[0].Document.Data
	assert.Equal(t, ir.IRFloat(1.5), data["price"])
	assert.Equal(t, ir.IRInt(2), data["qty"])
}

func TestDecodeBlocks_Errors(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		incomplete bool
	}{
		{
			name:       "missing st hash",
			input:      "blocks: [{height: 1, hash: b1, transitions: [{stPacketHash: p, action: create, id: d}]}]",
			incomplete: true,
		},
		{
			name:       "missing block hash",
			input:      "blocks: [{height: 1, transitions: [{stHash: s, stPacketHash: p, action: create, id: d}]}]",
			incomplete: true,
		},
		{
			name:       "quorum member without key share",
			input:      "blocks: [{height: 1, hash: b1, quorum: [{proTxHash: aa}]}]",
			incomplete: true,
		},
		{
			name:  "unknown action",
			input: "blocks: [{height: 1, hash: b1, transitions: [{stHash: s, stPacketHash: p, action: upsert, id: d}]}]",
		},
		{
			name:  "non-finite data",
			input: "blocks: [{height: 1, hash: b1, transitions: [{stHash: s, stPacketHash: p, action: create, id: d, data: {x: .inf}}]}]",
		},
		{
			name:  "missing id",
			input: "blocks: [{height: 1, hash: b1, transitions: [{stHash: s, stPacketHash: p, action: create}]}]",
		},
		{
			name:  "not yaml",
			input: "blocks: [",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeBlocks([]byte(tt.input), testutil.NiceDocumentType)
			require.Error(t, err)
			assert.Equal(t, tt.incomplete, document.IsIncompleteOrigin(err))
		})
	}
}
