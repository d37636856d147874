package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validScenario = `
name: valid
description: a minimal scenario
type: note
blocks:
  - height: 1
    hash: block-1
    transitions:
      - stHash: st-1
        stPacketHash: packet-1
        action: create
        id: note-1
        userId: alice
        data:
          rank: 1
steps:
  - op: find
    id: note-1
    expect:
      found: true
      data:
        rank: 1
`

func TestParseScenario_Valid(t *testing.T) {
	s, err := ParseScenario([]byte(validScenario))
	require.NoError(t, err)

	assert.Equal(t, "valid", s.Name)
	assert.Equal(t, "note", s.Type)
	require.Len(t, s.Blocks, 1)
	require.Len(t, s.Blocks[0].Transitions, 1)
	assert.Equal(t, "note", s.Blocks[0].Transitions[0].Document.Type)
	require.Len(t, s.Steps, 1)
	require.NotNil(t, s.Steps[0].Expect.Found)
	assert.True(t, *s.Steps[0].Expect.Found)
	assert.Equal(t, 1, s.Steps[0].Expect.Data["rank"])
}

func TestParseScenario_NoBlocks(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: empty
description: no blocks at all
type: note
steps:
  - op: fetch
    query: {}
    expect:
      ids: []
`))
	require.NoError(t, err)
	assert.Empty(t, s.Blocks)
	require.NotNil(t, s.Steps[0].Expect.IDs)
	assert.Empty(t, s.Steps[0].Expect.IDs)
}

func TestParseScenario_Errors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "unknown field",
			yaml:    "name: x\ndescription: d\ntype: note\nstep: []\n",
			wantErr: "field step not found",
		},
		{
			name:    "missing name",
			yaml:    "description: d\ntype: note\nsteps: [{op: fetch, query: {}}]\n",
			wantErr: "name is required",
		},
		{
			name:    "missing type",
			yaml:    "name: x\ndescription: d\nsteps: [{op: fetch, query: {}}]\n",
			wantErr: "type is required",
		},
		{
			name:    "no steps",
			yaml:    "name: x\ndescription: d\ntype: note\n",
			wantErr: "steps list is required",
		},
		{
			name:    "unknown op",
			yaml:    "name: x\ndescription: d\ntype: note\nsteps: [{op: update}]\n",
			wantErr: `steps[0]: unknown op "update"`,
		},
		{
			name:    "fetch without query",
			yaml:    "name: x\ndescription: d\ntype: note\nsteps: [{op: fetch}]\n",
			wantErr: "fetch requires query",
		},
		{
			name:    "find without id",
			yaml:    "name: x\ndescription: d\ntype: note\nsteps: [{op: find}]\n",
			wantErr: "find requires id",
		},
		{
			name:    "rollback without hash",
			yaml:    "name: x\ndescription: d\ntype: note\nsteps: [{op: rollback}]\n",
			wantErr: "rollback requires stHash",
		},
		{
			name:    "ids and errors",
			yaml:    "name: x\ndescription: d\ntype: note\nsteps: [{op: fetch, query: {}, expect: {ids: [], errors: [Q101]}}]\n",
			wantErr: "mutually exclusive",
		},
		{
			name:    "find expects ids",
			yaml:    "name: x\ndescription: d\ntype: note\nsteps: [{op: find, id: a, expect: {ids: [a]}}]\n",
			wantErr: "ids only apply to fetch and origin",
		},
		{
			name:    "fetch expects state",
			yaml:    "name: x\ndescription: d\ntype: note\nsteps: [{op: fetch, query: {}, expect: {state: active}}]\n",
			wantErr: "only apply to find",
		},
		{
			name: "bad block",
			yaml: "name: x\ndescription: d\ntype: note\n" +
				"blocks: [{height: 1, hash: block-1, transitions: [{stHash: st-1, action: rename, id: a, userId: u}]}]\n" +
				"steps: [{op: find, id: a}]\n",
			wantErr: "blocks[0]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenarios_SortedAndUnique(t *testing.T) {
	dir := t.TempDir()
	second := []byte("name: b\ndescription: d\ntype: note\nsteps: [{op: fetch, query: {}}]\n")
	first := []byte("name: a\ndescription: d\ntype: note\nsteps: [{op: fetch, query: {}}]\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "2-second.yaml"), second, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "1-first.yaml"), first, 0644))

	scenarios, err := LoadScenarios(dir)
	require.NoError(t, err)
	require.Len(t, scenarios, 2)
	assert.Equal(t, "a", scenarios[0].Name)
	assert.Equal(t, "b", scenarios[1].Name)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "3-dup.yaml"), first, 0644))
	_, err = LoadScenarios(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `scenario "a" defined in both`)
}
