package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/stateview/internal/document"
	"github.com/roach88/stateview/internal/ir"
	"github.com/roach88/stateview/internal/query"
)

const testBlocks = `
blocks:
  - height: 1
    hash: block-1
    transitions:
      - {stHash: st-1, stPacketHash: p-1, action: create, id: doc-1, userId: user-1, data: {name: Cutie, order: 0}}
      - {stHash: st-2, stPacketHash: p-2, action: create, id: doc-2, userId: user-2, data: {name: Dolly, order: 1}}
  - height: 2
    hash: block-2
    transitions:
      - {stHash: st-3, stPacketHash: p-3, action: update, id: doc-1, userId: user-1, data: {name: Cutie, order: 5}}
      - {stHash: st-4, stPacketHash: p-4, action: delete, id: doc-2, userId: user-2}
`

// testEnv is a database and block file in a temporary directory.
type testEnv struct {
	db     string
	blocks string
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()
	env := testEnv{db: filepath.Join(dir, "test.db"), blocks: filepath.Join(dir, "blocks.yaml")}
	require.NoError(t, os.WriteFile(env.blocks, []byte(testBlocks), 0o644))
	return env
}

// run executes the CLI against the env's database and returns stdout.
func (e testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append([]string{"--type", "note", "--db", e.db}, args...))
	err := cmd.Execute()
	return out.String(), err
}

type documentsResponse struct {
	Status string `json:"status"`
	Data   struct {
		Count     int                 `json:"count"`
		Documents []document.Document `json:"documents"`
	} `json:"data"`
}

func TestApply(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "apply", env.blocks)
	require.NoError(t, err)
	assert.Contains(t, out, "Applied 2 blocks: 4 transitions stored, 0 skipped")

	// blocks at or below the last synced height are rejected
	out, err = env.run(t, "apply", env.blocks)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "block 1 rejected")

	next := filepath.Join(t.TempDir(), "next.yaml")
	require.NoError(t, os.WriteFile(next, []byte(`
blocks:
  - height: 3
    hash: block-3
    transitions:
      - {stHash: st-5, stPacketHash: p-5, action: create, id: doc-3, userId: user-3, data: {name: Fluffy, order: 2}}
`), 0o644))
	out, err = env.run(t, "apply", next)
	require.NoError(t, err)
	assert.Contains(t, out, "Applied 1 block: 1 transition stored, 0 skipped")
}

func TestApply_MissingFile(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.run(t, "apply", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestApply_RejectedBlock(t *testing.T) {
	env := newTestEnv(t)
	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte(`
blocks:
  - height: 1
    hash: block-1
    transitions:
      - {stHash: st-1, stPacketHash: p-1, action: update, id: ghost, userId: u}
`), 0o644))

	out, err := env.run(t, "apply", bad)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "block 1 rejected")
}

func TestFetch(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.run(t, "apply", env.blocks)
	require.NoError(t, err)

	out, err := env.run(t, "fetch", "--format", "json")
	require.NoError(t, err)

	var resp documentsResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Equal(t, 1, resp.Data.Count)
	doc := resp.Data.Documents[0]
	assert.Equal(t, "doc-1", doc.ID)
	assert.Equal(t, ir.IRInt(5), doc.Data["order"])
	require.NotNil(t, doc.Metadata.Reference)
	assert.Equal(t, "st-3", doc.Metadata.Reference.StateTransitionHash)

	out, err = env.run(t, "fetch", "where: [[order, '>', 10]]")
	require.NoError(t, err)
	assert.Contains(t, out, "No documents found.")
}

func TestFetch_FromFile(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.run(t, "apply", env.blocks)
	require.NoError(t, err)

	queryFile := filepath.Join(t.TempDir(), "query.yaml")
	require.NoError(t, os.WriteFile(queryFile, []byte("where:\n  - [name, startsWith, Cu]\n"), 0o644))

	out, err := env.run(t, "fetch", "--file", queryFile)
	require.NoError(t, err)
	assert.Contains(t, out, "doc-1  user=user-1  active  revisions=2")
	assert.Contains(t, out, "1 document\n")

	_, err = env.run(t, "fetch", "--file", queryFile, "{}")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestFetch_InvalidQuery(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "fetch", "--format", "json", `{"invalid": "query"}`)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string           `json:"status"`
		Data   QueryCheckResult `json:"data"`
		Error  *CLIError        `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, ErrCodeInvalidQuery, resp.Error.Code)
	require.Len(t, resp.Data.Errors, 1)
	assert.Equal(t, query.ErrUnknownKey, resp.Data.Errors[0].Code)
}

func TestFindAndHistory(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.run(t, "apply", env.blocks)
	require.NoError(t, err)

	out, err := env.run(t, "find", "doc-1")
	require.NoError(t, err)
	assert.Contains(t, out, `data: {"name":"Cutie","order":5}`)

	out, err = env.run(t, "find", "doc-2")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "document note/doc-2 not found")

	out, err = env.run(t, "history", "doc-2")
	require.NoError(t, err)
	assert.Contains(t, out, "doc-2 (note)  user=user-2  deleted")
	assert.Contains(t, out, "#1 create block=1 (block-1) st=st-2")
	assert.Contains(t, out, "#2 delete block=2 (block-2) st=st-4")

	out, err = env.run(t, "history", "--format", "json", "doc-2")
	require.NoError(t, err)
	var resp struct {
		Data struct {
			State     string              `json:"state"`
			Revisions []document.Revision `json:"revisions"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "deleted", resp.Data.State)
	assert.Len(t, resp.Data.Revisions, 2)
}

func TestOriginAndRollback(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.run(t, "apply", env.blocks)
	require.NoError(t, err)

	out, err := env.run(t, "origin", "--format", "json", "st-4")
	require.NoError(t, err)
	var resp documentsResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Equal(t, 1, resp.Data.Count)
	assert.Equal(t, "doc-2", resp.Data.Documents[0].ID)

	out, err = env.run(t, "rollback", "st-3", "st-4")
	require.NoError(t, err)
	assert.Contains(t, out, "st-4: 1 revision dropped, 1 restored, 0 removed")
	assert.Contains(t, out, "st-3: 1 revision dropped, 1 restored, 0 removed")

	out, err = env.run(t, "fetch", "--format", "json", `{"orderBy": [["order", "desc"]]}`)
	require.NoError(t, err)
	resp = documentsResponse{}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Equal(t, 2, resp.Data.Count)
	assert.Equal(t, "doc-2", resp.Data.Documents[0].ID)
	assert.Equal(t, "doc-1", resp.Data.Documents[1].ID)
}

type statusResponse struct {
	Status string       `json:"status"`
	Data   StatusResult `json:"data"`
}

func TestStatus(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "status", "--format", "json")
	require.NoError(t, err)
	var resp statusResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "initialSync", resp.Data.Status)
	assert.Nil(t, resp.Data.LastSyncedBlockHeight)
	assert.Nil(t, resp.Data.LastSyncedBlockHash)
	assert.Nil(t, resp.Data.LastSyncAt)
	assert.Nil(t, resp.Data.LastInitialSyncAt)

	_, err = env.run(t, "apply", env.blocks)
	require.NoError(t, err)

	out, err = env.run(t, "status", "--format", "json")
	require.NoError(t, err)
	resp = statusResponse{}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "syncing", resp.Data.Status)
	require.NotNil(t, resp.Data.LastSyncedBlockHeight)
	assert.Equal(t, int64(2), *resp.Data.LastSyncedBlockHeight)
	require.NotNil(t, resp.Data.LastSyncedBlockHash)
	assert.Equal(t, "block-2", *resp.Data.LastSyncedBlockHash)
	require.NotNil(t, resp.Data.LastSyncAt)
	require.NotNil(t, resp.Data.LastInitialSyncAt)
	assert.False(t, resp.Data.LastSyncAt.Before(*resp.Data.LastInitialSyncAt))

	// no --type needed
	cmd := NewRootCommand()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"--db", env.db, "status"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "Status: syncing")
	assert.Contains(t, buf.String(), "Last synced block: 2 (block-2)")
}

func TestCheckQuery(t *testing.T) {
	out, err := newTestEnv(t).run(t, "check-query", `{"where": [["order", "<=", 1]]}`)
	require.NoError(t, err)
	assert.Contains(t, out, "Query valid")

	out, err = newTestEnv(t).run(t, "check-query", `{"where": [["a", ">", 1], ["b", "<", 2]], "limit": 0}`)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, query.ErrInvalidLimit)
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "stateview.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
document_type = "note"

[storage]
backend = "bbolt"
path = "`+filepath.ToSlash(filepath.Join(dir, "notes.bolt"))+`"

[query]
default_limit = 1
`), 0o644))
	blocks := filepath.Join(dir, "blocks.yaml")
	require.NoError(t, os.WriteFile(blocks, []byte(testBlocks), 0o644))

	run := func(args ...string) (string, error) {
		cmd := NewRootCommand()
		out := &bytes.Buffer{}
		cmd.SetOut(out)
		cmd.SetErr(io.Discard)
		cmd.SetArgs(append([]string{"--config", cfgPath}, args...))
		err := cmd.Execute()
		return out.String(), err
	}

	_, err := run("apply", blocks)
	require.NoError(t, err)

	_, err = run("rollback", "st-4")
	require.NoError(t, err)

	out, err := run("fetch", "--format", "json")
	require.NoError(t, err)
	var resp documentsResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, 1, resp.Data.Count, "default_limit from the config applies")
}

func TestMissingDocumentType(t *testing.T) {
	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"--db", filepath.Join(t.TempDir(), "x.db"), "find", "doc-1"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out.String(), "no document type")
}
