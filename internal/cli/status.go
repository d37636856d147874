package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/stateview/internal/document"
)

// StatusResult is the JSON payload of the status command. Fields are null
// until the first block is applied.
type StatusResult struct {
	LastSyncedBlockHeight *int64     `json:"lastSyncedBlockHeight"`
	LastSyncedBlockHash   *string    `json:"lastSyncedBlockHash"`
	LastSyncAt            *time.Time `json:"lastSyncAt"`
	LastInitialSyncAt     *time.Time `json:"lastInitialSyncAt"`
	Status                string     `json:"status"`
}

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show how far the store is synced",
		Long: `Show the last block applied to the store and when.

Status is "initialSync" until the first block is applied and "syncing"
after. The sync state is shared by every document type of the store, so
--type is not needed.

Example:
  stateview status --db ./stateview.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(rootOpts, cmd)
		},
	}
}

func runStatus(opts *RootOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	s, err := opts.openStorage(cmd, f, false)
	if err != nil {
		return err
	}
	defer s.Close()

	state, err := s.backend.SyncState(commandContext(cmd))
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeStorage, "failed to read sync state", err)
	}
	out := newStatusResult(state)

	if f.IsJSON() {
		return f.Success(out)
	}
	fmt.Fprintf(f.Writer, "Status: %s\n", out.Status)
	if out.LastSyncedBlockHeight == nil {
		fmt.Fprintln(f.Writer, "No blocks synced yet")
		return nil
	}
	hash := "unknown hash"
	if out.LastSyncedBlockHash != nil {
		hash = *out.LastSyncedBlockHash
	}
	fmt.Fprintf(f.Writer, "Last synced block: %d (%s)\n", *out.LastSyncedBlockHeight, hash)
	fmt.Fprintf(f.Writer, "Last sync: %s\n", out.LastSyncAt.Format(time.RFC3339))
	fmt.Fprintf(f.Writer, "Initial sync: %s\n", out.LastInitialSyncAt.Format(time.RFC3339))
	return nil
}

func newStatusResult(state *document.SyncState) StatusResult {
	out := StatusResult{Status: state.Status()}
	last, ok := state.LastBlock()
	if !ok {
		return out
	}
	out.LastSyncedBlockHeight = &last.Height
	if last.Hash != "" {
		out.LastSyncedBlockHash = &last.Hash
	}
	out.LastSyncAt = &state.LastSyncAt
	out.LastInitialSyncAt = &state.LastInitialSyncAt
	return out
}
