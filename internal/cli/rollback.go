package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/stateview/internal/ingest"
	"github.com/roach88/stateview/internal/repository"
)

// RollbackResult is the JSON payload of the rollback command.
type RollbackResult struct {
	Transitions []repository.RollbackResult `json:"transitions"`
	Revisions   int                         `json:"revisions"`
}

// NewRollbackCommand creates the rollback command.
func NewRollbackCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rollback <st-hash>...",
		Short: "Roll back orphaned state transitions",
		Long: `Drop the revisions produced by the given state transitions.

Transitions are rolled back last argument first, so list them in the order
they were applied. Documents left without revisions are removed; the others
get their previous revision back.

Example:
  stateview rollback --type note st-41 st-42`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRollback(rootOpts, args, cmd)
		},
	}
}

func runRollback(opts *RootOptions, stHashes []string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	s, err := opts.openSession(cmd, f)
	if err != nil {
		return err
	}
	defer s.Close()

	applier := ingest.NewApplier([]*repository.Repository{s.repo},
		ingest.WithLogger(s.logger),
		ingest.WithMetrics(s.metrics),
	)
	results, err := applier.Revert(commandContext(cmd), stHashes...)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeStorage, "rollback failed", err)
	}

	out := RollbackResult{Transitions: results}
	for _, r := range results {
		out.Revisions += r.Revisions
	}

	if f.IsJSON() {
		return f.Success(out)
	}
	for _, r := range results {
		fmt.Fprintf(f.Writer, "%s: %s dropped, %d restored, %d removed\n",
			r.StateTransitionHash, pluralize(r.Revisions, "revision"), len(r.Restored), len(r.Removed))
		f.VerboseLog("  restored: %v", r.Restored)
		f.VerboseLog("  removed: %v", r.Removed)
	}
	return nil
}
