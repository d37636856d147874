package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/stateview/internal/ingest"
	"github.com/roach88/stateview/internal/repository"
)

// ApplyOptions holds flags for the apply command.
type ApplyOptions struct {
	*RootOptions

	// Tokens allows overriding the block token generator (for testing).
	// If nil, defaults to ingest.UUIDv7Generator.
	Tokens ingest.TokenGenerator
}

// ApplyResult is the JSON payload of the apply command.
type ApplyResult struct {
	Blocks []ingest.BlockResult `json:"blocks"`
}

// NewApplyCommand creates the apply command.
func NewApplyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ApplyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "apply <blocks-file>",
		Short: "Apply blocks of state transitions",
		Long: `Apply the blocks in a YAML or JSON file, in order.

Each transition creates, updates or deletes one document. Blocks must have
strictly increasing heights, above the last block synced into the store
(see "stateview status"). Transitions already stored are skipped, so a
block interrupted half way can be applied again.

Exit codes:
  0 - All blocks applied
  1 - A block was rejected (out of order or illegal transition)
  2 - Command error

Example:
  stateview apply --type note --db ./stateview.db blocks.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(opts, args[0], cmd)
		},
	}

	return cmd
}

func runApply(opts *ApplyOptions, path string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	s, err := opts.openSession(cmd, f)
	if err != nil {
		return err
	}
	defer s.Close()

	blocks, err := ingest.LoadBlocks(path, s.cfg.DocumentType)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeInput, "failed to load blocks", err)
	}

	tokens := opts.Tokens
	if tokens == nil {
		tokens = ingest.UUIDv7Generator{}
	}
	applier := ingest.NewApplier([]*repository.Repository{s.repo},
		ingest.WithLogger(s.logger),
		ingest.WithMetrics(s.metrics),
		ingest.WithTokenGenerator(tokens),
		ingest.WithSyncStore(s.backend),
	)

	ctx, cancel := context.WithCancel(commandContext(cmd))
	defer cancel()

	if err := applier.Resume(ctx); err != nil {
		return f.Fail(ExitCommandError, ErrCodeStorage, "failed to read sync state", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			s.logger.Info("received signal, stopping after current block", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	result := ApplyResult{Blocks: make([]ingest.BlockResult, 0, len(blocks))}
	for _, b := range blocks {
		if ctx.Err() != nil {
			return f.Fail(ExitCommandError, ErrCodeIngest, "interrupted", ctx.Err())
		}
		res, err := applier.ApplyBlock(ctx, b)
		if err != nil {
			return f.Fail(ExitFailure, ErrCodeIngest, fmt.Sprintf("block %d rejected", b.Height), err)
		}
		result.Blocks = append(result.Blocks, res)
		f.VerboseLog("block %d: %d applied, %d skipped", res.Height, res.Applied, res.Skipped)
	}

	if f.IsJSON() {
		return f.Success(result)
	}
	applied, skipped := 0, 0
	for _, r := range result.Blocks {
		applied += r.Applied
		skipped += r.Skipped
	}
	fmt.Fprintf(f.Writer, "✓ Applied %s: %s stored, %d skipped\n",
		pluralize(len(result.Blocks), "block"), pluralize(applied, "transition"), skipped)
	return nil
}
