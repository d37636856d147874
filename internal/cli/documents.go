package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/stateview/internal/document"
)

// NewFindCommand creates the find command.
func NewFindCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "find <id>",
		Short: "Print an active document by id",
		Long: `Print the current revision of an active document.

Soft-deleted documents are reported as not found; use history to see them.

Exit codes:
  0 - Document found
  1 - Document not found or soft-deleted
  2 - Command error`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFind(rootOpts, args[0], cmd, false)
		},
	}
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "history <id>",
		Short: "Print every revision of a document",
		Long: `Print the full revision history of a document, soft-deleted or not.

Exit codes:
  0 - Document found
  1 - Nothing was ever stored under id
  2 - Command error`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFind(rootOpts, args[0], cmd, true)
		},
	}
}

func runFind(opts *RootOptions, id string, cmd *cobra.Command, history bool) error {
	f := opts.formatter(cmd)

	s, err := opts.openSession(cmd, f)
	if err != nil {
		return err
	}
	defer s.Close()

	var sv *document.SVDocument
	if history {
		sv, err = s.repo.History(commandContext(cmd), id)
	} else {
		sv, err = s.repo.Find(commandContext(cmd), id)
	}
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeStorage, "lookup failed", err)
	}
	if sv == nil {
		msg := fmt.Sprintf("document %s/%s not found", s.repo.Type(), id)
		_ = f.Error(ErrCodeNotFound, msg, nil)
		return NewExitError(ExitFailure, msg)
	}

	switch {
	case f.IsJSON() && history:
		return f.Success(sv)
	case f.IsJSON():
		return f.Success(sv.Document())
	case history:
		writeHistory(f.Writer, sv)
	default:
		writeDocument(f.Writer, sv)
	}
	return nil
}

// NewOriginCommand creates the origin command.
func NewOriginCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "origin <st-hash>",
		Short: "List documents whose current revision came from a state transition",
		Long: `List every document, soft-deleted ones included, whose current revision
was produced by the given state transition. These are the documents a
rollback of that transition would touch.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOrigin(rootOpts, args[0], cmd)
		},
	}
}

func runOrigin(opts *RootOptions, stHash string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	s, err := opts.openSession(cmd, f)
	if err != nil {
		return err
	}
	defer s.Close()

	docs, err := s.repo.FindAllByOrigin(commandContext(cmd), stHash)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeStorage, "origin lookup failed", err)
	}

	if f.IsJSON() {
		return f.Success(newDocumentsPayload(docs))
	}
	writeDocuments(f.Writer, docs)
	return nil
}
