package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/stateview/internal/ir"
	"github.com/roach88/stateview/internal/query"
)

// QueryOptions holds flags for commands taking a query.
type QueryOptions struct {
	*RootOptions
	File string
}

// readQuery decodes the query from --file or the first argument. JSON and
// YAML are both accepted. No query at all is the empty query.
func (o *QueryOptions) readQuery(args []string) (ir.IRObject, error) {
	var data []byte
	switch {
	case o.File != "" && len(args) > 0:
		return nil, errors.New("pass the query as an argument or with --file, not both")
	case o.File != "":
		b, err := os.ReadFile(o.File)
		if err != nil {
			return nil, fmt.Errorf("read query: %w", err)
		}
		data = b
	case len(args) > 0:
		data = []byte(args[0])
	}
	return query.ParseYAML(data)
}

// NewFetchCommand creates the fetch command.
func NewFetchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "fetch [query]",
		Short: "Query active documents",
		Long: `Validate a query, run it and print the matching active documents.

The query is a JSON or YAML object with the keys where, orderBy, limit,
startAt and startAfter. Without a query, up to the default limit of
documents is returned in id order.

Exit codes:
  0 - Query ran (possibly with no results)
  1 - Query is invalid
  2 - Command error (bad config, storage unavailable, unreadable input)

Examples:
  stateview fetch --type note '{"where": [["order", "<=", 1]]}'
  stateview fetch --type note --file query.yaml --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "read the query from a file")

	return cmd
}

func runFetch(opts *QueryOptions, args []string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	raw, err := opts.readQuery(args)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeInput, "failed to read query", err)
	}

	s, err := opts.openSession(cmd, f)
	if err != nil {
		return err
	}
	defer s.Close()

	docs, err := s.repo.Fetch(commandContext(cmd), raw)
	if err != nil {
		var invalid *query.InvalidQueryError
		if errors.As(err, &invalid) {
			return outputInvalidQuery(f, invalid.Errors())
		}
		return f.Fail(ExitCommandError, ErrCodeStorage, "fetch failed", err)
	}

	if f.IsJSON() {
		return f.Success(newDocumentsPayload(docs))
	}
	writeDocuments(f.Writer, docs)
	return nil
}

// QueryCheckResult is the result of check-query.
type QueryCheckResult struct {
	Valid  bool                    `json:"valid"`
	Errors []query.ValidationError `json:"errors,omitempty"`
}

// NewCheckQueryCommand creates the check-query command.
func NewCheckQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "check-query [query]",
		Short: "Validate a query without running it",
		Long: `Run the structural and conflict checks on a query and report every
problem found. Storage is not opened.

Exit codes:
  0 - Query is valid
  1 - Query is invalid
  2 - Command error`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheckQuery(opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "read the query from a file")

	return cmd
}

func runCheckQuery(opts *QueryOptions, args []string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	cfg, err := opts.loadConfig()
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeConfig, "invalid configuration", err)
	}
	raw, err := opts.readQuery(args)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeInput, "failed to read query", err)
	}

	errs := query.NewValidator(cfg.Limits()).Validate(raw)
	if len(errs) > 0 {
		return outputInvalidQuery(f, errs)
	}

	if f.IsJSON() {
		return f.Success(QueryCheckResult{Valid: true})
	}
	fmt.Fprintln(f.Writer, "✓ Query valid")
	return nil
}

// outputInvalidQuery reports validation errors and returns the ExitFailure
// error.
func outputInvalidQuery(f *OutputFormatter, errs []query.ValidationError) error {
	if f.IsJSON() {
		encoder := json.NewEncoder(f.Writer)
		encoder.SetIndent("", "  ")
		err := encoder.Encode(CLIResponse{
			Status: "error",
			Data:   QueryCheckResult{Valid: false, Errors: errs},
			Error: &CLIError{
				Code:    ErrCodeInvalidQuery,
				Message: errs[0].Message,
			},
		})
		if err != nil {
			return err
		}
	} else {
		writeValidationErrors(f.Writer, errs)
	}
	return NewExitError(ExitFailure, fmt.Sprintf("invalid query with %s", pluralize(len(errs), "error")))
}
