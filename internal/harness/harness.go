package harness

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/roach88/stateview/internal/config"
	"github.com/roach88/stateview/internal/ingest"
	"github.com/roach88/stateview/internal/ir"
	"github.com/roach88/stateview/internal/logging"
	"github.com/roach88/stateview/internal/query"
	"github.com/roach88/stateview/internal/repository"
	"github.com/roach88/stateview/internal/testutil"
)

// Harness is the scenario execution engine.
// Each run opens a fresh backend so scenarios never share state.
type Harness struct {
	storage config.StorageConfig
	limits  query.Limits
	logger  *slog.Logger
}

// Option configures a Harness.
type Option func(*Harness)

// WithStorage selects the backend scenarios run against. The default is
// the in-memory engine.
func WithStorage(cfg config.StorageConfig) Option {
	return func(h *Harness) {
		h.storage = cfg
	}
}

// WithLimits sets the query limits of every repository.
func WithLimits(limits query.Limits) Option {
	return func(h *Harness) {
		h.limits = limits
	}
}

// WithLogger sets the logger passed to the backend, repositories and
// applier.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Harness) {
		h.logger = logger
	}
}

// New creates a harness.
func New(opts ...Option) *Harness {
	h := &Harness{
		storage: config.StorageConfig{Backend: config.BackendMemory},
		limits:  query.DefaultLimits(),
		logger:  logging.Discard(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run executes s on a fresh in-memory backend.
func Run(ctx context.Context, s *Scenario) (*Result, error) {
	return New().Run(ctx, s)
}

// Run executes s and returns the result.
//
// Execution flow:
//  1. Open a fresh backend and one repository per document type
//  2. Apply every block through an ingest.Applier
//  3. Execute each step and check its expectation
//
// Failed expectations are collected in the result. An error is returned
// only when the scenario cannot run: the backend fails to open, a block is
// rejected or a repository operation fails outside query validation.
func (h *Harness) Run(ctx context.Context, s *Scenario) (*Result, error) {
	backend, err := repository.OpenBackend(h.storage, h.logger)
	if err != nil {
		return nil, fmt.Errorf("open backend: %w", err)
	}
	defer backend.Close()

	repos := make(map[string]*repository.Repository)
	var list []*repository.Repository
	for _, docType := range scenarioTypes(s) {
		repo := repository.New(backend, docType,
			repository.WithLimits(h.limits),
			repository.WithLogger(h.logger),
		)
		repos[docType] = repo
		list = append(list, repo)
	}

	token := s.Token
	if token == "" {
		token = DefaultToken
	}
	applier := ingest.NewApplier(list,
		ingest.WithTokenGenerator(testutil.NewFixedTokenGenerator(token)),
		ingest.WithLogger(h.logger),
		ingest.WithSyncStore(backend),
	)

	result := NewResult()
	for _, b := range s.Blocks {
		res, err := applier.ApplyBlock(ctx, b)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
		}
		result.AddTrace(TraceEvent{
			Op:      "apply",
			Args:    map[string]any{"height": b.Height, "hash": b.Hash},
			Applied: res.Applied,
			Skipped: res.Skipped,
		})
	}

	for i, step := range s.Steps {
		docType := step.Type
		if docType == "" {
			docType = s.Type
		}
		r := &stepRunner{index: i, step: step, repo: repos[docType], applier: applier, result: result}
		if err := r.run(ctx); err != nil {
			return nil, fmt.Errorf("scenario %s step %d (%s): %w", s.Name, i, step.Op, err)
		}
	}

	h.logger.Info("scenario completed",
		"scenario", s.Name,
		"backend", h.storage.Backend,
		"pass", result.Pass,
		"errors", len(result.Errors),
	)
	return result, nil
}

// scenarioTypes returns the sorted document types named by the scenario,
// its blocks and its steps.
func scenarioTypes(s *Scenario) []string {
	types := []string{s.Type}
	for _, b := range s.Blocks {
		for _, t := range b.Transitions {
			types = append(types, t.Document.Type)
		}
	}
	for _, step := range s.Steps {
		if step.Type != "" {
			types = append(types, step.Type)
		}
	}
	slices.Sort(types)
	return slices.Compact(types)
}

type stepRunner struct {
	index   int
	step    Step
	repo    *repository.Repository
	applier *ingest.Applier
	result  *Result
}

func (r *stepRunner) run(ctx context.Context) error {
	switch r.step.Op {
	case OpFetch:
		return r.fetch(ctx)
	case OpFind:
		return r.find(ctx)
	case OpOrigin:
		return r.origin(ctx)
	case OpRollback:
		return r.rollback(ctx)
	default:
		return fmt.Errorf("unknown op %q", r.step.Op)
	}
}

func (r *stepRunner) fail(err *AssertionError) {
	if err == nil {
		return
	}
	err.Step = r.index
	err.Op = r.step.Op
	r.result.AddError(err.Error())
}

func (r *stepRunner) fetch(ctx context.Context) error {
	v, err := ir.FromGo(r.step.Query)
	if err != nil {
		return fmt.Errorf("convert query: %w", err)
	}
	raw, ok := v.(ir.IRObject)
	if !ok {
		return fmt.Errorf("query is %s, not an object", ir.TypeName(v))
	}

	ev := TraceEvent{Op: OpFetch, Args: r.step.Query}
	docs, err := r.repo.Fetch(ctx, raw)
	if err != nil && !query.IsInvalidQuery(err) {
		return err
	}
	if err != nil {
		ev.Errors = errorCodes(err)
	} else {
		ev.IDs = documentIDs(docs)
	}
	r.result.AddTrace(ev)

	expect := r.step.Expect
	if expect == nil {
		expect = &Expect{}
	}
	if err != nil {
		r.fail(assertErrors(ev.Errors, expect.Errors))
		return nil
	}
	if expect.Errors != nil {
		r.fail(&AssertionError{
			Expected: fmt.Sprintf("errors %v", expect.Errors),
			Actual:   fmt.Sprintf("%d documents", len(docs)),
		})
		return nil
	}
	if expect.IDs != nil {
		r.fail(assertIDs(ev.IDs, expect.IDs))
	}
	return nil
}

func (r *stepRunner) find(ctx context.Context) error {
	active, err := r.repo.Find(ctx, r.step.ID)
	if err != nil {
		return err
	}
	stored, err := r.repo.History(ctx, r.step.ID)
	if err != nil {
		return err
	}

	ev := TraceEvent{Op: OpFind, Args: map[string]any{"id": r.step.ID}, State: "missing"}
	if stored != nil {
		ev.State = stored.State().String()
	}
	if active != nil {
		ev.IDs = []string{active.ID()}
	}
	r.result.AddTrace(ev)

	expect := r.step.Expect
	if expect == nil {
		return nil
	}
	if expect.Found != nil && *expect.Found != (active != nil) {
		r.fail(&AssertionError{
			Expected: fmt.Sprintf("found=%t", *expect.Found),
			Actual:   fmt.Sprintf("found=%t (state %s)", active != nil, ev.State),
		})
	}
	if expect.State != "" && expect.State != ev.State {
		r.fail(&AssertionError{
			Expected: "state " + expect.State,
			Actual:   "state " + ev.State,
		})
	}
	if expect.Data != nil {
		if stored == nil {
			r.fail(&AssertionError{Expected: "document data", Actual: "document not stored"})
		} else {
			r.fail(assertData(stored, expect.Data))
		}
	}
	return nil
}

func (r *stepRunner) origin(ctx context.Context) error {
	docs, err := r.repo.FindAllByOrigin(ctx, r.step.StHash)
	if err != nil {
		return err
	}
	ev := TraceEvent{Op: OpOrigin, Args: map[string]any{"stHash": r.step.StHash}, IDs: documentIDs(docs)}
	r.result.AddTrace(ev)

	if r.step.Expect != nil && r.step.Expect.IDs != nil {
		r.fail(assertIDs(ev.IDs, r.step.Expect.IDs))
	}
	return nil
}

func (r *stepRunner) rollback(ctx context.Context) error {
	results, err := r.applier.Revert(ctx, r.step.StHash)
	if err != nil {
		return err
	}
	ev := TraceEvent{Op: OpRollback, Args: map[string]any{"stHash": r.step.StHash}}
	for _, res := range results {
		ev.IDs = append(ev.IDs, res.Restored...)
		ev.Removed = append(ev.Removed, res.Removed...)
		ev.Revisions += res.Revisions
	}
	r.result.AddTrace(ev)
	return nil
}
