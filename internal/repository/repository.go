package repository

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/roach88/stateview/internal/document"
	"github.com/roach88/stateview/internal/ir"
	"github.com/roach88/stateview/internal/logging"
	"github.com/roach88/stateview/internal/metrics"
	"github.com/roach88/stateview/internal/query"
	"github.com/roach88/stateview/internal/queryir"
)

// Repository is the document repository for one document type.
//
// Each method is a single unit of work against the backend. Ordering of
// writes to the same document is the caller's responsibility: revisions
// must be stored in block order, and a rollback must finish before the
// affected documents are stored again.
type Repository struct {
	backend    Backend
	docType    string
	limits     query.Limits
	validator  *query.Validator
	translator *queryir.Translator
	logger     *slog.Logger
	metrics    metrics.Metrics
}

// Option configures a Repository.
type Option func(*Repository)

// WithLimits sets the query limits used by validation and translation.
// Zero fields take the query package defaults.
func WithLimits(limits query.Limits) Option {
	return func(r *Repository) {
		r.limits = limits
	}
}

// WithLogger sets the logger. Operations are logged at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Repository) {
		r.logger = logger
	}
}

// WithMetrics sets the metrics sink. The default is metrics.NopMetrics.
func WithMetrics(m metrics.Metrics) Option {
	return func(r *Repository) {
		r.metrics = m
	}
}

// New returns a repository for docType on backend.
func New(backend Backend, docType string, opts ...Option) *Repository {
	r := &Repository{
		backend: backend,
		docType: docType,
		limits:  query.DefaultLimits(),
		metrics: metrics.NewNopMetrics(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.limits = r.limits.WithDefaults()
	r.validator = query.NewValidator(r.limits)
	r.translator = queryir.NewTranslator(r.limits)
	r.logger = logging.Component(r.logger, "repository").With("document_type", docType)
	return r
}

// Type returns the document type served by r.
func (r *Repository) Type() string {
	return r.docType
}

// Limits returns the effective query limits.
func (r *Repository) Limits() query.Limits {
	return r.limits
}

// Store upserts sv by identity.
//
// The stored history and sv's history are reconciled as follows:
//   - sv's history is a prefix of the stored one: nothing to do (replay)
//   - the stored history is a prefix of sv's: sv replaces it
//   - the histories share no revision: sv's revisions are appended to the
//     stored ones, which must be a legal transition (e.g. create after
//     delete)
//
// Any other divergence fails with document.ErrInvalidTransition.
func (r *Repository) Store(ctx context.Context, sv *document.SVDocument) (err error) {
	defer r.observe("store", time.Now(), &err)

	if sv.Type() != r.docType {
		return fmt.Errorf("%w: %s has type %q, repository holds %q", ErrTypeMismatch, sv.ID(), sv.Type(), r.docType)
	}

	prev, err := r.backend.Get(ctx, r.docType, sv.ID())
	if err != nil {
		return storageErr("get", err)
	}

	merged, changed, err := reconcile(prev, sv)
	if err != nil {
		return err
	}
	if !changed {
		r.logger.Debug("store skipped, revisions already stored", "id", sv.ID(), "revisions", sv.Len())
		return nil
	}

	rec, err := document.NewRecord(merged)
	if err != nil {
		return err
	}
	if err := r.backend.Upsert(ctx, rec); err != nil {
		return storageErr("upsert", err)
	}

	r.logger.Debug("stored document",
		"id", rec.ID,
		"revisions", len(rec.Revisions),
		"deleted", rec.Deleted,
		"st_hash", rec.Reference.StateTransitionHash,
	)
	return nil
}

// reconcile merges sv into the stored record prev. changed is false when
// prev already holds every revision of sv.
func reconcile(prev *document.Record, sv *document.SVDocument) (*document.SVDocument, bool, error) {
	if prev == nil {
		return sv, true, nil
	}

	stored, err := revisionHashes(prev.Revisions)
	if err != nil {
		return nil, false, err
	}
	incoming, err := revisionHashes(sv.Revisions())
	if err != nil {
		return nil, false, err
	}

	common := 0
	for common < len(stored) && common < len(incoming) && stored[common] == incoming[common] {
		common++
	}

	switch {
	case common == len(incoming):
		return nil, false, nil
	case common == len(stored):
		return sv, true, nil
	case common > 0:
		return nil, false, fmt.Errorf("%w: %s diverges from stored history at revision %d",
			document.ErrInvalidTransition, sv.ID(), common)
	}

	merged, err := prev.SVDocument()
	if err != nil {
		return nil, false, err
	}
	for _, rev := range sv.Revisions() {
		if err := merged.AddRevision(rev.Document, rev.Reference, rev.Action); err != nil {
			return nil, false, err
		}
	}
	return merged, true, nil
}

func revisionHashes(revs []document.Revision) ([]string, error) {
	out := make([]string, len(revs))
	for i, rev := range revs {
		h, err := rev.Hash()
		if err != nil {
			return nil, fmt.Errorf("hash revision %d: %w", i, err)
		}
		out[i] = h
	}
	return out, nil
}

// Find returns the active document with the given id.
// Returns (nil, nil) when the document is absent or soft-deleted.
func (r *Repository) Find(ctx context.Context, id string) (sv *document.SVDocument, err error) {
	defer r.observe("find", time.Now(), &err)

	rec, err := r.backend.Get(ctx, r.docType, id)
	if err != nil {
		return nil, storageErr("get", err)
	}
	if rec == nil || rec.Deleted {
		r.logger.Debug("document not found", "id", id, "soft_deleted", rec != nil)
		return nil, nil
	}
	return rec.SVDocument()
}

// History returns the document with the given id whatever its state, so
// that callers can tell a deleted document from one that never existed.
// Returns (nil, nil) when nothing was ever stored under id.
func (r *Repository) History(ctx context.Context, id string) (sv *document.SVDocument, err error) {
	defer r.observe("history", time.Now(), &err)

	rec, err := r.backend.Get(ctx, r.docType, id)
	if err != nil {
		return nil, storageErr("get", err)
	}
	if rec == nil {
		return nil, nil
	}
	return rec.SVDocument()
}

// Fetch validates raw, translates it and runs it against the backend. A nil
// or empty raw query returns up to the default limit of active documents
// in id order.
//
// Invalid queries fail with *query.InvalidQueryError carrying every
// validation error; the backend is not touched. The result is never nil.
func (r *Repository) Fetch(ctx context.Context, raw ir.IRObject) (docs []*document.SVDocument, err error) {
	defer r.observe("fetch", time.Now(), &err)

	q, err := r.validator.Parse(raw)
	if err != nil {
		r.metrics.IncInvalidQueries()
		r.logger.Debug("rejected query", "error", err)
		return nil, err
	}

	plan := r.translator.Translate(r.docType, q)
	if problems := queryir.Check(plan); len(problems) > 0 {
		return nil, fmt.Errorf("invalid plan: %s", strings.Join(problems, "; "))
	}

	recs, err := r.backend.Query(ctx, plan)
	if err != nil {
		return nil, storageErr("query", err)
	}

	docs, err = toSVDocuments(recs)
	if err != nil {
		return nil, err
	}
	r.metrics.ObserveFetchResults(len(docs))
	r.logger.Debug("fetched documents",
		"conditions", len(q.Where),
		"sort_keys", len(plan.Sort),
		"skip", plan.Skip,
		"take", plan.Take,
		"results", len(docs),
	)
	return docs, nil
}

// Delete appends a delete revision produced by ref to sv and stores it.
// sv carries the new revision only once it is stored; on failure it is left
// untouched so the delete can be retried.
func (r *Repository) Delete(ctx context.Context, sv *document.SVDocument, ref document.Reference) error {
	next := sv.Clone()
	if err := next.MarkAsDeleted(ref); err != nil {
		return err
	}
	if err := r.Store(ctx, next); err != nil {
		return err
	}
	*sv = *next
	return nil
}

// FindAllByOrigin returns every document whose current revision was
// produced by the state transition stHash, soft-deleted ones included, in
// id order.
func (r *Repository) FindAllByOrigin(ctx context.Context, stHash string) (docs []*document.SVDocument, err error) {
	defer r.observe("find_by_origin", time.Now(), &err)

	recs, err := r.backend.FindByOrigin(ctx, r.docType, stHash)
	if err != nil {
		return nil, storageErr("find_by_origin", err)
	}
	docs, err = toSVDocuments(recs)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("found documents by origin", "st_hash", stHash, "results", len(docs))
	return docs, nil
}

// RollbackResult describes the effect of Rollback.
type RollbackResult struct {
	StateTransitionHash string `json:"stateTransitionHash"`

	// Restored lists documents whose previous revision became current.
	Restored []string `json:"restored"`

	// Removed lists documents left without revisions, now gone entirely.
	Removed []string `json:"removed"`

	// Revisions is the number of revisions dropped.
	Revisions int `json:"revisions"`
}

// Rollback drops every revision produced by stHash from the documents whose
// current revision it produced. Documents with revisions left are stored
// again with the earlier revision current; the others are removed.
//
// When several transitions are orphaned they must be rolled back newest
// first.
func (r *Repository) Rollback(ctx context.Context, stHash string) (res RollbackResult, err error) {
	defer r.observe("rollback", time.Now(), &err)

	res = RollbackResult{
		StateTransitionHash: stHash,
		Restored:            []string{},
		Removed:             []string{},
	}

	recs, err := r.backend.FindByOrigin(ctx, r.docType, stHash)
	if err != nil {
		return res, storageErr("find_by_origin", err)
	}

	for _, rec := range recs {
		sv, err := rec.SVDocument()
		if err != nil {
			return res, err
		}
		res.Revisions += sv.RemoveRevisionsByOrigin(stHash)

		if sv.Len() == 0 {
			if err := r.backend.Remove(ctx, r.docType, rec.ID); err != nil {
				return res, storageErr("remove", err)
			}
			res.Removed = append(res.Removed, rec.ID)
			continue
		}

		restored, err := document.NewRecord(sv)
		if err != nil {
			return res, err
		}
		if err := r.backend.Upsert(ctx, restored); err != nil {
			return res, storageErr("upsert", err)
		}
		res.Restored = append(res.Restored, rec.ID)
	}

	r.metrics.AddRolledBack(res.Revisions)
	r.logger.Info("rolled back state transition",
		"st_hash", stHash,
		"restored", len(res.Restored),
		"removed", len(res.Removed),
		"revisions", res.Revisions,
	)
	return res, nil
}

func (r *Repository) observe(op string, start time.Time, err *error) {
	r.metrics.ObserveOperation(op, *err, time.Since(start))
}

func toSVDocuments(recs []document.Record) ([]*document.SVDocument, error) {
	out := make([]*document.SVDocument, 0, len(recs))
	for _, rec := range recs {
		sv, err := rec.SVDocument()
		if err != nil {
			return nil, err
		}
		out = append(out, sv)
	}
	return out, nil
}
