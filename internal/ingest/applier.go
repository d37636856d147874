package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/roach88/stateview/internal/document"
	"github.com/roach88/stateview/internal/logging"
	"github.com/roach88/stateview/internal/metrics"
	"github.com/roach88/stateview/internal/repository"
)

// Applier applies blocks to one repository per document type.
//
// Thread-safety: an Applier must be driven from a single goroutine.
type Applier struct {
	repos   map[string]*repository.Repository
	tokens  TokenGenerator
	logger  *slog.Logger
	metrics metrics.Metrics
	sync    repository.SyncStore
	now     func() time.Time

	state document.SyncState
}

// ApplierOption configures an Applier.
type ApplierOption func(*Applier)

// WithTokenGenerator sets the generator of per-block correlation tokens.
// Default: UUIDv7Generator.
func WithTokenGenerator(g TokenGenerator) ApplierOption {
	return func(a *Applier) {
		a.tokens = g
	}
}

// WithLogger sets the logger. Applied blocks are logged at info level.
func WithLogger(logger *slog.Logger) ApplierOption {
	return func(a *Applier) {
		a.logger = logger
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m metrics.Metrics) ApplierOption {
	return func(a *Applier) {
		a.metrics = m
	}
}

// WithLastHeight resumes after an already applied block at height.
func WithLastHeight(height int64) ApplierOption {
	return func(a *Applier) {
		a.state.Blocks = []document.BlockRef{{Height: height}}
	}
}

// WithSyncStore persists the sync state after every applied or reverted
// block. Call Resume to continue from the stored state.
func WithSyncStore(s repository.SyncStore) ApplierOption {
	return func(a *Applier) {
		a.sync = s
	}
}

// WithClock sets the source of sync timestamps. Default: time.Now.
func WithClock(now func() time.Time) ApplierOption {
	return func(a *Applier) {
		a.now = now
	}
}

// NewApplier returns an Applier writing to repos. Each repository serves
// the transitions of its own document type.
func NewApplier(repos []*repository.Repository, opts ...ApplierOption) *Applier {
	a := &Applier{
		repos:   make(map[string]*repository.Repository, len(repos)),
		tokens:  UUIDv7Generator{},
		metrics: metrics.NewNopMetrics(),
		now:     time.Now,
	}
	for _, r := range repos {
		a.repos[r.Type()] = r
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = logging.Component(a.logger, "ingest")
	return a
}

// Resume loads the stored sync state, so that only blocks above the last
// synced one are accepted. Without a sync store it does nothing.
func (a *Applier) Resume(ctx context.Context) error {
	if a.sync == nil {
		return nil
	}
	state, err := a.sync.SyncState(ctx)
	if err != nil {
		return fmt.Errorf("resume: %w", err)
	}
	if state == nil {
		return nil
	}
	a.state = *state
	if last, ok := a.state.LastBlock(); ok {
		a.metrics.SetBlockHeight(last.Height)
		a.logger.Info("resuming sync", "height", last.Height, "block_hash", last.Hash)
	}
	return nil
}

// LastHeight returns the height of the last applied block and whether any
// block was applied.
func (a *Applier) LastHeight() (int64, bool) {
	last, ok := a.state.LastBlock()
	return last.Height, ok
}

// SyncState returns a copy of the current sync state.
func (a *Applier) SyncState() document.SyncState {
	state := a.state
	state.Blocks = slices.Clone(a.state.Blocks)
	return state
}

// saveSyncState persists next and makes it current.
func (a *Applier) saveSyncState(ctx context.Context, next document.SyncState) error {
	if a.sync != nil {
		if err := a.sync.SaveSyncState(ctx, next); err != nil {
			return err
		}
	}
	a.state = next
	return nil
}

// BlockResult summarizes one applied block.
type BlockResult struct {
	Height  int64  `json:"height"`
	Token   string `json:"token"`
	Applied int    `json:"applied"`

	// Skipped counts transitions whose revision was already stored.
	Skipped int `json:"skipped"`
}

// ApplyBlock applies the transitions of b in order. b must be higher than
// the last applied block. Transitions whose revision is already stored
// are skipped, so replaying a block after a restart is harmless.
//
// The block counts as applied once the sync state is saved. On error it is
// not recorded; transitions before the failing one stay stored.
func (a *Applier) ApplyBlock(ctx context.Context, b Block) (BlockResult, error) {
	if last, ok := a.state.LastBlock(); ok && b.Height <= last.Height {
		return BlockResult{}, &BlockOrderError{Height: b.Height, Last: last.Height}
	}

	res := BlockResult{Height: b.Height, Token: a.tokens.Generate()}
	logger := a.logger.With("token", res.Token, "height", b.Height)

	for i, t := range b.Transitions {
		applied, err := a.apply(ctx, b, t)
		if err != nil {
			return res, fmt.Errorf("block %d transition %d (%s %s/%s): %w",
				b.Height, i, t.Action, t.Document.Type, t.Document.ID, err)
		}
		if !applied {
			res.Skipped++
			logger.Debug("transition already applied", "st_hash", t.StateTransitionHash, "id", t.Document.ID)
			continue
		}
		res.Applied++
		a.metrics.IncRevisions(string(t.Action))
	}

	next := a.SyncState()
	next.Push(document.BlockRef{Height: b.Height, Hash: b.Hash}, a.now())
	if err := a.saveSyncState(ctx, next); err != nil {
		return res, fmt.Errorf("block %d: %w", b.Height, err)
	}
	a.metrics.SetBlockHeight(b.Height)
	logger.Info("applied block",
		"block_hash", b.Hash,
		"transitions", len(b.Transitions),
		"applied", res.Applied,
		"skipped", res.Skipped,
		"voting_power", b.VotingPower(),
	)
	return res, nil
}

func (a *Applier) apply(ctx context.Context, b Block, t Transition) (bool, error) {
	repo, ok := a.repos[t.Document.Type]
	if !ok {
		return false, fmt.Errorf("no repository for document type %q", t.Document.Type)
	}
	ref, err := b.Reference(t)
	if err != nil {
		return false, err
	}

	sv, err := repo.History(ctx, t.Document.ID)
	if err != nil {
		return false, err
	}

	if sv == nil {
		if t.Action != document.ActionCreate {
			return false, fmt.Errorf("%w: %s on unknown document", document.ErrInvalidTransition, t.Action)
		}
		sv, err = document.New(t.Document, ref)
		if err != nil {
			return false, err
		}
		return true, repo.Store(ctx, sv)
	}

	snapshot := t.Document
	if t.Action == document.ActionDelete {
		snapshot = sv.Document()
	}
	stored, err := containsRevision(sv, document.Revision{Document: snapshot, Reference: ref, Action: t.Action})
	if err != nil || stored {
		return false, err
	}

	if err := sv.AddRevision(snapshot, ref, t.Action); err != nil {
		return false, err
	}
	return true, repo.Store(ctx, sv)
}

// containsRevision reports whether sv already holds a revision with the
// content hash of rev.
func containsRevision(sv *document.SVDocument, rev document.Revision) (bool, error) {
	want, err := rev.Hash()
	if err != nil {
		return false, err
	}
	for _, r := range sv.Revisions() {
		h, err := r.Hash()
		if err != nil {
			return false, err
		}
		if h == want {
			return true, nil
		}
	}
	return false, nil
}

// Revert rolls back the given state transitions, last one first, in every
// repository.
func (a *Applier) Revert(ctx context.Context, stHashes ...string) ([]repository.RollbackResult, error) {
	types := make([]string, 0, len(a.repos))
	for t := range a.repos {
		types = append(types, t)
	}
	slices.Sort(types)

	var results []repository.RollbackResult
	for i := len(stHashes) - 1; i >= 0; i-- {
		for _, docType := range types {
			res, err := a.repos[docType].Rollback(ctx, stHashes[i])
			if err != nil {
				return results, fmt.Errorf("revert %s: %w", stHashes[i], err)
			}
			results = append(results, res)
		}
	}
	return results, nil
}

// RevertBlock rolls back every transition of an orphaned block. When b is
// the last applied block, the applier resumes from the block before it and
// the stored sync state follows.
func (a *Applier) RevertBlock(ctx context.Context, b Block) ([]repository.RollbackResult, error) {
	results, err := a.Revert(ctx, b.StateTransitionHashes()...)
	if err != nil {
		return results, err
	}
	next := a.SyncState()
	if next.Pop(document.BlockRef{Height: b.Height, Hash: b.Hash}, a.now()) {
		if err := a.saveSyncState(ctx, next); err != nil {
			return results, fmt.Errorf("revert block %d: %w", b.Height, err)
		}
		if last, ok := next.LastBlock(); ok {
			a.metrics.SetBlockHeight(last.Height)
		}
	}
	a.logger.Info("reverted block", "height", b.Height, "block_hash", b.Hash, "transitions", len(b.Transitions))
	return results, nil
}
