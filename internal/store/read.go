package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/stateview/internal/document"
	"github.com/roach88/stateview/internal/queryir"
	"github.com/roach88/stateview/internal/querysql"
)

// querier is the subset of *sql.Tx used by read helpers.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Get returns the stored document, soft-deleted or not.
// Returns (nil, nil) when the document does not exist.
func (s *Store) Get(ctx context.Context, docType, id string) (*document.Record, error) {
	recs, err := s.read(ctx, "SELECT "+querysql.ProjectionColumns+`
		FROM documents d
		WHERE d.type = ? AND d.id = ?
	`, docType, id)
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", docType, id, err)
	}
	if len(recs) == 0 {
		return nil, nil
	}
	return &recs[0], nil
}

// Query runs a plan. Results are ordered by the plan's sort keys and then
// by id, per the compiled ORDER BY.
//
// Returns an empty slice (not nil) when nothing matches.
func (s *Store) Query(ctx context.Context, plan queryir.Plan) ([]document.Record, error) {
	sqlText, params, err := s.compiler.Compile(plan)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", plan.DocumentType, err)
	}
	recs, err := s.read(ctx, sqlText, params...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", plan.DocumentType, err)
	}
	return recs, nil
}

// FindByOrigin returns the documents of docType whose current revision was
// produced by the state transition stHash, soft-deleted ones included.
// Results are ordered by id.
func (s *Store) FindByOrigin(ctx context.Context, docType, stHash string) ([]document.Record, error) {
	recs, err := s.read(ctx, "SELECT "+querysql.ProjectionColumns+`
		FROM documents d
		WHERE d.type = ? AND d.st_hash = ?
		ORDER BY d.id COLLATE BINARY ASC
	`, docType, stHash)
	if err != nil {
		return nil, fmt.Errorf("find by origin %s: %w", stHash, err)
	}
	return recs, nil
}

// read runs a projection query and loads the revisions of every result,
// all inside one transaction so the snapshot is consistent.
func (s *Store) read(ctx context.Context, query string, args ...any) ([]document.Record, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	recs, err := readProjections(ctx, tx, query, args...)
	if err != nil {
		return nil, err
	}
	for i := range recs {
		revs, err := readRevisions(ctx, tx, recs[i].Type, recs[i].ID)
		if err != nil {
			return nil, err
		}
		recs[i].Revisions = revs
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return recs, nil
}

// readProjections scans rows selected with querysql.ProjectionColumns.
func readProjections(ctx context.Context, q querier, query string, args ...any) ([]document.Record, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	recs := []document.Record{}
	for rows.Next() {
		rec, err := scanProjection(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return recs, nil
}

// scanProjection scans a single documents row into a Record without its
// revisions.
func scanProjection(rows *sql.Rows) (document.Record, error) {
	var (
		rec     document.Record
		data    string
		deleted int
	)
	err := rows.Scan(
		&rec.Type,
		&rec.ID,
		&rec.UserID,
		&data,
		&deleted,
		&rec.Reference.BlockHash,
		&rec.Reference.BlockHeight,
		&rec.Reference.StateTransitionHash,
		&rec.Reference.StateTransitionPacketHash,
	)
	if err != nil {
		return document.Record{}, fmt.Errorf("scan document: %w", err)
	}

	rec.Data, err = unmarshalData(data)
	if err != nil {
		return document.Record{}, fmt.Errorf("document %s/%s: %w", rec.Type, rec.ID, err)
	}
	rec.Deleted = deleted != 0
	return rec, nil
}

// readRevisions returns the history of one document, oldest first.
func readRevisions(ctx context.Context, q querier, docType, id string) ([]document.Revision, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT action, document, block_hash, block_height, st_hash, st_packet_hash
		FROM revisions
		WHERE type = ? AND id = ?
		ORDER BY position ASC
	`, docType, id)
	if err != nil {
		return nil, fmt.Errorf("query revisions: %w", err)
	}
	defer rows.Close()

	revs := []document.Revision{}
	for rows.Next() {
		var (
			rev      document.Revision
			action   string
			snapshot string
		)
		err := rows.Scan(
			&action,
			&snapshot,
			&rev.Reference.BlockHash,
			&rev.Reference.BlockHeight,
			&rev.Reference.StateTransitionHash,
			&rev.Reference.StateTransitionPacketHash,
		)
		if err != nil {
			return nil, fmt.Errorf("scan revision: %w", err)
		}
		if rev.Action, err = document.ParseAction(action); err != nil {
			return nil, fmt.Errorf("revision of %s/%s: %w", docType, id, err)
		}
		if rev.Document, err = unmarshalSnapshot(snapshot); err != nil {
			return nil, fmt.Errorf("revision of %s/%s: %w", docType, id, err)
		}
		revs = append(revs, rev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate revisions: %w", err)
	}
	return revs, nil
}
