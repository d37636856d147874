package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/stateview/internal/document"
)

// Upsert stores rec, replacing any previous projection and revision list
// of the same document in one transaction. Revisions beyond the new length
// are removed, which is how a rollback shortens a history.
func (s *Store) Upsert(ctx context.Context, rec document.Record) error {
	data, err := marshalData(rec.Data)
	if err != nil {
		return fmt.Errorf("upsert %s/%s: %w", rec.Type, rec.ID, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("upsert %s/%s: begin: %w", rec.Type, rec.ID, err)
	}
	defer tx.Rollback()

	ref := rec.Reference
	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents
		(type, id, user_id, data, deleted, block_hash, block_height, st_hash, st_packet_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(type, id) DO UPDATE SET
			user_id = excluded.user_id,
			data = excluded.data,
			deleted = excluded.deleted,
			block_hash = excluded.block_hash,
			block_height = excluded.block_height,
			st_hash = excluded.st_hash,
			st_packet_hash = excluded.st_packet_hash
	`,
		rec.Type,
		rec.ID,
		rec.UserID,
		data,
		boolToInt(rec.Deleted),
		ref.BlockHash,
		ref.BlockHeight,
		ref.StateTransitionHash,
		ref.StateTransitionPacketHash,
	)
	if err != nil {
		return fmt.Errorf("upsert %s/%s: write document: %w", rec.Type, rec.ID, err)
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM revisions WHERE type = ? AND id = ? AND position >= ?
	`, rec.Type, rec.ID, len(rec.Revisions))
	if err != nil {
		return fmt.Errorf("upsert %s/%s: trim revisions: %w", rec.Type, rec.ID, err)
	}

	for i, rev := range rec.Revisions {
		if err := writeRevision(ctx, tx, rec.Type, rec.ID, i, rev); err != nil {
			return fmt.Errorf("upsert %s/%s: %w", rec.Type, rec.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("upsert %s/%s: commit: %w", rec.Type, rec.ID, err)
	}
	return nil
}

// execer is the subset of *sql.Tx used by write helpers.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func writeRevision(ctx context.Context, tx execer, docType, id string, position int, rev document.Revision) error {
	snapshot, err := marshalSnapshot(rev.Document)
	if err != nil {
		return fmt.Errorf("revision %d: %w", position, err)
	}
	hash, err := rev.Hash()
	if err != nil {
		return fmt.Errorf("revision %d: %w", position, err)
	}

	ref := rev.Reference
	_, err = tx.ExecContext(ctx, `
		INSERT INTO revisions
		(type, id, position, action, document, block_hash, block_height, st_hash, st_packet_hash, revision_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(type, id, position) DO UPDATE SET
			action = excluded.action,
			document = excluded.document,
			block_hash = excluded.block_hash,
			block_height = excluded.block_height,
			st_hash = excluded.st_hash,
			st_packet_hash = excluded.st_packet_hash,
			revision_hash = excluded.revision_hash
	`,
		docType,
		id,
		position,
		string(rev.Action),
		snapshot,
		ref.BlockHash,
		ref.BlockHeight,
		ref.StateTransitionHash,
		ref.StateTransitionPacketHash,
		hash,
	)
	if err != nil {
		return fmt.Errorf("revision %d: %w", position, err)
	}
	return nil
}

// Remove deletes a document and its revisions. Removing a missing document
// is not an error.
func (s *Store) Remove(ctx context.Context, docType, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("remove %s/%s: begin: %w", docType, id, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM revisions WHERE type = ? AND id = ?
	`, docType, id); err != nil {
		return fmt.Errorf("remove %s/%s: revisions: %w", docType, id, err)
	}
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM documents WHERE type = ? AND id = ?
	`, docType, id); err != nil {
		return fmt.Errorf("remove %s/%s: document: %w", docType, id, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("remove %s/%s: commit: %w", docType, id, err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
