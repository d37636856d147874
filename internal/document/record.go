package document

import (
	"fmt"

	"github.com/roach88/stateview/internal/ir"
)

// Record is the persisted form of an SVDocument: the full revision history
// plus the projection of the current revision that queries run against.
// Data is NFC normalized so that every backend matches the same strings.
type Record struct {
	Type      string      `json:"type"`
	ID        string      `json:"id"`
	UserID    string      `json:"userId"`
	Data      ir.IRObject `json:"data"`
	Deleted   bool        `json:"deleted"`
	Reference Reference   `json:"reference"`
	Revisions []Revision  `json:"revisions"`
}

// NewRecord projects sv for storage. It fails when sv has no revisions.
func NewRecord(sv *SVDocument) (Record, error) {
	rev := sv.CurrentRevision()
	if rev == nil {
		return Record{}, fmt.Errorf("record %s/%s: no revisions", sv.Type(), sv.ID())
	}

	data, _ := ir.Normalize(rev.Document.Data).(ir.IRObject)
	if data == nil {
		data = ir.IRObject{}
	}
	return Record{
		Type:      sv.Type(),
		ID:        sv.ID(),
		UserID:    sv.UserID(),
		Data:      data,
		Deleted:   sv.IsDeleted(),
		Reference: rev.Reference,
		Revisions: sv.Revisions(),
	}, nil
}

// SVDocument rebuilds the document from the stored history.
func (r Record) SVDocument() (*SVDocument, error) {
	sv, err := Restore(r.Revisions)
	if err != nil {
		return nil, fmt.Errorf("record %s/%s: %w", r.Type, r.ID, err)
	}
	return sv, nil
}
