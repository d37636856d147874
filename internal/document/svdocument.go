package document

import (
	"encoding/json"
	"fmt"
)

// SVDocument is a document identity with its ordered revision history. The
// last revision is the current one; its action decides the document state.
type SVDocument struct {
	id        string
	docType   string
	revisions []Revision
}

// New creates an SVDocument whose first revision creates doc.
func New(doc *Document, ref Reference) (*SVDocument, error) {
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	sv := &SVDocument{id: doc.ID, docType: doc.Type}
	if err := sv.AddRevision(doc, ref, ActionCreate); err != nil {
		return nil, err
	}
	return sv, nil
}

// Restore rebuilds an SVDocument from a stored revision history. The
// revisions must share one identity and be in block order.
func Restore(revisions []Revision) (*SVDocument, error) {
	if len(revisions) == 0 {
		return nil, fmt.Errorf("restore: no revisions")
	}
	first := revisions[0].Document
	if err := first.Validate(); err != nil {
		return nil, fmt.Errorf("restore: %w", err)
	}

	sv := &SVDocument{id: first.ID, docType: first.Type}
	for i, rev := range revisions {
		if err := sv.AddRevision(rev.Document, rev.Reference, rev.Action); err != nil {
			return nil, fmt.Errorf("restore revision %d: %w", i, err)
		}
	}
	return sv, nil
}

// ID returns the document identity.
func (s *SVDocument) ID() string { return s.id }

// Type returns the document type.
func (s *SVDocument) Type() string { return s.docType }

// Len returns the number of revisions.
func (s *SVDocument) Len() int { return len(s.revisions) }

// Revisions returns a copy of the revision history, oldest first.
func (s *SVDocument) Revisions() []Revision {
	out := make([]Revision, len(s.revisions))
	for i, rev := range s.revisions {
		out[i] = rev.clone()
	}
	return out
}

// Clone returns a deep copy of s.
func (s *SVDocument) Clone() *SVDocument {
	return &SVDocument{id: s.id, docType: s.docType, revisions: s.Revisions()}
}

// CurrentRevision returns the last revision, or nil when the history is
// empty (everything was rolled back).
func (s *SVDocument) CurrentRevision() *Revision {
	if len(s.revisions) == 0 {
		return nil
	}
	rev := s.revisions[len(s.revisions)-1].clone()
	return &rev
}

// Document returns a copy of the current snapshot with current metadata.
func (s *SVDocument) Document() *Document {
	rev := s.CurrentRevision()
	if rev == nil {
		return nil
	}
	return rev.Document
}

// Reference returns the reference of the current revision.
func (s *SVDocument) Reference() (Reference, bool) {
	if len(s.revisions) == 0 {
		return Reference{}, false
	}
	return s.revisions[len(s.revisions)-1].Reference, true
}

// UserID returns the owner recorded on the current revision.
func (s *SVDocument) UserID() string {
	if len(s.revisions) == 0 {
		return ""
	}
	return s.revisions[len(s.revisions)-1].Document.Metadata.UserID
}

// State is Deleted when the current revision is a delete or when no
// revisions remain.
func (s *SVDocument) State() State {
	if len(s.revisions) == 0 || s.revisions[len(s.revisions)-1].Action == ActionDelete {
		return StateDeleted
	}
	return StateActive
}

// IsDeleted reports whether the document is soft-deleted.
func (s *SVDocument) IsDeleted() bool {
	return s.State() == StateDeleted
}

// AddRevision appends a revision. The identity must match, the reference
// must be complete and not earlier in block order than the current one, and
// the action must be legal: create on an empty or deleted document, update
// or delete on an active one.
func (s *SVDocument) AddRevision(doc *Document, ref Reference, action Action) error {
	if err := doc.Validate(); err != nil {
		return err
	}
	if err := ref.Validate(); err != nil {
		return err
	}
	if doc.ID != s.id || doc.Type != s.docType {
		return fmt.Errorf("%w: revision for %s/%s appended to %s/%s",
			ErrInvalidTransition, doc.Type, doc.ID, s.docType, s.id)
	}
	if _, err := ParseAction(string(action)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTransition, err)
	}

	if len(s.revisions) > 0 {
		cur := s.revisions[len(s.revisions)-1]
		if ref.BlockHeight < cur.Reference.BlockHeight {
			return fmt.Errorf("%w: block height %d is before current revision at %d",
				ErrInvalidTransition, ref.BlockHeight, cur.Reference.BlockHeight)
		}
	}

	state := s.State()
	switch {
	case action == ActionCreate && state == StateActive:
		return fmt.Errorf("%w: create on active document %s", ErrInvalidTransition, s.id)
	case action != ActionCreate && state == StateDeleted:
		return fmt.Errorf("%w: %s on absent or deleted document %s", ErrInvalidTransition, action, s.id)
	}

	snapshot := doc.Clone()
	refCopy := ref
	snapshot.Metadata.Reference = &refCopy

	s.revisions = append(s.revisions, Revision{
		Document:  snapshot,
		Reference: ref,
		Action:    action,
	})
	return nil
}

// MarkAsDeleted appends a delete revision carrying the current snapshot.
func (s *SVDocument) MarkAsDeleted(ref Reference) error {
	doc := s.Document()
	if doc == nil {
		return fmt.Errorf("%w: delete on document %s with no revisions", ErrInvalidTransition, s.id)
	}
	return s.AddRevision(doc, ref, ActionDelete)
}

// RemoveRevisionsByOrigin drops every revision produced by the given state
// transition and returns how many were removed.
func (s *SVDocument) RemoveRevisionsByOrigin(stHash string) int {
	kept := s.revisions[:0]
	removed := 0
	for _, rev := range s.revisions {
		if rev.Reference.StateTransitionHash == stHash {
			removed++
			continue
		}
		kept = append(kept, rev)
	}
	s.revisions = kept
	return removed
}

type svDocumentJSON struct {
	DocumentID   string     `json:"documentId"`
	DocumentType string     `json:"documentType"`
	UserID       string     `json:"userId"`
	State        State      `json:"state"`
	Revisions    []Revision `json:"revisions"`
}

// MarshalJSON writes {documentId, documentType, userId, state, revisions}.
func (s *SVDocument) MarshalJSON() ([]byte, error) {
	revs := s.revisions
	if revs == nil {
		revs = []Revision{}
	}
	return json.Marshal(svDocumentJSON{
		DocumentID:   s.id,
		DocumentType: s.docType,
		UserID:       s.UserID(),
		State:        s.State(),
		Revisions:    revs,
	})
}

// UnmarshalJSON restores an SVDocument from its JSON form. Derived fields
// (userId, state) are recomputed from the revisions.
func (s *SVDocument) UnmarshalJSON(b []byte) error {
	var raw svDocumentJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	restored, err := Restore(raw.Revisions)
	if err != nil {
		return err
	}
	if restored.id != raw.DocumentID || restored.docType != raw.DocumentType {
		return fmt.Errorf("%w: revisions belong to %s/%s, not %s/%s",
			ErrInvalidTransition, restored.docType, restored.id, raw.DocumentType, raw.DocumentID)
	}
	*s = *restored
	return nil
}
