package document

import (
	"fmt"

	"github.com/roach88/stateview/internal/ir"
)

// Action is the kind of mutation a revision records.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// ParseAction converts a string to an Action.
func ParseAction(s string) (Action, error) {
	switch a := Action(s); a {
	case ActionCreate, ActionUpdate, ActionDelete:
		return a, nil
	default:
		return "", fmt.Errorf("unknown action %q (want create, update or delete)", s)
	}
}

// State is derived from the action of the current revision.
type State int

const (
	StateActive State = iota
	StateDeleted
)

// String returns "active" or "deleted".
func (s State) String() string {
	if s == StateDeleted {
		return "deleted"
	}
	return "active"
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(b []byte) error {
	switch string(b) {
	case "active":
		*s = StateActive
	case "deleted":
		*s = StateDeleted
	default:
		return fmt.Errorf("unknown document state %q", b)
	}
	return nil
}

// Revision is one mutation of a document: the snapshot after it, the
// reference that produced it, and the action.
type Revision struct {
	Document  *Document `json:"document"`
	Reference Reference `json:"reference"`
	Action    Action    `json:"action"`
}

// Hash returns the content hash of the revision. Replaying the same state
// transition yields the same hash.
func (r Revision) Hash() (string, error) {
	body := ir.IRObject{
		"data":   r.Document.Data,
		"userId": ir.IRString(r.Document.Metadata.UserID),
	}
	return ir.RevisionHash(string(r.Action), r.Reference.StateTransitionHash, body)
}

func (r Revision) clone() Revision {
	return Revision{
		Document:  r.Document.Clone(),
		Reference: r.Reference,
		Action:    r.Action,
	}
}
