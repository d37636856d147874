package ingest

import (
	"fmt"

	"github.com/roach88/stateview/internal/document"
)

// Transition is one document mutation carried by a state transition.
type Transition struct {
	StateTransitionHash       string
	StateTransitionPacketHash string
	Action                    document.Action

	// Document is the snapshot after the mutation. For delete only the
	// identity is used; the stored snapshot is carried over.
	Document *document.Document
}

// Block is a committed block and the transitions it includes, in
// application order.
type Block struct {
	Height      int64
	Hash        string
	Quorum      []*document.QuorumMember
	Transitions []Transition
}

// Reference returns the reference of t inside b. It fails with an
// IncompleteOriginError when a hash is missing.
func (b Block) Reference(t Transition) (document.Reference, error) {
	return document.NewReference(b.Hash, b.Height, t.StateTransitionHash, t.StateTransitionPacketHash)
}

// VotingPower returns the total voting power of the block's quorum.
func (b Block) VotingPower() int64 {
	var total int64
	for _, m := range b.Quorum {
		total += m.VotingPower()
	}
	return total
}

// StateTransitionHashes returns the distinct transition hashes of b in
// application order.
func (b Block) StateTransitionHashes() []string {
	seen := make(map[string]bool, len(b.Transitions))
	out := make([]string, 0, len(b.Transitions))
	for _, t := range b.Transitions {
		if seen[t.StateTransitionHash] {
			continue
		}
		seen[t.StateTransitionHash] = true
		out = append(out, t.StateTransitionHash)
	}
	return out
}

// BlockOrderError is returned when a block does not follow the last
// applied one.
type BlockOrderError struct {
	Height int64
	Last   int64
}

// Error implements the error interface.
func (e *BlockOrderError) Error() string {
	return fmt.Sprintf("block %d does not follow last applied block %d", e.Height, e.Last)
}
