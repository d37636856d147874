package document

import (
	"encoding/hex"
	"fmt"
)

// DefaultVotingPower is the voting power every quorum member carries.
const DefaultVotingPower = 100

// QuorumMember is a validator of the quorum that signed a block.
type QuorumMember struct {
	ProTxHash      []byte
	PublicKeyShare []byte
}

// NewQuorumMember builds a member from its raw hex fields. A missing field
// yields an IncompleteOriginError naming it.
func NewQuorumMember(raw map[string]string) (*QuorumMember, error) {
	proTxHash := raw["proTxHash"]
	if proTxHash == "" {
		return nil, &IncompleteOriginError{Kind: "quorum member", Field: "proTxHash"}
	}
	pubKeyShare := raw["pubKeyShare"]
	if pubKeyShare == "" {
		return nil, &IncompleteOriginError{Kind: "quorum member", Field: "pubKeyShare"}
	}

	proTx, err := hex.DecodeString(proTxHash)
	if err != nil {
		return nil, fmt.Errorf("quorum member proTxHash: %w", err)
	}
	share, err := hex.DecodeString(pubKeyShare)
	if err != nil {
		return nil, fmt.Errorf("quorum member pubKeyShare: %w", err)
	}
	return &QuorumMember{ProTxHash: proTx, PublicKeyShare: share}, nil
}

// VotingPower returns DefaultVotingPower.
func (m *QuorumMember) VotingPower() int64 {
	return DefaultVotingPower
}
