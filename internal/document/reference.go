package document

// Reference identifies the state transition, and the block that included it,
// that produced a revision. It is an immutable value.
type Reference struct {
	BlockHash                 string `json:"blockHash"`
	BlockHeight               int64  `json:"blockHeight"`
	StateTransitionHash       string `json:"stateTransitionHash"`
	StateTransitionPacketHash string `json:"stateTransitionPacketHash"`
}

// NewReference builds a Reference, rejecting empty hashes and negative
// heights with an IncompleteOriginError.
func NewReference(blockHash string, blockHeight int64, stHash, stPacketHash string) (Reference, error) {
	ref := Reference{
		BlockHash:                 blockHash,
		BlockHeight:               blockHeight,
		StateTransitionHash:       stHash,
		StateTransitionPacketHash: stPacketHash,
	}
	if err := ref.Validate(); err != nil {
		return Reference{}, err
	}
	return ref, nil
}

// MustReference is like NewReference but panics on error.
// Use only in tests or with literal values.
func MustReference(blockHash string, blockHeight int64, stHash, stPacketHash string) Reference {
	ref, err := NewReference(blockHash, blockHeight, stHash, stPacketHash)
	if err != nil {
		panic(err)
	}
	return ref
}

// Validate checks that every field is present.
func (r Reference) Validate() error {
	switch {
	case r.BlockHash == "":
		return &IncompleteOriginError{Kind: "reference", Field: "blockHash"}
	case r.BlockHeight < 0:
		return &IncompleteOriginError{Kind: "reference", Field: "blockHeight"}
	case r.StateTransitionHash == "":
		return &IncompleteOriginError{Kind: "reference", Field: "stateTransitionHash"}
	case r.StateTransitionPacketHash == "":
		return &IncompleteOriginError{Kind: "reference", Field: "stateTransitionPacketHash"}
	}
	return nil
}
