package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content hashes. The version suffix allows the hashed
// shape to change without colliding with older hashes.
const (
	DomainRevision = "stateview/revision/v1"
	DomainQuery    = "stateview/query/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null separator keeps domain and data from running together.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// RevisionHash returns the content hash of a revision: the document body it
// recorded plus the state transition that produced it. Two ingests of the same
// transition produce the same hash.
func RevisionHash(action string, stHash string, data IRObject) (string, error) {
	obj := IRObject{
		"action":  IRString(action),
		"st_hash": IRString(stHash),
		"data":    data,
	}

	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("RevisionHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainRevision, canonical), nil
}

// QueryHash returns a stable identifier for a normalized query object, used
// to label query metrics and log lines.
func QueryHash(query IRObject) (string, error) {
	canonical, err := MarshalCanonical(query)
	if err != nil {
		return "", fmt.Errorf("QueryHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainQuery, canonical), nil
}
