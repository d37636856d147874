package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/stateview/internal/document"
	"github.com/roach88/stateview/internal/ir"
)

// marshalData converts document data to canonical JSON TEXT for storage.
// Uses RFC 8785 canonical JSON so json(...) comparisons in compiled
// queries see identical bytes for equal values.
func marshalData(data ir.IRObject) (string, error) {
	if data == nil {
		data = ir.IRObject{}
	}
	b, err := ir.MarshalCanonical(data)
	if err != nil {
		return "", fmt.Errorf("marshal data: %w", err)
	}
	return string(b), nil
}

// unmarshalData parses stored data. Large integers survive because
// ir.IRObject decodes numbers through json.Number.
func unmarshalData(data string) (ir.IRObject, error) {
	if data == "" || data == "{}" {
		return ir.IRObject{}, nil
	}
	var obj ir.IRObject
	if err := json.Unmarshal([]byte(data), &obj); err != nil {
		return nil, fmt.Errorf("unmarshal data: %w", err)
	}
	return obj, nil
}

// marshalSnapshot converts a revision snapshot to JSON TEXT.
func marshalSnapshot(doc *document.Document) (string, error) {
	b, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}
	return string(b), nil
}

// unmarshalSnapshot parses a stored revision snapshot.
func unmarshalSnapshot(data string) (*document.Document, error) {
	var doc document.Document
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return &doc, nil
}
