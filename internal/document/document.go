package document

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/stateview/internal/ir"
)

// Metadata carries the owner of a document and the reference of the revision
// the snapshot belongs to.
type Metadata struct {
	UserID    string     `json:"userId"`
	Reference *Reference `json:"stateTransitionReference,omitempty"`
}

// Document is an application document: an identity within a type, its field
// values and its metadata.
type Document struct {
	ID       string
	Type     string
	Data     ir.IRObject
	Metadata Metadata
}

// NewDocument returns a document with empty data.
func NewDocument(docType, id, userID string) *Document {
	return &Document{
		ID:       id,
		Type:     docType,
		Data:     ir.IRObject{},
		Metadata: Metadata{UserID: userID},
	}
}

// Validate checks that the document has an identity.
func (d *Document) Validate() error {
	if d == nil {
		return fmt.Errorf("document is nil")
	}
	if d.ID == "" {
		return fmt.Errorf("document id is required")
	}
	if d.Type == "" {
		return fmt.Errorf("document %q: type is required", d.ID)
	}
	return nil
}

// Get returns the value at a dotted path such as "arrayWithObjects.0.item".
func (d *Document) Get(path string) (ir.IRValue, bool) {
	p, err := ir.ParsePath(path)
	if err != nil {
		return nil, false
	}
	return ir.Lookup(d.Data, p)
}

// Set assigns v at a dotted path, creating intermediate objects.
func (d *Document) Set(path string, v ir.IRValue) error {
	p, err := ir.ParsePath(path)
	if err != nil {
		return err
	}
	if d.Data == nil {
		d.Data = ir.IRObject{}
	}
	return ir.SetPath(d.Data, p, v)
}

// Unset removes the key at a dotted path.
func (d *Document) Unset(path string) bool {
	p, err := ir.ParsePath(path)
	if err != nil {
		return false
	}
	return ir.DeletePath(d.Data, p)
}

// Clone returns a deep copy.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := &Document{
		ID:       d.ID,
		Type:     d.Type,
		Data:     d.Data.Clone(),
		Metadata: Metadata{UserID: d.Metadata.UserID},
	}
	if d.Metadata.Reference != nil {
		ref := *d.Metadata.Reference
		out.Metadata.Reference = &ref
	}
	if out.Data == nil {
		out.Data = ir.IRObject{}
	}
	return out
}

type documentJSON struct {
	ID       string          `json:"id"`
	Type     string          `json:"type"`
	Data     json.RawMessage `json:"data"`
	Metadata Metadata        `json:"metadata"`
}

// MarshalJSON writes {id, type, data, metadata}. Data is canonical JSON.
func (d Document) MarshalJSON() ([]byte, error) {
	data := d.Data
	if data == nil {
		data = ir.IRObject{}
	}
	canonical, err := ir.MarshalCanonical(data)
	if err != nil {
		return nil, fmt.Errorf("document %q data: %w", d.ID, err)
	}
	return json.Marshal(documentJSON{
		ID:       d.ID,
		Type:     d.Type,
		Data:     canonical,
		Metadata: d.Metadata,
	})
}

// UnmarshalJSON reads the form written by MarshalJSON.
func (d *Document) UnmarshalJSON(b []byte) error {
	var raw documentJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	data := ir.IRObject{}
	if len(raw.Data) > 0 && string(raw.Data) != "null" {
		v, err := ir.DecodeValue(raw.Data)
		if err != nil {
			return fmt.Errorf("document %q data: %w", raw.ID, err)
		}
		obj, ok := v.(ir.IRObject)
		if !ok {
			return fmt.Errorf("document %q data: expected object, got %s", raw.ID, ir.TypeName(v))
		}
		data = obj
	}

	*d = Document{
		ID:       raw.ID,
		Type:     raw.Type,
		Data:     data,
		Metadata: raw.Metadata,
	}
	return nil
}
