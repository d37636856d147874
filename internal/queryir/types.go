package queryir

import (
	"strings"

	"github.com/roach88/stateview/internal/ir"
)

// Predicate is a filter condition.
//
// This is a sealed interface - only types in this package implement it.
type Predicate interface {
	predicateNode() // Marker method - seals interface to this package
}

// FieldKind selects what a Field addresses.
type FieldKind int

const (
	// FieldData addresses a path inside document data.
	FieldData FieldKind = iota

	// FieldID addresses the document identity column.
	FieldID

	// FieldUserID addresses the owner column.
	FieldUserID
)

// Field is the target of a predicate or sort key.
type Field struct {
	Kind FieldKind
	Path ir.Path // FieldData only
}

// DataField addresses p inside document data.
func DataField(p ir.Path) Field { return Field{Kind: FieldData, Path: p} }

// IDField addresses the document identity.
func IDField() Field { return Field{Kind: FieldID} }

// UserIDField addresses the document owner.
func UserIDField() Field { return Field{Kind: FieldUserID} }

// String returns the field as it is written in queries.
func (f Field) String() string {
	switch f.Kind {
	case FieldID:
		return "$id"
	case FieldUserID:
		return "$userId"
	default:
		return strings.Join(f.Path, ".")
	}
}

// CompareOp is an equality or ordering operator.
type CompareOp string

const (
	OpEq CompareOp = "="
	OpLt CompareOp = "<"
	OpLe CompareOp = "<="
	OpGt CompareOp = ">"
	OpGe CompareOp = ">="
)

// IsRange reports whether op is an ordering comparison.
func (op CompareOp) IsRange() bool {
	return op != OpEq
}

// holds reports whether a comparison result c satisfies op.
func (op CompareOp) holds(c int) bool {
	switch op {
	case OpEq:
		return c == 0
	case OpLt:
		return c < 0
	case OpLe:
		return c <= 0
	case OpGt:
		return c > 0
	case OpGe:
		return c >= 0
	}
	return false
}

// Compare holds when the field strictly equals Value (OpEq) or orders
// against it. Ordering is only defined between two integers or two strings.
type Compare struct {
	Field Field
	Op    CompareOp
	Value ir.IRValue
}

func (Compare) predicateNode() {}

// In holds when the field equals one of Values.
type In struct {
	Field  Field
	Values []ir.IRValue
}

func (In) predicateNode() {}

// Length holds when the field is an array of exactly N elements.
type Length struct {
	Field Field
	N     int64
}

func (Length) predicateNode() {}

// StartsWith holds when the field is a string with the given prefix.
type StartsWith struct {
	Field  Field
	Prefix string
}

func (StartsWith) predicateNode() {}

// Contains holds when the field is an array containing every one of Values.
type Contains struct {
	Field  Field
	Values []ir.IRValue
}

func (Contains) predicateNode() {}

// ElementMatch holds when the field is an array with at least one object
// element satisfying every predicate of Filter. Field paths inside Filter
// are relative to the element.
type ElementMatch struct {
	Field  Field
	Filter And
}

func (ElementMatch) predicateNode() {}

// NotDeleted excludes soft-deleted documents.
type NotDeleted struct{}

func (NotDeleted) predicateNode() {}

// TypeIs restricts results to one document type.
type TypeIs struct {
	Type string
}

func (TypeIs) predicateNode() {}

// And is a conjunction. An empty And always holds.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// SortKey is one component of a composite sort.
type SortKey struct {
	Field Field
	Desc  bool
}

// Plan is a complete backend request: filter, composite sort and a
// skip/take window. Results not decided by Sort are ordered by id.
type Plan struct {
	DocumentType string
	Filter       And
	Sort         []SortKey
	Skip         int
	Take         int
}
