package query

import (
	"github.com/roach88/stateview/internal/ir"
)

// Operator is a where-condition operator.
type Operator string

const (
	OpEqual        Operator = "=="
	OpLess         Operator = "<"
	OpLessEqual    Operator = "<="
	OpGreater      Operator = ">"
	OpGreaterEqual Operator = ">="
	OpIn           Operator = "in"
	OpLength       Operator = "length"
	OpStartsWith   Operator = "startsWith"
	OpContains     Operator = "contains"
	OpElementMatch Operator = "elementMatch"
)

var operators = map[Operator]bool{
	OpEqual: true, OpLess: true, OpLessEqual: true, OpGreater: true, OpGreaterEqual: true,
	OpIn: true, OpLength: true, OpStartsWith: true, OpContains: true, OpElementMatch: true,
}

// IsRange reports whether o is one of <, <=, > and >=.
func (o Operator) IsRange() bool {
	switch o {
	case OpLess, OpLessEqual, OpGreater, OpGreaterEqual:
		return true
	}
	return false
}

// Synthetic field names. They address document identity and owner rather
// than document data.
const (
	FieldNameID     = "$id"
	FieldNameUserID = "$userId"
)

// FieldKind distinguishes data paths from the synthetic identity fields.
type FieldKind int

const (
	FieldData FieldKind = iota
	FieldID
	FieldUserID
)

// Field is a resolved condition or sort target.
type Field struct {
	// Name is the field as written in the query.
	Name string

	Kind FieldKind

	// Path is set for FieldData.
	Path ir.Path
}

// IsSynthetic reports whether f is $id or $userId.
func (f Field) IsSynthetic() bool {
	return f.Kind != FieldData
}

// Condition is one where entry.
type Condition struct {
	Field Field
	Op    Operator

	// Value is the argument of every operator except elementMatch.
	Value ir.IRValue

	// Nested holds the element conditions of elementMatch.
	Nested []Condition
}

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// OrderBy is one sort key.
type OrderBy struct {
	Field     Field
	Direction Direction
}

// Query is a validated query. Zero Limit, StartAt and StartAfter mean the
// key was absent.
type Query struct {
	Where      []Condition
	OrderBy    []OrderBy
	Limit      int
	StartAt    int
	StartAfter int
}

// Limits bounds what a query may ask for.
type Limits struct {
	// DefaultLimit is the page size when limit is absent.
	DefaultLimit int

	// MaxLimit is the largest accepted limit.
	MaxLimit int

	// MaxInValues bounds the cardinality of in and contains arguments.
	MaxInValues int
}

// DefaultLimits returns a page size and ceiling of 100 and at most 100 in
// values.
func DefaultLimits() Limits {
	return Limits{DefaultLimit: 100, MaxLimit: 100, MaxInValues: 100}
}

// WithDefaults fills zero fields from DefaultLimits and caps DefaultLimit at
// MaxLimit.
func (l Limits) WithDefaults() Limits {
	d := DefaultLimits()
	if l.DefaultLimit <= 0 {
		l.DefaultLimit = d.DefaultLimit
	}
	if l.MaxLimit <= 0 {
		l.MaxLimit = d.MaxLimit
	}
	if l.MaxInValues <= 0 {
		l.MaxInValues = d.MaxInValues
	}
	if l.DefaultLimit > l.MaxLimit {
		l.DefaultLimit = l.MaxLimit
	}
	return l
}
