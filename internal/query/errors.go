package query

import (
	"errors"
	"fmt"
	"strings"
)

// Structural error codes (Q101-Q116).
const (
	ErrUnknownKey          = "Q101" // top-level key other than where/orderBy/limit/startAt/startAfter
	ErrWhereNotArray       = "Q102" // where is not an array
	ErrConditionShape      = "Q103" // condition is not a [field, operator, value] tuple
	ErrInvalidField        = "Q104" // field is not a valid path or synthetic field
	ErrUnknownOperator     = "Q105" // operator is not recognized
	ErrInvalidValue        = "Q106" // value type does not fit the operator
	ErrSyntheticOperator   = "Q107" // operator not supported on $id/$userId
	ErrNestedCondition     = "Q108" // elementMatch condition uses $id/$userId or elementMatch
	ErrOrderByNotArray     = "Q109" // orderBy is not an array
	ErrOrderByShape        = "Q110" // orderBy entry is not a [field, direction] tuple
	ErrInvalidDirection    = "Q111" // direction is not asc or desc
	ErrInvalidLimit        = "Q112" // limit is not an integer in [1, max]
	ErrInvalidStartAt      = "Q113" // startAt is not a positive integer
	ErrInvalidStartAfter   = "Q114" // startAfter is not a positive integer
	ErrStartAtAndAfter     = "Q115" // startAt and startAfter are both present
	ErrInvalidElementMatch = "Q116" // elementMatch argument is not a non-empty condition list
)

// Conflicting-condition codes (Q201-Q207).
const (
	ErrMultipleRangeFields = "Q201" // range operators on more than one field
	ErrRangeNotFirstSort   = "Q202" // range field is not the first orderBy field
	ErrEmptyIn             = "Q203" // in with no values
	ErrInTooLarge          = "Q204" // in with more values than allowed
	ErrDuplicateInValues   = "Q205" // in with repeated values
	ErrMultipleIn          = "Q206" // more than one in condition
	ErrDuplicateOrderBy    = "Q207" // same field sorted twice
)

// ValidationError is one defect of a query.
type ValidationError struct {
	Code    string `json:"code"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// IsConflict reports whether e came from the conflicting-condition pass.
func (e ValidationError) IsConflict() bool {
	return strings.HasPrefix(e.Code, "Q2")
}

// InvalidQueryError carries every validation error of a rejected query.
type InvalidQueryError struct {
	errs []ValidationError
}

// NewInvalidQueryError wraps errs. errs must not be empty.
func NewInvalidQueryError(errs []ValidationError) *InvalidQueryError {
	return &InvalidQueryError{errs: append([]ValidationError(nil), errs...)}
}

// Errors returns a copy of the collected validation errors.
func (e *InvalidQueryError) Errors() []ValidationError {
	return append([]ValidationError(nil), e.errs...)
}

// Error implements the error interface.
func (e *InvalidQueryError) Error() string {
	msgs := make([]string, len(e.errs))
	for i, ve := range e.errs {
		msgs[i] = ve.Error()
	}
	noun := "errors"
	if len(e.errs) == 1 {
		noun = "error"
	}
	return fmt.Sprintf("invalid query (%d %s): %s", len(e.errs), noun, strings.Join(msgs, "; "))
}

// IsInvalidQuery reports whether err is an InvalidQueryError.
func IsInvalidQuery(err error) bool {
	var iq *InvalidQueryError
	return errors.As(err, &iq)
}
