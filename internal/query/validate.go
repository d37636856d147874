package query

import (
	"fmt"
	"strings"

	"github.com/roach88/stateview/internal/ir"
)

var topLevelKeys = map[string]bool{
	"where": true, "orderBy": true, "limit": true, "startAt": true, "startAfter": true,
}

// Validator checks raw queries against a set of Limits.
type Validator struct {
	limits Limits
}

// NewValidator returns a Validator. Zero fields of limits take their
// defaults.
func NewValidator(limits Limits) *Validator {
	return &Validator{limits: limits.WithDefaults()}
}

// Limits returns the effective limits.
func (v *Validator) Limits() Limits {
	return v.limits
}

// Validate returns every defect of raw. A nil result means the query is
// valid. Conflicts are only reported for structurally valid queries.
func (v *Validator) Validate(raw ir.IRObject) []ValidationError {
	_, errs := v.parse(raw)
	return errs
}

// Parse validates raw and returns the typed query, or an
// *InvalidQueryError carrying every defect. A nil raw is the empty query.
func (v *Validator) Parse(raw ir.IRObject) (*Query, error) {
	q, errs := v.parse(raw)
	if len(errs) > 0 {
		return nil, NewInvalidQueryError(errs)
	}
	return q, nil
}

func (v *Validator) parse(raw ir.IRObject) (*Query, []ValidationError) {
	q := &Query{}
	var errs []ValidationError

	for _, key := range raw.SortedKeys() {
		if !topLevelKeys[key] {
			errs = append(errs, ValidationError{
				Code:    ErrUnknownKey,
				Field:   key,
				Message: "unknown query property (allowed: where, orderBy, limit, startAt, startAfter)",
			})
		}
	}

	if where, ok := raw["where"]; ok {
		q.Where, errs = v.parseWhere(where, errs)
	}
	if orderBy, ok := raw["orderBy"]; ok {
		q.OrderBy, errs = parseOrderBy(orderBy, errs)
	}
	if limit, ok := raw["limit"]; ok {
		n, isInt := limit.(ir.IRInt)
		if !isInt || n < 1 || int64(n) > int64(v.limits.MaxLimit) {
			errs = append(errs, ValidationError{
				Code:    ErrInvalidLimit,
				Field:   "limit",
				Message: fmt.Sprintf("must be an integer between 1 and %d", v.limits.MaxLimit),
			})
		} else {
			q.Limit = int(n)
		}
	}
	q.StartAt, errs = parsePosition(raw, "startAt", ErrInvalidStartAt, errs)
	q.StartAfter, errs = parsePosition(raw, "startAfter", ErrInvalidStartAfter, errs)

	_, hasStartAt := raw["startAt"]
	_, hasStartAfter := raw["startAfter"]
	if hasStartAt && hasStartAfter {
		errs = append(errs, ValidationError{
			Code:    ErrStartAtAndAfter,
			Field:   "startAt",
			Message: "startAt and startAfter are mutually exclusive",
		})
	}

	if len(errs) > 0 {
		return nil, errs
	}

	if conflicts := findConflicts(q, v.limits); len(conflicts) > 0 {
		return nil, conflicts
	}
	return q, nil
}

func parsePosition(raw ir.IRObject, key, code string, errs []ValidationError) (int, []ValidationError) {
	val, ok := raw[key]
	if !ok {
		return 0, errs
	}
	n, isInt := val.(ir.IRInt)
	if !isInt || n < 1 || n > 1<<31-1 {
		return 0, append(errs, ValidationError{
			Code:    code,
			Field:   key,
			Message: "must be a positive integer",
		})
	}
	return int(n), errs
}

func (v *Validator) parseWhere(val ir.IRValue, errs []ValidationError) ([]Condition, []ValidationError) {
	list, ok := val.(ir.IRArray)
	if !ok {
		return nil, append(errs, ValidationError{
			Code:    ErrWhereNotArray,
			Field:   "where",
			Message: fmt.Sprintf("must be an array of conditions, got %s", ir.TypeName(val)),
		})
	}

	conds := make([]Condition, 0, len(list))
	for i, entry := range list {
		var cond Condition
		var ok bool
		cond, ok, errs = v.parseCondition(entry, fmt.Sprintf("where[%d]", i), false, errs)
		if ok {
			conds = append(conds, cond)
		}
	}
	return conds, errs
}

// parseCondition validates one [field, operator, value] tuple. nested is set
// for the element conditions of elementMatch.
func (v *Validator) parseCondition(entry ir.IRValue, at string, nested bool, errs []ValidationError) (Condition, bool, []ValidationError) {
	tuple, ok := entry.(ir.IRArray)
	if !ok || len(tuple) != 3 {
		return Condition{}, false, append(errs, ValidationError{
			Code:    ErrConditionShape,
			Field:   at,
			Message: "condition must be a [field, operator, value] tuple",
		})
	}

	before := len(errs)

	field, fieldErr := parseField(tuple[0])
	if fieldErr != "" {
		errs = append(errs, ValidationError{Code: ErrInvalidField, Field: at + "[0]", Message: fieldErr})
	}

	opName, isStr := tuple[1].(ir.IRString)
	op := Operator(opName)
	if !isStr || !operators[op] {
		errs = append(errs, ValidationError{
			Code:    ErrUnknownOperator,
			Field:   at + "[1]",
			Message: fmt.Sprintf("unknown operator %s", describe(tuple[1])),
		})
		return Condition{}, false, errs
	}
	if fieldErr != "" {
		return Condition{}, false, errs
	}

	if nested && (field.IsSynthetic() || op == OpElementMatch) {
		errs = append(errs, ValidationError{
			Code:    ErrNestedCondition,
			Field:   at,
			Message: "elementMatch conditions may not use $id, $userId or elementMatch",
		})
		return Condition{}, false, errs
	}
	if field.IsSynthetic() && !syntheticOperator(op) {
		errs = append(errs, ValidationError{
			Code:    ErrSyntheticOperator,
			Field:   at + "[1]",
			Message: fmt.Sprintf("operator %q is not supported on %s", op, field.Name),
		})
		return Condition{}, false, errs
	}

	cond := Condition{Field: field, Op: op}
	if op == OpElementMatch {
		cond.Nested, errs = v.parseElementMatch(tuple[2], at+"[2]", errs)
	} else {
		cond.Value = tuple[2]
		if msg := v.checkValue(op, tuple[2]); msg != "" {
			errs = append(errs, ValidationError{Code: ErrInvalidValue, Field: at + "[2]", Message: msg})
		}
	}
	return cond, len(errs) == before, errs
}

func (v *Validator) parseElementMatch(val ir.IRValue, at string, errs []ValidationError) ([]Condition, []ValidationError) {
	list, ok := val.(ir.IRArray)
	if !ok || len(list) == 0 {
		return nil, append(errs, ValidationError{
			Code:    ErrInvalidElementMatch,
			Field:   at,
			Message: "elementMatch requires a non-empty list of conditions",
		})
	}

	nested := make([]Condition, 0, len(list))
	for i, entry := range list {
		var cond Condition
		var ok bool
		cond, ok, errs = v.parseCondition(entry, fmt.Sprintf("%s[%d]", at, i), true, errs)
		if ok {
			nested = append(nested, cond)
		}
	}
	return nested, errs
}

// checkValue returns a message when val does not fit op.
func (v *Validator) checkValue(op Operator, val ir.IRValue) string {
	switch {
	case op == OpEqual:
		return ""
	case op.IsRange():
		switch val.(type) {
		case ir.IRInt, ir.IRFloat, ir.IRString:
			return ""
		}
		return fmt.Sprintf("%s requires a number or string, got %s", op, ir.TypeName(val))
	case op == OpIn:
		if _, ok := val.(ir.IRArray); !ok {
			return fmt.Sprintf("in requires an array, got %s", ir.TypeName(val))
		}
	case op == OpLength:
		if n, ok := val.(ir.IRInt); !ok || n < 0 {
			return "length requires a non-negative integer"
		}
	case op == OpStartsWith:
		if _, ok := val.(ir.IRString); !ok {
			return fmt.Sprintf("startsWith requires a string, got %s", ir.TypeName(val))
		}
	case op == OpContains:
		return v.checkContains(val)
	}
	return ""
}

func (v *Validator) checkContains(val ir.IRValue) string {
	arr, isArr := val.(ir.IRArray)
	if !isArr {
		if containsScalar(val) {
			return ""
		}
		return fmt.Sprintf("contains requires a scalar or an array of scalars, got %s", ir.TypeName(val))
	}
	if len(arr) == 0 {
		return "contains requires at least one value"
	}
	if len(arr) > v.limits.MaxInValues {
		return fmt.Sprintf("contains accepts at most %d values", v.limits.MaxInValues)
	}
	for i, elem := range arr {
		if !containsScalar(elem) {
			return fmt.Sprintf("contains value %d must be a string, number or boolean, got %s", i, ir.TypeName(elem))
		}
	}
	return ""
}

func containsScalar(v ir.IRValue) bool {
	switch v.(type) {
	case ir.IRString, ir.IRInt, ir.IRFloat, ir.IRBool:
		return true
	}
	return false
}

func syntheticOperator(op Operator) bool {
	return op == OpEqual || op.IsRange() || op == OpIn || op == OpStartsWith
}

// parseField resolves a field name. It returns a message on failure.
func parseField(val ir.IRValue) (Field, string) {
	name, ok := val.(ir.IRString)
	if !ok {
		return Field{}, fmt.Sprintf("field must be a string, got %s", ir.TypeName(val))
	}
	switch s := string(name); {
	case s == FieldNameID:
		return Field{Name: s, Kind: FieldID}, ""
	case s == FieldNameUserID:
		return Field{Name: s, Kind: FieldUserID}, ""
	case strings.HasPrefix(s, "$"):
		return Field{}, fmt.Sprintf("unknown synthetic field %q (want $id or $userId)", s)
	default:
		p, err := ir.ParsePath(s)
		if err != nil {
			return Field{}, err.Error()
		}
		return Field{Name: s, Kind: FieldData, Path: p}, ""
	}
}

func parseOrderBy(val ir.IRValue, errs []ValidationError) ([]OrderBy, []ValidationError) {
	list, ok := val.(ir.IRArray)
	if !ok {
		return nil, append(errs, ValidationError{
			Code:    ErrOrderByNotArray,
			Field:   "orderBy",
			Message: fmt.Sprintf("must be an array of [field, direction] tuples, got %s", ir.TypeName(val)),
		})
	}

	out := make([]OrderBy, 0, len(list))
	for i, entry := range list {
		at := fmt.Sprintf("orderBy[%d]", i)
		tuple, ok := entry.(ir.IRArray)
		if !ok || len(tuple) != 2 {
			errs = append(errs, ValidationError{
				Code:    ErrOrderByShape,
				Field:   at,
				Message: "orderBy entry must be a [field, direction] tuple",
			})
			continue
		}

		field, msg := parseField(tuple[0])
		if msg != "" {
			errs = append(errs, ValidationError{Code: ErrOrderByShape, Field: at + "[0]", Message: msg})
		}
		dir, isStr := tuple[1].(ir.IRString)
		if !isStr || (Direction(dir) != Asc && Direction(dir) != Desc) {
			errs = append(errs, ValidationError{
				Code:    ErrInvalidDirection,
				Field:   at + "[1]",
				Message: fmt.Sprintf("direction must be asc or desc, got %s", describe(tuple[1])),
			})
			continue
		}
		if msg == "" {
			out = append(out, OrderBy{Field: field, Direction: Direction(dir)})
		}
	}
	return out, errs
}

// describe renders a value for error messages.
func describe(v ir.IRValue) string {
	if s, ok := v.(ir.IRString); ok {
		return fmt.Sprintf("%q", string(s))
	}
	return ir.TypeName(v)
}
