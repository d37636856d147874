package query

import (
	"fmt"
	"strings"

	"github.com/roach88/stateview/internal/ir"
)

// findConflicts reports operator combinations that cannot run as a single
// index scan. Only top-level conditions take part; elementMatch conditions
// apply to array elements, not to the scan.
func findConflicts(q *Query, limits Limits) []ValidationError {
	var errs []ValidationError

	var rangeFields []string
	seenRange := map[string]bool{}
	inCount := 0

	for i, cond := range q.Where {
		at := fmt.Sprintf("where[%d]", i)

		if cond.Op.IsRange() && !seenRange[cond.Field.Name] {
			seenRange[cond.Field.Name] = true
			rangeFields = append(rangeFields, cond.Field.Name)
		}

		if cond.Op != OpIn {
			continue
		}
		inCount++
		values, _ := cond.Value.(ir.IRArray)
		switch {
		case len(values) == 0:
			errs = append(errs, ValidationError{
				Code:    ErrEmptyIn,
				Field:   at,
				Message: fmt.Sprintf("in on %q requires at least one value", cond.Field.Name),
			})
		case len(values) > limits.MaxInValues:
			errs = append(errs, ValidationError{
				Code:    ErrInTooLarge,
				Field:   at,
				Message: fmt.Sprintf("in on %q has %d values, at most %d are allowed", cond.Field.Name, len(values), limits.MaxInValues),
			})
		}
		if dup, ok := firstDuplicate(values); ok {
			errs = append(errs, ValidationError{
				Code:    ErrDuplicateInValues,
				Field:   at,
				Message: fmt.Sprintf("in on %q repeats value at index %d", cond.Field.Name, dup),
			})
		}
	}

	if inCount > 1 {
		errs = append(errs, ValidationError{
			Code:    ErrMultipleIn,
			Field:   "where",
			Message: fmt.Sprintf("only one in condition is allowed per query, found %d", inCount),
		})
	}

	if len(rangeFields) > 1 {
		errs = append(errs, ValidationError{
			Code:    ErrMultipleRangeFields,
			Field:   "where",
			Message: fmt.Sprintf("range operators are only allowed on one field, found %s", strings.Join(rangeFields, ", ")),
		})
	}
	if len(rangeFields) == 1 && len(q.OrderBy) > 0 && q.OrderBy[0].Field.Name != rangeFields[0] {
		errs = append(errs, ValidationError{
			Code:  ErrRangeNotFirstSort,
			Field: "orderBy[0]",
			Message: fmt.Sprintf("range condition on %q requires %q to be the first orderBy field, got %q",
				rangeFields[0], rangeFields[0], q.OrderBy[0].Field.Name),
		})
	}

	seenSort := map[string]int{}
	for i, ob := range q.OrderBy {
		if first, dup := seenSort[ob.Field.Name]; dup {
			errs = append(errs, ValidationError{
				Code:    ErrDuplicateOrderBy,
				Field:   fmt.Sprintf("orderBy[%d]", i),
				Message: fmt.Sprintf("%q is already sorted by orderBy[%d]", ob.Field.Name, first),
			})
			continue
		}
		seenSort[ob.Field.Name] = i
	}

	return errs
}

// firstDuplicate returns the index of the first value equal to an earlier
// one.
func firstDuplicate(values ir.IRArray) (int, bool) {
	for i := 1; i < len(values); i++ {
		for j := 0; j < i; j++ {
			if ir.Equal(values[i], values[j]) {
				return i, true
			}
		}
	}
	return 0, false
}
