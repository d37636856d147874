package queryir

import (
	"slices"
	"strings"

	"github.com/roach88/stateview/internal/ir"
)

// Target is the queryable projection of a stored document.
type Target struct {
	Type    string
	ID      string
	UserID  string
	Data    ir.IRObject
	Deleted bool
}

// Match reports whether t satisfies p.
func Match(p Predicate, t Target) bool {
	return match(p, t.Data, &t)
}

// match evaluates p with data fields resolved against root. Below an
// ElementMatch, root is the array element.
func match(p Predicate, root ir.IRValue, t *Target) bool {
	switch pred := p.(type) {
	case And:
		for _, sub := range pred.Predicates {
			if !match(sub, root, t) {
				return false
			}
		}
		return true
	case TypeIs:
		return t.Type == pred.Type
	case NotDeleted:
		return !t.Deleted
	case Compare:
		return anyValue(pred.Field, root, t, func(v ir.IRValue) bool {
			if pred.Op == OpEq {
				return ir.Equal(v, pred.Value)
			}
			c, ok := ir.Compare(v, pred.Value)
			return ok && pred.Op.holds(c)
		})
	case In:
		return anyValue(pred.Field, root, t, func(v ir.IRValue) bool {
			for _, want := range pred.Values {
				if ir.Equal(v, want) {
					return true
				}
			}
			return false
		})
	case Length:
		return anyValue(pred.Field, root, t, func(v ir.IRValue) bool {
			arr, ok := v.(ir.IRArray)
			return ok && int64(len(arr)) == pred.N
		})
	case StartsWith:
		return anyValue(pred.Field, root, t, func(v ir.IRValue) bool {
			s, ok := v.(ir.IRString)
			return ok && strings.HasPrefix(string(s), pred.Prefix)
		})
	case Contains:
		return anyValue(pred.Field, root, t, func(v ir.IRValue) bool {
			arr, ok := v.(ir.IRArray)
			return ok && containsAll(arr, pred.Values)
		})
	case ElementMatch:
		return anyValue(pred.Field, root, t, func(v ir.IRValue) bool {
			arr, ok := v.(ir.IRArray)
			if !ok {
				return false
			}
			for _, elem := range arr {
				if _, isObj := elem.(ir.IRObject); isObj && match(pred.Filter, elem, t) {
					return true
				}
			}
			return false
		})
	}
	return false
}

// anyValue reports whether fn holds for any value the field resolves to.
func anyValue(f Field, root ir.IRValue, t *Target, fn func(ir.IRValue) bool) bool {
	switch f.Kind {
	case FieldID:
		return fn(ir.IRString(t.ID))
	case FieldUserID:
		return fn(ir.IRString(t.UserID))
	}
	for _, v := range ir.Resolve(root, f.Path) {
		if fn(v) {
			return true
		}
	}
	return false
}

func containsAll(arr ir.IRArray, values []ir.IRValue) bool {
	for _, want := range values {
		found := false
		for _, elem := range arr {
			if ir.Equal(elem, want) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// sortValue returns the value a sort key orders by. Data fields use Lookup,
// without fan-out; missing fields return nil, which ranks with null.
func sortValue(f Field, t *Target) ir.IRValue {
	switch f.Kind {
	case FieldID:
		return ir.IRString(t.ID)
	case FieldUserID:
		return ir.IRString(t.UserID)
	}
	v, ok := ir.Lookup(t.Data, f.Path)
	if !ok {
		return nil
	}
	return v
}

// CompareTargets orders a and b by keys, then by id ascending.
func CompareTargets(keys []SortKey, a, b Target) int {
	for _, key := range keys {
		c := ir.SortCompare(sortValue(key.Field, &a), sortValue(key.Field, &b))
		if key.Desc {
			c = -c
		}
		if c != 0 {
			return c
		}
	}
	return strings.Compare(a.ID, b.ID)
}

// Less reports whether a sorts before b.
func Less(keys []SortKey, a, b Target) bool {
	return CompareTargets(keys, a, b) < 0
}

// Apply executes plan over targets in memory: filter, sort, then the
// skip/take window. The input slice is not modified.
func Apply(plan Plan, targets []Target) []Target {
	out := make([]Target, 0, len(targets))
	for _, t := range targets {
		if Match(plan.Filter, t) {
			out = append(out, t)
		}
	}

	slices.SortStableFunc(out, func(a, b Target) int {
		return CompareTargets(plan.Sort, a, b)
	})

	skip := max(plan.Skip, 0)
	if skip >= len(out) {
		return []Target{}
	}
	out = out[skip:]
	if plan.Take >= 0 && plan.Take < len(out) {
		out = out[:plan.Take]
	}
	return out
}
