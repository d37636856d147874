package queryir

import (
	"github.com/roach88/stateview/internal/ir"
	"github.com/roach88/stateview/internal/query"
)

// Translator turns validated queries into Plans.
type Translator struct {
	limits query.Limits
}

// NewTranslator returns a Translator using limits for the default page
// size and ceiling. Zero fields take the query package defaults.
func NewTranslator(limits query.Limits) *Translator {
	return &Translator{limits: limits.WithDefaults()}
}

// Translate builds the Plan for q over documents of docType. A nil q is the
// empty query. String arguments and field paths are NFC normalized to match
// stored data.
func (t *Translator) Translate(docType string, q *query.Query) Plan {
	if q == nil {
		q = &query.Query{}
	}

	preds := make([]Predicate, 0, len(q.Where)+2)
	preds = append(preds, TypeIs{Type: docType}, NotDeleted{})
	for _, cond := range q.Where {
		preds = append(preds, translateCondition(cond))
	}

	sort := make([]SortKey, 0, len(q.OrderBy))
	for _, ob := range q.OrderBy {
		sort = append(sort, SortKey{Field: translateField(ob.Field), Desc: ob.Direction == query.Desc})
	}

	skip := 0
	switch {
	case q.StartAt > 0:
		skip = q.StartAt - 1
	case q.StartAfter > 0:
		skip = q.StartAfter
	}

	take := t.limits.DefaultLimit
	if q.Limit > 0 {
		take = q.Limit
	}
	take = min(take, t.limits.MaxLimit)

	return Plan{
		DocumentType: docType,
		Filter:       And{Predicates: preds},
		Sort:         sort,
		Skip:         skip,
		Take:         take,
	}
}

func translateField(f query.Field) Field {
	switch f.Kind {
	case query.FieldID:
		return IDField()
	case query.FieldUserID:
		return UserIDField()
	}
	p := make(ir.Path, len(f.Path))
	for i, seg := range f.Path {
		p[i] = ir.NormalizeString(seg)
	}
	return DataField(p)
}

func translateCondition(cond query.Condition) Predicate {
	field := translateField(cond.Field)
	value := cond.Value
	if value != nil {
		value = ir.Normalize(value)
	}

	switch cond.Op {
	case query.OpEqual:
		return Compare{Field: field, Op: OpEq, Value: value}
	case query.OpLess:
		return Compare{Field: field, Op: OpLt, Value: value}
	case query.OpLessEqual:
		return Compare{Field: field, Op: OpLe, Value: value}
	case query.OpGreater:
		return Compare{Field: field, Op: OpGt, Value: value}
	case query.OpGreaterEqual:
		return Compare{Field: field, Op: OpGe, Value: value}
	case query.OpIn:
		values, _ := value.(ir.IRArray)
		return In{Field: field, Values: []ir.IRValue(values)}
	case query.OpLength:
		n, _ := value.(ir.IRInt)
		return Length{Field: field, N: int64(n)}
	case query.OpStartsWith:
		s, _ := value.(ir.IRString)
		return StartsWith{Field: field, Prefix: string(s)}
	case query.OpContains:
		if arr, ok := value.(ir.IRArray); ok {
			return Contains{Field: field, Values: []ir.IRValue(arr)}
		}
		return Contains{Field: field, Values: []ir.IRValue{value}}
	case query.OpElementMatch:
		nested := make([]Predicate, len(cond.Nested))
		for i, c := range cond.Nested {
			nested[i] = translateCondition(c)
		}
		return ElementMatch{Field: field, Filter: And{Predicates: nested}}
	}
	// Unreachable for validated queries; matches nothing.
	return In{Field: field}
}
