package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/stateview/internal/ir"
)

func basePlan(preds ...Predicate) Plan {
	return Plan{
		DocumentType: "niceDocument",
		Filter:       And{Predicates: append([]Predicate{TypeIs{Type: "niceDocument"}, NotDeleted{}}, preds...)},
		Take:         100,
	}
}

func TestCheck_ValidPlan(t *testing.T) {
	plan := basePlan(Compare{Field: DataField(ir.Path{"order"}), Op: OpGt, Value: ir.IRInt(0)})
	assert.Empty(t, Check(plan))
}

func TestCheck_MissingNotDeleted(t *testing.T) {
	plan := Plan{
		DocumentType: "niceDocument",
		Filter:       And{Predicates: []Predicate{TypeIs{Type: "niceDocument"}}},
		Take:         10,
	}

	problems := Check(plan)
	require.Len(t, problems, 1)
	assert.Contains(t, problems[0], "soft-deleted")
}

func TestCheck_TypeMismatch(t *testing.T) {
	plan := basePlan()
	plan.DocumentType = "other"

	problems := Check(plan)
	require.Len(t, problems, 1)
	assert.Contains(t, problems[0], `"niceDocument"`)
}

func TestCheck_Window(t *testing.T) {
	plan := basePlan()
	plan.Skip = -1
	plan.Take = 0
	assert.Len(t, Check(plan), 2)
}

func TestCheck_ElementMatchRules(t *testing.T) {
	plan := basePlan(ElementMatch{
		Field: DataField(ir.Path{"arrayWithObjects"}),
		Filter: And{Predicates: []Predicate{
			Compare{Field: IDField(), Op: OpEq, Value: ir.IRString("x")},
			NotDeleted{},
			ElementMatch{Field: DataField(ir.Path{"inner"}), Filter: And{}},
		}},
	})

	problems := Check(plan)
	assert.Len(t, problems, 3)
}

func TestCheck_BadPredicates(t *testing.T) {
	plan := basePlan(
		nil,
		Compare{Field: DataField(ir.Path{"a"}), Op: OpLt, Value: ir.IRBool(true)},
		Compare{Field: DataField(nil), Op: OpEq, Value: ir.IRInt(1)},
		Contains{Field: DataField(ir.Path{"a"})},
	)
	plan.Sort = []SortKey{{Field: DataField(nil)}}

	problems := Check(plan)
	assert.Len(t, problems, 5)
}
