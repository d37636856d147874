package queryir

import (
	"fmt"

	"github.com/roach88/stateview/internal/ir"
)

// Check reports structural problems with a plan that no backend should be
// asked to execute. Plans from Translator always pass; Check guards plans
// built by hand and is run by the repository before every query.
//
// Check is a pure function with no side effects.
func Check(plan Plan) []string {
	c := &checker{problems: []string{}}

	if plan.DocumentType == "" {
		c.addProblem("plan has no document type")
	}
	if plan.Skip < 0 {
		c.addProblem("negative skip %d", plan.Skip)
	}
	if plan.Take <= 0 {
		c.addProblem("take must be positive, got %d", plan.Take)
	}

	var hasType, hasNotDeleted bool
	for _, p := range plan.Filter.Predicates {
		switch pred := p.(type) {
		case TypeIs:
			hasType = true
			if pred.Type != plan.DocumentType {
				c.addProblem("filter type %q does not match plan type %q", pred.Type, plan.DocumentType)
			}
		case NotDeleted:
			hasNotDeleted = true
		}
	}
	if !hasType {
		c.addProblem("filter does not restrict the document type")
	}
	if !hasNotDeleted {
		c.addProblem("filter does not exclude soft-deleted documents")
	}

	c.checkPredicate(plan.Filter, false)
	for i, key := range plan.Sort {
		c.checkField(key.Field, fmt.Sprintf("sort[%d]", i))
	}
	return c.problems
}

// checker accumulates problems during traversal.
type checker struct {
	problems []string
}

func (c *checker) addProblem(format string, args ...any) {
	c.problems = append(c.problems, fmt.Sprintf(format, args...))
}

func (c *checker) checkField(f Field, at string) {
	if f.Kind == FieldData && len(f.Path) == 0 {
		c.addProblem("%s: data field with empty path", at)
	}
}

// checkPredicate walks p. inElement is set below an ElementMatch, where only
// data predicates relative to the element are meaningful.
func (c *checker) checkPredicate(p Predicate, inElement bool) {
	if p == nil {
		c.addProblem("nil predicate")
		return
	}

	var field Field
	switch pred := p.(type) {
	case And:
		for _, sub := range pred.Predicates {
			c.checkPredicate(sub, inElement)
		}
		return
	case TypeIs, NotDeleted:
		if inElement {
			c.addProblem("%T inside elementMatch", p)
		}
		return
	case Compare:
		field = pred.Field
		if pred.Value == nil {
			c.addProblem("%s: comparison without a value", pred.Field)
		}
		if pred.Op.IsRange() {
			switch pred.Value.(type) {
			case ir.IRInt, ir.IRFloat, ir.IRString:
			default:
				c.addProblem("%s: range comparison on %s", pred.Field, ir.TypeName(pred.Value))
			}
		}
	case In:
		field = pred.Field
	case Length:
		field = pred.Field
	case StartsWith:
		field = pred.Field
	case Contains:
		field = pred.Field
		if len(pred.Values) == 0 {
			c.addProblem("%s: contains without values", pred.Field)
		}
	case ElementMatch:
		field = pred.Field
		if inElement {
			c.addProblem("%s: nested elementMatch", pred.Field)
		}
		if pred.Field.Kind != FieldData {
			c.addProblem("%s: elementMatch on a synthetic field", pred.Field)
		}
		c.checkPredicate(pred.Filter, true)
	default:
		c.addProblem("unknown predicate type: %T", p)
		return
	}

	c.checkField(field, field.String())
	if inElement && field.Kind != FieldData {
		c.addProblem("%s: synthetic field inside elementMatch", field)
	}
}
