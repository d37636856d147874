package harness

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/roach88/stateview/internal/document"
	"github.com/roach88/stateview/internal/ir"
	"github.com/roach88/stateview/internal/query"
)

// AssertionError is a failed step expectation.
type AssertionError struct {
	Step     int    // Index of the step in the scenario
	Op       string // Step operation
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "step %d (%s) failed\n", e.Step, e.Op)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// assertIDs checks ids against expected, order included.
func assertIDs(ids, expected []string) *AssertionError {
	if slices.Equal(ids, expected) {
		return nil
	}
	return &AssertionError{
		Expected: fmt.Sprintf("ids %v", expected),
		Actual:   fmt.Sprintf("ids %v", ids),
	}
}

// assertErrors checks validation codes against expected, order included.
// A nil expected list means the query should have succeeded.
func assertErrors(codes, expected []string) *AssertionError {
	if expected == nil {
		return &AssertionError{
			Expected: "valid query",
			Actual:   fmt.Sprintf("errors %v", codes),
		}
	}
	if slices.Equal(codes, expected) {
		return nil
	}
	return &AssertionError{
		Expected: fmt.Sprintf("errors %v", expected),
		Actual:   fmt.Sprintf("errors %v", codes),
	}
}

// assertData checks that every expected path holds an equal value in the
// current data of sv. Keys are data paths, so nested fields can be checked
// with "a.b" or "list.0".
func assertData(sv *document.SVDocument, expected map[string]any) *AssertionError {
	doc := sv.Document()
	if doc == nil {
		return &AssertionError{Expected: "document data", Actual: "no revisions"}
	}
	paths := make([]string, 0, len(expected))
	for p := range expected {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, p := range paths {
		want, err := ir.FromGo(expected[p])
		if err != nil {
			return &AssertionError{
				Expected: fmt.Sprintf("field %q convertible", p),
				Actual:   err.Error(),
			}
		}
		got, ok := doc.Get(p)
		if !ok {
			return &AssertionError{
				Expected: fmt.Sprintf("field %q = %s", p, formatValue(want)),
				Actual:   fmt.Sprintf("field %q not present", p),
			}
		}
		if !ir.Equal(want, got) {
			return &AssertionError{
				Expected: fmt.Sprintf("field %q = %s", p, formatValue(want)),
				Actual:   fmt.Sprintf("field %q = %s", p, formatValue(got)),
			}
		}
	}
	return nil
}

func formatValue(v ir.IRValue) string {
	b, err := ir.MarshalCanonical(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

func errorCodes(err error) []string {
	var iq *query.InvalidQueryError
	if !errors.As(err, &iq) {
		return nil
	}
	var codes []string
	for _, ve := range iq.Errors() {
		codes = append(codes, ve.Code)
	}
	return codes
}

func documentIDs(docs []*document.SVDocument) []string {
	ids := make([]string, len(docs))
	for i, sv := range docs {
		ids[i] = sv.ID()
	}
	return ids
}
