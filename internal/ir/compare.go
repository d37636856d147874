package ir

import (
	"bytes"
	"cmp"
	"math"
	"strings"
)

// Type ranks used by SortCompare. The SQL compiler emits the same ranking
// as a CASE expression, so both execution paths order mixed types identically.
const (
	RankMissing = iota // missing field or null
	RankBool
	RankNumber
	RankString
	RankArray
	RankObject
)

// Rank returns the sort rank of v. A nil IRValue (missing field) ranks with null.
func Rank(v IRValue) int {
	switch v.(type) {
	case IRBool:
		return RankBool
	case IRInt, IRFloat:
		return RankNumber
	case IRString:
		return RankString
	case IRArray:
		return RankArray
	case IRObject:
		return RankObject
	default:
		return RankMissing
	}
}

// Equal reports whether a and b are deeply and strictly equal. Numbers
// compare by value, so IRInt(2) equals IRFloat(2). No other coercion
// happens: IRInt(1) never equals IRBool(true) or IRString("1").
func Equal(a, b IRValue) bool {
	switch av := a.(type) {
	case IRNull:
		_, ok := b.(IRNull)
		return ok
	case IRString:
		bv, ok := b.(IRString)
		return ok && av == bv
	case IRInt, IRFloat:
		c, ok := compareNumbers(av, b)
		return ok && c == 0
	case IRBool:
		bv, ok := b.(IRBool)
		return ok && av == bv
	case IRArray:
		bv, ok := b.(IRArray)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case IRObject:
		bv, ok := b.(IRObject)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			other, exists := bv[k]
			if !exists || !Equal(v, other) {
				return false
			}
		}
		return true
	default:
		return a == nil && b == nil
	}
}

// Compare orders two scalars of the same class. Numbers compare
// numerically, mixing IRInt and IRFloat, and strings by bytes (SQLite
// BINARY collation). ok is false when the values are not mutually
// comparable, in which case no range condition can hold between them.
func Compare(a, b IRValue) (c int, ok bool) {
	switch av := a.(type) {
	case IRInt, IRFloat:
		return compareNumbers(av, b)
	case IRString:
		if bv, isStr := b.(IRString); isStr {
			return strings.Compare(string(av), string(bv)), true
		}
	}
	return 0, false
}

// SortCompare is the total order used for orderBy. Values are ordered by
// Rank first; within a rank, booleans order false < true, numbers
// numerically, strings by bytes, and arrays and objects by canonical JSON.
func SortCompare(a, b IRValue) int {
	ra, rb := Rank(a), Rank(b)
	if ra != rb {
		return cmp.Compare(ra, rb)
	}

	switch av := a.(type) {
	case IRBool:
		bv := b.(IRBool)
		switch {
		case av == bv:
			return 0
		case !bool(av):
			return -1
		default:
			return 1
		}
	case IRInt, IRFloat, IRString:
		c, _ := Compare(a, b)
		return c
	case IRArray, IRObject:
		aj, errA := MarshalCanonical(a)
		bj, errB := MarshalCanonical(b)
		if errA != nil || errB != nil {
			return 0
		}
		return bytes.Compare(aj, bj)
	default:
		return 0
	}
}

// compareNumbers orders two numbers exactly, without rounding int64 values
// through float64. ok is false when either value is not a number.
func compareNumbers(a, b IRValue) (int, bool) {
	switch av := a.(type) {
	case IRInt:
		switch bv := b.(type) {
		case IRInt:
			return cmp.Compare(av, bv), true
		case IRFloat:
			return -compareFloatInt(float64(bv), int64(av)), true
		}
	case IRFloat:
		switch bv := b.(type) {
		case IRInt:
			return compareFloatInt(float64(av), int64(bv)), true
		case IRFloat:
			return cmp.Compare(av, bv), true
		}
	}
	return 0, false
}

func compareFloatInt(f float64, i int64) int {
	switch {
	case f < -(1 << 63):
		return -1
	case f >= 1<<63:
		return 1
	}
	t := math.Trunc(f)
	if c := cmp.Compare(int64(t), i); c != 0 {
		return c
	}
	return cmp.Compare(f, t)
}
