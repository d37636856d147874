package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEqualIsStrict(t *testing.T) {
	assert.True(t, Equal(IRInt(1), IRInt(1)))
	assert.False(t, Equal(IRInt(1), IRBool(true)))
	assert.False(t, Equal(IRInt(1), IRString("1")))
	assert.True(t, Equal(IRNull{}, IRNull{}))
	assert.False(t, Equal(IRNull{}, nil))
	assert.True(t, Equal(
		IRObject{"a": IRArray{IRInt(1), IRInt(2)}},
		IRObject{"a": IRArray{IRInt(1), IRInt(2)}},
	))
	assert.False(t, Equal(IRArray{IRInt(1), IRInt(2)}, IRArray{IRInt(2), IRInt(1)}))
	assert.False(t, Equal(IRObject{"a": IRInt(1)}, IRObject{"b": IRInt(1)}))
}

func TestEqualNumbers(t *testing.T) {
	assert.True(t, Equal(IRInt(2), IRFloat(2)))
	assert.True(t, Equal(IRFloat(1.5), IRFloat(1.5)))
	assert.False(t, Equal(IRFloat(1.5), IRInt(1)))
	assert.False(t, Equal(IRFloat(1), IRBool(true)))
	assert.True(t, Equal(IRArray{IRFloat(0.5)}, IRArray{IRFloat(0.5)}))
}

func TestCompare(t *testing.T) {
	c, ok := Compare(IRInt(2), IRInt(10))
	assert.True(t, ok)
	assert.Equal(t, -1, c)

	c, ok = Compare(IRString("b"), IRString("a"))
	assert.True(t, ok)
	assert.Equal(t, 1, c)

	c, ok = Compare(IRFloat(1.5), IRInt(2))
	assert.True(t, ok)
	assert.Equal(t, -1, c)

	c, ok = Compare(IRInt(2), IRFloat(1.5))
	assert.True(t, ok)
	assert.Equal(t, 1, c)

	c, ok = Compare(IRFloat(-1.5), IRInt(-1))
	assert.True(t, ok)
	assert.Equal(t, -1, c)

	// 2^63-1 is not representable as a float64; the comparison stays exact.
	c, ok = Compare(IRInt(9223372036854775807), IRFloat(9223372036854775807))
	assert.True(t, ok)
	assert.Equal(t, -1, c)

	_, ok = Compare(IRFloat(1), IRString("1"))
	assert.False(t, ok)
	_, ok = Compare(IRInt(1), IRString("1"))
	assert.False(t, ok)
	_, ok = Compare(IRBool(false), IRBool(true))
	assert.False(t, ok)
}

func TestSortCompareRanks(t *testing.T) {
	ordered := []IRValue{
		nil,
		IRBool(false),
		IRBool(true),
		IRInt(-3),
		IRFloat(-2.5),
		IRInt(4),
		IRFloat(4.5),
		IRString("A"),
		IRString("a"),
		IRArray{IRInt(1)},
		IRArray{IRInt(2)},
		IRObject{"a": IRInt(1)},
	}

	for i := 0; i < len(ordered)-1; i++ {
		assert.Equal(t, -1, SortCompare(ordered[i], ordered[i+1]), "%v < %v", ordered[i], ordered[i+1])
		assert.Equal(t, 1, SortCompare(ordered[i+1], ordered[i]))
	}
	assert.Equal(t, 0, SortCompare(IRNull{}, nil))
	assert.Equal(t, 0, SortCompare(IRInt(4), IRInt(4)))
	assert.Equal(t, 0, SortCompare(IRInt(4), IRFloat(4)))
}
