package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/stateview/internal/ir"
)

func TestParseYAML(t *testing.T) {
	raw, err := ParseYAML([]byte(`
where:
  - [order, "<=", 1]
  - [name, startsWith, Cu]
orderBy:
  - [order, desc]
limit: 2
`))
	require.NoError(t, err)
	assert.Equal(t, ir.IRObject{
		"where": ir.IRArray{
			ir.IRArray{ir.IRString("order"), ir.IRString("<="), ir.IRInt(1)},
			ir.IRArray{ir.IRString("name"), ir.IRString("startsWith"), ir.IRString("Cu")},
		},
		"orderBy": ir.IRArray{ir.IRArray{ir.IRString("order"), ir.IRString("desc")}},
		"limit":   ir.IRInt(2),
	}, raw)
}

func TestParseAcceptsJSONAndBlank(t *testing.T) {
	viaYAML, err := ParseYAML([]byte(`{"where": [["a", "==", 1]]}`))
	require.NoError(t, err)
	viaJSON, err := ParseJSON([]byte(`{"where": [["a", "==", 1]]}`))
	require.NoError(t, err)
	assert.Equal(t, viaJSON, viaYAML)

	for _, blank := range []string{"", "  \n"} {
		raw, err := ParseJSON([]byte(blank))
		require.NoError(t, err)
		assert.Empty(t, raw)

		raw, err = ParseYAML([]byte(blank))
		require.NoError(t, err)
		assert.Empty(t, raw)
	}
}

func TestParseRejectsNonObjects(t *testing.T) {
	_, err := ParseJSON([]byte(`[1]`))
	assert.Error(t, err)
	_, err = ParseYAML([]byte(`- 1`))
	assert.Error(t, err)
	_, err = ParseJSON([]byte(`{"limit": 1e400}`))
	assert.Error(t, err)
	_, err = ParseYAML([]byte(`limit: .nan`))
	assert.Error(t, err)
}

func TestParseDecimals(t *testing.T) {
	want := ir.IRObject{
		"where": ir.IRArray{
			ir.IRArray{ir.IRString("price"), ir.IRString(">"), ir.IRFloat(1.5)},
			ir.IRArray{ir.IRString("qty"), ir.IRString("=="), ir.IRInt(3)},
		},
	}

	raw, err := ParseJSON([]byte(`{"where": [["price", ">", 1.5], ["qty", "==", 3.0]]}`))
	require.NoError(t, err)
	assert.Equal(t, want, raw)

	raw, err = ParseYAML([]byte("where:\n  - [price, \">\", 1.5]\n  - [qty, \"==\", 3.0]\n"))
	require.NoError(t, err)
	assert.Equal(t, want, raw)
}
