package ir

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIRValueSealed(t *testing.T) {
	var _ IRValue = IRNull{}
	var _ IRValue = IRString("")
	var _ IRValue = IRInt(0)
	var _ IRValue = IRFloat(0.5)
	var _ IRValue = IRBool(false)
	var _ IRValue = IRArray{}
	var _ IRValue = IRObject{}
}

func TestSortedKeysUTF16Order(t *testing.T) {
	// U+1F600 encodes as surrogates 0xD83D 0xDE00, which sort before U+FFFD
	// in UTF-16 even though its UTF-8 bytes sort after.
	obj := IRObject{"\uFFFD": IRInt(1), "\U0001F600": IRInt(2), "a": IRInt(3), "ab": IRInt(4)}
	assert.Equal(t, []string{"a", "ab", "\U0001F600", "\uFFFD"}, obj.SortedKeys())
}

func TestDecodeValue(t *testing.T) {
	v, err := DecodeValue([]byte(`{"a":[1,null,"x",true],"b":{}}`))
	require.NoError(t, err)
	assert.Equal(t, IRObject{
		"a": IRArray{IRInt(1), IRNull{}, IRString("x"), IRBool(true)},
		"b": IRObject{},
	}, v)
}

func TestDecodeValueNumbers(t *testing.T) {
	tests := []struct {
		in   string
		want IRValue
	}{
		{`1.5`, IRFloat(1.5)},
		{`-0.25`, IRFloat(-0.25)},
		{`{"a":1e3}`, IRObject{"a": IRInt(1000)}},
		{`[0.0]`, IRArray{IRInt(0)}},
		{`1e20`, IRFloat(1e20)},
	}
	for _, tt := range tests {
		v, err := DecodeValue([]byte(tt.in))
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, v, tt.in)
	}

	for _, in := range []string{`1e400`, `12345678901234567890`} {
		_, err := DecodeValue([]byte(in))
		assert.Error(t, err, in)
	}
}

func TestNumber(t *testing.T) {
	v, err := Number(2)
	require.NoError(t, err)
	assert.Equal(t, IRInt(2), v)

	v, err = Number(2.5)
	require.NoError(t, err)
	assert.Equal(t, IRFloat(2.5), v)

	_, err = Number(math.NaN())
	assert.Error(t, err)
	_, err = Number(math.Inf(-1))
	assert.Error(t, err)

	v, err = FromGo(map[string]any{"price": 1.5, "qty": 3.0})
	require.NoError(t, err)
	assert.Equal(t, IRObject{"price": IRFloat(1.5), "qty": IRInt(3)}, v)
}

func TestUnmarshalIRValueRejectsNull(t *testing.T) {
	for _, in := range []string{`null`, `{"key": null}`, `[1, null]`} {
		_, err := UnmarshalIRValue([]byte(in))
		require.Error(t, err, in)
		assert.Contains(t, err.Error(), "null")
	}
}

func TestMarshalIRValueRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		value IRValue
	}{
		{"string", IRString("hello")},
		{"min int64", IRInt(-9223372036854775808)},
		{"bool", IRBool(true)},
		{"decimal", IRObject{"price": IRFloat(12.75)}},
		{"empty array", IRArray{}},
		{"nested", IRObject{
			"arrayWithObjects": IRArray{IRObject{"item": IRInt(1), "flag": IRBool(true)}},
			"name":             IRString("Cutie"),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := MarshalIRValue(tt.value)
			require.NoError(t, err)

			result, err := UnmarshalIRValue(data)
			require.NoError(t, err)
			assert.Equal(t, tt.value, result)
		})
	}
}

func TestIRObjectJSONSortsKeys(t *testing.T) {
	data, err := json.Marshal(IRObject{"zebra": IRNull{}, "apple": IRInt(1)})
	require.NoError(t, err)
	assert.Equal(t, `{"apple":1,"zebra":null}`, string(data))
}

func TestFromGo(t *testing.T) {
	v, err := FromGo(map[string]any{
		"n":   json.Number("12"),
		"i":   3,
		"arr": []any{"a", nil, true},
	})
	require.NoError(t, err)
	assert.Equal(t, IRObject{
		"n":   IRInt(12),
		"i":   IRInt(3),
		"arr": IRArray{IRString("a"), IRNull{}, IRBool(true)},
	}, v)

	_, err = FromGo(json.Number("1.25"))
	assert.Error(t, err)
	_, err = FromGo(uint64(1 << 63))
	assert.Error(t, err)
	_, err = FromGo(struct{}{})
	assert.Error(t, err)
}

func TestCloneIsDeep(t *testing.T) {
	orig := IRObject{"a": IRArray{IRObject{"b": IRInt(1)}}}
	cp := orig.Clone()

	cp["a"].(IRArray)[0].(IRObject)["b"] = IRInt(2)
	assert.Equal(t, IRInt(1), orig["a"].(IRArray)[0].(IRObject)["b"])
	assert.Nil(t, IRObject(nil).Clone())
}

func TestTypeName(t *testing.T) {
	assert.Equal(t, "missing", TypeName(nil))
	assert.Equal(t, "null", TypeName(IRNull{}))
	assert.Equal(t, "integer", TypeName(IRInt(1)))
	assert.Equal(t, "array", TypeName(IRArray{}))
	assert.True(t, IsScalar(IRNull{}))
	assert.False(t, IsScalar(IRObject{}))
}
