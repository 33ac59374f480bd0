package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDAcceptsNumbersAndStrings(t *testing.T) {
	var payload struct {
		A ID `json:"a"`
		B ID `json:"b"`
		C ID `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": 42, "b": "cust_9", "c": null}`), &payload))
	assert.Equal(t, ID("42"), payload.A)
	assert.Equal(t, ID("cust_9"), payload.B)
	assert.True(t, payload.C.IsZero())
}

func TestIDMarshalKeepsNumericShape(t *testing.T) {
	out, err := json.Marshal(map[string]ID{"num": "7", "str": "a-1", "padded": "007"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"num": 7, "str": "a-1", "padded": "007"}`, string(out))

	n, err := ID("12").Int()
	require.NoError(t, err)
	assert.Equal(t, uint(12), n)

	_, err = ID("abc").Int()
	assert.Error(t, err)
	assert.Equal(t, ID("5"), FormatUint(5))
}
