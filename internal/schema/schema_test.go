package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type move struct {
	Guess  int      `json:"guess" description:"integer guess"`
	Note   string   `json:"note,omitempty"`
	Weight *float64 `json:"weight"`
	Hidden string   `json:"-"`
	secret int
}

func TestFromStruct(t *testing.T) {
	s := FromStruct(move{})

	assert.Equal(t, "object", s["type"])
	assert.Equal(t, []any{"guess"}, s["required"])

	props := s["properties"].(map[string]any)
	assert.Len(t, props, 3)
	assert.Equal(t, map[string]any{"type": "integer", "description": "integer guess"}, props["guess"])
	assert.Equal(t, map[string]any{"type": "number"}, props["weight"])
	assert.Equal(t, map[string]any{"type": "string"}, props["note"])
}

func TestFromStruct_NonStruct(t *testing.T) {
	assert.Equal(t, map[string]any{"type": "object", "properties": map[string]any{}}, FromStruct(42))
	assert.Equal(t, "object", FromStruct(&move{})["type"])
}

func TestValidate(t *testing.T) {
	s := FromStruct(move{})

	require.NoError(t, Validate(map[string]any{"guess": 5}, s))
	require.NoError(t, Validate(map[string]any{"guess": float64(5), "extra": true}, s))

	err := Validate(map[string]any{"note": "x"}, s)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "guess", verr.Field)
	assert.EqualError(t, err, `field "guess": required field is missing`)

	err = Validate(map[string]any{"guess": 2.5}, s)
	assert.EqualError(t, err, `field "guess": expected integer, got float64`)

	err = Validate(map[string]any{"guess": "7"}, s)
	assert.Error(t, err)
}

func TestValidate_DecodedRequiredList(t *testing.T) {
	s := map[string]any{
		"type":       "object",
		"properties": map[string]any{"bid": map[string]any{"type": "number"}},
		"required":   []string{"bid"},
	}
	assert.Error(t, Validate(map[string]any{}, s))
	assert.NoError(t, Validate(map[string]any{"bid": 1}, s))
}

func TestValidate_Range(t *testing.T) {
	s := WithRange(FromStruct(move{}), "guess", 1, 100)

	props := s["properties"].(map[string]any)
	assert.Equal(t, 1.0, props["guess"].(map[string]any)["minimum"])

	require.NoError(t, Validate(map[string]any{"guess": float64(100)}, s))
	assert.EqualError(t, Validate(map[string]any{"guess": 0}, s), `field "guess": must be >= 1`)
	assert.EqualError(t, Validate(map[string]any{"guess": float64(101)}, s), `field "guess": must be <= 100`)

	same := WithRange(FromStruct(move{}), "missing", 1, 2)
	assert.Equal(t, FromStruct(move{}), same)
}
