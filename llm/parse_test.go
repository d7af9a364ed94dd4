package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSONResponseDirect(t *testing.T) {
	obj := ParseJSONResponse(`{"key": "value"}`)
	require.NotNil(t, obj)
	assert.Equal(t, "value", obj["key"])
}

func TestParseJSONResponseJSONFence(t *testing.T) {
	obj := ParseJSONResponse("Here is the mapping:\n```json\n{\"entity_mappings\": []}\n```\nHope that helps!")
	require.NotNil(t, obj)
	assert.Equal(t, []any{}, obj["entity_mappings"])
}

func TestParseJSONResponseBareFence(t *testing.T) {
	obj := ParseJSONResponse("```\n{\"a\": 1}\n```")
	require.NotNil(t, obj)
	assert.Equal(t, float64(1), obj["a"])
}

func TestParseJSONResponseEmbeddedObject(t *testing.T) {
	obj := ParseJSONResponse(`The answer is {"nested": {"deep": true}} as requested.`)
	require.NotNil(t, obj)
	nested := obj["nested"].(map[string]any)
	assert.Equal(t, true, nested["deep"])
}

func TestParseJSONResponseNoJSON(t *testing.T) {
	assert.Nil(t, ParseJSONResponse("I could not produce a mapping."))
	assert.Nil(t, ParseJSONResponse(""))
	assert.Nil(t, ParseJSONResponse("{broken"))
}

func TestParseJSONResponseArrayTopLevelRejected(t *testing.T) {
	// Stage boundaries expect objects; a bare array is not a valid artifact.
	assert.Nil(t, ParseJSONResponse(`[1, 2, 3]`))
}
