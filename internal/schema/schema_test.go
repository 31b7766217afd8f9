package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func projectSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title":  map[string]any{"type": "string"},
			"status": map[string]any{"type": "string", "enum": []string{"Planning", "Active"}},
			"award_amount": map[string]any{"type": "number"},
			"tags":         map[string]any{"type": "array"},
			"human_subjects": map[string]any{
				"type": "string", "enum": []string{"yes", "no"}, "default": "no",
			},
		},
		"required": []string{"title", "status"},
	}
}

func TestValidate_RequiredMissing(t *testing.T) {
	err := Validate(map[string]any{"title": "X"}, projectSchema())
	assert.Error(t, err)
	vErr, ok := err.(*ValidationError)
	assert.True(t, ok)
	assert.Equal(t, "status", vErr.Field)
}

func TestValidate_RequiredAsAnySlice(t *testing.T) {
	schema := map[string]any{
		"type":       "object",
		"properties": map[string]any{"x": map[string]any{"type": "integer"}},
		"required":   []any{"x"},
	}
	assert.Error(t, Validate(map[string]any{}, schema))
	assert.NoError(t, Validate(map[string]any{"x": 5}, schema))
}

func TestValidate_TypeMismatch(t *testing.T) {
	err := Validate(map[string]any{"title": "X", "status": "Active", "award_amount": "lots"}, projectSchema())
	assert.Error(t, err)
	vErr := err.(*ValidationError)
	assert.Equal(t, "award_amount", vErr.Field)
	assert.Contains(t, vErr.Message, "expected type number")
}

func TestValidate_Enum(t *testing.T) {
	err := Validate(map[string]any{"title": "X", "status": "Archived"}, projectSchema())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not in enum")

	assert.NoError(t, Validate(map[string]any{"title": "X", "status": "Active"}, projectSchema()))
}

func TestValidate_IntegerAcceptsWholeFloat(t *testing.T) {
	schema := map[string]any{
		"type":       "object",
		"properties": map[string]any{"n": map[string]any{"type": "integer"}},
	}
	assert.NoError(t, Validate(map[string]any{"n": float64(3)}, schema))
	assert.Error(t, Validate(map[string]any{"n": 3.5}, schema))
}

func TestValidate_ArrayShapes(t *testing.T) {
	params := map[string]any{"title": "X", "status": "Active"}
	params["tags"] = []any{"ai", "health"}
	assert.NoError(t, Validate(params, projectSchema()))

	params["tags"] = []string{"ai"}
	assert.NoError(t, Validate(params, projectSchema()))

	params["tags"] = "ai"
	assert.Error(t, Validate(params, projectSchema()))
}

func TestApplyDefaults(t *testing.T) {
	params := map[string]any{"title": "X", "status": "Active"}
	ApplyDefaults(params, projectSchema())
	assert.Equal(t, "no", params["human_subjects"])

	params["human_subjects"] = "yes"
	ApplyDefaults(params, projectSchema())
	assert.Equal(t, "yes", params["human_subjects"], "explicit value must not be overwritten")
}

func TestFromStruct(t *testing.T) {
	type query struct {
		Name  string  `json:"name" description:"Full name"`
		Limit *int    `json:"limit"`
		Score float64 `json:"score,omitempty"`
	}
	schema := FromStruct(query{})
	props := schema["properties"].(map[string]any)
	assert.Contains(t, props, "name")
	assert.Contains(t, props, "limit")
	assert.Contains(t, props, "score")
	assert.Equal(t, "Full name", props["name"].(map[string]any)["description"])
	assert.Equal(t, []string{"name"}, schema["required"])
}
