package infer

import (
	"encoding/json"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// fieldsSchema is the JSON-Schema constraint on the model's reply. The
// reply must be a bare object with exactly these keys; industry, title,
// institution, and date are required so a partial reply fails whole
// rather than producing a half-filled filename. Region is optional and
// defaults to WW downstream.
func fieldsSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"industry":    map[string]any{"type": "string", "minLength": 1},
			"region":      map[string]any{"type": "string", "enum": []any{"WW", "CN"}},
			"title":       map[string]any{"type": "string", "minLength": 1},
			"institution": map[string]any{"type": "string", "minLength": 1},
			"date":        map[string]any{"type": "string", "pattern": `^\d{6}$`},
		},
		"required": []any{"industry", "title", "institution", "date"},
	}
}

var compiledSchema = mustCompileSchema()

func mustCompileSchema() *jsonschema.Schema {
	b, err := json.Marshal(fieldsSchema())
	if err != nil {
		panic(err)
	}
	return jsonschema.MustCompileString("fields.json", string(b))
}

// validateFields checks the decoded reply against the response schema.
func validateFields(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	return compiledSchema.Validate(v)
}
