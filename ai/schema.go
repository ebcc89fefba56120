package ai

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// resultSchema is the strict contract the analyst prompt demands: exactly
// five fields, closed severity enum, bounded confidence.
const resultSchema = `{
	"type": "object",
	"properties": {
		"summary": {"type": "string", "minLength": 1},
		"details": {"type": "string", "minLength": 1},
		"recommendations": {
			"type": "array",
			"items": {"type": "string"}
		},
		"severity": {"enum": ["low", "medium", "high", "critical"]},
		"confidence": {"type": "integer", "minimum": 0, "maximum": 100}
	},
	"required": ["summary", "details", "recommendations", "severity", "confidence"],
	"additionalProperties": false
}`

var compiledSchema *gojsonschema.Schema

func init() {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(resultSchema))
	if err != nil {
		panic(fmt.Sprintf("invalid analysis result schema: %v", err))
	}
	compiledSchema = schema
}

// validateContract checks raw model output against the result schema.
// A JSON parse failure or any schema violation returns an error.
func validateContract(raw string) error {
	result, err := compiledSchema.Validate(gojsonschema.NewStringLoader(raw))
	if err != nil {
		return fmt.Errorf("content is not valid JSON: %w", err)
	}
	if !result.Valid() {
		errs := result.Errors()
		if len(errs) > 0 {
			return fmt.Errorf("content violates analysis contract: %s", errs[0].String())
		}
		return fmt.Errorf("content violates analysis contract")
	}
	return nil
}
