package llm

// BuildMatchingJSONSchema returns the JSON-Schema the scoring response must satisfy.
func BuildMatchingJSONSchema() map[string]any {
	stringList := func(min int) map[string]any {
		return map[string]any{
			"type":     "array",
			"items":    map[string]any{"type": "string", "minLength": 1},
			"minItems": min,
		}
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"overall_score":   map[string]any{"type": "integer", "minimum": 0, "maximum": 100},
			"strengths":       stringList(0),
			"gaps":            stringList(0),
			"recommendations": stringList(0),
			"story":           map[string]any{"type": "string"},
		},
		"required": []string{"overall_score", "strengths", "gaps", "recommendations"},
	}
}
