package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// CompileSchema compiles a schema expressed as a Go map.
func CompileSchema(name string, schemaMap map[string]any) (*jsonschema.Schema, error) {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("marshal schema %s: %w", name, err)
	}
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(name, bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema %s: %w", name, err)
	}
	return c.Compile(name)
}

var matchingSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	return CompileSchema("matching.json", BuildMatchingJSONSchema())
})

// validateMatchingJSON checks raw against the scoring schema.
func validateMatchingJSON(raw []byte) error {
	schema, err := matchingSchema()
	if err != nil {
		return err
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return schema.Validate(doc)
}
