package config

import (
	"bytes"
	"embed"
	"fmt"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed config.schema.json
var schemaFS embed.FS

const schemaURL = "mem://ctxhelpr/config.schema.json"

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		data, err := schemaFS.ReadFile("config.schema.json")
		if err != nil {
			compileErr = fmt.Errorf("read embedded config schema: %w", err)
			return
		}
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
		if err != nil {
			compileErr = fmt.Errorf("decode embedded config schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, doc); err != nil {
			compileErr = fmt.Errorf("register config schema: %w", err)
			return
		}
		compiled, compileErr = c.Compile(schemaURL)
	})
	return compiled, compileErr
}

// validateAgainstSchema rejects unknown fields and out-of-range values
// per spec §6 ("Unknown fields are rejected").
func validateAgainstSchema(instance interface{}) error {
	schema, err := compiledSchema()
	if err != nil {
		return err
	}
	return schema.Validate(instance)
}
