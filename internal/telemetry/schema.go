package telemetry

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed run_result.schema.json
var runResultSchema string

const runResultSchemaURL = "https://tenure.schemas.local/run_result.schema.json"

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		c.Draft = jsonschema.Draft2020
		if err := c.AddResource(runResultSchemaURL, strings.NewReader(runResultSchema)); err != nil {
			schemaErr = fmt.Errorf("run result schema load failed: %w", err)
			return
		}
		schema, schemaErr = c.Compile(runResultSchemaURL)
	})
	return schema, schemaErr
}

// Validate checks an exported Run Result document against the schema.
func Validate(data []byte) error {
	sch, err := compiledSchema()
	if err != nil {
		return err
	}
	var payload any
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("run result is not JSON: %w", err)
	}
	if err := sch.Validate(payload); err != nil {
		return fmt.Errorf("run result schema validation failed: %w", err)
	}
	return nil
}

// Export returns the canonical JSON of res after validating it.
func Export(res *RunResult) ([]byte, error) {
	data, err := res.Canonical()
	if err != nil {
		return nil, err
	}
	if err := Validate(data); err != nil {
		return nil, err
	}
	return data, nil
}
