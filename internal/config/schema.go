package config

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/nvandessel/scengen/internal/utils"
)

// ErrSchema is returned when a run configuration violates its schema.
var ErrSchema = errors.New("run configuration does not match schema")

//go:embed run.schema.json
var runSchemaJSON string

const runSchemaURL = "run.schema.json"

var runSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	if err := c.AddResource(runSchemaURL, strings.NewReader(runSchemaJSON)); err != nil {
		return nil, err
	}
	return c.Compile(runSchemaURL)
})

// SchemaError wraps the validator's report.
type SchemaError struct {
	Cause error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%v: %v", ErrSchema, e.Cause)
}

func (e *SchemaError) Unwrap() []error { return []error{ErrSchema, e.Cause} }

// ValidateRunDocument checks a decoded YAML run configuration against the
// embedded schema.
func ValidateRunDocument(doc any) error {
	schema, err := runSchema()
	if err != nil {
		return fmt.Errorf("compiling run schema: %w", err)
	}

	v, err := jsonValue(doc)
	if err != nil {
		return &SchemaError{Cause: err}
	}
	if err := schema.Validate(v); err != nil {
		return &SchemaError{Cause: err}
	}
	return nil
}

// jsonValue converts a decoded YAML tree to the shapes encoding/json
// produces, which is what the validator understands.
func jsonValue(doc any) (any, error) {
	data, err := json.Marshal(utils.DeepCopy(doc))
	if err != nil {
		return nil, fmt.Errorf("converting to JSON: %w", err)
	}
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}
