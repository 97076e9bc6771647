package jsonschema

import (
	"bytes"
	"fmt"

	goccy "github.com/goccy/go-json"
	validator "github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/siegeai/siegeschema/schema"
)

const resourceName = "schema.json"

// Validator checks JSON values against a compiled schema.
type Validator struct {
	compiled *validator.Schema
}

// Compile prepares s for validation.
func Compile(s schema.Schema) (*Validator, error) {
	bs, err := goccy.Marshal(FromSchema(s))
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	doc, err := validator.UnmarshalJSON(bytes.NewReader(bs))
	if err != nil {
		return nil, fmt.Errorf("unmarshal schema: %w", err)
	}

	c := validator.NewCompiler()
	if err := c.AddResource(resourceName, doc); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	compiled, err := c.Compile(resourceName)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &Validator{compiled: compiled}, nil
}

// Validate checks a decoded JSON value, as produced by encoding/json or
// validator.UnmarshalJSON.
func (v *Validator) Validate(value any) error {
	return v.compiled.Validate(value)
}

// ValidateBytes decodes one JSON document and validates it.
func (v *Validator) ValidateBytes(bs []byte) error {
	value, err := validator.UnmarshalJSON(bytes.NewReader(bs))
	if err != nil {
		return fmt.Errorf("parse value: %w", err)
	}
	return v.Validate(value)
}
