// Package intake validates candidate field maps against a job's JSON Schema.
package intake

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/jonathan/recruit-tracker/internal/types"
	"github.com/jonathan/recruit-tracker/schemas"
)

// SchemaLoadError represents errors loading or compiling a schema document.
type SchemaLoadError struct {
	Source  string
	Message string
	Cause   error
}

func (e *SchemaLoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load schema %s: %s: %v", e.Source, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load schema %s: %s", e.Source, e.Message)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

// Validator compiles job schemas once and validates intake payloads against them.
// It is safe for concurrent use.
type Validator struct {
	mu       sync.RWMutex
	compiled map[string]*gojsonschema.Schema
	fallback *gojsonschema.Schema
}

// NewValidator returns a Validator whose fallback is the bundled candidate
// intake schema.
func NewValidator() (*Validator, error) {
	fallback, err := compile("(default intake schema)", schemas.CandidateIntake)
	if err != nil {
		return nil, err
	}
	return &Validator{
		compiled: make(map[string]*gojsonschema.Schema),
		fallback: fallback,
	}, nil
}

func compile(source string, raw []byte) (*gojsonschema.Schema, error) {
	if !json.Valid(raw) {
		return nil, &SchemaLoadError{Source: source, Message: "schema is not valid JSON"}
	}
	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, &SchemaLoadError{Source: source, Message: "schema does not compile", Cause: err}
	}
	return s, nil
}

// CheckSchema reports whether raw is a usable intake schema. An empty schema
// is accepted and means the bundled default applies.
func (v *Validator) CheckSchema(raw json.RawMessage) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if _, err := v.schemaFor(raw); err != nil {
		return types.NewValidationError("validate intake schema", "intake_schema", err.Error())
	}
	return nil
}

func (v *Validator) schemaFor(raw json.RawMessage) (*gojsonschema.Schema, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return v.fallback, nil
	}
	key := string(raw)

	v.mu.RLock()
	s, ok := v.compiled[key]
	v.mu.RUnlock()
	if ok {
		return s, nil
	}

	s, err := compile("(job intake schema)", raw)
	if err != nil {
		return nil, err
	}
	v.mu.Lock()
	v.compiled[key] = s
	v.mu.Unlock()
	return s, nil
}

// ValidateFields checks fields against the job's intake schema. Failures are
// returned as a *types.ValidationError with one entry per offending field,
// named "fields.<path>".
func (v *Validator) ValidateFields(job *types.Job, fields map[string]any) error {
	const op = "validate candidate fields"

	schema, err := v.schemaFor(job.IntakeSchema)
	if err != nil {
		return types.NewValidationError(op, "intake_schema", err.Error())
	}
	if fields == nil {
		fields = map[string]any{}
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(fields))
	if err != nil {
		return types.NewValidationError(op, "fields", err.Error())
	}
	if result.Valid() {
		return nil
	}

	verr := &types.ValidationError{
		Op:     op,
		Fields: make([]types.FieldError, 0, len(result.Errors())),
	}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if desc.Type() == "required" {
			if prop, ok := desc.Details()["property"].(string); ok {
				if field == "" || field == "(root)" {
					field = prop
				} else {
					field = field + "." + prop
				}
			}
		}
		if field == "" || field == "(root)" {
			field = "fields"
		} else {
			field = "fields." + field
		}
		verr.Fields = append(verr.Fields, types.FieldError{
			Field:   field,
			Message: desc.Description(),
		})
	}
	return verr
}
