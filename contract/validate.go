package contract

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/BaSui01/promptflow/types"
)

// Stage identifies which side of a contract was being checked.
type Stage string

const (
	StageInput  Stage = "input"
	StageOutput Stage = "output"
)

// Violation describes one field that broke the contract.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (v Violation) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

// ValidationError aggregates every violation found in one record.
type ValidationError struct {
	Stage      Stage       `json:"stage"`
	Violations []Violation `json:"violations"`
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if len(e.Violations) == 1 {
		return fmt.Sprintf("%s contract violated: %s", e.Stage, e.Violations[0].Error())
	}
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = v.Error()
	}
	return fmt.Sprintf("%s contract violated with %d errors: %s", e.Stage, len(e.Violations), strings.Join(msgs, "; "))
}

// Fields returns the names of the violated fields in declaration order.
func (e *ValidationError) Fields() []string {
	names := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		names[i] = v.Field
	}
	return names
}

// ValidateInput checks record against the contract's input fields.
func ValidateInput(c Contract, record types.Record) error {
	return validate(StageInput, c.inputs, record)
}

// ValidateOutput checks record against the contract's output fields.
func ValidateOutput(c Contract, record types.Record) error {
	return validate(StageOutput, c.outputs, record)
}

func validate(stage Stage, fields []FieldSpec, record types.Record) error {
	var violations []Violation
	for _, f := range fields {
		value, present := record[f.Name]
		if !present || value == nil {
			if f.Required() {
				violations = append(violations, Violation{Field: f.Name, Message: "required field is missing"})
			}
			continue
		}
		if !Matches(f.Type, value) {
			violations = append(violations, Violation{
				Field:   f.Name,
				Message: fmt.Sprintf("expected %s, got %s", f.Type, describe(value)),
			})
		}
	}
	if len(violations) > 0 {
		return &ValidationError{Stage: stage, Violations: violations}
	}
	return nil
}

// Matches reports whether value's runtime type satisfies the type tag.
// Any Go numeric kind counts as a number; object accepts string-keyed maps
// as well as slices and arrays.
func Matches(t FieldType, value any) bool {
	if value == nil {
		return false
	}
	if _, ok := value.(json.Number); ok {
		return t == TypeNumber
	}
	kind := reflect.TypeOf(value).Kind()
	switch t {
	case TypeString:
		return kind == reflect.String
	case TypeNumber:
		switch kind {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
			reflect.Float32, reflect.Float64:
			return true
		}
		return false
	case TypeBoolean:
		return kind == reflect.Bool
	case TypeObject:
		switch kind {
		case reflect.Map:
			return reflect.TypeOf(value).Key().Kind() == reflect.String
		case reflect.Slice, reflect.Array:
			return true
		}
		return false
	}
	return false
}

func describe(value any) string {
	switch reflect.TypeOf(value).Kind() {
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "boolean"
	case reflect.Map:
		return "object"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return "number"
	}
	return fmt.Sprintf("%T", value)
}
