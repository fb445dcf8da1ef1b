package contract

import (
	"encoding/json"
	"fmt"
	"strings"
)

// JSONSchema is the subset of JSON Schema needed to describe a field list
// to a generation backend.
type JSONSchema struct {
	Type        string                 `json:"type"`
	Description string                 `json:"description,omitempty"`
	Properties  map[string]*JSONSchema `json:"properties,omitempty"`
	Required    []string               `json:"required,omitempty"`
}

// OutputSchema renders the output fields as an object schema.
func (c Contract) OutputSchema() *JSONSchema {
	return objectSchema(c.outputs)
}

// InputSchema renders the input fields as an object schema.
func (c Contract) InputSchema() *JSONSchema {
	return objectSchema(c.inputs)
}

func objectSchema(fields []FieldSpec) *JSONSchema {
	s := &JSONSchema{Type: "object", Properties: make(map[string]*JSONSchema, len(fields))}
	for _, f := range fields {
		s.Properties[f.Name] = &JSONSchema{Type: string(f.Type), Description: f.Description}
		if f.Required() {
			s.Required = append(s.Required, f.Name)
		}
	}
	return s
}

// ToJSON returns the compact JSON encoding of the schema.
func (s *JSONSchema) ToJSON() (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("failed to marshal schema: %w", err)
	}
	return string(data), nil
}

// DescribeFields renders a field list as "name (type, optional): description"
// lines, keeping declaration order.
func DescribeFields(fields []FieldSpec) string {
	var sb strings.Builder
	for i, f := range fields {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("- ")
		sb.WriteString(f.Name)
		sb.WriteString(" (")
		sb.WriteString(string(f.Type))
		if f.Optional {
			sb.WriteString(", optional")
		}
		sb.WriteString(")")
		if f.Description != "" {
			sb.WriteString(": ")
			sb.WriteString(f.Description)
		}
	}
	return sb.String()
}
