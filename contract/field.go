package contract

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// FieldType is the closed set of runtime types a field may declare.
type FieldType string

const (
	TypeString  FieldType = "string"
	TypeNumber  FieldType = "number"
	TypeBoolean FieldType = "boolean"
	TypeObject  FieldType = "object"
)

// Valid reports whether t is one of the supported type tags.
func (t FieldType) Valid() bool {
	switch t {
	case TypeString, TypeNumber, TypeBoolean, TypeObject:
		return true
	}
	return false
}

// ParseFieldType converts a type tag string into a FieldType.
func ParseFieldType(s string) (FieldType, error) {
	t := FieldType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown field type %q", s)
	}
	return t, nil
}

// FieldSpec declares one named, typed field. Fields are required unless
// Optional is set, so the zero value of a FieldSpec is a required field.
type FieldSpec struct {
	Name        string    `json:"name" yaml:"name"`
	Type        FieldType `json:"type" yaml:"type"`
	Optional    bool      `json:"optional,omitempty" yaml:"optional,omitempty"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
}

// Field creates a required field spec.
func Field(name string, t FieldType) FieldSpec {
	return FieldSpec{Name: name, Type: t}
}

// Required reports whether the field must be present.
func (f FieldSpec) Required() bool {
	return !f.Optional
}

// AsOptional returns a copy of the field marked optional.
func (f FieldSpec) AsOptional() FieldSpec {
	f.Optional = true
	return f
}

// WithDescription returns a copy of the field with a description.
func (f FieldSpec) WithDescription(desc string) FieldSpec {
	f.Description = desc
	return f
}

// Contract is an ordered list of input fields and output fields. It is
// immutable once constructed; accessors hand out copies.
type Contract struct {
	inputs  []FieldSpec
	outputs []FieldSpec
}

// New builds a Contract after checking field names and type tags.
func New(inputs, outputs []FieldSpec) (Contract, error) {
	if err := checkFields("input", inputs); err != nil {
		return Contract{}, err
	}
	if err := checkFields("output", outputs); err != nil {
		return Contract{}, err
	}
	return Contract{
		inputs:  append([]FieldSpec(nil), inputs...),
		outputs: append([]FieldSpec(nil), outputs...),
	}, nil
}

// MustNew is like New but panics on an invalid declaration.
func MustNew(inputs, outputs []FieldSpec) Contract {
	c, err := New(inputs, outputs)
	if err != nil {
		panic(fmt.Sprintf("contract: %v", err))
	}
	return c
}

func checkFields(side string, fields []FieldSpec) error {
	seen := make(map[string]struct{}, len(fields))
	for i, f := range fields {
		if strings.TrimSpace(f.Name) == "" {
			return fmt.Errorf("%s field %d: name is required", side, i)
		}
		if !f.Type.Valid() {
			return fmt.Errorf("%s field %q: unknown type %q", side, f.Name, f.Type)
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("%s field %q: declared twice", side, f.Name)
		}
		seen[f.Name] = struct{}{}
	}
	return nil
}

// Inputs returns a copy of the input field list.
func (c Contract) Inputs() []FieldSpec {
	return append([]FieldSpec(nil), c.inputs...)
}

// Outputs returns a copy of the output field list.
func (c Contract) Outputs() []FieldSpec {
	return append([]FieldSpec(nil), c.outputs...)
}

// RequiredOutputs returns the output fields that must be present.
func (c Contract) RequiredOutputs() []FieldSpec {
	var out []FieldSpec
	for _, f := range c.outputs {
		if f.Required() {
			out = append(out, f)
		}
	}
	return out
}

// OutputNames returns the declared output field names in order.
func (c Contract) OutputNames() []string {
	names := make([]string, len(c.outputs))
	for i, f := range c.outputs {
		names[i] = f.Name
	}
	return names
}

// contractDoc is the serialized form of a Contract.
type contractDoc struct {
	Inputs  []FieldSpec `json:"inputs" yaml:"inputs"`
	Outputs []FieldSpec `json:"outputs" yaml:"outputs"`
}

// MarshalJSON serializes the contract field lists.
func (c Contract) MarshalJSON() ([]byte, error) {
	return json.Marshal(contractDoc{Inputs: c.inputs, Outputs: c.outputs})
}

// UnmarshalJSON rebuilds the contract, re-running declaration checks.
func (c *Contract) UnmarshalJSON(data []byte) error {
	var doc contractDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to unmarshal contract: %w", err)
	}
	built, err := New(doc.Inputs, doc.Outputs)
	if err != nil {
		return err
	}
	*c = built
	return nil
}

// MarshalYAML serializes the contract field lists.
func (c Contract) MarshalYAML() (interface{}, error) {
	return contractDoc{Inputs: c.inputs, Outputs: c.outputs}, nil
}

// UnmarshalYAML rebuilds the contract, re-running declaration checks.
func (c *Contract) UnmarshalYAML(node *yaml.Node) error {
	var doc contractDoc
	if err := node.Decode(&doc); err != nil {
		return fmt.Errorf("failed to unmarshal contract: %w", err)
	}
	built, err := New(doc.Inputs, doc.Outputs)
	if err != nil {
		return err
	}
	*c = built
	return nil
}
