package module

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/BaSui01/promptflow/types"
)

// Typed is a compile-time typed view over a Module. I and O are converted
// to and from records through their JSON encoding, so field names follow
// the json struct tags. Contract validation still happens at run time.
type Typed[I, O any] struct {
	module *Module
}

// NewTyped wraps m.
func NewTyped[I, O any](m *Module) *Typed[I, O] {
	return &Typed[I, O]{module: m}
}

// Module returns the wrapped module.
func (t *Typed[I, O]) Module() *Module { return t.module }

// Run converts in to a record, runs the module and decodes the output.
func (t *Typed[I, O]) Run(ctx context.Context, in I) (O, error) {
	var zero O
	record, err := ToRecord(in)
	if err != nil {
		return zero, types.NewError(types.ErrContractViolation, "input is not a record").
			WithModule(t.module.Name()).WithCause(err)
	}
	out, err := t.module.Run(ctx, record)
	if err != nil {
		return zero, err
	}
	var result O
	if err := FromRecord(out, &result); err != nil {
		return zero, types.NewError(types.ErrParse, "output does not fit the typed view").
			WithModule(t.module.Name()).WithCause(err)
	}
	return result, nil
}

// ToRecord converts a JSON-encodable value with object shape to a Record.
func ToRecord(v any) (types.Record, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var record types.Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("value does not encode as a JSON object: %w", err)
	}
	if record == nil {
		return nil, fmt.Errorf("value encodes as null")
	}
	return record, nil
}

// FromRecord decodes record into out through JSON.
func FromRecord(record types.Record, out any) error {
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}
