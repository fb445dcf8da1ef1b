package module

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/BaSui01/promptflow/contract"
	"github.com/BaSui01/promptflow/types"
)

var fencePattern = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*\\n?(.*?)\\n?```$")

// ParseOutput decodes generated text against an output contract.
//
// A JSON object (optionally inside a markdown code fence) decodes into a
// record. Otherwise, when the contract has exactly one required output
// field and that field is a string, the raw text is bound to it. Any other
// case is a parse failure.
func ParseOutput(c contract.Contract, text string) (types.Record, error) {
	record, decodeErr := decodeRecord(text)
	if decodeErr == nil {
		return record, nil
	}

	if field, ok := fallbackField(c); ok {
		return types.Record{field: text}, nil
	}
	return nil, fmt.Errorf("response is not a structured record and the output contract has no single required string field: %w", decodeErr)
}

func decodeRecord(text string) (types.Record, error) {
	body := strings.TrimSpace(text)
	if m := fencePattern.FindStringSubmatch(body); len(m) > 1 {
		body = strings.TrimSpace(m[1])
	}
	if !strings.HasPrefix(body, "{") {
		return nil, fmt.Errorf("not a JSON object")
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(body)))
	var record types.Record
	if err := dec.Decode(&record); err != nil {
		return nil, fmt.Errorf("decode JSON object: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("trailing data after JSON object")
	}
	if record == nil {
		return nil, fmt.Errorf("not a JSON object")
	}
	return record, nil
}

// fallbackField returns the single required output field when it is the
// only required one and typed string.
func fallbackField(c contract.Contract) (string, bool) {
	required := c.RequiredOutputs()
	if len(required) != 1 || required[0].Type != contract.TypeString {
		return "", false
	}
	return required[0].Name, true
}

func toJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
