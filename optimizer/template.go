package optimizer

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/BaSui01/promptflow/contract"
	"github.com/BaSui01/promptflow/module"
	"github.com/BaSui01/promptflow/types"
)

// 模板固定片段
const (
	DefaultInputPrefix  = "Input:"
	DefaultOutputPrefix = "Output:"
)

// PromptTemplate is the augmented prompt as data: a static instruction,
// the ordered demonstrations, and the prefixes framing each record.
// Build renders it deterministically; it implements module.PromptBuilder.
type PromptTemplate struct {
	Instruction    string          `json:"instruction" yaml:"instruction"`
	Demonstrations []Demonstration `json:"demonstrations" yaml:"demonstrations"`
	InputPrefix    string          `json:"input_prefix" yaml:"input_prefix"`
	OutputPrefix   string          `json:"output_prefix" yaml:"output_prefix"`
}

// NewPromptTemplate builds a template for c with the given demonstrations.
func NewPromptTemplate(c contract.Contract, demos []Demonstration) *PromptTemplate {
	return &PromptTemplate{
		Instruction:    Instruction(c),
		Demonstrations: append([]Demonstration(nil), demos...),
		InputPrefix:    DefaultInputPrefix,
		OutputPrefix:   DefaultOutputPrefix,
	}
}

// Instruction renders the structured-output instruction for a contract.
func Instruction(c contract.Contract) string {
	var sb strings.Builder
	sb.WriteString("Respond with a single JSON object containing the following fields:\n")
	sb.WriteString(contract.DescribeFields(c.Outputs()))
	sb.WriteString("\nDo not include any text before or after the JSON object.")
	return sb.String()
}

// Build implements module.PromptBuilder.
func (t *PromptTemplate) Build(input types.Record) (string, error) {
	var sb strings.Builder
	if t.Instruction != "" {
		sb.WriteString(t.Instruction)
		sb.WriteString("\n\n")
	}
	for i, d := range t.Demonstrations {
		in, err := renderRecord(d.Input)
		if err != nil {
			return "", fmt.Errorf("demonstration %d input: %w", i+1, err)
		}
		out, err := renderRecord(d.Output)
		if err != nil {
			return "", fmt.Errorf("demonstration %d output: %w", i+1, err)
		}
		fmt.Fprintf(&sb, "Example %d:\n%s %s\n%s %s\n\n", i+1, t.InputPrefix, in, t.OutputPrefix, out)
	}
	in, err := renderRecord(input)
	if err != nil {
		return "", fmt.Errorf("input: %w", err)
	}
	fmt.Fprintf(&sb, "%s %s\n%s", t.InputPrefix, in, t.OutputPrefix)
	return sb.String(), nil
}

// renderRecord 以 JSON 渲染记录；键按字典序，保证渲染确定
func renderRecord(r types.Record) (string, error) {
	if r == nil {
		return "{}", nil
	}
	data, err := json.Marshal(r)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

var _ module.PromptBuilder = (*PromptTemplate)(nil)
