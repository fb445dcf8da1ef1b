package module

import (
	"bytes"
	"fmt"
	"text/template"
	"text/template/parse"

	"github.com/BaSui01/promptflow/types"
)

// PromptBuilder turns an input record into prompt text. Implementations
// must be deterministic.
type PromptBuilder interface {
	Build(input types.Record) (string, error)
}

// PromptFunc adapts a plain function into a PromptBuilder.
type PromptFunc func(input types.Record) string

// Build implements PromptBuilder.
func (f PromptFunc) Build(input types.Record) (string, error) {
	return f(input), nil
}

// FieldPrompt returns a prompt builder that renders a single input field
// with fmt's %v verb. Missing fields render as the empty string.
func FieldPrompt(field string) PromptFunc {
	return func(input types.Record) string {
		v, ok := input[field]
		if !ok || v == nil {
			return ""
		}
		return fmt.Sprint(v)
	}
}

// TemplatePrompt is a prompt builder backed by a text/template source.
// The source is data, so it survives persistence in artifacts and
// pipeline definitions.
type TemplatePrompt struct {
	source string
	tmpl   *template.Template
	fields []string
}

// NewTemplatePrompt parses source. The input record is the template dot.
// Top-level fields the template references but the input lacks (or holds
// nil for) render as the empty string.
func NewTemplatePrompt(source string) (*TemplatePrompt, error) {
	tmpl, err := template.New("prompt").Option("missingkey=zero").Funcs(template.FuncMap{
		"json": toJSON,
	}).Parse(source)
	if err != nil {
		return nil, fmt.Errorf("parse prompt template: %w", err)
	}
	return &TemplatePrompt{source: source, tmpl: tmpl, fields: dotFields(tmpl.Tree)}, nil
}

// MustTemplatePrompt is NewTemplatePrompt that panics on error.
func MustTemplatePrompt(source string) *TemplatePrompt {
	p, err := NewTemplatePrompt(source)
	if err != nil {
		panic(err)
	}
	return p
}

// Source returns the template text.
func (p *TemplatePrompt) Source() string { return p.source }

// Build implements PromptBuilder.
func (p *TemplatePrompt) Build(input types.Record) (string, error) {
	data := make(map[string]any, len(input)+len(p.fields))
	for k, v := range input {
		data[k] = v
	}
	// map[string]any 的缺失键会渲染成 "<no value>"，这里先补空串
	for _, name := range p.fields {
		if v, ok := data[name]; !ok || v == nil {
			data[name] = ""
		}
	}
	var buf bytes.Buffer
	if err := p.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render prompt template: %w", err)
	}
	return buf.String(), nil
}

// dotFields collects the single-segment field names (.name) evaluated
// against the root dot. Bodies of range and with rebind the dot and are
// skipped, as is the range target itself.
func dotFields(tree *parse.Tree) []string {
	if tree == nil {
		return nil
	}
	seen := make(map[string]struct{})
	var names []string
	var walk func(n parse.Node, root bool)
	walk = func(n parse.Node, root bool) {
		switch n := n.(type) {
		case *parse.ListNode:
			if n == nil {
				return
			}
			for _, c := range n.Nodes {
				walk(c, root)
			}
		case *parse.ActionNode:
			walk(n.Pipe, root)
		case *parse.PipeNode:
			if n == nil {
				return
			}
			for _, c := range n.Cmds {
				walk(c, root)
			}
		case *parse.CommandNode:
			for _, a := range n.Args {
				walk(a, root)
			}
		case *parse.ChainNode:
			walk(n.Node, root)
		case *parse.TemplateNode:
			walk(n.Pipe, root)
		case *parse.IfNode:
			walk(n.Pipe, root)
			walk(n.List, root)
			walk(n.ElseList, root)
		case *parse.RangeNode:
			// range 的目标保持缺失，nil 迭代零次
			walk(n.List, false)
			walk(n.ElseList, root)
		case *parse.WithNode:
			walk(n.Pipe, root)
			walk(n.List, false)
			walk(n.ElseList, root)
		case *parse.FieldNode:
			if !root || len(n.Ident) != 1 {
				return
			}
			if _, dup := seen[n.Ident[0]]; !dup {
				seen[n.Ident[0]] = struct{}{}
				names = append(names, n.Ident[0])
			}
		}
	}
	walk(tree.Root, true)
	return names
}
