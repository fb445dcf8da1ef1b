// Package promptflow provides a top-level convenience entry point for
// building contract-bound modules, chaining them into pipelines and
// compiling them with bootstrapped demonstrations.
//
// Usage:
//
//	import "github.com/BaSui01/promptflow"
//
//	rt := promptflow.NewRuntime(backend)
//	upper, err := promptflow.NewModule(rt, "upper",
//		[]promptflow.Field{promptflow.Required("text", contract.TypeString)},
//		[]promptflow.Field{promptflow.Required("upper", contract.TypeString)},
//		"{{.text}}")
//	p, err := promptflow.NewPipeline("shout", upper)
//	result, err := p.Run(ctx, types.Record{"text": "hi"})
//
// Each helper is a thin wrapper over the contract, module, pipeline and
// optimizer packages; use those directly for the full option set.
package promptflow

import (
	"context"

	"github.com/BaSui01/promptflow/contract"
	"github.com/BaSui01/promptflow/llm"
	"github.com/BaSui01/promptflow/module"
	"github.com/BaSui01/promptflow/optimizer"
	"github.com/BaSui01/promptflow/pipeline"
)

// Field is a declared input or output field.
type Field = contract.FieldSpec

// Required declares a required field.
func Required(name string, t contract.FieldType) Field { return contract.Field(name, t) }

// Optional declares an optional field.
func Optional(name string, t contract.FieldType) Field { return contract.Field(name, t).AsOptional() }

// NewRuntime creates a Runtime bound to backend.
func NewRuntime(backend llm.Backend, opts ...llm.RuntimeOption) *llm.Runtime {
	return llm.NewRuntime(append([]llm.RuntimeOption{llm.WithBackend(backend)}, opts...)...)
}

// NewModule builds a module whose prompt is the text/template source tmpl.
func NewModule(rt *llm.Runtime, name string, inputs, outputs []Field, tmpl string, opts ...module.Option) (*module.Module, error) {
	c, err := contract.New(inputs, outputs)
	if err != nil {
		return nil, err
	}
	prompt, err := module.NewTemplatePrompt(tmpl)
	if err != nil {
		return nil, err
	}
	return module.New(rt, name, c, prompt, opts...)
}

// NewPipeline chains modules in order under the default policy.
func NewPipeline(name string, modules ...*module.Module) (*pipeline.Pipeline, error) {
	steps := make([]pipeline.Step, len(modules))
	for i, m := range modules {
		steps[i] = m
	}
	return pipeline.New(steps, pipeline.WithName(name))
}

// Compile bootstraps demonstrations for base with the default
// configuration. A nil metric means exact match over the labeled fields.
func Compile(ctx context.Context, base *module.Module, trainset []optimizer.Example, metric optimizer.Metric, opts ...optimizer.Option) (*optimizer.Compiled, error) {
	if metric == nil {
		metric = optimizer.ExactMatch()
	}
	b, err := optimizer.NewBootstrapper(metric, opts...)
	if err != nil {
		return nil, err
	}
	return b.Compile(ctx, base, trainset)
}
