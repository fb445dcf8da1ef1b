package pipeline

import (
	"context"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/BaSui01/promptflow/contract"
	"github.com/BaSui01/promptflow/llm"
	"github.com/BaSui01/promptflow/module"
	"github.com/BaSui01/promptflow/types"
)

// Definition is the serialisable description of a pipeline.
type Definition struct {
	Name    string             `json:"name" yaml:"name"`
	Options OptionsDefinition  `json:"options,omitempty" yaml:"options,omitempty"`
	Modules []ModuleDefinition `json:"modules" yaml:"modules"`
}

// OptionsDefinition mirrors Options with pointer fields so that unset
// values keep their defaults.
type OptionsDefinition struct {
	StopOnError *bool          `json:"stop_on_error,omitempty" yaml:"stop_on_error,omitempty"`
	MaxRetries  *int           `json:"max_retries,omitempty" yaml:"max_retries,omitempty"`
	RetryDelay  *time.Duration `json:"retry_delay,omitempty" yaml:"retry_delay,omitempty"`
	Debug       *bool          `json:"debug,omitempty" yaml:"debug,omitempty"`
}

// Apply overlays the set fields onto base.
func (d OptionsDefinition) Apply(base Options) Options {
	if d.StopOnError != nil {
		base.StopOnError = *d.StopOnError
	}
	if d.MaxRetries != nil {
		base.MaxRetries = *d.MaxRetries
	}
	if d.RetryDelay != nil {
		base.RetryDelay = *d.RetryDelay
	}
	if d.Debug != nil {
		base.Debug = *d.Debug
	}
	return base
}

// ModuleDefinition describes one module inline, or references a compiled
// artifact by key.
type ModuleDefinition struct {
	Name     string               `json:"name,omitempty" yaml:"name,omitempty"`
	Strategy string               `json:"strategy,omitempty" yaml:"strategy,omitempty"`
	Inputs   []contract.FieldSpec `json:"inputs,omitempty" yaml:"inputs,omitempty"`
	Outputs  []contract.FieldSpec `json:"outputs,omitempty" yaml:"outputs,omitempty"`
	Template string               `json:"template,omitempty" yaml:"template,omitempty"`
	Generate *llm.GenerateOptions `json:"generate,omitempty" yaml:"generate,omitempty"`
	Artifact string               `json:"artifact,omitempty" yaml:"artifact,omitempty"`
}

// ModuleResolver loads a compiled module by artifact key.
type ModuleResolver func(ctx context.Context, key string) (*module.Module, error)

// ParseDefinition decodes a YAML (or JSON) definition and validates it.
func ParseDefinition(data []byte) (*Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("failed to unmarshal pipeline definition: %w", err)
	}
	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	return &def, nil
}

// LoadDefinitionFile reads and parses a definition file.
func LoadDefinitionFile(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return ParseDefinition(data)
}

// ToYAML renders the definition.
func (d *Definition) ToYAML() (string, error) {
	data, err := yaml.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("failed to marshal to YAML: %w", err)
	}
	return string(data), nil
}

// Validate checks the definition structure without building it.
func (d *Definition) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("pipeline name is required")
	}
	if len(d.Modules) == 0 {
		return fmt.Errorf("pipeline %q has no modules", d.Name)
	}
	if err := d.Options.Apply(DefaultOptions()).Validate(); err != nil {
		return err
	}
	for i, m := range d.Modules {
		if m.Artifact != "" {
			if m.Template != "" || len(m.Inputs) > 0 || len(m.Outputs) > 0 {
				return fmt.Errorf("module %d: artifact reference cannot be combined with an inline module", i)
			}
			continue
		}
		if m.Name == "" {
			return fmt.Errorf("module %d: name is required", i)
		}
		if m.Template == "" {
			return fmt.Errorf("module %q: template is required", m.Name)
		}
		if _, err := module.ParseStrategy(m.Strategy); err != nil {
			return fmt.Errorf("module %q: %w", m.Name, err)
		}
	}
	return nil
}

// Module finds an inline module definition by name.
func (d *Definition) Module(name string) (ModuleDefinition, bool) {
	for _, m := range d.Modules {
		if m.Name == name {
			return m, true
		}
	}
	return ModuleDefinition{}, false
}

// BuildModule constructs an inline module definition against rt.
func (m ModuleDefinition) BuildModule(rt *llm.Runtime, opts ...module.Option) (*module.Module, error) {
	c, err := contract.New(m.Inputs, m.Outputs)
	if err != nil {
		return nil, types.NewError(types.ErrInvalidConfig, "invalid contract").WithModule(m.Name).WithCause(err)
	}
	prompt, err := module.NewTemplatePrompt(m.Template)
	if err != nil {
		return nil, types.NewError(types.ErrInvalidConfig, "invalid template").WithModule(m.Name).WithCause(err)
	}
	strategy, err := module.ParseStrategy(m.Strategy)
	if err != nil {
		return nil, types.NewError(types.ErrInvalidConfig, "invalid strategy").WithModule(m.Name).WithCause(err)
	}
	opts = append([]module.Option{module.WithStrategy(strategy)}, opts...)
	if m.Generate != nil {
		opts = append(opts, module.WithGenerateOptions(*m.Generate))
	}
	return module.New(rt, m.Name, c, prompt, opts...)
}

// Build constructs a runnable Pipeline from def. resolve may be nil when
// the definition has no artifact references. Extra options are applied
// after the definition's own policy.
func Build(ctx context.Context, rt *llm.Runtime, def *Definition, resolve ModuleResolver, opts ...Option) (*Pipeline, error) {
	if err := def.Validate(); err != nil {
		return nil, types.NewError(types.ErrInvalidConfig, "invalid pipeline definition").WithCause(err)
	}

	steps := make([]Step, 0, len(def.Modules))
	for _, md := range def.Modules {
		if md.Artifact != "" {
			if resolve == nil {
				return nil, types.NewError(types.ErrInvalidConfig,
					fmt.Sprintf("module artifact %q referenced but no resolver configured", md.Artifact))
			}
			m, err := resolve(ctx, md.Artifact)
			if err != nil {
				return nil, fmt.Errorf("resolve artifact %q: %w", md.Artifact, err)
			}
			steps = append(steps, m)
			continue
		}
		m, err := md.BuildModule(rt)
		if err != nil {
			return nil, err
		}
		steps = append(steps, m)
	}

	base := []Option{WithName(def.Name), WithOptions(def.Options.Apply(DefaultOptions()))}
	return New(steps, append(base, opts...)...)
}
