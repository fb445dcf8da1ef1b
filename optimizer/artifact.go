package optimizer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/BaSui01/promptflow/contract"
	"github.com/BaSui01/promptflow/llm"
	"github.com/BaSui01/promptflow/module"
	"github.com/BaSui01/promptflow/store"
	"github.com/BaSui01/promptflow/types"
)

// ArtifactVersion 当前制品格式版本
const ArtifactVersion = 1

// Artifact is the persisted form of a compiled module. Everything needed
// to rebuild the module's prompt is data; prompts written as Go functions
// must be supplied again through WithBasePrompt.
type Artifact struct {
	Version int     `json:"version" yaml:"version"`
	Config  Config  `json:"config" yaml:"config"`
	Program Program `json:"program" yaml:"program"`
}

// Program describes the compiled module.
type Program struct {
	Name     string            `json:"name" yaml:"name"`
	Strategy module.Strategy   `json:"strategy" yaml:"strategy"`
	Contract contract.Contract `json:"contract" yaml:"contract"`

	// Template 非空时直接作为 prompt；为空表示示例集合为空
	Template   *PromptTemplate      `json:"template,omitempty" yaml:"template,omitempty"`
	BasePrompt string               `json:"base_prompt,omitempty" yaml:"base_prompt,omitempty"`
	Generate   *llm.GenerateOptions `json:"generate,omitempty" yaml:"generate,omitempty"`
}

// Demonstrations returns the embedded demonstrations, if any.
func (a *Artifact) Demonstrations() []Demonstration {
	if a.Program.Template == nil {
		return nil
	}
	return a.Program.Template.Demonstrations
}

// Artifact returns the persistable description of the compiled module.
// The base prompt is embedded only when it is a template prompt.
func (c *Compiled) Artifact() *Artifact {
	m := c.Module
	p := Program{
		Name:     m.Name(),
		Strategy: m.Strategy(),
		Contract: m.Contract(),
		Template: c.Template,
	}
	if g := m.GenerateOptions(); !isZeroOptions(g) {
		p.Generate = &g
	}
	if c.Template == nil {
		if tp, ok := m.PromptBuilder().(*module.TemplatePrompt); ok {
			p.BasePrompt = tp.Source()
		}
	}
	return &Artifact{Version: ArtifactVersion, Config: c.config, Program: p}
}

func isZeroOptions(o llm.GenerateOptions) bool {
	return o.MaxTokens == 0 && o.Temperature == 0 && o.TopP == 0 && len(o.StopSequences) == 0
}

// Validate checks that the artifact can be turned back into a module.
func (a *Artifact) Validate() error {
	if a.Version != ArtifactVersion {
		return invalidArtifact(fmt.Sprintf("unsupported version %d", a.Version), nil)
	}
	if strings.TrimSpace(a.Program.Name) == "" {
		return invalidArtifact("program name is required", nil)
	}
	if a.Program.Strategy != "" && !a.Program.Strategy.Known() {
		return invalidArtifact(fmt.Sprintf("unknown strategy %q", a.Program.Strategy), nil)
	}
	return nil
}

// LoadOption configures Artifact.Module.
type LoadOption func(*loadOptions)

type loadOptions struct {
	basePrompt module.PromptBuilder
	moduleOpts []module.Option
}

// WithBasePrompt supplies the prompt used when the artifact carries no
// demonstrations and no template base prompt.
func WithBasePrompt(p module.PromptBuilder) LoadOption {
	return func(o *loadOptions) { o.basePrompt = p }
}

// WithModuleOptions forwards options to module.New. They are applied after
// the artifact's own strategy and generate options.
func WithModuleOptions(opts ...module.Option) LoadOption {
	return func(o *loadOptions) { o.moduleOpts = append(o.moduleOpts, opts...) }
}

// Module rebuilds the compiled module against rt. The result renders the
// same prompts as the module the artifact was taken from.
func (a *Artifact) Module(rt *llm.Runtime, opts ...LoadOption) (*module.Module, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	lo := loadOptions{}
	for _, opt := range opts {
		opt(&lo)
	}

	var prompt module.PromptBuilder
	switch {
	case a.Program.Template != nil:
		prompt = a.Program.Template
	case a.Program.BasePrompt != "":
		tp, err := module.NewTemplatePrompt(a.Program.BasePrompt)
		if err != nil {
			return nil, invalidArtifact("base prompt does not parse", err)
		}
		prompt = tp
	case lo.basePrompt != nil:
		prompt = lo.basePrompt
	default:
		return nil, invalidArtifact(
			fmt.Sprintf("artifact %q has no demonstrations and no stored base prompt", a.Program.Name), nil)
	}

	mopts := []module.Option{module.WithStrategy(a.Program.Strategy)}
	if a.Program.Generate != nil {
		mopts = append(mopts, module.WithGenerateOptions(*a.Program.Generate))
	}
	mopts = append(mopts, lo.moduleOpts...)
	return module.New(rt, a.Program.Name, a.Program.Contract, prompt, mopts...)
}

// ToJSON 序列化为缩进 JSON
func (a *Artifact) ToJSON() ([]byte, error) {
	return json.MarshalIndent(a, "", "  ")
}

// ToYAML 序列化为 YAML
func (a *Artifact) ToYAML() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(a); err != nil {
		return nil, fmt.Errorf("failed to marshal artifact: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ParseArtifact decodes JSON or YAML; JSON is detected by a leading '{'.
func ParseArtifact(data []byte) (*Artifact, error) {
	var a Artifact
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		// UseNumber 保留示例记录中的整数精度（超过 2^53 时 float64 会失真）
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.UseNumber()
		if err := dec.Decode(&a); err != nil {
			return nil, invalidArtifact("malformed JSON artifact", err)
		}
		if dec.More() {
			return nil, invalidArtifact("malformed JSON artifact", fmt.Errorf("trailing data after artifact"))
		}
	} else if err := yaml.Unmarshal(trimmed, &a); err != nil {
		return nil, invalidArtifact("malformed YAML artifact", err)
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return &a, nil
}

// SaveFile writes the artifact as YAML for .yaml/.yml paths and JSON
// otherwise.
func (a *Artifact) SaveFile(path string) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = a.ToYAML()
	default:
		data, err = a.ToJSON()
	}
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write artifact: %w", err)
	}
	return nil
}

// LoadFile reads an artifact written by SaveFile.
func LoadFile(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact: %w", err)
	}
	return ParseArtifact(data)
}

// SaveArtifact stores the artifact as JSON under key.
func SaveArtifact(ctx context.Context, s store.Store, key string, a *Artifact) error {
	data, err := a.ToJSON()
	if err != nil {
		return err
	}
	return s.Put(ctx, key, data)
}

// LoadArtifact reads and decodes the artifact stored under key.
func LoadArtifact(ctx context.Context, s store.Store, key string) (*Artifact, error) {
	data, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	return ParseArtifact(data)
}

// Resolver returns a function that loads artifacts from s and rebuilds
// their modules against rt. It matches pipeline.ModuleResolver.
func Resolver(s store.Store, rt *llm.Runtime, opts ...LoadOption) func(ctx context.Context, key string) (*module.Module, error) {
	return func(ctx context.Context, key string) (*module.Module, error) {
		a, err := LoadArtifact(ctx, s, key)
		if err != nil {
			return nil, err
		}
		return a.Module(rt, opts...)
	}
}

func invalidArtifact(msg string, cause error) *types.Error {
	e := types.NewError(types.ErrInvalidArtifact, msg)
	if cause != nil {
		e = e.WithCause(cause)
	}
	return e
}
