package llm

import (
	"context"
)

// GenerateOptions carries the sampling knobs a backend may honour. Zero
// values mean "use the backend default".
type GenerateOptions struct {
	MaxTokens     int      `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty"`
	Temperature   float64  `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	TopP          float64  `json:"top_p,omitempty" yaml:"top_p,omitempty"`
	StopSequences []string `json:"stop_sequences,omitempty" yaml:"stop_sequences,omitempty"`
}

// Merge returns o with every zero field filled from defaults.
func (o GenerateOptions) Merge(defaults GenerateOptions) GenerateOptions {
	out := o
	if out.MaxTokens == 0 {
		out.MaxTokens = defaults.MaxTokens
	}
	if out.Temperature == 0 {
		out.Temperature = defaults.Temperature
	}
	if out.TopP == 0 {
		out.TopP = defaults.TopP
	}
	if len(out.StopSequences) == 0 && len(defaults.StopSequences) > 0 {
		out.StopSequences = append([]string(nil), defaults.StopSequences...)
	}
	return out
}

// Backend turns a prompt into generated text.
type Backend interface {
	// Generate 发起一次生成请求。opts 可以为 nil。
	Generate(ctx context.Context, prompt string, opts *GenerateOptions) (string, error)
	// Name 返回后端的唯一标识
	Name() string
}

// Lifecycle is implemented by backends that hold resources around a usage
// window. The embedding application is responsible for calling the hooks.
type Lifecycle interface {
	Init(ctx context.Context) error
	Cleanup(ctx context.Context) error
}

// BackendFunc adapts a function into a Backend.
type BackendFunc func(ctx context.Context, prompt string, opts *GenerateOptions) (string, error)

// Generate implements Backend.
func (f BackendFunc) Generate(ctx context.Context, prompt string, opts *GenerateOptions) (string, error) {
	return f(ctx, prompt, opts)
}

// Name implements Backend.
func (f BackendFunc) Name() string { return "func" }

// EchoBackend returns the prompt unchanged. Useful for dry runs.
type EchoBackend struct{}

// Generate implements Backend.
func (EchoBackend) Generate(ctx context.Context, prompt string, _ *GenerateOptions) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return prompt, nil
}

// Name implements Backend.
func (EchoBackend) Name() string { return "echo" }
