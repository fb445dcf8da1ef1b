package llm

import (
	"context"
	"fmt"
)

// Role 对话消息角色
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message 对话消息
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content,omitempty"`
}

// ChatRequest 对话请求
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float32   `json:"temperature,omitempty"`
	TopP        float32   `json:"top_p,omitempty"`
	Stop        []string  `json:"stop,omitempty"`
}

// ChatChoice 单个候选回复
type ChatChoice struct {
	Index        int     `json:"index"`
	FinishReason string  `json:"finish_reason,omitempty"`
	Message      Message `json:"message"`
}

// ChatResponse 对话响应
type ChatResponse struct {
	ID       string       `json:"id,omitempty"`
	Provider string       `json:"provider,omitempty"`
	Model    string       `json:"model"`
	Choices  []ChatChoice `json:"choices"`
}

// Provider 对话式 LLM 适配接口。
type Provider interface {
	// Completion 发起同步聊天请求，返回完整响应
	Completion(ctx context.Context, req *ChatRequest) (*ChatResponse, error)
	// Name 返回 Provider 的唯一标识
	Name() string
}

// providerBackend adapts a chat Provider to the prompt-in/text-out Backend.
type providerBackend struct {
	provider     Provider
	model        string
	systemPrompt string
}

// FromProvider wraps a chat Provider as a Backend. The prompt becomes a
// single user message, preceded by systemPrompt when it is non-empty.
func FromProvider(p Provider, model, systemPrompt string) Backend {
	return &providerBackend{provider: p, model: model, systemPrompt: systemPrompt}
}

func (b *providerBackend) Name() string { return b.provider.Name() }

func (b *providerBackend) Generate(ctx context.Context, prompt string, opts *GenerateOptions) (string, error) {
	req := &ChatRequest{Model: b.model}
	if b.systemPrompt != "" {
		req.Messages = append(req.Messages, Message{Role: RoleSystem, Content: b.systemPrompt})
	}
	req.Messages = append(req.Messages, Message{Role: RoleUser, Content: prompt})
	if opts != nil {
		req.MaxTokens = opts.MaxTokens
		req.Temperature = float32(opts.Temperature)
		req.TopP = float32(opts.TopP)
		req.Stop = opts.StopSequences
	}

	resp, err := b.provider.Completion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%s completion failed: %w", b.provider.Name(), err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s returned no choices", b.provider.Name())
	}
	return resp.Choices[0].Message.Content, nil
}

// Init forwards to the provider when it implements Lifecycle.
func (b *providerBackend) Init(ctx context.Context) error {
	if lc, ok := b.provider.(Lifecycle); ok {
		return lc.Init(ctx)
	}
	return nil
}

// Cleanup forwards to the provider when it implements Lifecycle.
func (b *providerBackend) Cleanup(ctx context.Context) error {
	if lc, ok := b.provider.(Lifecycle); ok {
		return lc.Cleanup(ctx)
	}
	return nil
}
