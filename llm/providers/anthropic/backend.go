// Package anthropic 基于 Anthropic Messages API 的生成后端。
package anthropic

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"

	"github.com/BaSui01/promptflow/internal/tlsutil"
	"github.com/BaSui01/promptflow/llm"
)

const (
	// DefaultModel is used when the config leaves Model empty.
	DefaultModel = "claude-sonnet-4-5"
	// DefaultMaxTokens is used when neither the call nor the runtime sets one.
	DefaultMaxTokens = 1024
)

// Backend implements llm.Backend over the Messages API.
type Backend struct {
	client       anthropic.Client
	model        anthropic.Model
	systemPrompt string
	logger       *zap.Logger
}

// Option configures a Backend.
type Option func(*backendOptions)

type backendOptions struct {
	clientOpts []option.RequestOption
	logger     *zap.Logger
}

// WithRequestOptions appends raw SDK request options.
func WithRequestOptions(opts ...option.RequestOption) Option {
	return func(o *backendOptions) { o.clientOpts = append(o.clientOpts, opts...) }
}

// WithLogger sets the backend logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *backendOptions) { o.logger = logger }
}

// New creates a Backend from connection parameters. An empty APIKey falls
// back to the SDK's ANTHROPIC_API_KEY environment lookup.
func New(cfg llm.BackendConfig, opts ...Option) *Backend {
	o := &backendOptions{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(o)
	}

	clientOpts := []option.RequestOption{option.WithHTTPClient(tlsutil.HTTPClient(0))}
	if cfg.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(cfg.BaseURL))
	}
	clientOpts = append(clientOpts, o.clientOpts...)

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	return &Backend{
		client:       anthropic.NewClient(clientOpts...),
		model:        anthropic.Model(model),
		systemPrompt: cfg.System,
		logger:       o.logger.With(zap.String("component", "anthropic"), zap.String("model", model)),
	}
}

// Constructor adapts New to llm.Factory.Register.
func Constructor(opts ...Option) llm.BackendConstructor {
	return func(cfg llm.BackendConfig) (llm.Backend, error) {
		return New(cfg, opts...), nil
	}
}

// Name implements llm.Backend.
func (b *Backend) Name() string { return "anthropic" }

// Generate implements llm.Backend.
func (b *Backend) Generate(ctx context.Context, prompt string, opts *llm.GenerateOptions) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     b.model,
		MaxTokens: DefaultMaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if b.systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Type: "text", Text: b.systemPrompt}}
	}
	if opts != nil {
		if opts.MaxTokens > 0 {
			params.MaxTokens = int64(opts.MaxTokens)
		}
		if opts.Temperature > 0 {
			params.Temperature = anthropic.Float(opts.Temperature)
		}
		if opts.TopP > 0 {
			params.TopP = anthropic.Float(opts.TopP)
		}
		if len(opts.StopSequences) > 0 {
			params.StopSequences = opts.StopSequences
		}
	}

	start := time.Now()
	msg, err := b.client.Messages.New(ctx, params)
	duration := time.Since(start)
	if err != nil {
		b.logger.Warn("messages call failed", zap.Duration("duration", duration), zap.Error(err))
		return "", fmt.Errorf("anthropic API error: %w", err)
	}
	b.logger.Debug("messages call completed",
		zap.Duration("duration", duration),
		zap.String("stop_reason", string(msg.StopReason)))

	var sb strings.Builder
	found := false
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
			found = true
		}
	}
	if !found {
		return "", fmt.Errorf("no text content in response")
	}
	return sb.String(), nil
}
