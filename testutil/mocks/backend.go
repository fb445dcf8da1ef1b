// MockBackend 生成后端的测试模拟实现。
//
// 支持固定响应、按调用顺序脚本化响应、前 N 次失败与自定义生成函数。
package mocks

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/BaSui01/promptflow/llm"
)

// ErrMockBackend 是 MockBackend 注入失败时返回的默认错误。
var ErrMockBackend = errors.New("mock backend: injected failure")

// MockBackendCall 记录单次调用
type MockBackendCall struct {
	Prompt   string
	Options  *llm.GenerateOptions
	Response string
	Error    error
}

// MockBackend 是 llm.Backend 的模拟实现
type MockBackend struct {
	mu sync.Mutex

	name      string
	response  string
	script    []string
	err       error
	failFirst int
	delay     time.Duration
	fn        func(ctx context.Context, prompt string) (string, error)

	inits    int
	cleanups int
	calls    []MockBackendCall
}

// NewMockBackend 创建新的 MockBackend
func NewMockBackend() *MockBackend {
	return &MockBackend{name: "mock", response: "Mock response"}
}

// WithName 设置后端名称
func (m *MockBackend) WithName(name string) *MockBackend {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.name = name
	return m
}

// WithResponse 设置固定响应
func (m *MockBackend) WithResponse(response string) *MockBackend {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.response = response
	return m
}

// WithScript 按调用顺序返回响应，脚本耗尽后回落到固定响应
func (m *MockBackend) WithScript(responses ...string) *MockBackend {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append([]string(nil), responses...)
	return m
}

// WithError 每次调用都返回 err
func (m *MockBackend) WithError(err error) *MockBackend {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// WithFailFirst 前 n 次调用返回 ErrMockBackend
func (m *MockBackend) WithFailFirst(n int) *MockBackend {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failFirst = n
	return m
}

// WithDelay 设置响应延迟
func (m *MockBackend) WithDelay(d time.Duration) *MockBackend {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
	return m
}

// WithGenerateFunc 设置自定义生成函数
func (m *MockBackend) WithGenerateFunc(fn func(ctx context.Context, prompt string) (string, error)) *MockBackend {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fn = fn
	return m
}

// Name 返回后端名称
func (m *MockBackend) Name() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.name
}

// Generate 实现 llm.Backend
func (m *MockBackend) Generate(ctx context.Context, prompt string, opts *llm.GenerateOptions) (string, error) {
	m.mu.Lock()
	delay := m.delay
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			m.record(prompt, opts, "", ctx.Err())
			return "", ctx.Err()
		}
	}

	m.mu.Lock()
	n := len(m.calls) + 1
	fn := m.fn
	var (
		resp string
		err  error
	)
	switch {
	case n <= m.failFirst:
		err = ErrMockBackend
	case m.err != nil:
		err = m.err
	case fn != nil:
	case len(m.script) > 0:
		resp, m.script = m.script[0], m.script[1:]
	default:
		resp = m.response
	}
	// 先占位，保证调用序号与记录一致
	m.calls = append(m.calls, MockBackendCall{Prompt: prompt, Options: opts, Response: resp, Error: err})
	idx := len(m.calls) - 1
	m.mu.Unlock()

	if fn != nil && err == nil {
		resp, err = fn(ctx, prompt)
		m.mu.Lock()
		m.calls[idx].Response, m.calls[idx].Error = resp, err
		m.mu.Unlock()
	}
	if err != nil {
		return "", err
	}
	return resp, nil
}

func (m *MockBackend) record(prompt string, opts *llm.GenerateOptions, resp string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, MockBackendCall{Prompt: prompt, Options: opts, Response: resp, Error: err})
}

// Init 实现 llm.Lifecycle
func (m *MockBackend) Init(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inits++
	return nil
}

// Cleanup 实现 llm.Lifecycle
func (m *MockBackend) Cleanup(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleanups++
	return nil
}

// --- 查询方法 ---

// CallCount 返回调用次数
func (m *MockBackend) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// Calls 返回调用记录副本
func (m *MockBackend) Calls() []MockBackendCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockBackendCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// Prompts 返回每次调用的 prompt
func (m *MockBackend) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	for i, c := range m.calls {
		out[i] = c.Prompt
	}
	return out
}

// LastPrompt 返回最后一次调用的 prompt
func (m *MockBackend) LastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return ""
	}
	return m.calls[len(m.calls)-1].Prompt
}

// LifecycleCounts 返回 Init / Cleanup 调用次数
func (m *MockBackend) LifecycleCounts() (inits, cleanups int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inits, m.cleanups
}

// Reset 清空调用记录
func (m *MockBackend) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
	m.inits, m.cleanups = 0, 0
}
