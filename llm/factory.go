package llm

import (
	"fmt"
	"sort"
	"sync"
)

// BackendConfig 创建后端所需的连接参数
type BackendConfig struct {
	Name    string `yaml:"name" json:"name" env:"NAME"`
	APIKey  string `yaml:"api_key" json:"-" env:"API_KEY"`
	BaseURL string `yaml:"base_url" json:"base_url,omitempty" env:"BASE_URL"`
	Model   string `yaml:"model" json:"model,omitempty" env:"MODEL"`
	System  string `yaml:"system" json:"system,omitempty" env:"SYSTEM"`
}

// BackendConstructor builds a Backend from its connection parameters.
type BackendConstructor func(cfg BackendConfig) (Backend, error)

// Factory is a thread-safe registry of backend constructors keyed by name.
type Factory struct {
	mu           sync.RWMutex
	constructors map[string]BackendConstructor
}

// NewFactory creates a Factory with the "echo" backend pre-registered.
func NewFactory() *Factory {
	f := &Factory{constructors: make(map[string]BackendConstructor)}
	f.Register("echo", func(BackendConfig) (Backend, error) { return EchoBackend{}, nil })
	return f
}

// Register registers a backend constructor by name.
func (f *Factory) Register(name string, constructor BackendConstructor) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.constructors[name] = constructor
}

// Create creates a backend by cfg.Name.
func (f *Factory) Create(cfg BackendConfig) (Backend, error) {
	f.mu.RLock()
	constructor, exists := f.constructors[cfg.Name]
	f.mu.RUnlock()
	if !exists {
		return nil, fmt.Errorf("backend %q not registered", cfg.Name)
	}
	return constructor(cfg)
}

// Names returns the registered backend names, sorted.
func (f *Factory) Names() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	names := make([]string, 0, len(f.constructors))
	for name := range f.constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
