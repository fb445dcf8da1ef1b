// =============================================================================
// PromptFlow 配置加载器
// =============================================================================
// 统一配置加载，支持 YAML 文件 + .env + 环境变量覆盖
//
// 使用方法:
//
//	cfg, err := config.NewLoader().
//	    WithConfigPath("promptflow.yaml").
//	    WithEnvFile(".env").
//	    Load()
// =============================================================================
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultEnvPrefix 默认环境变量前缀
const DefaultEnvPrefix = "PROMPTFLOW"

// Config 是 PromptFlow 的完整配置结构
type Config struct {
	Backend   BackendConfig   `yaml:"backend" env:"BACKEND"`
	Pipeline  PipelineConfig  `yaml:"pipeline" env:"PIPELINE"`
	Bootstrap BootstrapConfig `yaml:"bootstrap" env:"BOOTSTRAP"`
	Cache     CacheConfig     `yaml:"cache" env:"CACHE"`
	Store     StoreConfig     `yaml:"store" env:"STORE"`
	Log       LogConfig       `yaml:"log" env:"LOG"`
	Telemetry TelemetryConfig `yaml:"telemetry" env:"TELEMETRY"`
	Metrics   MetricsConfig   `yaml:"metrics" env:"METRICS"`
}

// BackendConfig 生成后端配置
type BackendConfig struct {
	// Provider 名称：anthropic, echo
	Provider string `yaml:"provider" env:"PROVIDER"`
	Model    string `yaml:"model" env:"MODEL"`
	APIKey   string `yaml:"api_key" env:"API_KEY"`
	BaseURL  string `yaml:"base_url" env:"BASE_URL"`
	// 系统提示词（可选）
	System string `yaml:"system" env:"SYSTEM"`

	MaxTokens   int      `yaml:"max_tokens" env:"MAX_TOKENS"`
	Temperature float64  `yaml:"temperature" env:"TEMPERATURE"`
	TopP        float64  `yaml:"top_p" env:"TOP_P"`
	Stop        []string `yaml:"stop" env:"STOP"`

	// 单次生成超时，0 表示不限制
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`

	// 限流，RPS <= 0 表示关闭
	RateLimitRPS   float64 `yaml:"rate_limit_rps" env:"RATE_LIMIT_RPS"`
	RateLimitBurst int     `yaml:"rate_limit_burst" env:"RATE_LIMIT_BURST"`
}

// PipelineConfig 流水线默认策略
type PipelineConfig struct {
	StopOnError bool          `yaml:"stop_on_error" env:"STOP_ON_ERROR"`
	MaxRetries  int           `yaml:"max_retries" env:"MAX_RETRIES"`
	RetryDelay  time.Duration `yaml:"retry_delay" env:"RETRY_DELAY"`
	Debug       bool          `yaml:"debug" env:"DEBUG"`
	// 保留的运行历史条数，0 表示不保留
	HistorySize int `yaml:"history_size" env:"HISTORY_SIZE"`
}

// BootstrapConfig 示例自举配置
type BootstrapConfig struct {
	MaxLabeledDemos      int     `yaml:"max_labeled_demos" env:"MAX_LABELED_DEMOS"`
	MaxBootstrappedDemos int     `yaml:"max_bootstrapped_demos" env:"MAX_BOOTSTRAPPED_DEMOS"`
	MinScore             float64 `yaml:"min_score" env:"MIN_SCORE"`
}

// CacheConfig 生成结果缓存配置
type CacheConfig struct {
	Enabled       bool          `yaml:"enabled" env:"ENABLED"`
	LocalTTL      time.Duration `yaml:"local_ttl" env:"LOCAL_TTL"`
	LocalCapacity uint64        `yaml:"local_capacity" env:"LOCAL_CAPACITY"`
	// RedisAddr 为空时只使用本地缓存
	RedisAddr     string        `yaml:"redis_addr" env:"REDIS_ADDR"`
	RedisPassword string        `yaml:"redis_password" env:"REDIS_PASSWORD"`
	RedisDB       int           `yaml:"redis_db" env:"REDIS_DB"`
	RedisTLS      bool          `yaml:"redis_tls" env:"REDIS_TLS"`
	RedisTTL      time.Duration `yaml:"redis_ttl" env:"REDIS_TTL"`
}

// StoreConfig 制品存储配置
type StoreConfig struct {
	// Type: file, redis, sql
	Type          string `yaml:"type" env:"TYPE"`
	Dir           string `yaml:"dir" env:"DIR"`
	RedisAddr     string `yaml:"redis_addr" env:"REDIS_ADDR"`
	RedisPassword string `yaml:"redis_password" env:"REDIS_PASSWORD"`
	RedisDB       int    `yaml:"redis_db" env:"REDIS_DB"`
	RedisTLS      bool   `yaml:"redis_tls" env:"REDIS_TLS"`
	KeyPrefix     string `yaml:"key_prefix" env:"KEY_PREFIX"`
	// SQLDriver: sqlite, postgres, mysql
	SQLDriver string `yaml:"sql_driver" env:"SQL_DRIVER"`
	SQLDSN    string `yaml:"sql_dsn" env:"SQL_DSN"`
}

// LogConfig 日志配置
type LogConfig struct {
	// 日志级别: debug, info, warn, error
	Level string `yaml:"level" env:"LEVEL"`
	// 输出格式: json, console
	Format string `yaml:"format" env:"FORMAT"`
	// 输出路径
	OutputPaths []string `yaml:"output_paths" env:"OUTPUT_PATHS"`
	// 是否启用调用者信息
	EnableCaller bool `yaml:"enable_caller" env:"ENABLE_CALLER"`
	// 是否启用堆栈跟踪
	EnableStacktrace bool `yaml:"enable_stacktrace" env:"ENABLE_STACKTRACE"`
}

// TelemetryConfig 遥测配置
type TelemetryConfig struct {
	// 是否启用
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// OTLP 端点
	OTLPEndpoint string `yaml:"otlp_endpoint" env:"OTLP_ENDPOINT"`
	// 服务名称
	ServiceName string `yaml:"service_name" env:"SERVICE_NAME"`
	// 采样率
	SampleRate float64 `yaml:"sample_rate" env:"SAMPLE_RATE"`
	// 部署环境，写入 deployment.environment 资源属性
	Environment string `yaml:"environment" env:"ENVIRONMENT"`
	// 附加资源属性，"key=value" 形式
	ResourceAttributes []string `yaml:"resource_attributes" env:"RESOURCE_ATTRIBUTES"`
	// 为 false 时 OTLP 连接使用系统根证书的 TLS
	Insecure bool `yaml:"insecure" env:"INSECURE"`
	// 指标默认走 Prometheus；开启后额外通过 OTLP 导出
	ExportMetrics bool `yaml:"export_metrics" env:"EXPORT_METRICS"`
}

// MetricsConfig Prometheus 指标配置
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled" env:"ENABLED"`
	Namespace string `yaml:"namespace" env:"NAMESPACE"`
	// 监听地址，如 ":9091"
	Addr string `yaml:"addr" env:"ADDR"`
}

// =============================================================================
// 配置加载器
// =============================================================================

// Loader 配置加载器（Builder 模式）
type Loader struct {
	configPath string
	envFile    string
	envPrefix  string
	lookup     func(string) (string, bool)
	validators []func(*Config) error
}

// NewLoader 创建新的配置加载器
func NewLoader() *Loader {
	return &Loader{
		envPrefix: DefaultEnvPrefix,
		lookup:    os.LookupEnv,
	}
}

// WithConfigPath 设置配置文件路径
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithEnvFile sets a .env file read before the process environment.
// Variables already set in the environment win over the file.
func (l *Loader) WithEnvFile(path string) *Loader {
	l.envFile = path
	return l
}

// WithEnvPrefix 设置环境变量前缀
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// WithLookup replaces os.LookupEnv, mainly for tests.
func (l *Loader) WithLookup(lookup func(string) (string, bool)) *Loader {
	if lookup != nil {
		l.lookup = lookup
	}
	return l
}

// WithValidator 添加配置验证器
func (l *Loader) WithValidator(v func(*Config) error) *Loader {
	l.validators = append(l.validators, v)
	return l
}

// Load 加载配置
// 优先级: 默认值 → YAML 文件 → .env → 环境变量
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	if l.configPath != "" {
		if err := l.loadFromFile(cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	lookup := l.lookup
	if l.envFile != "" {
		fileVars, err := godotenv.Read(l.envFile)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read env file: %w", err)
		}
		lookup = layered(l.lookup, fileVars)
	}

	if err := setFieldsFromEnv(reflect.ValueOf(cfg).Elem(), l.envPrefix, lookup); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	for _, v := range l.validators {
		if err := v(cfg); err != nil {
			return nil, fmt.Errorf("config validation failed: %w", err)
		}
	}
	return cfg, nil
}

// layered 先查进程环境，再查 .env 文件
func layered(primary func(string) (string, bool), fallback map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		if v, ok := primary(key); ok {
			return v, true
		}
		v, ok := fallback[key]
		return v, ok
	}
}

// loadFromFile 从 YAML 文件加载配置；文件不存在时保留默认值
func (l *Loader) loadFromFile(cfg *Config) error {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// setFieldsFromEnv 递归设置结构体字段
func setFieldsFromEnv(v reflect.Value, prefix string, lookup func(string) (string, bool)) error {
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		envTag := t.Field(i).Tag.Get("env")
		if envTag == "" || envTag == "-" {
			continue
		}
		envKey := prefix + "_" + envTag

		if field.Kind() == reflect.Struct {
			if err := setFieldsFromEnv(field, envKey, lookup); err != nil {
				return err
			}
			continue
		}

		value, ok := lookup(envKey)
		if !ok || value == "" {
			continue
		}
		if err := setFieldValue(field, value); err != nil {
			return fmt.Errorf("failed to set %s: %w", envKey, err)
		}
	}
	return nil
}

var durationType = reflect.TypeOf(time.Duration(0))

// setFieldValue 设置字段值
func setFieldValue(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if field.Type() == durationType {
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
			return nil
		}
		i, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(i)

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetUint(u)

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(f)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)

	case reflect.Slice:
		// 逗号分隔的字符串切片
		if field.Type().Elem().Kind() == reflect.String {
			parts := strings.Split(value, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			field.Set(reflect.ValueOf(parts))
		}
	}
	return nil
}

// =============================================================================
// 辅助函数
// =============================================================================

// MustLoad 加载配置，失败时 panic
func MustLoad(path string) *Config {
	cfg, err := NewLoader().WithConfigPath(path).Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

// Validate 验证配置，汇总所有问题
func (c *Config) Validate() error {
	var errs []string

	if c.Backend.Provider == "" {
		errs = append(errs, "backend.provider is required")
	}
	if c.Backend.MaxTokens < 0 {
		errs = append(errs, "backend.max_tokens must be >= 0")
	}
	if c.Backend.Temperature < 0 || c.Backend.Temperature > 2 {
		errs = append(errs, "backend.temperature must be between 0 and 2")
	}
	if c.Backend.TopP < 0 || c.Backend.TopP > 1 {
		errs = append(errs, "backend.top_p must be between 0 and 1")
	}
	if c.Backend.RateLimitRPS > 0 && c.Backend.RateLimitBurst <= 0 {
		errs = append(errs, "backend.rate_limit_burst must be positive when rate limiting is on")
	}

	if c.Pipeline.MaxRetries < 0 {
		errs = append(errs, "pipeline.max_retries must be >= 0")
	}
	if c.Pipeline.RetryDelay < 0 {
		errs = append(errs, "pipeline.retry_delay must be >= 0")
	}

	if c.Bootstrap.MaxLabeledDemos < 0 || c.Bootstrap.MaxBootstrappedDemos < 0 {
		errs = append(errs, "bootstrap demo limits must be >= 0")
	}
	if math.IsNaN(c.Bootstrap.MinScore) || math.IsInf(c.Bootstrap.MinScore, 0) {
		errs = append(errs, "bootstrap.min_score must be finite")
	}

	switch c.Store.Type {
	case "file":
		if c.Store.Dir == "" {
			errs = append(errs, "store.dir is required for file store")
		}
	case "redis":
		if c.Store.RedisAddr == "" {
			errs = append(errs, "store.redis_addr is required for redis store")
		}
	case "sql":
		switch c.Store.SQLDriver {
		case "sqlite", "postgres", "mysql":
		default:
			errs = append(errs, fmt.Sprintf("store.sql_driver %q is not supported", c.Store.SQLDriver))
		}
		if c.Store.SQLDSN == "" {
			errs = append(errs, "store.sql_dsn is required for sql store")
		}
	default:
		errs = append(errs, fmt.Sprintf("store.type %q is not supported", c.Store.Type))
	}

	switch c.Log.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Sprintf("log.format %q is not supported", c.Log.Format))
	}
	if c.Telemetry.SampleRate < 0 || c.Telemetry.SampleRate > 1 {
		errs = append(errs, "telemetry.sample_rate must be between 0 and 1")
	}
	for _, kv := range c.Telemetry.ResourceAttributes {
		if k, _, ok := strings.Cut(kv, "="); !ok || strings.TrimSpace(k) == "" {
			errs = append(errs, fmt.Sprintf("telemetry.resource_attributes entry %q must be key=value", kv))
		}
	}
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		errs = append(errs, "metrics.addr is required when metrics are enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}
	return nil
}
