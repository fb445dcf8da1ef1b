// 配置加载器与默认配置测试。
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mapLookup(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoader_LoadDefaults(t *testing.T) {
	cfg, err := NewLoader().WithLookup(mapLookup(nil)).Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultConfig(), cfg)
	assert.NoError(t, cfg.Validate())
}

func TestLoader_MissingFileKeepsDefaults(t *testing.T) {
	cfg, err := NewLoader().
		WithConfigPath(filepath.Join(t.TempDir(), "absent.yaml")).
		WithEnvFile(filepath.Join(t.TempDir(), "absent.env")).
		WithLookup(mapLookup(nil)).
		Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoader_YAMLFile(t *testing.T) {
	path := writeFile(t, "promptflow.yaml", `
backend:
  provider: echo
  model: test-model
  temperature: 0.3
  stop: ["###"]
pipeline:
  stop_on_error: false
  max_retries: 2
  retry_delay: 250ms
bootstrap:
  min_score: 0.8
store:
  type: sql
  sql_driver: postgres
  sql_dsn: host=db
`)
	cfg, err := NewLoader().WithConfigPath(path).WithLookup(mapLookup(nil)).Load()
	require.NoError(t, err)

	assert.Equal(t, "echo", cfg.Backend.Provider)
	assert.Equal(t, "test-model", cfg.Backend.Model)
	assert.Equal(t, 0.3, cfg.Backend.Temperature)
	assert.Equal(t, []string{"###"}, cfg.Backend.Stop)
	// 未出现在文件中的字段保留默认值
	assert.Equal(t, 1024, cfg.Backend.MaxTokens)

	assert.False(t, cfg.Pipeline.StopOnError)
	assert.Equal(t, 2, cfg.Pipeline.MaxRetries)
	assert.Equal(t, 250*time.Millisecond, cfg.Pipeline.RetryDelay)
	assert.Equal(t, 0.8, cfg.Bootstrap.MinScore)
	assert.Equal(t, 16, cfg.Bootstrap.MaxLabeledDemos)
	assert.Equal(t, "sql", cfg.Store.Type)
	require.NoError(t, cfg.Validate())
}

func TestLoader_InvalidYAML(t *testing.T) {
	path := writeFile(t, "bad.yaml", "backend: [")
	_, err := NewLoader().WithConfigPath(path).Load()
	assert.Error(t, err)
}

func TestLoader_EnvOverrides(t *testing.T) {
	path := writeFile(t, "promptflow.yaml", "backend:\n  model: from-file\n")
	env := map[string]string{
		"PROMPTFLOW_BACKEND_MODEL":                 "from-env",
		"PROMPTFLOW_BACKEND_STOP":                  "a, b",
		"PROMPTFLOW_PIPELINE_RETRY_DELAY":          "2s",
		"PROMPTFLOW_PIPELINE_DEBUG":                "true",
		"PROMPTFLOW_CACHE_LOCAL_CAPACITY":          "42",
		"PROMPTFLOW_BOOTSTRAP_MAX_LABELED_DEMOS":   "3",
		"PROMPTFLOW_BOOTSTRAP_MIN_SCORE":           "0.75",
		"PROMPTFLOW_LOG_OUTPUT_PATHS":              "stdout,/tmp/pf.log",
		"PROMPTFLOW_TELEMETRY_RESOURCE_ATTRIBUTES": "team=nlp, region=eu",
	}
	cfg, err := NewLoader().WithConfigPath(path).WithLookup(mapLookup(env)).Load()
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Backend.Model)
	assert.Equal(t, []string{"a", "b"}, cfg.Backend.Stop)
	assert.Equal(t, 2*time.Second, cfg.Pipeline.RetryDelay)
	assert.True(t, cfg.Pipeline.Debug)
	assert.Equal(t, uint64(42), cfg.Cache.LocalCapacity)
	assert.Equal(t, 3, cfg.Bootstrap.MaxLabeledDemos)
	assert.Equal(t, 0.75, cfg.Bootstrap.MinScore)
	assert.Equal(t, []string{"stdout", "/tmp/pf.log"}, cfg.Log.OutputPaths)
	assert.Equal(t, []string{"team=nlp", "region=eu"}, cfg.Telemetry.ResourceAttributes)
}

func TestLoader_EnvFile(t *testing.T) {
	envFile := writeFile(t, ".env", "PROMPTFLOW_BACKEND_API_KEY=file-key\nPROMPTFLOW_BACKEND_MODEL=file-model\n")
	env := map[string]string{"PROMPTFLOW_BACKEND_MODEL": "process-model"}

	cfg, err := NewLoader().WithEnvFile(envFile).WithLookup(mapLookup(env)).Load()
	require.NoError(t, err)

	assert.Equal(t, "file-key", cfg.Backend.APIKey)
	// 进程环境优先于 .env
	assert.Equal(t, "process-model", cfg.Backend.Model)
}

func TestLoader_CustomPrefixAndBadValue(t *testing.T) {
	cfg, err := NewLoader().
		WithEnvPrefix("PF").
		WithLookup(mapLookup(map[string]string{"PF_BACKEND_MODEL": "m"})).
		Load()
	require.NoError(t, err)
	assert.Equal(t, "m", cfg.Backend.Model)

	_, err = NewLoader().
		WithLookup(mapLookup(map[string]string{"PROMPTFLOW_PIPELINE_MAX_RETRIES": "many"})).
		Load()
	assert.ErrorContains(t, err, "PROMPTFLOW_PIPELINE_MAX_RETRIES")
}

func TestLoader_Validators(t *testing.T) {
	_, err := NewLoader().
		WithLookup(mapLookup(map[string]string{"PROMPTFLOW_BACKEND_PROVIDER": ""})).
		WithValidator(func(c *Config) error { return c.Validate() }).
		Load()
	require.NoError(t, err)

	_, err = NewLoader().
		WithLookup(mapLookup(map[string]string{"PROMPTFLOW_PIPELINE_MAX_RETRIES": "-1"})).
		WithValidator(func(c *Config) error { return c.Validate() }).
		Load()
	assert.ErrorContains(t, err, "pipeline.max_retries")
}

func TestConfig_ValidateAggregates(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Backend.Provider = ""
	cfg.Backend.Temperature = 3
	cfg.Store.Type = "s3"
	cfg.Log.Format = "xml"
	cfg.Metrics.Enabled = true
	cfg.Metrics.Addr = ""
	cfg.Telemetry.ResourceAttributes = []string{"team=nlp", "broken"}

	err := cfg.Validate()
	require.Error(t, err)
	assert.NotContains(t, err.Error(), `"team=nlp"`)
	for _, want := range []string{
		"backend.provider", "backend.temperature", "store.type", "log.format", "metrics.addr",
		`telemetry.resource_attributes entry "broken"`,
	} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestMustLoad(t *testing.T) {
	path := writeFile(t, "bad.yaml", "pipeline: {")
	assert.Panics(t, func() { MustLoad(path) })
}
