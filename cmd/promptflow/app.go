package main

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/BaSui01/promptflow/config"
	"github.com/BaSui01/promptflow/internal/cache"
	"github.com/BaSui01/promptflow/internal/metrics"
	"github.com/BaSui01/promptflow/internal/server"
	"github.com/BaSui01/promptflow/internal/telemetry"
	"github.com/BaSui01/promptflow/llm"
	llmcache "github.com/BaSui01/promptflow/llm/cache"
	"github.com/BaSui01/promptflow/llm/providers/anthropic"
	"github.com/BaSui01/promptflow/module"
	"github.com/BaSui01/promptflow/optimizer"
	"github.com/BaSui01/promptflow/store"
)

// app 持有一次命令执行所需的全部组件
type app struct {
	cfg       *config.Config
	logger    *zap.Logger
	runtime   *llm.Runtime
	collector *metrics.Collector
	telemetry *telemetry.Providers

	store   store.Store
	closers []func(context.Context) error
}

// newApp 加载配置并装配后端装饰链：
// timeout → rate limit → cache → instrumentation（由内到外）。
func newApp(ctx context.Context, flags *globalFlags, stderr io.Writer) (*app, error) {
	loader := config.NewLoader().WithValidator(func(c *config.Config) error { return c.Validate() })
	if flags.configPath != "" {
		loader = loader.WithConfigPath(flags.configPath)
	}
	if flags.envFile != "" {
		loader = loader.WithEnvFile(flags.envFile)
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, err
	}

	logger, err := initLogger(cfg.Log, flags.verbose, stderr)
	if err != nil {
		return nil, fmt.Errorf("failed to init logger: %w", err)
	}

	a := &app{cfg: cfg, logger: logger}
	a.closers = append(a.closers, func(context.Context) error {
		_ = logger.Sync()
		return nil
	})

	if err := a.init(ctx); err != nil {
		a.Close(ctx)
		return nil, err
	}
	return a, nil
}

func (a *app) init(ctx context.Context) error {
	providers, err := telemetry.Init(ctx, a.cfg.Telemetry, a.logger)
	if err != nil {
		// 遥测不可用时不阻断命令
		a.logger.Warn("failed to initialize telemetry", zap.Error(err))
	} else {
		a.telemetry = providers
		a.closers = append(a.closers, providers.Shutdown)
	}

	if a.cfg.Metrics.Enabled {
		if err := a.startMetrics(); err != nil {
			return err
		}
	}

	backend, err := a.buildBackend()
	if err != nil {
		return err
	}

	a.runtime = llm.NewRuntime(
		llm.WithBackend(backend),
		llm.WithDefaultOptions(a.cfg.Backend.GenerateOptions()),
		llm.WithRuntimeLogger(a.logger),
	)
	if err := a.runtime.Init(ctx); err != nil {
		return fmt.Errorf("failed to init backend: %w", err)
	}
	a.closers = append(a.closers, a.runtime.Cleanup)
	return nil
}

func (a *app) buildBackend() (llm.Backend, error) {
	factory := llm.NewFactory()
	factory.Register("anthropic", anthropic.Constructor(anthropic.WithLogger(a.logger)))

	backend, err := factory.Create(a.cfg.Backend.BackendConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create backend: %w (registered: %v)", err, factory.Names())
	}

	backend = llm.NewTimeoutBackend(backend, a.cfg.Backend.Timeout)
	if a.cfg.Backend.RateLimitRPS > 0 {
		backend = llm.NewRateLimitedBackend(backend, a.cfg.Backend.RateLimitRPS, a.cfg.Backend.RateLimitBurst)
	}

	if a.cfg.Cache.Enabled {
		cacheCfg := a.cfg.Cache.CacheConfig()
		var mgr *cache.Manager
		if cacheCfg.EnableRedis {
			mgr, err = cache.NewManager(a.cfg.Cache.RedisConfig(), a.logger)
			if err != nil {
				return nil, fmt.Errorf("failed to connect generation cache: %w", err)
			}
			a.closers = append(a.closers, func(context.Context) error { return mgr.Close() })
		}
		var mlc *llmcache.MultiLevelCache
		if mgr != nil {
			mlc = llmcache.NewMultiLevelCache(mgr.Client(), cacheCfg, a.logger)
		} else {
			mlc = llmcache.NewMultiLevelCache(nil, cacheCfg, a.logger)
		}
		mlc.Start()
		a.closers = append(a.closers, func(context.Context) error {
			mlc.Stop()
			return nil
		})
		cb := llmcache.NewCachingBackend(backend, mlc, a.logger)
		if a.collector != nil {
			cb = cb.WithRecorder(a.collector)
		}
		backend = cb
	}

	var recorder llm.Recorder
	if a.collector != nil {
		recorder = a.collector
	}
	return llm.NewInstrumentedBackend(backend, recorder, a.logger), nil
}

// startMetrics 注册指标并在 metrics.addr 上暴露 /metrics，命令结束时关闭
func (a *app) startMetrics() error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.collector = metrics.NewCollector(a.cfg.Metrics.Namespace, reg, a.logger)

	if a.cfg.Metrics.Addr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	srvCfg := server.DefaultConfig()
	srvCfg.Addr = a.cfg.Metrics.Addr
	srv := server.NewManager(mux, srvCfg, a.logger)
	if err := srv.Start(); err != nil {
		return fmt.Errorf("failed to start metrics server: %w", err)
	}
	a.closers = append(a.closers, srv.Shutdown)
	return nil
}

// Store 按需打开制品存储；只有用到制品的命令才会连接 Redis/SQL
func (a *app) Store() (store.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	s, err := store.Open(a.cfg.Store.StoreConfig(), a.logger)
	if err != nil {
		return nil, err
	}
	a.store = s
	a.closers = append(a.closers, func(context.Context) error { return s.Close() })
	return s, nil
}

// Resolver 返回从制品存储加载模块的解析器，存储在首次解析时才打开
func (a *app) Resolver(opts ...optimizer.LoadOption) func(ctx context.Context, key string) (*module.Module, error) {
	return func(ctx context.Context, key string) (*module.Module, error) {
		s, err := a.Store()
		if err != nil {
			return nil, err
		}
		return optimizer.Resolver(s, a.runtime, opts...)(ctx, key)
	}
}

// Close 逆序释放资源
func (a *app) Close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			a.logger.Warn("failed to release resource", zap.Error(err))
		}
	}
	a.closers = nil
}
