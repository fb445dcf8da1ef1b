// Copyright (c) PromptFlow Authors.
// Licensed under the MIT License.

/*
包 llm 定义执行核心与文本生成后端之间的协作契约。

# 概述

执行核心本身不实现文本生成。所有生成请求都经由 [Backend] 接口
（Generate(ctx, prompt, opts) → text）发往外部后端，后端失败以普通 error
返回，由 module 包统一包装为 BACKEND_ERROR。

原先进程级的全局后端单例被显式的 [Runtime] 取代：调用方创建一个 Runtime，
Configure 一次后端，再把 Runtime 注入到 Module 中。重新配置后端对并发调用
没有额外保护，调用方应把重新配置视为一道屏障。

# 核心接口与类型

  - [Backend]：生成后端接口，Generate + Name
  - [Lifecycle]：可选的 Init / Cleanup 生命周期钩子
  - [GenerateOptions]：maxTokens / temperature / topP / stopSequences
  - [Runtime]：显式的后端上下文对象，Configure / Backend / Init / Cleanup
  - [Provider]：对话式 Provider 接口，经 [FromProvider] 适配为 Backend
  - [Factory]：按名称注册与创建后端

# 装饰器

  - [RateLimitedBackend]：基于 golang.org/x/time/rate 的令牌桶限流
  - [InstrumentedBackend]：指标记录 + OpenTelemetry Span + zap 日志
  - llm/cache.CachingBackend：响应缓存（本地 TTL + Redis）与 singleflight 去重

# 相关子包

  - llm/cache：后端响应缓存
  - llm/providers/anthropic：基于 Anthropic SDK 的远程后端
*/
package llm
