// Copyright (c) PromptFlow Authors.
// Licensed under the MIT License.

/*
包 metrics 提供基于 Prometheus 的指标采集。

Collector 同时实现 llm.Recorder、cache.Recorder、pipeline.Recorder
与 optimizer.Recorder，由 CLI 在装配组件时注入。所有指标注册到
构造时传入的 prometheus.Registerer，测试可使用独立的 Registry。

# 指标

  - backend_calls_total / backend_call_duration_seconds：后端调用次数与耗时。
  - cache_lookups_total：响应缓存命中与未命中。
  - pipeline_runs_total / pipeline_run_duration_seconds：流水线运行。
  - pipeline_steps_total / pipeline_step_duration_seconds / pipeline_step_attempts：步骤。
  - pipeline_retries_total：重试次数。
  - bootstrap_runs_total / bootstrap_demonstrations：自举编译结果。
*/
package metrics
