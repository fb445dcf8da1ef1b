// Copyright (c) PromptFlow Authors.
// Licensed under the MIT License.

/*
Package telemetry 负责 PromptFlow 的 OpenTelemetry 接入。

Init 根据 config.TelemetryConfig 安装全局 TracerProvider：module、pipeline
与后端装饰器创建的 Span 通过 OTLP gRPC 导出，资源属性包含服务名、版本、
部署环境以及配置里的附加 key=value 属性。指标默认由 internal/metrics
走 Prometheus，ExportMetrics 开启后才额外安装 OTLP MeterProvider。

未启用时不创建任何导出器，全局 Provider 保持 noop。
*/
package telemetry
