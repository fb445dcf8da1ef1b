// Copyright (c) PromptFlow Authors.
// Licensed under the MIT License.

// Package config 提供 PromptFlow 的配置加载。
//
// 配置优先级：默认值 → YAML 文件 → .env 文件 → 环境变量。
// 环境变量名由前缀与各层 env tag 以下划线拼接而成，
// 例如 PROMPTFLOW_BACKEND_MODEL、PROMPTFLOW_STORE_SQL_DSN。
package config
