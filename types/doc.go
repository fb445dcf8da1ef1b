// Copyright (c) PromptFlow Authors.
// Licensed under the MIT License.

/*
Package types 提供 PromptFlow 的全局共享类型定义。

# 概述

types 是最底层的公共包，不依赖任何内部包，为 contract、module、pipeline、
optimizer 等上层模块提供统一的记录类型与错误体系。

# 核心类型

  - Record            — 开放世界的键值记录（模块输入/输出的载体）
  - Error / ErrorCode — 结构化错误体系，含 Module 标记与 Retryable 标记

# 主要能力

  - 错误工具链：GetErrorCode / IsErrorCode / AsError / IsRetryable（基于 errors.As）
  - 记录工具：Clone 深拷贝、Keys 有序键、Get 取值
  - Context 传播：WithRunID / WithTraceID / WithStepIndex
*/
package types
