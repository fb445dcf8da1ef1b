// Copyright (c) PromptFlow Authors.
// Licensed under the MIT License.

/*
Package pipeline 提供模块的顺序编排器。

# 概述

Pipeline 按声明顺序依次执行一组 Step（通常是 *module.Module），每一步的
输出作为下一步的输入。步骤严格串行：第 N+1 步只会在第 N 步的结果
（成功，或重试耗尽）确定之后开始。

# 错误策略

  - StopOnError（默认 true）：首个失败步骤终止运行，Result.Error 为该错误，
    Steps 只包含已执行的步骤
  - StopOnError=false：失败步骤记录错误，并把该步骤的原始输入原样传给下一步；
    Run 不返回错误，调用方需检查每个 StepResult
  - MaxRetries / RetryDelay：失败步骤最多再尝试 MaxRetries 次，两次尝试之间
    经注入的时钟真实等待；默认使用常量退避，可替换为任意 backoff.BackOff

# 调试与观测

Debug=true 时向 Observer 发送 pre-input / post-output / retry / error 事件，
不影响控制流。未设置 Observer 时使用写入 zap 日志的 LogObserver。
另外可挂接 Recorder（指标）与 HistoryStore（运行历史）。

# 定义文件

Definition 以 YAML 描述管道与其模块（契约、模板、生成参数），
Build 把定义构造成可运行的 Pipeline；模块也可以引用已编译的制品。
*/
package pipeline
