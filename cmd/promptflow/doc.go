// Copyright (c) PromptFlow Authors.
// Licensed under the MIT License.

/*
Package main 提供 promptflow 命令行程序入口。

# 子命令

  - run      — 加载流水线定义（YAML）并以 JSON 输入运行，输出步骤表与最终结果
  - compile  — 对定义中的某个模块运行示例自举，保存编译制品
  - inspect  — 查看已保存制品的配置与示例，或列出存储中的制品
  - version  — 打印版本号

# 全局参数

  - --config    YAML 配置文件路径
  - --env-file  .env 文件路径
  - --verbose   强制 debug 日志级别

后端、缓存、限流、指标与制品存储均由配置文件和 PROMPTFLOW_ 前缀的
环境变量决定。开启 metrics 时程序在运行期间暴露 /metrics。
*/
package main
