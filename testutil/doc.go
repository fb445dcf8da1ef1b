// Copyright (c) PromptFlow Authors.
// Licensed under the MIT License.

/*
Package testutil 提供 PromptFlow 测试的共享工具和辅助函数。

# 核心能力

  - 上下文辅助: TestContext / CancelledContext，自动注册 Cleanup
  - 记录断言: AssertRecordsEqual 基于 go-cmp 输出差异
  - 异步断言: AssertEventuallyTrue 超时轮询
  - 数据工具: MustJSON / MustRecord

# 子包

  - testutil/mocks: MockBackend（脚本化生成后端，支持错误注入、
    前 N 次失败、延迟与调用记录）和 MockProvider（聊天 Provider）
  - testutil/fixtures: 常用契约与输入记录样例

testutil 只依赖 types；fixtures 只依赖 contract 与 types，
因此可以被任何包的内部测试引用而不产生循环导入。
*/
package testutil
