// Copyright (c) PromptFlow Authors.
// Licensed under the MIT License.

/*
包 module 提供受契约约束的执行单元 Module。

# 概述

Module 把一个 contract.Contract、一个 prompt 构造器和一个执行策略标签
绑定在一起。Run 的流程固定为：

	校验输入 → 构造 prompt → 调用生成后端（恰好一次）→ 解析 → 校验输出

# 解析策略

后端返回的文本先按结构化记录解码（JSON 对象，允许包裹在 markdown 代码块中）。
解码失败时，若输出契约恰好有一个必填字段且类型为 string，则把原始文本
绑定到该字段；否则返回 PARSE_ERROR。

# 执行策略

目前只实现 [Predict]。[ChainOfThought]、[ReAct] 等为保留标签，调用时
返回 UNIMPLEMENTED_STRATEGY，不会退化为默认策略。

# 错误

Run 失败时总是返回单个 *types.Error，Module 字段为模块名，Code 为
CONTRACT_VIOLATION / PARSE_ERROR / BACKEND_ERROR / UNIMPLEMENTED_STRATEGY 之一。
*/
package module
