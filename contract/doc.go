// Copyright (c) PromptFlow Authors.
// Licensed under the MIT License.

/*
# 概述

包 contract 提供模块输入/输出契约的建模与校验能力。

契约是结构化应用逻辑与非结构化文本生成之间唯一的类型边界：
模块在调用生成后端之前校验输入、在解析生成结果之后校验输出，
其余组件都依赖这里的校验结果，不再重复检查类型。

# 核心类型

  - FieldType — 封闭的字段类型集合（string / number / boolean / object）
  - FieldSpec — 字段声明（名称、类型、是否可选、描述）
  - Contract — 有序的输入字段列表与输出字段列表，构造后不可变
  - ValidationError / Violation — 字段级违约明细

# 校验规则

  - 每个必填字段必须存在且非 nil，运行时类型必须与声明一致
  - 可选字段缺失不报错，但存在时类型仍需匹配
  - 未声明的额外字段允许存在（开放世界记录）
  - object 类型接受 map 与数组/切片（JSON 数组按对象处理）

# 典型用法

	c := contract.MustNew(
		[]contract.FieldSpec{contract.Field("text", contract.TypeString)},
		[]contract.FieldSpec{contract.Field("upper", contract.TypeString)},
	)
	if err := contract.ValidateInput(c, types.Record{"text": "hi"}); err != nil {
		// 处理 *contract.ValidationError
	}
*/
package contract
