// Copyright (c) PromptFlow Authors.
// Licensed under the MIT License.

/*
包 optimizer 实现自监督的示例引导优化器（Demonstration Bootstrapper）。

# 概述

给定一个基础 Module 与训练集（部分带期望输出，部分不带），Bootstrapper
产出一个新的 Module：名称、契约、策略与基础 Module 相同，prompt 被替换为
包含一组精选示例的增强模板。生成后端不变。

# 算法

 1. 按原始顺序把训练集拆分为带标注与未标注两部分
 2. 取前 MaxLabeledDemos 个带标注样例直接作为示例，不打分
 3. 对前 MaxBootstrappedDemos 个未标注样例运行基础 Module 得到候选输出
 4. 用调用方提供的 Metric 打分，分数 >= MinScore 才接受
 5. 单个样例的生成或打分失败只记录并跳过，不会中止整体编译
 6. 示例按“带标注在前、引导在后、各自保持训练集顺序”渲染在每次调用的输入之前

示例集合为空时，编译结果沿用基础 prompt。不做去重或多样性选择。

# 持久化

增强模板是纯数据（指令、示例列表、固定片段），[Artifact] 以 JSON 或 YAML
保存配置与程序描述，可以经 store.Store 存取，并通过 [Artifact.Module]
重建出与编译结果等价的 Module。
*/
package optimizer
