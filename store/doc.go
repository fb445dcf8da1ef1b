// Copyright (c) PromptFlow Authors.
// Licensed under the MIT License.

/*
包 store 提供优化器制品的持久化存储。

Store 是一个按 key 存取字节块的最小接口，提供三种实现：

  - FileStore：目录下每个 key 一个文件。
  - RedisStore：以前缀命名空间存入 Redis。
  - SQLStore：通过 GORM 写入单表，支持 sqlite/postgres/mysql。

Open 根据 Config.Type 选择实现。
*/
package store
