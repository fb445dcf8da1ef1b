// Copyright (c) PromptFlow Authors.
// Licensed under the MIT License.

/*
包 database 基于 GORM 打开并管理 SQL 连接池，供制品 SQL 存储使用。

# 概述

Open 根据驱动名选择方言（sqlite/postgres/mysql），建立连接并按
PoolConfig 调整连接池参数。PoolManager 封装生命周期：探活、
统计、事务以及带退避的事务重试。

# 核心类型

  - Config：驱动、DSN 与连接池配置。
  - PoolManager：持有 *gorm.DB 与底层 *sql.DB。
  - TransactionFunc：事务回调函数类型。
*/
package database
