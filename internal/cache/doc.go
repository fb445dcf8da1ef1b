// Copyright (c) PromptFlow Authors.
// Licensed under the MIT License.

/*
包 cache 管理共享的 Redis 连接，供响应缓存 L2 层与制品存储复用。

# 概述

Manager 持有一个 go-redis 客户端，负责连接建立时的探活、后台
健康检查与关闭。上层组件通过 Client() 获取客户端自行读写，
同一进程内的缓存与存储可以共享同一个连接池。

# 核心类型

  - Manager：连接管理器，提供 Client/Ping/Close。
  - Config：地址、密码、库编号、连接池与健康检查参数。
*/
package cache
