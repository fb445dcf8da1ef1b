// Copyright (c) PromptFlow Authors.
// Licensed under the MIT License.

/*
包 cache 为生成后端提供两级响应缓存。

# 概述

[MultiLevelCache] 以进程内 TTL 缓存（jellydator/ttlcache）作为 L1，
Redis 作为可选 L2。L2 命中时回填 L1。[CachingBackend] 把任意
llm.Backend 包装为带缓存的后端：缓存键由后端名称、prompt 与生成参数
的 SHA-256 摘要组成，并发的相同请求经 singleflight 合并为一次调用。

只有成功的响应会被缓存，后端错误原样返回。
*/
package cache
