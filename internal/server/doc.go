// Copyright (c) PromptFlow Authors.
// Licensed under the MIT License.

/*
Package server 管理辅助 HTTP 端点的生命周期。

Manager 封装 net/http.Server：Start 非阻塞监听（支持 ":0" 随机端口，
Addr 返回实际地址），Shutdown 在超时内优雅关闭且可重复调用，
后台服务错误通过 Errors 通道上报。命令行程序用它在运行期间暴露
Prometheus /metrics。
*/
package server
