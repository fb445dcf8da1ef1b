// Package tlsutil 提供集中式 TLS 配置（TLS 1.2+，仅 AEAD 密码套件），
// 用于生成后端的 HTTP 客户端以及开启 TLS 的 Redis 连接。
package tlsutil
