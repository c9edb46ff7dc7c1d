// Package server 路由配置与核心基础设施
//
// 文件组织：
//   - common.go: Handler 定义、通用工具函数、健康检查
//   - handler.go: 路由表与中间件装配
//   - middleware.go: CORS / 安全头 / 限流中间件
//   - metrics.go: Prometheus 指标
package server

import (
	"encoding/json"
	"net/http"

	"job-board/internal/apiserver/auth"
	"job-board/internal/apiserver/job"
	"job-board/internal/config"
	rediscache "job-board/internal/shared/cache/redis"
	"job-board/internal/shared/storage"
)

// Handler API 处理器
//
// 所有 HTTP 接口的入口，负责：
//   - 路由请求到各领域包（auth、job）
//   - 装配 CORS / 安全头 / 限流 / 指标中间件
//   - 管理存储层与图片托管协作方
type Handler struct {
	store   storage.PersistentStore
	images  job.ImageHost          // 可为 nil（未配置对象存储）
	limiter *rediscache.RateLimiter // 可为 nil（未配置 Redis）
	cfg     *config.Config
	metrics *Metrics
}

// NewHandler 创建 Handler 实例
func NewHandler(store storage.PersistentStore, images job.ImageHost, limiter *rediscache.RateLimiter, cfg *config.Config) *Handler {
	return &Handler{
		store:   store,
		images:  images,
		limiter: limiter,
		cfg:     cfg,
		metrics: NewMetrics("jobboard"),
	}
}

// GetMetrics 返回指标实例
func (h *Handler) GetMetrics() *Metrics {
	return h.metrics
}

// writeJSON 将数据以 JSON 格式写入 HTTP 响应
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError 写入错误响应信封 {success:false, message}
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"success": false,
		"message": message,
	})
}

// Health 健康检查接口
//
// 路由: GET /health
//
// 用于负载均衡器和监控系统检查服务状态。
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// authConfig 从运行时配置构造认证配置
func (h *Handler) authConfig() auth.Config {
	return auth.Config{
		JWTSecret: h.cfg.JWTSecret,
		TokenTTL:  h.cfg.TokenTTL,
		SecureTLS: h.cfg.IsProd(),
	}
}
