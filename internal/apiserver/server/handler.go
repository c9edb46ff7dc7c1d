package server

import (
	"net/http"

	"job-board/api"
	"job-board/internal/apiserver/auth"
	"job-board/internal/apiserver/job"
)

// Router 返回配置好的 HTTP 路由
//
// 路由规则：
//
// 健康检查:
//   - GET /health - 服务健康检查
//
// 认证 (Auth):
//   - POST /auth/register - 用户注册
//   - POST /auth/login    - 用户登录
//   - GET  /auth/logout   - 退出登录
//   - GET  /auth/me       - 当前用户信息
//   - GET  /auth/users    - 用户列表（仅 admin）
//
// 职位 (Job):
//   - GET    /jobs        - 职位列表（过滤/检索/排序/分页）
//   - GET    /jobs/{id}   - 职位详情
//   - POST   /jobs        - 发布职位（需认证）
//   - PUT    /jobs/{id}   - 更新职位（属主或管理员）
//   - DELETE /jobs/{id}   - 删除职位（属主或管理员）
//   - POST   /jobs/upload - 图片上传（需认证）
//
// 运维:
//   - GET /metrics          - Prometheus 指标
//   - GET /api/openapi.yaml - OpenAPI 描述
func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()

	// 健康检查
	mux.HandleFunc("GET /health", h.Health)

	// Prometheus 指标端点
	mux.Handle("GET /metrics", MetricsHandler())

	// OpenAPI 描述
	mux.Handle("GET /api/openapi.yaml", api.SpecHandler())

	// Auth 路由
	authHandler := auth.NewHandler(h.store, h.authConfig())
	authHandler.RegisterRoutes(mux)

	// Job 路由（写接口由 auth.Protect 门禁）
	jobHandler := job.NewHandler(h.store, h.store, h.images, authHandler, h.cfg.MaxUpload)
	jobHandler.RegisterRoutes(mux)

	// 应用指标中间件到 REST API
	handler := h.metrics.MetricsMiddleware(mux)

	// 限流（未配置 Redis 时为透传）
	handler = h.rateLimitMiddleware(handler)

	// 安全头 + CORS 最外层
	handler = securityHeaders(handler)
	handler = corsMiddleware(h.cfg.FrontendURL)(handler)

	return handler
}
