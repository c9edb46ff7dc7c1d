package auth

import (
	"log"
	"net/http"
	"strings"
)

// extractToken 从请求中提取凭据
// 优先 Authorization: Bearer 头；头缺失或非 Bearer 方案时回退 token Cookie
func extractToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
	}
	if c, err := r.Cookie(CookieName); err == nil {
		return c.Value
	}
	return ""
}

// Protect 创建需要认证的路由中间件
//
// 验证签名和过期后重新查询用户记录：令牌只被信任到"这是哪个
// 用户 ID"为止，角色等一律以数据库当前值为准；用户已被删除时
// 令牌同样视为无效。
func (h *Handler) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "Not authorized to access this route")
			return
		}

		claims, err := ParseToken(h.cfg, token)
		if err != nil {
			log.Printf("[auth] token parse error: %v", err)
			writeError(w, http.StatusUnauthorized, "Not authorized to access this route")
			return
		}

		user, err := h.store.GetUserByID(r.Context(), claims.Subject)
		if err != nil {
			log.Printf("[auth] GetUserByID error: %v", err)
			writeError(w, http.StatusInternalServerError, "Internal error")
			return
		}
		if user == nil {
			writeError(w, http.StatusUnauthorized, "User no longer exists")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithAuthUser(r.Context(), user)))
	})
}

// RequireRoles 角色白名单中间件（Protect 之后使用）
func RequireRoles(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := GetAuthUser(r.Context())
			if user == nil || !allowed[string(user.Role)] {
				writeError(w, http.StatusForbidden, "User role is not authorized to access this route")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
