// Package middleware 提供了处理 HTTP 请求的中间件。
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"kids-talk-go/internal/service"
)

// SessionCookieName 是会话令牌在浏览器端的 Cookie 名称。
const SessionCookieName = "session"

// SessionToken 从请求中提取会话令牌。
// 优先读取会话 Cookie，其次兼容 "Authorization: Bearer <token>" 头。
// 没有令牌时返回空字符串。
func SessionToken(c *gin.Context) string {
	if cookie, err := c.Cookie(SessionCookieName); err == nil && cookie != "" {
		return cookie
	}

	const bearerPrefix = "Bearer "
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, bearerPrefix) {
		return strings.TrimPrefix(authHeader, bearerPrefix)
	}
	return ""
}

// AuthMiddleware 创建一个 Gin 中间件，用于会话认证。
// 它提取并验证会话令牌，将完整的 User 对象存入 Gin 的上下文中；
// 未认证的请求在业务逻辑执行之前就被拒绝。
func AuthMiddleware(userService service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionToken := SessionToken(c)
		if sessionToken == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not signed in"})
			return
		}

		user, err := userService.CurrentUser(c.Request.Context(), sessionToken)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired session"})
			return
		}

		// 将完整的 User 对象存储在 context 中，供后续处理函数使用
		c.Set("user", user)
		c.Next()
	}
}
