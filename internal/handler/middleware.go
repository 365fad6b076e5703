package handler

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kouheihayashi78/technical-blog-platform/internal/service"
)

const (
	sessionTokenKey = "access_token"
	contextUserKey  = "current_user"
)

// SessionGate 在所有路由之前运行: 未认证访问受保护路径时页面路由
// 重定向到登录页, API 路由返回 401; 已认证访问登录页时重定向到文章列表。
// 令牌刷新作为每次检查的副作用发生。静态资源不经过此检查。
func (a *API) SessionGate() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/static/") || path == "/favicon.ico" || path == "/ping" {
			c.Next()
			return
		}

		session := sessions.Default(c)
		token, _ := session.Get(sessionTokenKey).(string)
		user, refreshed := a.auth.Authenticate(token)

		if user != nil && refreshed != "" {
			session.Set(sessionTokenKey, refreshed)
			if err := session.Save(); err != nil && a.logger != nil {
				a.logger.Warn("session refresh save failed", zap.Error(err))
			}
		}

		authRoute := path == "/login" || path == "/signup"

		if user == nil {
			if authRoute {
				c.Next()
				return
			}
			if strings.HasPrefix(path, "/api/") {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msgAuthRequired})
				return
			}
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}

		if authRoute {
			c.Redirect(http.StatusFound, "/posts")
			c.Abort()
			return
		}

		c.Set(contextUserKey, *user)
		c.Next()
	}
}

func currentUser(c *gin.Context) (service.SessionUser, bool) {
	value, exists := c.Get(contextUserKey)
	if !exists {
		return service.SessionUser{}, false
	}
	user, ok := value.(service.SessionUser)
	return user, ok
}
