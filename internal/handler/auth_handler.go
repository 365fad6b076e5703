package handler

import (
	"errors"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kouheihayashi78/technical-blog-platform/internal/service"
)

// ShowLoginPage 渲染登录页面
func (a *API) ShowLoginPage(c *gin.Context) {
	c.HTML(http.StatusOK, "login.html", gin.H{
		"title": "ログイン",
	})
}

// Login 处理登录表单, 成功后把访问令牌写入会话并跳转文章列表。
func (a *API) Login(c *gin.Context) {
	email := c.PostForm("email")
	password := c.PostForm("password")

	user, token, err := a.auth.SignIn(email, password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.HTML(http.StatusUnauthorized, "login.html", gin.H{"error": msgLoginFailed, "email": email})
			return
		}
		a.logger.Error("sign in failed", zap.Error(err))
		c.HTML(http.StatusInternalServerError, "login.html", gin.H{"error": msgLoginFailed, "email": email})
		return
	}

	a.profiles.EnsureProfile(user.ID, user.Email)

	if err := a.saveSessionToken(c, token); err != nil {
		a.logger.Error("session save failed", zap.Error(err))
		c.HTML(http.StatusInternalServerError, "login.html", gin.H{"error": msgSessionSaveFailed, "email": email})
		return
	}

	c.Redirect(http.StatusFound, "/posts")
}

// Signup 注册新账号, 注册即登录。
func (a *API) Signup(c *gin.Context) {
	email := c.PostForm("email")
	password := c.PostForm("password")

	user, token, err := a.auth.SignUp(email, password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPasswordTooShort):
			c.HTML(http.StatusBadRequest, "login.html", gin.H{"error": msgPasswordTooShort, "email": email})
		case errors.Is(err, service.ErrEmailTaken):
			c.HTML(http.StatusBadRequest, "login.html", gin.H{"error": msgEmailTaken, "email": email})
		default:
			a.logger.Error("sign up failed", zap.Error(err))
			c.HTML(http.StatusInternalServerError, "login.html", gin.H{"error": msgLoginFailed, "email": email})
		}
		return
	}

	a.profiles.EnsureProfile(user.ID, user.Email)

	if err := a.saveSessionToken(c, token); err != nil {
		a.logger.Error("session save failed", zap.Error(err))
		c.HTML(http.StatusInternalServerError, "login.html", gin.H{"error": msgSessionSaveFailed, "email": email})
		return
	}

	c.Redirect(http.StatusFound, "/posts")
}

// Logout 清空会话并跳回登录页。
func (a *API) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil && a.logger != nil {
		a.logger.Warn("session clear failed", zap.Error(err))
	}
	c.Redirect(http.StatusFound, "/login")
}

func (a *API) saveSessionToken(c *gin.Context, token string) error {
	session := sessions.Default(c)
	session.Set(sessionTokenKey, token)
	return session.Save()
}
