package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kouheihayashi78/technical-blog-platform/internal/service"
)

// ShowSettings 渲染设置页面, 资料缺失时先行补建。
func (a *API) ShowSettings(c *gin.Context) {
	user, _ := currentUser(c)

	a.profiles.EnsureProfile(user.ID, user.Email)

	profile, err := a.profiles.Get(user.ID)
	if err != nil && !errors.Is(err, service.ErrProfileNotFound) {
		a.logger.Error("profile fetch failed", zap.String("user_id", user.ID), zap.Error(err))
		c.HTML(http.StatusInternalServerError, "settings.html", gin.H{
			"title":       "設定",
			"error":       msgProfileFetchFailed,
			"displayName": "",
			"username":    "",
			"email":       user.Email,
			"year":        time.Now().Year(),
		})
		return
	}

	displayName := ""
	username := ""
	if profile != nil {
		displayName = profile.DisplayName
		username = strOrEmpty(profile.Username)
	}

	c.HTML(http.StatusOK, "settings.html", gin.H{
		"title":       "設定",
		"displayName": displayName,
		"username":    username,
		"email":       user.Email,
		"year":        time.Now().Year(),
	})
}
