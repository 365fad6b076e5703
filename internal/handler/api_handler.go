package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kouheihayashi78/technical-blog-platform/internal/service"
)

// GetPostAPI 返回单篇文章的 JSON 表示。
func (a *API) GetPostAPI(c *gin.Context) {
	user, _ := currentUser(c)
	slug := c.Param("slug")

	post, err := a.posts.GetBySlug(user.ID, slug)
	if err != nil {
		a.logger.Error("post fetch failed", zap.String("slug", slug), zap.Error(err))
		respondError(c, http.StatusInternalServerError, msgPostFetchFailed)
		return
	}
	if post == nil {
		respondError(c, http.StatusNotFound, msgPostNotFound)
		return
	}

	c.JSON(http.StatusOK, post)
}

// ListVersionsAPI 返回文章的版本历史, 按版本号升序。
func (a *API) ListVersionsAPI(c *gin.Context) {
	user, _ := currentUser(c)
	slug := c.Param("slug")

	post, err := a.posts.GetBySlug(user.ID, slug)
	if err != nil {
		a.logger.Error("post fetch failed", zap.String("slug", slug), zap.Error(err))
		respondError(c, http.StatusInternalServerError, msgVersionFetchFailed)
		return
	}
	if post == nil {
		respondError(c, http.StatusNotFound, msgPostNotFound)
		return
	}

	versions, err := a.versions.ListByPost(user.ID, post.ID)
	if err != nil {
		a.logger.Error("version list failed", zap.String("post_id", post.ID), zap.Error(err))
		respondError(c, http.StatusInternalServerError, msgVersionFetchFailed)
		return
	}

	c.JSON(http.StatusOK, gin.H{"versions": versions})
}

// GetTagsAPI 返回当前用户所有未删除文章的标签集合。
func (a *API) GetTagsAPI(c *gin.Context) {
	user, _ := currentUser(c)

	tags, err := a.posts.AllTags(user.ID)
	if err != nil {
		a.logger.Error("tag aggregation failed", zap.String("user_id", user.ID), zap.Error(err))
		respondError(c, http.StatusInternalServerError, msgPostFetchFailed)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tags": tags})
}

// GetProfileAPI 返回当前用户的资料, 缺失时先行补建, 仍无则返回空对象。
func (a *API) GetProfileAPI(c *gin.Context) {
	user, _ := currentUser(c)

	a.profiles.EnsureProfile(user.ID, user.Email)

	profile, err := a.profiles.Get(user.ID)
	if err != nil {
		if errors.Is(err, service.ErrProfileNotFound) {
			c.JSON(http.StatusOK, gin.H{})
			return
		}
		a.logger.Error("profile fetch failed", zap.String("user_id", user.ID), zap.Error(err))
		respondError(c, http.StatusInternalServerError, msgProfileFetchFailed)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// UpdateProfileAPI 更新显示名、用户名与 Qiita アクセストークン。
func (a *API) UpdateProfileAPI(c *gin.Context) {
	user, _ := currentUser(c)

	var body struct {
		DisplayName      string  `json:"display_name"`
		Username         *string `json:"username"`
		QiitaAccessToken string  `json:"qiita_access_token"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, msgProfileUpdateFailed)
		return
	}

	a.profiles.EnsureProfile(user.ID, user.Email)

	profile, err := a.profiles.Update(user.ID, service.ProfileUpdateInput{
		DisplayName:      body.DisplayName,
		Username:         body.Username,
		QiitaAccessToken: body.QiitaAccessToken,
	})
	if err != nil {
		a.logger.Error("profile update failed", zap.String("user_id", user.ID), zap.Error(err))
		respondError(c, http.StatusInternalServerError, msgProfileUpdateFailed)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// SyncQiitaAPI 把文章再发布到 Qiita。
func (a *API) SyncQiitaAPI(c *gin.Context) {
	user, _ := currentUser(c)
	postID := c.Param("id")

	post, err := a.qiita.Sync(c.Request.Context(), user, postID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPostNotFound):
			respondError(c, http.StatusNotFound, msgPostNotFound)
		case errors.Is(err, service.ErrQiitaDraftPost):
			respondError(c, http.StatusBadRequest, msgQiitaDraftPost)
		case errors.Is(err, service.ErrQiitaTokenMissing):
			respondError(c, http.StatusBadRequest, msgQiitaTokenMissing)
		default:
			a.logger.Error("qiita sync failed", zap.String("post_id", postID), zap.Error(err))
			respondError(c, http.StatusInternalServerError, msgQiitaSyncFailed)
		}
		return
	}

	c.JSON(http.StatusOK, post)
}

// PreviewAPI 把 Markdown 渲染为净化后的 HTML, 供编辑器预览。
func (a *API) PreviewAPI(c *gin.Context) {
	var body struct {
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, msgPreviewFailed)
		return
	}

	html, err := service.RenderMarkdown(body.Content)
	if err != nil {
		a.logger.Error("markdown render failed", zap.Error(err))
		respondError(c, http.StatusInternalServerError, msgPreviewFailed)
		return
	}

	c.JSON(http.StatusOK, gin.H{"html": string(html)})
}
