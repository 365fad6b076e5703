package handler

import (
	"errors"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kouheihayashi78/technical-blog-platform/internal/db"
	"github.com/kouheihayashi78/technical-blog-platform/internal/service"
)

type postCard struct {
	Post    db.Post
	Excerpt string
}

// ShowPostList 渲染文章列表页, 支持状态/标签/检索过滤与分页。
func (a *API) ShowPostList(c *gin.Context) {
	user, _ := currentUser(c)

	filter := service.PostFilter{
		Status: c.Query("status"),
		Tag:    c.Query("tag"),
		Search: c.Query("search"),
		Page:   parsePositiveInt(c.DefaultQuery("page", "1"), 1),
	}

	list, err := a.posts.List(user.ID, filter)
	if err != nil {
		a.logger.Error("post list failed", zap.String("user_id", user.ID), zap.Error(err))
		c.HTML(http.StatusInternalServerError, "posts.html", gin.H{
			"title":   "記事一覧",
			"error":   msgPostFetchFailed,
			"posts":   []postCard{},
			"tags":    []string{},
			"status":  filter.Status,
			"tag":     filter.Tag,
			"search":  filter.Search,
			"page":    filter.Page,
			"hasMore": false,
			"total":   0,
			"year":    time.Now().Year(),
		})
		return
	}

	tags, err := a.posts.AllTags(user.ID)
	if err != nil {
		a.logger.Error("tag aggregation failed", zap.String("user_id", user.ID), zap.Error(err))
		tags = []string{}
	}

	cards := make([]postCard, 0, len(list.Posts))
	for _, post := range list.Posts {
		cards = append(cards, postCard{
			Post:    post,
			Excerpt: service.ExtractExcerpt(post.Content, service.DefaultExcerptLength),
		})
	}

	c.HTML(http.StatusOK, "posts.html", gin.H{
		"title":   "記事一覧",
		"posts":   cards,
		"total":   list.Total,
		"page":    list.Page,
		"perPage": list.PerPage,
		"hasMore": list.HasMore,
		"tags":    tags,
		"status":  filter.Status,
		"tag":     filter.Tag,
		"search":  filter.Search,
		"year":    time.Now().Year(),
	})
}

// ShowPostNew 渲染新建文章表单。
func (a *API) ShowPostNew(c *gin.Context) {
	c.HTML(http.StatusOK, "post_form.html", gin.H{
		"title":    "新規記事",
		"category": "",
		"tagsCSV":  "",
		"year":     time.Now().Year(),
	})
}

// ShowPostDetail 渲染文章详情页。未找到与未认证同样显示 404 视图。
func (a *API) ShowPostDetail(c *gin.Context) {
	user, _ := currentUser(c)
	slug := c.Param("slug")

	post, err := a.posts.GetBySlug(user.ID, slug)
	if err != nil {
		a.logger.Error("post fetch failed", zap.String("slug", slug), zap.Error(err))
	}
	if post == nil {
		c.HTML(http.StatusNotFound, "not_found.html", gin.H{
			"title": "記事が見つかりません",
			"year":  time.Now().Year(),
		})
		return
	}

	cachePath := "/posts/" + post.Slug
	body, ok := a.pages.Get(c.Request.Context(), cachePath)
	if !ok {
		rendered, err := service.RenderMarkdown(post.Content)
		if err != nil {
			a.logger.Error("markdown render failed", zap.String("slug", slug), zap.Error(err))
		}
		body = string(rendered)
		a.pages.Set(c.Request.Context(), cachePath, body)
	}

	versions, err := a.versions.ListByPost(user.ID, post.ID)
	if err != nil {
		a.logger.Error("version list failed", zap.String("post_id", post.ID), zap.Error(err))
	}

	c.HTML(http.StatusOK, "post_detail.html", gin.H{
		"title":    post.Title,
		"post":     post,
		"body":     template.HTML(body),
		"versions": versions,
		"year":     time.Now().Year(),
	})
}

// ShowPostEdit 渲染编辑表单。
func (a *API) ShowPostEdit(c *gin.Context) {
	user, _ := currentUser(c)
	slug := c.Param("slug")

	post, err := a.posts.GetBySlug(user.ID, slug)
	if err != nil {
		a.logger.Error("post fetch failed", zap.String("slug", slug), zap.Error(err))
	}
	if post == nil {
		c.HTML(http.StatusNotFound, "not_found.html", gin.H{
			"title": "記事が見つかりません",
			"year":  time.Now().Year(),
		})
		return
	}

	c.HTML(http.StatusOK, "post_form.html", gin.H{
		"title":    "記事を編集",
		"post":     post,
		"category": strOrEmpty(post.Category),
		"tagsCSV":  strings.Join(post.Tags, ","),
		"year":     time.Now().Year(),
	})
}

// CreatePost 处理新建表单提交, 按成功/失败对象约定返回 JSON。
func (a *API) CreatePost(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, msgAuthRequired)
		return
	}

	post, err := a.posts.Create(user, postInputFromForm(c))
	if err != nil {
		if errors.Is(err, service.ErrInvalidStatus) {
			respondError(c, http.StatusBadRequest, msgInvalidStatus)
			return
		}
		a.logger.Error("post creation failed", zap.String("user_id", user.ID), zap.Error(err))
		respondError(c, http.StatusInternalServerError, msgPostCreateFailed)
		return
	}

	a.pages.Invalidate(c.Request.Context(), "/posts")

	c.JSON(http.StatusOK, gin.H{"success": true, "slug": post.Slug})
}

// UpdatePost 处理编辑表单提交。
func (a *API) UpdatePost(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, msgAuthRequired)
		return
	}

	postID := c.Param("id")
	post, err := a.posts.Update(user, postID, postInputFromForm(c))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPostNotFound):
			respondError(c, http.StatusNotFound, msgPostNotFound)
		case errors.Is(err, service.ErrInvalidStatus):
			respondError(c, http.StatusBadRequest, msgInvalidStatus)
		default:
			a.logger.Error("post update failed", zap.String("post_id", postID), zap.Error(err))
			respondError(c, http.StatusInternalServerError, msgPostUpdateFailed)
		}
		return
	}

	a.pages.Invalidate(c.Request.Context(), "/posts", "/posts/"+post.Slug)

	c.JSON(http.StatusOK, gin.H{"success": true, "slug": post.Slug})
}

// DeletePost 软删除文章。
func (a *API) DeletePost(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, msgAuthRequired)
		return
	}

	postID := c.Param("id")
	if err := a.posts.SoftDelete(user, postID); err != nil {
		if errors.Is(err, service.ErrPostNotFound) {
			respondError(c, http.StatusNotFound, msgPostNotFound)
			return
		}
		a.logger.Error("post deletion failed", zap.String("post_id", postID), zap.Error(err))
		respondError(c, http.StatusInternalServerError, msgPostDeleteFailed)
		return
	}

	a.pages.Invalidate(c.Request.Context(), "/posts")

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func postInputFromForm(c *gin.Context) service.PostInput {
	return service.PostInput{
		Title:    c.PostForm("title"),
		Content:  c.PostForm("content"),
		Status:   c.PostForm("status"),
		Category: c.PostForm("category"),
		Tags:     c.PostForm("tags"),
	}
}
