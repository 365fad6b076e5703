package router

import (
	"html/template"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"

	"github.com/kouheihayashi78/technical-blog-platform/internal/handler"
)

// Options 配置路由装配。TemplateGlob 为空时跳过模板加载, 供纯 API 测试使用。
type Options struct {
	SessionSecret string
	StaticDir     string
	TemplateGlob  string
}

// Setup 配置 Gin 引擎和路由。会话门卫先于所有业务路由执行。
func Setup(api *handler.API, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	secret := opts.SessionSecret
	if secret == "" {
		secret = "techblog-dev-secret"
	}
	store := cookie.NewStore([]byte(secret))
	r.Use(sessions.Sessions("techblog_session", store))

	r.SetFuncMap(template.FuncMap{
		"add": func(a, b int) int { return a + b },
		"sub": func(a, b int) int { return a - b },
	})
	if opts.TemplateGlob != "" {
		r.LoadHTMLGlob(opts.TemplateGlob)
	}

	if opts.StaticDir != "" {
		r.Static("/static", opts.StaticDir)
	}

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	r.Use(api.SessionGate())

	r.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/posts")
	})

	r.GET("/login", api.ShowLoginPage)
	r.POST("/login", api.Login)
	r.POST("/signup", api.Signup)
	r.POST("/logout", api.Logout)

	r.GET("/posts", api.ShowPostList)
	r.GET("/posts/new", api.ShowPostNew)
	r.POST("/posts", api.CreatePost)
	r.GET("/posts/:slug", api.ShowPostDetail)
	r.GET("/posts/:slug/edit", api.ShowPostEdit)
	r.POST("/posts/:id", api.UpdatePost)
	r.POST("/posts/:id/delete", api.DeletePost)
	r.GET("/settings", api.ShowSettings)

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/posts/:slug", api.GetPostAPI)
		apiGroup.GET("/posts/:slug/versions", api.ListVersionsAPI)
		apiGroup.POST("/posts/:id/sync", api.SyncQiitaAPI)
		apiGroup.GET("/tags", api.GetTagsAPI)
		apiGroup.GET("/profile", api.GetProfileAPI)
		apiGroup.PATCH("/profile", api.UpdateProfileAPI)
		apiGroup.POST("/preview", api.PreviewAPI)
		apiGroup.POST("/upload", api.UploadImage)
	}

	return r
}
