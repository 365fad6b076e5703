package handler

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/kouheihayashi78/technical-blog-platform/internal/cache"
	"github.com/kouheihayashi78/technical-blog-platform/internal/service"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db        *gorm.DB
	logger    *zap.Logger
	auth      *service.AuthService
	profiles  *service.ProfileService
	posts     *service.PostService
	versions  *service.VersionService
	qiita     *service.QiitaService
	pages     *cache.PageCache
	uploadDir string
	uploadURL string
}

// Options 汇总构建 API 所需的外部依赖。
type Options struct {
	DB            *gorm.DB
	Logger        *zap.Logger
	SessionSecret string
	QiitaBaseURL  string
	PageCache     *cache.PageCache
	UploadDir     string
	UploadURLPath string
}

// NewAPI constructs a handler set with shared services.
func NewAPI(opts Options) *API {
	profiles := service.NewProfileService(opts.DB, opts.Logger)
	versions := service.NewVersionService(opts.DB)

	return &API{
		db:        opts.DB,
		logger:    opts.Logger,
		auth:      service.NewAuthService(opts.DB, opts.SessionSecret, opts.Logger),
		profiles:  profiles,
		posts:     service.NewPostService(opts.DB, profiles, versions, opts.Logger),
		versions:  versions,
		qiita:     service.NewQiitaService(opts.DB, opts.QiitaBaseURL, opts.Logger),
		pages:     opts.PageCache,
		uploadDir: opts.UploadDir,
		uploadURL: opts.UploadURLPath,
	}
}
