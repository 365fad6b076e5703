package main

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/kouheihayashi78/technical-blog-platform/internal/cache"
	"github.com/kouheihayashi78/technical-blog-platform/internal/config"
	"github.com/kouheihayashi78/technical-blog-platform/internal/db"
	"github.com/kouheihayashi78/technical-blog-platform/internal/handler"
	"github.com/kouheihayashi78/technical-blog-platform/internal/router"
)

func main() {
	// .env 不存在时静默跳过
	_ = godotenv.Load()

	cfg := config.Load()
	gin.SetMode(cfg.GinMode)

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	gdb, err := db.Open(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	}
	pageCache := cache.New(redisClient, 10*time.Minute, logger)

	api := handler.NewAPI(handler.Options{
		DB:            gdb,
		Logger:        logger,
		SessionSecret: cfg.SessionSecret,
		QiitaBaseURL:  cfg.QiitaBaseURL,
		PageCache:     pageCache,
		UploadDir:     cfg.UploadDir,
		UploadURLPath: cfg.UploadURLPath,
	})

	r := router.Setup(api, router.Options{
		SessionSecret: cfg.SessionSecret,
		StaticDir:     "./web/static",
		TemplateGlob:  "web/template/*.html",
	})

	if err := r.Run(cfg.ListenAddr); err != nil {
		logger.Fatal("failed to run server", zap.Error(err))
	}
}
