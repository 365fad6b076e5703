package config

import (
	"fmt"
	"os"
	"strings"
)

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr     string
	Port           string
	DatabaseDriver string
	DatabaseDSN    string
	SessionSecret  string
	GinMode        string
	RedisAddr      string
	UploadDir      string
	UploadURLPath  string
	QiitaBaseURL   string
}

// Load 从环境变量读取应用配置，并为缺失项提供安全的默认值。
func Load() AppConfig {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	listenAddr := strings.TrimSpace(os.Getenv("LISTEN_ADDR"))
	if listenAddr == "" {
		listenAddr = fmt.Sprintf(":%s", port)
	}

	databaseDriver := strings.TrimSpace(os.Getenv("DATABASE_DRIVER"))
	if databaseDriver == "" {
		databaseDriver = "sqlite"
	}

	databaseDSN := strings.TrimSpace(os.Getenv("DATABASE_DSN"))
	if databaseDSN == "" && databaseDriver == "sqlite" {
		databaseDSN = "blog.db"
	}

	sessionSecret := strings.TrimSpace(os.Getenv("SESSION_SECRET"))
	if sessionSecret == "" {
		sessionSecret = "techblog-dev-secret"
	}

	ginMode := strings.TrimSpace(os.Getenv("GIN_MODE"))
	if ginMode == "" {
		ginMode = "release"
	}

	uploadDir := strings.TrimSpace(os.Getenv("UPLOAD_DIR"))
	if uploadDir == "" {
		uploadDir = "web/static/uploads"
	}

	uploadURLPath := strings.TrimSpace(os.Getenv("UPLOAD_URL_PATH"))
	if uploadURLPath == "" {
		uploadURLPath = "/static/uploads"
	}

	qiitaBaseURL := strings.TrimSpace(os.Getenv("QIITA_BASE_URL"))
	if qiitaBaseURL == "" {
		qiitaBaseURL = "https://qiita.com/api/v2"
	}

	return AppConfig{
		ListenAddr:     listenAddr,
		Port:           port,
		DatabaseDriver: databaseDriver,
		DatabaseDSN:    databaseDSN,
		SessionSecret:  sessionSecret,
		GinMode:        ginMode,
		RedisAddr:      strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		UploadDir:      uploadDir,
		UploadURLPath:  uploadURLPath,
		QiitaBaseURL:   qiitaBaseURL,
	}
}
