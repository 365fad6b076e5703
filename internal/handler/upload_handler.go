package handler

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "golang.org/x/image/webp"

	"github.com/kouheihayashi78/technical-blog-platform/internal/db"
)

// UploadImage 保存上传的图片, 探测尺寸后登记到 images 表。
func (a *API) UploadImage(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, msgAuthRequired)
		return
	}

	file, err := c.FormFile("image")
	if err != nil {
		respondError(c, http.StatusBadRequest, msgUploadMissing)
		return
	}

	contentType := file.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		respondError(c, http.StatusBadRequest, msgUploadNotImage)
		return
	}

	if err := os.MkdirAll(a.uploadDir, 0o755); err != nil {
		a.logger.Error("upload dir creation failed", zap.String("dir", a.uploadDir), zap.Error(err))
		respondError(c, http.StatusInternalServerError, msgUploadFailed)
		return
	}

	ext := filepath.Ext(file.Filename)
	fileName := fmt.Sprintf("%s-%s%s", time.Now().Format("20060102"), uuid.New().String(), ext)
	filePath := filepath.Join(a.uploadDir, fileName)

	if err := c.SaveUploadedFile(file, filePath); err != nil {
		a.logger.Error("upload save failed", zap.String("path", filePath), zap.Error(err))
		respondError(c, http.StatusInternalServerError, msgUploadFailed)
		return
	}

	width, height := probeImageSize(filePath)

	img := db.Image{
		UserID:    user.ID,
		FileName:  fileName,
		URL:       a.uploadURL + "/" + fileName,
		Width:     width,
		Height:    height,
		SizeBytes: file.Size,
	}
	if err := a.db.Create(&img).Error; err != nil {
		a.logger.Error("image record failed", zap.String("file", fileName), zap.Error(err))
		respondError(c, http.StatusInternalServerError, msgUploadFailed)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "url": img.URL, "image": img})
}

// 尺寸探测失败不阻断上传, 仅留下 0x0。
func probeImageSize(path string) (int, int) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0
	}
	return cfg.Width, cfg.Height
}
