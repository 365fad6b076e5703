package handler

import (
	"bytes"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/kouheihayashi78/technical-blog-platform/internal/db"
)

func multipartImageRequest(t *testing.T, fieldName, fileName, contentType string, payload []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="`+fieldName+`"; filename="`+fileName+`"`)
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(payload); err != nil {
		t.Fatalf("write part: %v", err)
	}
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func encodePNG(t *testing.T, width, height int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, width, height))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestUploadImage(t *testing.T) {
	api, gdb := newTestAPI(t)
	api.uploadDir = t.TempDir()
	api.uploadURL = "/static/uploads"
	user := seedSessionUser(t, gdb, "author@example.com")

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = multipartImageRequest(t, "image", "photo.png", "image/png", encodePNG(t, 32, 16))
	c.Set(contextUserKey, user)

	api.UploadImage(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	body := decodeJSON(t, w)
	if body["success"] != true {
		t.Fatalf("expected success, got %v", body)
	}
	uploadedURL, _ := body["url"].(string)
	if !strings.HasPrefix(uploadedURL, "/static/uploads/") {
		t.Fatalf("unexpected url %q", uploadedURL)
	}
	if filepath.Ext(uploadedURL) != ".png" {
		t.Fatalf("expected preserved extension, got %q", uploadedURL)
	}

	var record db.Image
	if err := gdb.Where("user_id = ?", user.ID).First(&record).Error; err != nil {
		t.Fatalf("image row missing: %v", err)
	}
	if record.Width != 32 || record.Height != 16 {
		t.Fatalf("dimensions not probed: %dx%d", record.Width, record.Height)
	}
	if record.SizeBytes == 0 {
		t.Fatalf("size not recorded")
	}
}

func TestUploadImageRejectsNonImage(t *testing.T) {
	api, gdb := newTestAPI(t)
	api.uploadDir = t.TempDir()
	user := seedSessionUser(t, gdb, "author@example.com")

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = multipartImageRequest(t, "image", "notes.txt", "text/plain", []byte("plain text"))
	c.Set(contextUserKey, user)

	api.UploadImage(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	body := decodeJSON(t, w)
	if body["error"] != msgUploadNotImage {
		t.Fatalf("expected %q, got %v", msgUploadNotImage, body["error"])
	}
}

func TestUploadImageRequiresFile(t *testing.T) {
	api, gdb := newTestAPI(t)
	user := seedSessionUser(t, gdb, "author@example.com")

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req := httptest.NewRequest(http.MethodPost, "/api/upload", strings.NewReader(""))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	c.Request = req
	c.Set(contextUserKey, user)

	api.UploadImage(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}
