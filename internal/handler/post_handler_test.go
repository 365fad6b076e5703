package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/kouheihayashi78/technical-blog-platform/internal/db"
	"github.com/kouheihayashi78/technical-blog-platform/internal/service"
)

func newTestAPI(t *testing.T) (*API, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:handler-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	if err := gdb.AutoMigrate(&db.AuthUser{}, &db.Profile{}, &db.Post{}, &db.PostVersion{}, &db.Image{}); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}

	api := NewAPI(Options{
		DB:            gdb,
		Logger:        zap.NewNop(),
		SessionSecret: "test-secret",
		QiitaBaseURL:  "https://qiita.example/api/v2",
	})
	return api, gdb
}

func seedSessionUser(t *testing.T, gdb *gorm.DB, email string) service.SessionUser {
	t.Helper()
	user := db.AuthUser{Email: email, PasswordHash: "x"}
	if err := gdb.Create(&user).Error; err != nil {
		t.Fatalf("create auth user: %v", err)
	}
	return service.SessionUser{ID: user.ID, Email: user.Email}
}

// testContext 构造带身份的请求上下文, 模拟会话网关已放行。
func testContext(t *testing.T, user *service.SessionUser, method, target string, form url.Values) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var body *strings.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	} else {
		body = strings.NewReader("")
	}

	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	c.Request = req

	if user != nil {
		c.Set(contextUserKey, *user)
	}
	return c, w
}

func jsonContext(t *testing.T, user *service.SessionUser, method, target string, payload interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	req := httptest.NewRequest(method, target, strings.NewReader(string(raw)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	if user != nil {
		c.Set(contextUserKey, *user)
	}
	return c, w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return body
}

func TestCreatePost(t *testing.T) {
	api, gdb := newTestAPI(t)
	user := seedSessionUser(t, gdb, "author@example.com")

	c, w := testContext(t, &user, http.MethodPost, "/posts", url.Values{
		"title":   {"テスト記事"},
		"content": {"# Hello"},
		"status":  {"draft"},
		"tags":    {"go,web"},
	})
	api.CreatePost(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	body := decodeJSON(t, w)
	if body["success"] != true {
		t.Fatalf("expected success response, got %v", body)
	}
	slug, _ := body["slug"].(string)
	if slug == "" {
		t.Fatalf("expected slug in response")
	}

	var stored db.Post
	if err := gdb.Where("slug = ?", slug).First(&stored).Error; err != nil {
		t.Fatalf("post not persisted: %v", err)
	}
	if stored.UserID != user.ID {
		t.Fatalf("post attributed to wrong user")
	}
}

func TestCreatePostRequiresIdentity(t *testing.T) {
	api, _ := newTestAPI(t)

	c, w := testContext(t, nil, http.MethodPost, "/posts", url.Values{
		"title":   {"x"},
		"content": {"y"},
	})
	api.CreatePost(c)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	body := decodeJSON(t, w)
	if body["error"] != msgAuthRequired {
		t.Fatalf("expected %q, got %v", msgAuthRequired, body["error"])
	}
}

func TestCreatePostRejectsUnknownStatus(t *testing.T) {
	api, gdb := newTestAPI(t)
	user := seedSessionUser(t, gdb, "author@example.com")

	c, w := testContext(t, &user, http.MethodPost, "/posts", url.Values{
		"title":   {"x"},
		"content": {"y"},
		"status":  {"published"},
	})
	api.CreatePost(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	body := decodeJSON(t, w)
	if body["error"] != msgInvalidStatus {
		t.Fatalf("expected %q, got %v", msgInvalidStatus, body["error"])
	}
}

func TestUpdatePostForeignOwnerIsNotFound(t *testing.T) {
	api, gdb := newTestAPI(t)
	owner := seedSessionUser(t, gdb, "owner@example.com")
	other := seedSessionUser(t, gdb, "other@example.com")

	post, err := api.posts.Create(owner, service.PostInput{Title: "記事", Content: "body"})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}

	c, w := testContext(t, &other, http.MethodPost, "/posts/"+post.ID, url.Values{
		"title":   {"乗っ取り"},
		"content": {"x"},
		"status":  {"draft"},
	})
	c.Params = gin.Params{{Key: "id", Value: post.ID}}
	api.UpdatePost(c)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	body := decodeJSON(t, w)
	if body["error"] != msgPostNotFound {
		t.Fatalf("expected %q, got %v", msgPostNotFound, body["error"])
	}
}

func TestDeletePost(t *testing.T) {
	api, gdb := newTestAPI(t)
	user := seedSessionUser(t, gdb, "author@example.com")

	post, err := api.posts.Create(user, service.PostInput{Title: "消える記事", Content: "body"})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}

	c, w := testContext(t, &user, http.MethodPost, "/posts/"+post.ID+"/delete", nil)
	c.Params = gin.Params{{Key: "id", Value: post.ID}}
	api.DeletePost(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	// 重复删除返回 404
	c, w = testContext(t, &user, http.MethodPost, "/posts/"+post.ID+"/delete", nil)
	c.Params = gin.Params{{Key: "id", Value: post.ID}}
	api.DeletePost(c)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on double delete, got %d", w.Code)
	}
}

func TestGetPostAPI(t *testing.T) {
	api, gdb := newTestAPI(t)
	user := seedSessionUser(t, gdb, "author@example.com")

	post, err := api.posts.Create(user, service.PostInput{Title: "記事", Content: "body"})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}

	c, w := testContext(t, &user, http.MethodGet, "/api/posts/"+post.Slug, nil)
	c.Params = gin.Params{{Key: "slug", Value: post.Slug}}
	api.GetPostAPI(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := decodeJSON(t, w)
	if body["title"] != "記事" {
		t.Fatalf("unexpected payload: %v", body)
	}

	c, w = testContext(t, &user, http.MethodGet, "/api/posts/missing", nil)
	c.Params = gin.Params{{Key: "slug", Value: "missing"}}
	api.GetPostAPI(c)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown slug, got %d", w.Code)
	}
}

func TestListVersionsAPI(t *testing.T) {
	api, gdb := newTestAPI(t)
	user := seedSessionUser(t, gdb, "author@example.com")

	post, err := api.posts.Create(user, service.PostInput{Title: "記事", Content: "v1"})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	if _, err := api.posts.Update(user, post.ID, service.PostInput{Title: "記事", Content: "v2", Status: db.StatusDraft}); err != nil {
		t.Fatalf("update post: %v", err)
	}

	c, w := testContext(t, &user, http.MethodGet, "/api/posts/"+post.Slug+"/versions", nil)
	c.Params = gin.Params{{Key: "slug", Value: post.Slug}}
	api.ListVersionsAPI(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := decodeJSON(t, w)
	versions, ok := body["versions"].([]interface{})
	if !ok || len(versions) != 2 {
		t.Fatalf("expected 2 versions, got %v", body["versions"])
	}
}

func TestGetProfileAPIProvisions(t *testing.T) {
	api, gdb := newTestAPI(t)
	user := seedSessionUser(t, gdb, "yamada@example.com")

	c, w := testContext(t, &user, http.MethodGet, "/api/profile", nil)
	api.GetProfileAPI(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := decodeJSON(t, w)
	if body["display_name"] != "yamada" {
		t.Fatalf("expected auto-provisioned profile, got %v", body)
	}

	var profile db.Profile
	if err := gdb.Where("id = ?", user.ID).First(&profile).Error; err != nil {
		t.Fatalf("profile row missing: %v", err)
	}
}

func TestUpdateProfileAPI(t *testing.T) {
	api, gdb := newTestAPI(t)
	user := seedSessionUser(t, gdb, "yamada@example.com")

	username := "yamada_dev"
	c, w := jsonContext(t, &user, http.MethodPatch, "/api/profile", map[string]interface{}{
		"display_name":       "山田",
		"username":           username,
		"qiita_access_token": "tok-1",
	})
	api.UpdateProfileAPI(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	body := decodeJSON(t, w)
	if body["display_name"] != "山田" || body["username"] != username {
		t.Fatalf("unexpected payload: %v", body)
	}
	// 令牌不出现在响应中
	if _, exists := body["qiita_access_token"]; exists {
		t.Fatalf("qiita token leaked in response")
	}

	var profile db.Profile
	if err := gdb.Where("id = ?", user.ID).First(&profile).Error; err != nil {
		t.Fatalf("profile row missing: %v", err)
	}
	if profile.QiitaAccessToken != "tok-1" {
		t.Fatalf("token not stored")
	}
}

func TestGetTagsAPI(t *testing.T) {
	api, gdb := newTestAPI(t)
	user := seedSessionUser(t, gdb, "author@example.com")

	if _, err := api.posts.Create(user, service.PostInput{Title: "a", Content: "x", Tags: "go,web"}); err != nil {
		t.Fatalf("create post: %v", err)
	}

	c, w := testContext(t, &user, http.MethodGet, "/api/tags", nil)
	api.GetTagsAPI(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := decodeJSON(t, w)
	tags, ok := body["tags"].([]interface{})
	if !ok || len(tags) != 2 {
		t.Fatalf("expected 2 tags, got %v", body["tags"])
	}
}

func TestPreviewAPI(t *testing.T) {
	api, gdb := newTestAPI(t)
	user := seedSessionUser(t, gdb, "author@example.com")

	c, w := jsonContext(t, &user, http.MethodPost, "/api/preview", map[string]string{
		"content": "# 見出し\n<script>alert(1)</script>",
	})
	api.PreviewAPI(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := decodeJSON(t, w)
	html, _ := body["html"].(string)
	if !strings.Contains(html, "<h1") || !strings.Contains(html, "見出し") {
		t.Fatalf("markdown not rendered: %q", html)
	}
	if strings.Contains(html, "<script>") {
		t.Fatalf("raw html not sanitized: %q", html)
	}
}

func TestSyncQiitaAPIDraftRejected(t *testing.T) {
	api, gdb := newTestAPI(t)
	user := seedSessionUser(t, gdb, "author@example.com")

	post, err := api.posts.Create(user, service.PostInput{Title: "下書き", Content: "body"})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}

	c, w := testContext(t, &user, http.MethodPost, "/api/posts/"+post.ID+"/sync", nil)
	c.Params = gin.Params{{Key: "id", Value: post.ID}}
	api.SyncQiitaAPI(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	body := decodeJSON(t, w)
	if body["error"] != msgQiitaDraftPost {
		t.Fatalf("expected %q, got %v", msgQiitaDraftPost, body["error"])
	}
}
