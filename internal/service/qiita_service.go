package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/kouheihayashi78/technical-blog-platform/internal/db"
)

var (
	ErrQiitaTokenMissing = errors.New("qiita access token is not configured")
	ErrQiitaDraftPost    = errors.New("draft posts cannot be synced to qiita")
)

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// QiitaService 把文章再发布到 Qiita。首次同步创建条目,
// 之后按记录的条目 ID 以 PATCH 覆盖, 成功后回写同步元数据。
type QiitaService struct {
	db      *gorm.DB
	http    httpDoer
	baseURL string
	logger  *zap.Logger
}

type qiitaTag struct {
	Name string `json:"name"`
}

type qiitaItemRequest struct {
	Title   string     `json:"title"`
	Body    string     `json:"body"`
	Private bool       `json:"private"`
	Tags    []qiitaTag `json:"tags"`
}

type qiitaItemResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// NewQiitaService creates a QiitaService instance.
func NewQiitaService(gdb *gorm.DB, baseURL string, logger *zap.Logger) *QiitaService {
	return &QiitaService{
		db:      gdb,
		http:    &http.Client{Timeout: 30 * time.Second},
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		logger:  logger,
	}
}

// SetHTTPClient 替换底层 HTTP 客户端, 供测试注入。
func (s *QiitaService) SetHTTPClient(client httpDoer) {
	if client == nil {
		s.http = &http.Client{Timeout: 30 * time.Second}
		return
	}
	s.http = client
}

// SetBaseURL 覆盖 Qiita API 地址, 供测试注入。
func (s *QiitaService) SetBaseURL(base string) {
	s.baseURL = strings.TrimRight(strings.TrimSpace(base), "/")
}

// Sync 将指定文章同步到 Qiita 并回写 qiita_url / qiita_article_id / qiita_synced_at。
func (s *QiitaService) Sync(ctx context.Context, user SessionUser, postID string) (*db.Post, error) {
	var post db.Post
	if err := s.db.Where("id = ? AND user_id = ?", postID, user.ID).First(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}

	if post.Status == db.StatusDraft {
		return nil, ErrQiitaDraftPost
	}

	var profile db.Profile
	if err := s.db.Where("id = ?", user.ID).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQiitaTokenMissing
		}
		return nil, err
	}
	token := strings.TrimSpace(profile.QiitaAccessToken)
	if token == "" {
		return nil, ErrQiitaTokenMissing
	}

	item, err := s.pushItem(ctx, token, &post)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	updates := map[string]interface{}{
		"qiita_url":        item.URL,
		"qiita_article_id": item.ID,
		"qiita_synced_at":  now,
	}
	if err := s.db.Model(&db.Post{}).Where("id = ?", post.ID).Updates(updates).Error; err != nil {
		return nil, err
	}

	post.QiitaURL = &item.URL
	post.QiitaArticleID = &item.ID
	post.QiitaSyncedAt = &now
	return &post, nil
}

func (s *QiitaService) pushItem(ctx context.Context, token string, post *db.Post) (*qiitaItemResponse, error) {
	tags := make([]qiitaTag, 0, len(post.Tags))
	for _, name := range post.Tags {
		tags = append(tags, qiitaTag{Name: name})
	}

	payload := qiitaItemRequest{
		Title:   post.Title,
		Body:    post.Content,
		Private: post.Status != db.StatusShareable,
		Tags:    tags,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	method := http.MethodPost
	endpoint := s.baseURL + "/items"
	if post.QiitaArticleID != nil && strings.TrimSpace(*post.QiitaArticleID) != "" {
		method = http.MethodPatch
		endpoint = endpoint + "/" + *post.QiitaArticleID
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("qiita request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		if s.logger != nil {
			s.logger.Error("qiita sync rejected",
				zap.String("post_id", post.ID),
				zap.Int("status", resp.StatusCode),
				zap.ByteString("body", raw))
		}
		return nil, fmt.Errorf("qiita responded with status %d", resp.StatusCode)
	}

	var item qiitaItemResponse
	if err := json.Unmarshal(raw, &item); err != nil {
		return nil, fmt.Errorf("decode qiita response: %w", err)
	}
	if item.ID == "" {
		return nil, errors.New("qiita response is missing an item id")
	}

	return &item, nil
}
