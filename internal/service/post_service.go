package service

import (
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/kouheihayashi78/technical-blog-platform/internal/db"
)

var (
	ErrPostNotFound  = errors.New("post not found")
	ErrInvalidStatus = errors.New("invalid post status")
)

// DefaultPageSize 是文章列表的默认分页大小。
const DefaultPageSize = 12

// PostService wraps post lifecycle operations.
type PostService struct {
	db       *gorm.DB
	profiles *ProfileService
	versions *VersionService
	logger   *zap.Logger
}

// PostInput represents fields accepted when creating or updating a post.
// Tags 为表单提交的逗号分隔字符串。
type PostInput struct {
	Title    string
	Content  string
	Status   string
	Category string
	Tags     string
}

// PostFilter describes filters for listing posts.
type PostFilter struct {
	Status  string
	Tag     string
	Search  string
	Page    int
	PerPage int
}

// PostListResult aggregates a page of posts with pagination data.
type PostListResult struct {
	Posts   []db.Post
	Total   int64
	Page    int
	PerPage int
	HasMore bool
}

// NewPostService creates a PostService instance.
func NewPostService(gdb *gorm.DB, profiles *ProfileService, versions *VersionService, logger *zap.Logger) *PostService {
	return &PostService{db: gdb, profiles: profiles, versions: versions, logger: logger}
}

// Create 持久化一篇新文章并在同一事务内记录初始版本快照。
// 资料预置是尽力而为的前置检查, 失败时由文章插入自身的外键错误兜底。
func (s *PostService) Create(user SessionUser, input PostInput) (*db.Post, error) {
	s.profiles.EnsureProfile(user.ID, user.Email)

	status := strings.TrimSpace(input.Status)
	if status == "" {
		status = db.StatusDraft
	}
	if !db.ValidStatus(status) {
		return nil, ErrInvalidStatus
	}

	post := db.Post{
		UserID:      user.ID,
		Title:       input.Title,
		Content:     input.Content,
		Slug:        GenerateSlug(input.Title),
		Status:      status,
		Tags:        splitTags(input.Tags),
		Category:    normalizeCategory(input.Category),
		PublishedAt: publishedAtFor(status),
	}

	if err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&post).Error; err != nil {
			return err
		}
		_, err := s.versions.RecordTx(tx, post.ID, post.Title, post.Content)
		return err
	}); err != nil {
		return nil, err
	}

	return &post, nil
}

// Update 更新文章字段并追加新版本快照。归属在应用层再次断言,
// 他人的文章与不存在的文章不可区分。
func (s *PostService) Update(user SessionUser, postID string, input PostInput) (*db.Post, error) {
	s.profiles.EnsureProfile(user.ID, user.Email)

	status := strings.TrimSpace(input.Status)
	if !db.ValidStatus(status) {
		return nil, ErrInvalidStatus
	}

	updates := map[string]interface{}{
		"title":        input.Title,
		"content":      input.Content,
		"status":       status,
		"tags":         splitTags(input.Tags),
		"category":     normalizeCategory(input.Category),
		"published_at": publishedAtFor(status),
		"updated_at":   time.Now(),
	}

	var post db.Post
	if err := s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&db.Post{}).
			Where("id = ? AND user_id = ?", postID, user.ID).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrPostNotFound
		}

		if err := tx.Where("id = ?", postID).First(&post).Error; err != nil {
			return err
		}

		_, err := s.versions.RecordTx(tx, post.ID, post.Title, post.Content)
		return err
	}); err != nil {
		return nil, err
	}

	return &post, nil
}

// SoftDelete 以时间戳标记删除。行与版本历史保留, 查询路径全部排除。
func (s *PostService) SoftDelete(user SessionUser, postID string) error {
	result := s.db.Where("id = ? AND user_id = ?", postID, user.ID).Delete(&db.Post{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPostNotFound
	}
	return nil
}

// List 返回当前身份未删除文章的一页, 按创建时间降序。
// 未认证调用方收到空结果而不是错误。
func (s *PostService) List(userID string, filter PostFilter) (*PostListResult, error) {
	result := &PostListResult{Page: filter.Page, PerPage: filter.PerPage}
	if result.Page <= 0 {
		result.Page = 1
	}
	if result.PerPage <= 0 {
		result.PerPage = DefaultPageSize
	}

	if userID == "" {
		result.Posts = []db.Post{}
		return result, nil
	}

	query := s.applyFilters(s.db.Model(&db.Post{}).Where("user_id = ?", userID), filter)

	if err := query.Count(&result.Total).Error; err != nil {
		return nil, err
	}

	offset := (result.Page - 1) * result.PerPage
	if err := query.
		Order("created_at desc").
		Limit(result.PerPage).
		Offset(offset).
		Find(&result.Posts).Error; err != nil {
		return nil, err
	}

	result.HasMore = result.Total > int64(result.Page*result.PerPage)
	return result, nil
}

// GetBySlug 返回当前身份名下匹配 slug 的未删除文章。
// 未认证与未找到同样返回 nil, 调用方按"不存在"处理。
func (s *PostService) GetBySlug(userID, slug string) (*db.Post, error) {
	if userID == "" {
		return nil, nil
	}

	var post db.Post
	if err := s.db.Where("slug = ? AND user_id = ?", slug, userID).First(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &post, nil
}

// AllTags 汇总当前身份全部未删除文章的标签, 去重后按字典序返回。
func (s *PostService) AllTags(userID string) ([]string, error) {
	if userID == "" {
		return []string{}, nil
	}

	var rows []db.Post
	if err := s.db.Select("tags").Where("user_id = ?", userID).Find(&rows).Error; err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	tags := make([]string, 0)
	for _, row := range rows {
		for _, tag := range row.Tags {
			if _, ok := seen[tag]; ok {
				continue
			}
			seen[tag] = struct{}{}
			tags = append(tags, tag)
		}
	}

	sort.Strings(tags)
	return tags, nil
}

func (s *PostService) applyFilters(query *gorm.DB, filter PostFilter) *gorm.DB {
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	if filter.Tag != "" {
		// jsonb 包含查询只有 postgres 原生支持, 其余方言走 json_each
		if query.Dialector.Name() == "postgres" {
			needle, _ := json.Marshal([]string{filter.Tag})
			query = query.Where("tags @> ?", datatypes.JSON(needle))
		} else {
			query = query.Where(datatypes.JSONArrayQuery("tags").Contains(filter.Tag))
		}
	}

	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where(
			"LOWER(title) LIKE ? OR LOWER(content) LIKE ? OR LOWER(category) LIKE ?",
			pattern, pattern, pattern,
		)
	}

	return query
}

func publishedAtFor(status string) *time.Time {
	if status == db.StatusDraft {
		return nil
	}
	now := time.Now()
	return &now
}

func normalizeCategory(category string) *string {
	trimmed := strings.TrimSpace(category)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func splitTags(raw string) datatypes.JSONSlice[string] {
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		tags = append(tags, trimmed)
	}
	return datatypes.NewJSONSlice(tags)
}
