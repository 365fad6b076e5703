package db

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// 文章状态枚举
const (
	StatusDraft     = "draft"
	StatusPrivate   = "private"
	StatusShareable = "shareable"
)

// ValidStatus 判断给定的状态是否属于合法枚举值。
func ValidStatus(status string) bool {
	switch status {
	case StatusDraft, StatusPrivate, StatusShareable:
		return true
	}
	return false
}

// Post 定义文章模型。slug 由标题派生并追加时间戳令牌,
// 软删除后行与版本历史保留, 但从所有查询路径排除。
type Post struct {
	ID             string                      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         string                      `gorm:"type:uuid;index;not null" json:"user_id"`
	Title          string                      `json:"title"`
	Content        string                      `gorm:"type:text" json:"content"`
	Slug           string                      `gorm:"index" json:"slug"`
	Status         string                      `gorm:"default:draft" json:"status"`
	Tags           datatypes.JSONSlice[string] `json:"tags"`
	Category       *string                     `json:"category"`
	ThumbnailURL   *string                     `json:"thumbnail_url"`
	QiitaURL       *string                     `json:"qiita_url"`
	QiitaArticleID *string                     `json:"qiita_article_id"`
	QiitaSyncedAt  *time.Time                  `json:"qiita_synced_at"`
	PublishedAt    *time.Time                  `json:"published_at"`
	CreatedAt      time.Time                   `json:"created_at"`
	UpdatedAt      time.Time                   `json:"updated_at"`
	DeletedAt      gorm.DeletedAt              `gorm:"index" json:"deleted_at"`
}

func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}
