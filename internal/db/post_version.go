package db

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PostVersion 记录文章标题与正文的不可变快照。
// 同一文章的版本号从 1 开始单调递增且无空洞, 行创建后不再修改或删除。
type PostVersion struct {
	ID            string    `gorm:"type:uuid;primaryKey" json:"id"`
	PostID        string    `gorm:"type:uuid;index;not null" json:"post_id"`
	Title         string    `json:"title"`
	Content       string    `gorm:"type:text" json:"content"`
	VersionNumber int       `gorm:"not null" json:"version_number"`
	CreatedAt     time.Time `json:"created_at"`
}

func (v *PostVersion) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	return nil
}

func (PostVersion) TableName() string {
	return "post_versions"
}
