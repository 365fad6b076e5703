package db

import "time"

// Profile 定义用户资料模型，主键与认证账号 ID 一致，每个账号恰好一条。
// 首次认证访问时若缺失则自动补建。
type Profile struct {
	ID               string    `gorm:"type:uuid;primaryKey" json:"id"`
	Username         *string   `gorm:"uniqueIndex" json:"username"`
	DisplayName      string    `json:"display_name"`
	AvatarURL        string    `json:"avatar_url"`
	QiitaAccessToken string    `json:"-"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
