package db

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuthUser 是身份提供方的账号记录，应用数据通过 Profile 关联它。
type AuthUser struct {
	ID           string `gorm:"type:uuid;primaryKey"`
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (u *AuthUser) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return nil
}

func (AuthUser) TableName() string {
	return "auth_users"
}
