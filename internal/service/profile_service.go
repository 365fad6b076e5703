package service

import (
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kouheihayashi78/technical-blog-platform/internal/db"
)

var ErrProfileNotFound = errors.New("profile not found")

// EnsureOutcome 描述一次资料预置检查的结果。
type EnsureOutcome int

const (
	// ProfileSatisfied 资料行已存在
	ProfileSatisfied EnsureOutcome = iota
	// ProfileCreated 资料行缺失且本次补建成功
	ProfileCreated
	// ProfileUnavailable 检查或补建失败, 调用方继续执行,
	// 依赖该行的后续写入会在外键处失败并如实上报
	ProfileUnavailable
)

// ProfileService 维护用户资料行。补建走系统路径, 不受调用身份的行级约束。
type ProfileService struct {
	db     *gorm.DB
	logger *zap.Logger
}

// ProfileUpdateInput 描述设置页可修改的字段。
type ProfileUpdateInput struct {
	DisplayName      string
	Username         *string
	QiitaAccessToken string
}

// NewProfileService creates a ProfileService instance.
func NewProfileService(gdb *gorm.DB, logger *zap.Logger) *ProfileService {
	return &ProfileService{db: gdb, logger: logger}
}

// EnsureProfile 幂等地确保给定身份的资料行存在, 缺失时以邮箱
// 本地部分作为默认显示名补建。失败只记录日志, 不阻断调用方。
func (s *ProfileService) EnsureProfile(userID, email string) EnsureOutcome {
	var existing db.Profile
	err := s.db.Select("id").Where("id = ?", userID).First(&existing).Error
	if err == nil {
		return ProfileSatisfied
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		if s.logger != nil {
			s.logger.Error("profile existence check failed", zap.String("user_id", userID), zap.Error(err))
		}
		return ProfileUnavailable
	}

	profile := db.Profile{
		ID:          userID,
		DisplayName: defaultDisplayName(email),
	}

	// 并发补建时后到者静默让位
	if err := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&profile).Error; err != nil {
		if s.logger != nil {
			s.logger.Error("profile provisioning failed", zap.String("user_id", userID), zap.Error(err))
		}
		return ProfileUnavailable
	}

	if s.logger != nil {
		s.logger.Info("profile provisioned", zap.String("user_id", userID))
	}
	return ProfileCreated
}

// Get 返回指定身份的资料行。
func (s *ProfileService) Get(userID string) (*db.Profile, error) {
	var profile db.Profile
	if err := s.db.Where("id = ?", userID).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return &profile, nil
}

// Update 更新显示名、用户名与 Qiita 访问令牌。
func (s *ProfileService) Update(userID string, input ProfileUpdateInput) (*db.Profile, error) {
	updates := map[string]interface{}{
		"display_name":       strings.TrimSpace(input.DisplayName),
		"username":           input.Username,
		"qiita_access_token": strings.TrimSpace(input.QiitaAccessToken),
	}

	result := s.db.Model(&db.Profile{}).Where("id = ?", userID).Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrProfileNotFound
	}

	return s.Get(userID)
}

func defaultDisplayName(email string) string {
	if i := strings.Index(email, "@"); i >= 0 {
		return email[:i]
	}
	return email
}
