package service

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kouheihayashi78/technical-blog-platform/internal/db"
)

// VersionService 在每次文章创建/更新时落一条不可变快照。
// 取号与写入走系统路径: 同一事务内先锁定文章行再计算 max+1,
// 并发编辑同一文章时在存储侧串行化, 保证版本号无空洞无重复。
type VersionService struct {
	db *gorm.DB
}

// NewVersionService creates a VersionService instance.
func NewVersionService(gdb *gorm.DB) *VersionService {
	return &VersionService{db: gdb}
}

// Record 为文章追加下一个版本快照。
func (s *VersionService) Record(postID, title, content string) (*db.PostVersion, error) {
	var version *db.PostVersion
	err := s.db.Transaction(func(tx *gorm.DB) error {
		v, err := s.RecordTx(tx, postID, title, content)
		if err != nil {
			return err
		}
		version = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return version, nil
}

// RecordTx 在调用方事务内追加版本快照, 供文章写路径复用同一事务。
func (s *VersionService) RecordTx(tx *gorm.DB, postID, title, content string) (*db.PostVersion, error) {
	lookup := tx.Unscoped().Select("id")
	// sqlite 在文件级串行化写入, 行锁只对 postgres 生效
	if tx.Dialector.Name() == "postgres" {
		lookup = lookup.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var post db.Post
	if err := lookup.Where("id = ?", postID).First(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}

	var latest int
	if err := tx.Model(&db.PostVersion{}).
		Where("post_id = ?", postID).
		Select("COALESCE(MAX(version_number), 0)").
		Scan(&latest).Error; err != nil {
		return nil, err
	}

	version := db.PostVersion{
		PostID:        postID,
		Title:         title,
		Content:       content,
		VersionNumber: latest + 1,
	}
	if err := tx.Create(&version).Error; err != nil {
		return nil, err
	}

	return &version, nil
}

// ListByPost 返回文章的全部版本, 按版本号升序。软删除的文章
// 其版本历史仍可读取, 但归属校验照常进行。
func (s *VersionService) ListByPost(userID, postID string) ([]db.PostVersion, error) {
	var post db.Post
	if err := s.db.Unscoped().Select("id").
		Where("id = ? AND user_id = ?", postID, userID).
		First(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}

	var versions []db.PostVersion
	if err := s.db.Where("post_id = ?", postID).
		Order("version_number asc").
		Find(&versions).Error; err != nil {
		return nil, err
	}
	return versions, nil
}
