package db

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open 根据驱动配置建立数据库连接并执行自动迁移。
// driver 支持 "postgres" 与 "sqlite"，dsn 为空时 sqlite 回退到默认文件。
func Open(driver, dsn string) (*gorm.DB, error) {
	gdb, err := openDialect(driver, dsn)
	if err != nil {
		return nil, err
	}

	if err := gdb.AutoMigrate(
		&AuthUser{},
		&Profile{},
		&Post{},
		&PostVersion{},
		&Image{},
	); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	return gdb, nil
}

func openDialect(driver, dsn string) (*gorm.DB, error) {
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)}

	switch strings.TrimSpace(driver) {
	case "", "sqlite":
		path := strings.TrimSpace(dsn)
		if path == "" {
			path = "blog.db"
		}
		if err := ensureParentDir(path); err != nil {
			return nil, err
		}
		return gorm.Open(sqlite.Open(path), cfg)
	case "postgres":
		if strings.TrimSpace(dsn) == "" {
			return nil, errors.New("postgres driver requires a DSN")
		}
		return gorm.Open(postgres.Open(dsn), cfg)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}

	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return errors.New("database path parent is not a directory")
		}
		return nil
	}

	if os.IsNotExist(err) {
		return os.MkdirAll(dir, 0o755)
	}

	return err
}
