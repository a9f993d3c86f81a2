package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/chatvault/backend/internal/infrastructure/config"
	_ "modernc.org/sqlite"
)

// OpenDB 打开数据库连接
func OpenDB(dbPath string) (*sql.DB, error) {
	// 确保目录存在
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// 测试连接
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// ProvideDB 提供数据库连接
func ProvideDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	return OpenDB(cfg.Path)
}
