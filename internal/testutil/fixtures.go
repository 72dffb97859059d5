package testutil

import (
	"path/filepath"
	"testing"

	"gorm.io/gorm"

	"github.com/ashwinyue/llm-drift/internal/config"
	"github.com/ashwinyue/llm-drift/internal/database"
)

// NewTestDB 创建临时 sqlite 数据库并完成迁移
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	cfg := &config.Config{
		Database: config.DatabaseConfig{
			Driver: "sqlite",
			Path:   filepath.Join(t.TempDir(), "drift.db"),
		},
	}
	db, err := database.New(cfg)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db.DB
}

// Ptr 返回值的指针
func Ptr[T any](v T) *T {
	return &v
}
