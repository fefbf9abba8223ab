package service

import (
	"testing"

	"github.com/Alfthrpy/shortener-api/internal/model"
	"github.com/Alfthrpy/shortener-api/internal/repository"
	"github.com/Alfthrpy/shortener-api/pkg/logging"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// setupTestDB 用内存 sqlite 替换全局 DB。
// 单连接序列化 sqlite 写入，并发测试依然走完整的 upsert 路径。
func setupTestDB(t *testing.T) {
	t.Helper()
	logging.InitTestLogger()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, repository.Migrate(db))

	repository.DB = db
	repository.RedisPool = nil
}

func createTestLink(t *testing.T, code string) *model.Link {
	t.Helper()
	link := &model.Link{
		Title:        "test " + code,
		ShortCode:    code,
		OriginalURL:  "https://example.com/" + code,
		RedirectCode: 302,
	}
	require.NoError(t, repository.DB.Create(link).Error)
	return link
}
