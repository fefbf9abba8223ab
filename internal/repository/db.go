package repository

import (
	"github.com/Alfthrpy/shortener-api/internal/model"
	"github.com/Alfthrpy/shortener-api/pkg/logging"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

var DB *gorm.DB

func InitDB(logger *zap.Logger, atomicLogLevel zap.AtomicLevel) {
	dsn := viper.GetString("db.dsn")
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logging.NewGormLogger(logger, logging.ToGormLogLevel(atomicLogLevel.Level())), // 注入 logger 并转换级别
	})
	if err != nil {
		logging.Logger.Fatal("Failed to connect database", zap.Error(err))
	}

	if err := Migrate(db); err != nil {
		logging.Logger.Fatal("Failed to migrate database", zap.Error(err))
	}

	DB = db
}

// Migrate 执行 GORM 自动迁移，migrate 子命令和测试也会复用
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&model.Link{}, &model.ClickBucket{}, &model.BucketDimension{})
}
