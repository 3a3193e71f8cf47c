package database

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"StockSeed/pkg/config"
	"StockSeed/pkg/model"
)

// TimescaleDB 数据库连接
type TimescaleDB struct {
	db *gorm.DB
}

// NewTimescaleDB 创建新的TimescaleDB连接
func NewTimescaleDB(cfg *config.Config) (*TimescaleDB, error) {
	return Open(postgres.Open(cfg.DSN()))
}

// Open 使用任意gorm方言建立连接并测试连通性
func Open(dialector gorm.Dialector) (*TimescaleDB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取数据库连接池失败: %w", err)
	}

	// 设置连接池参数
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("测试数据库连接失败: %w", err)
	}

	return &TimescaleDB{db: db}, nil
}

// Migrate 创建或更新表结构
func (t *TimescaleDB) Migrate() error {
	if err := t.db.AutoMigrate(&model.StockBar{}); err != nil {
		return fmt.Errorf("迁移表结构失败: %w", err)
	}
	return nil
}

// Ping 检查连接是否可用
func (t *TimescaleDB) Ping(ctx context.Context) error {
	sqlDB, err := t.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close 关闭数据库连接
func (t *TimescaleDB) Close() error {
	sqlDB, err := t.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
