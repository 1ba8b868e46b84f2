package sqldb

import (
	"DocQA/backend/go/internal/config"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open 根据配置的驱动打开一个 GORM 数据库实例并配置连接池。
// 调用方负责在退出时调用 Close。
func Open(cfg *config.RelationalConfig) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		TranslateError: true, // 唯一约束冲突统一翻译为 gorm.ErrDuplicatedKey
	}

	var (
		db  *gorm.DB
		err error
	)
	switch cfg.Driver {
	case "mysql":
		// 构建 DSN (Data Source Name) 字符串。
		dsn := fmt.Sprintf("%s:%s@tcp(%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			cfg.MySQL.Username,
			cfg.MySQL.Password,
			cfg.MySQL.Address,
			cfg.MySQL.Database,
		)
		db, err = gorm.Open(mysql.Open(dsn), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("无法连接到 MySQL: %w", err)
		}
	case "sqlite", "":
		if dir := filepath.Dir(cfg.SQLite.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("无法创建 SQLite 目录 '%s': %w", dir, err)
			}
		}
		// 外键必须显式开启，否则级联删除不会生效。
		db, err = OpenSQLite(cfg.SQLite.Path, gormCfg)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("不支持的数据库驱动: %s", cfg.Driver)
	}

	// 获取底层 *sql.DB 实例，以便进行连接池配置。
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("无法获取底层 SQL DB 实例: %w", err)
	}
	if cfg.Driver == "mysql" {
		sqlDB.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.MySQL.ConnMaxLifetime) * time.Second)
	} else {
		// SQLite 只允许单写者。
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

// OpenSQLite 打开一个开启了外键约束的 SQLite 文件。
func OpenSQLite(path string, gormCfg *gorm.Config) (*gorm.DB, error) {
	if gormCfg == nil {
		gormCfg = &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent), TranslateError: true}
	}
	db, err := gorm.Open(sqlite.Open(path+"?_foreign_keys=on"), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("无法打开 SQLite 数据库 '%s': %w", path, err)
	}
	return db, nil
}

// Close 安全地关闭数据库连接。
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("获取底层 SQL DB 实例失败: %w", err)
	}
	return sqlDB.Close()
}

// HealthCheck 检查数据库连接的健康状况。
func HealthCheck(ctx context.Context, db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("数据库连接未初始化")
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("无法获取底层 SQL DB 实例进行健康检查: %w", err)
	}
	return sqlDB.PingContext(ctx)
}
