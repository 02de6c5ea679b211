package database

import (
	"fmt"
	"log"
	"time"

	"digiwallet/internal/config"
	"digiwallet/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open 初始化数据库连接
// 按 driver 选择方言，连接失败时按 connect_retries 重试
func Open(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger:         newLogger(cfg.LogLevel),
		TranslateError: true, // 唯一键冲突统一为 gorm.ErrDuplicatedKey
	}

	retries := cfg.ConnectRetries
	if retries <= 0 {
		retries = 1
	}
	retryInterval := 2 * time.Second

	var db *gorm.DB
	var err error
	for i := 0; i < retries; i++ {
		db, err = gorm.Open(dialector(cfg), gormConfig)
		if err == nil {
			rawDB, dbErr := db.DB()
			if dbErr == nil {
				if err = rawDB.Ping(); err == nil {
					break
				}
			} else {
				err = dbErr
			}
		}
		if i < retries-1 {
			log.Printf("[Database] 连接失败 (第 %d/%d 次): %v，%v 后重试", i+1, retries, err, retryInterval)
			time.Sleep(retryInterval)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败（重试 %d 次）: %w", retries, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取底层 DB 失败: %w", err)
	}

	// 连接池配置
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	log.Printf("[Database] %s 连接成功", cfg.Driver)
	return db, nil
}

// Migrate 自动迁移表结构并初始化服务目录
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&model.User{},
		&model.Balance{},
		&model.TransactionHistory{},
		&model.Service{},
		&model.Banner{},
		&model.OutboxMessage{},
	)
	if err != nil {
		return fmt.Errorf("自动迁移表结构失败: %w", err)
	}
	return Seed(db)
}

// Seed 服务目录与横幅为空时写入默认数据
func Seed(db *gorm.DB) error {
	var count int64
	if err := db.Model(&model.Service{}).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		if err := db.Create(DefaultServices()).Error; err != nil {
			return fmt.Errorf("初始化服务目录失败: %w", err)
		}
		log.Printf("[Database] 已初始化 %d 个服务", len(DefaultServices()))
	}

	if err := db.Model(&model.Banner{}).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		if err := db.Create(DefaultBanners()).Error; err != nil {
			return fmt.Errorf("初始化横幅失败: %w", err)
		}
	}
	return nil
}

// DefaultServices 默认服务目录及资费
func DefaultServices() []model.Service {
	return []model.Service{
		{ServiceCode: "PAJAK", ServiceName: "Pajak PBB", ServiceTariff: 40000},
		{ServiceCode: "PLN", ServiceName: "Listrik", ServiceTariff: 10000},
		{ServiceCode: "PDAM", ServiceName: "PDAM Berlangganan", ServiceTariff: 40000},
		{ServiceCode: "PULSA", ServiceName: "Pulsa", ServiceTariff: 40000},
		{ServiceCode: "PGN", ServiceName: "PGN Berlangganan", ServiceTariff: 50000},
		{ServiceCode: "MUSIK", ServiceName: "Musik Berlangganan", ServiceTariff: 50000},
		{ServiceCode: "TV", ServiceName: "TV Berlangganan", ServiceTariff: 50000},
		{ServiceCode: "PAKET_DATA", ServiceName: "Paket data", ServiceTariff: 50000},
		{ServiceCode: "VOUCHER_GAME", ServiceName: "Voucher Game", ServiceTariff: 100000},
		{ServiceCode: "VOUCHER_MAKANAN", ServiceName: "Voucher Makanan", ServiceTariff: 100000},
		{ServiceCode: "QURBAN", ServiceName: "Qurban", ServiceTariff: 200000},
		{ServiceCode: "ZAKAT", ServiceName: "Zakat", ServiceTariff: 300000},
	}
}

// DefaultBanners 默认横幅
func DefaultBanners() []model.Banner {
	return []model.Banner{
		{BannerName: "Banner 1", Description: "Lerem Ipsum Dolor sit amet"},
		{BannerName: "Banner 2", Description: "Lerem Ipsum Dolor sit amet"},
		{BannerName: "Banner 3", Description: "Lerem Ipsum Dolor sit amet"},
	}
}

func dialector(cfg *config.DatabaseConfig) gorm.Dialector {
	if cfg.Driver == config.DriverPostgres {
		return postgres.Open(cfg.DSN())
	}
	return mysql.Open(cfg.DSN())
}

// newLogger 根据配置建立 GORM Logger
func newLogger(level string) logger.Interface {
	var logLevel logger.LogLevel
	switch level {
	case "info":
		logLevel = logger.Info
	case "warn":
		logLevel = logger.Warn
	case "silent":
		logLevel = logger.Silent
	default:
		logLevel = logger.Error
	}
	return logger.Default.LogMode(logLevel)
}
