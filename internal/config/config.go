package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 全局配置结构
// 进程启动时构建一次，显式传递给各组件，不保存为包级变量
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Business BusinessConfig `mapstructure:"business"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // mysql | postgres
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnectRetries  int           `mapstructure:"connect_retries"`
	LogLevel        string        `mapstructure:"log_level"` // silent | error | warn | info
}

// DSN 按驱动生成连接字符串
func (c *DatabaseConfig) DSN() string {
	if c.Driver == DriverPostgres {
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
			c.Host, c.Port, c.User, c.Password, c.Database)
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

type RedisConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	Host       string        `mapstructure:"host"`
	Port       int           `mapstructure:"port"`
	Password   string        `mapstructure:"password"`
	DB         int           `mapstructure:"db"`
	CatalogTTL time.Duration `mapstructure:"catalog_ttl"`
}

type KafkaConfig struct {
	Enabled      bool             `mapstructure:"enabled"`
	Brokers      []string         `mapstructure:"brokers"`
	Topic        KafkaTopicConfig `mapstructure:"topic"`
	PollInterval time.Duration    `mapstructure:"poll_interval"`
	BatchSize    int              `mapstructure:"batch_size"`
}

type KafkaTopicConfig struct {
	Transaction string `mapstructure:"transaction"`
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	Issuer string        `mapstructure:"issuer"`
	TTL    time.Duration `mapstructure:"ttl"`
}

type StorageConfig struct {
	UploadDir     string `mapstructure:"upload_dir"`
	PublicBaseURL string `mapstructure:"public_base_url"`
	MaxImageBytes int64  `mapstructure:"max_image_bytes"`
}

type BusinessConfig struct {
	MaxRetryCount   int           `mapstructure:"max_retry_count"`
	UserLockEnabled bool          `mapstructure:"user_lock_enabled"`
	UserLockTTL     time.Duration `mapstructure:"user_lock_ttl"`
}

const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"

	envPrefix = "WALLET"

	minUserLockTTL = 50 * time.Millisecond
)

var (
	ErrMissingJWTSecret = errors.New("jwt.secret 不能为空")
	ErrInvalidPort      = errors.New("server.port 必须大于0")
	ErrUnknownDriver    = errors.New("database.driver 仅支持 mysql 或 postgres")
	ErrInvalidLockTTL   = errors.New("business.user_lock_ttl 必须不小于 50ms")
)

// Load 加载配置文件
// 读取顺序：默认值 < 配置文件 < 环境变量（前缀 WALLET_，如 WALLET_JWT_SECRET）
// 同目录或工作目录下的 .env 会先被加载到环境变量中
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("[Config] 未找到 .env 文件，跳过: %v", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 校验启动必需的配置项
func (c *Config) Validate() error {
	if c.Server.Port <= 0 {
		return ErrInvalidPort
	}
	if c.JWT.Secret == "" {
		return ErrMissingJWTSecret
	}
	switch c.Database.Driver {
	case DriverMySQL, DriverPostgres:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDriver, c.Database.Driver)
	}
	if c.Business.UserLockEnabled && c.Business.UserLockTTL < minUserLockTTL {
		return fmt.Errorf("%w: %v", ErrInvalidLockTTL, c.Business.UserLockTTL)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)

	v.SetDefault("database.driver", DriverMySQL)
	v.SetDefault("database.host", "127.0.0.1")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.connect_retries", 5)
	v.SetDefault("database.log_level", "error")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.catalog_ttl", 10*time.Minute)

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.topic.transaction", "wallet.transaction")
	v.SetDefault("kafka.poll_interval", 500*time.Millisecond)
	v.SetDefault("kafka.batch_size", 100)

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "digiwallet")
	v.SetDefault("jwt.ttl", 12*time.Hour)

	v.SetDefault("storage.upload_dir", "uploads")
	v.SetDefault("storage.public_base_url", "http://localhost:8080/uploads")
	v.SetDefault("storage.max_image_bytes", 100*1024)

	v.SetDefault("business.max_retry_count", 5)
	v.SetDefault("business.user_lock_enabled", false)
	v.SetDefault("business.user_lock_ttl", 10*time.Second)
}
