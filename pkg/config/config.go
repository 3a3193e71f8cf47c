package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// 导入模式
const (
	ModeCheck = "check" // 插入前检查时间戳是否已存在
	ModeForce = "force" // 无条件插入
)

// DefaultInstrument 行中缺少品种代码时使用的默认值
const DefaultInstrument = "HINDALCO"

// Config 应用配置
type Config struct {
	App struct {
		Name string `yaml:"name"`
		Env  string `yaml:"env"`
	} `yaml:"app"`

	Database struct {
		TimescaleDB struct {
			Host     string `yaml:"host"`
			Port     int    `yaml:"port"`
			User     string `yaml:"user"`
			Password string `yaml:"password"`
			DBName   string `yaml:"dbname"`
			SSLMode  string `yaml:"sslmode"`
		} `yaml:"timescaledb"`
		AutoMigrate bool `yaml:"auto_migrate"`
	} `yaml:"database"`

	NATS struct {
		URL string `yaml:"url"`
	} `yaml:"nats"`

	API struct {
		Port string `yaml:"port"`
	} `yaml:"api"`

	Import struct {
		File              string `yaml:"file"`
		Mode              string `yaml:"mode"`
		DefaultInstrument string `yaml:"default_instrument"`
		Schedule          string `yaml:"schedule"`
	} `yaml:"import"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// LoadConfig 从文件加载配置
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	overrideFromEnv(&config)
	applyDefaults(&config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Default 返回不依赖配置文件的默认配置，环境变量仍然生效
func Default() *Config {
	var config Config
	overrideFromEnv(&config)
	applyDefaults(&config)
	return &config
}

// Validate 检查配置取值
func (c *Config) Validate() error {
	switch c.Import.Mode {
	case ModeCheck, ModeForce:
	default:
		return fmt.Errorf("未知的导入模式: %q", c.Import.Mode)
	}
	return nil
}

// DSN 构建PostgreSQL连接字符串
func (c *Config) DSN() string {
	db := c.Database.TimescaleDB
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		db.Host, db.Port, db.User, db.Password, db.DBName, db.SSLMode,
	)
}

// overrideFromEnv 使用环境变量覆盖配置
func overrideFromEnv(config *Config) {
	if env := os.Getenv("APP_NAME"); env != "" {
		config.App.Name = env
	}
	if env := os.Getenv("APP_ENV"); env != "" {
		config.App.Env = env
	}

	// 数据库配置
	if env := os.Getenv("DB_HOST"); env != "" {
		config.Database.TimescaleDB.Host = env
	}
	if env := os.Getenv("DB_PORT"); env != "" {
		if port, err := strconv.Atoi(env); err == nil && port > 0 {
			config.Database.TimescaleDB.Port = port
		}
	}
	if env := os.Getenv("DB_USER"); env != "" {
		config.Database.TimescaleDB.User = env
	}
	if env := os.Getenv("DB_PASSWORD"); env != "" {
		config.Database.TimescaleDB.Password = env
	}
	if env := os.Getenv("DB_NAME"); env != "" {
		config.Database.TimescaleDB.DBName = env
	}
	if env := os.Getenv("DB_SSLMODE"); env != "" {
		config.Database.TimescaleDB.SSLMode = env
	}

	if env := os.Getenv("NATS_URL"); env != "" {
		config.NATS.URL = env
	}
	if env := os.Getenv("API_PORT"); env != "" {
		config.API.Port = env
	}

	// 导入配置
	if env := os.Getenv("IMPORT_FILE"); env != "" {
		config.Import.File = env
	}
	if env := os.Getenv("IMPORT_MODE"); env != "" {
		config.Import.Mode = env
	}
	if env := os.Getenv("IMPORT_DEFAULT_INSTRUMENT"); env != "" {
		config.Import.DefaultInstrument = env
	}
	if env := os.Getenv("IMPORT_SCHEDULE"); env != "" {
		config.Import.Schedule = env
	}

	if env := os.Getenv("LOG_LEVEL"); env != "" {
		config.Log.Level = env
	}
}

func applyDefaults(config *Config) {
	if config.App.Name == "" {
		config.App.Name = "stockseed"
	}
	db := &config.Database.TimescaleDB
	if db.Host == "" {
		db.Host = "localhost"
	}
	if db.Port == 0 {
		db.Port = 5432
	}
	if db.SSLMode == "" {
		db.SSLMode = "disable"
	}
	if config.API.Port == "" {
		config.API.Port = "8080"
	}
	if config.Import.Mode == "" {
		config.Import.Mode = ModeCheck
	}
	if config.Import.DefaultInstrument == "" {
		config.Import.DefaultInstrument = DefaultInstrument
	}
	if config.Log.Level == "" {
		config.Log.Level = "info"
	}
}

// GetDefaultConfigPath 获取默认配置文件路径
func GetDefaultConfigPath() string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev" // 默认开发环境
	}

	return fmt.Sprintf("configs/%s/app.yaml", env)
}
