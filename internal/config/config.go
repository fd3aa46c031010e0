package config

import (
	"github.com/blues/eps/internal/logger"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Gateway  GatewayConfig  `mapstructure:"gateway"`
	Escrow   EscrowConfig   `mapstructure:"escrow"`
	Task     TaskConfig     `mapstructure:"task"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// GatewayConfig 支付网关配置
type GatewayConfig struct {
	BaseURL        string `mapstructure:"base_url"`        // 网关API地址
	KeyID          string `mapstructure:"key_id"`          // API Key
	KeySecret      string `mapstructure:"key_secret"`      // API Secret（同时用于签名校验）
	Currency       string `mapstructure:"currency"`        // 结算币种
	TimeoutSeconds int    `mapstructure:"timeout_seconds"` // 请求超时（秒）
}

// EscrowConfig 托管策略配置
type EscrowConfig struct {
	DefaultFeePercent float64 `mapstructure:"default_fee_percent"` // 无参考预算时的默认费率
	AutoReleaseDays   int     `mapstructure:"auto_release_days"`   // 自动放款等待天数
	RequiresApproval  bool    `mapstructure:"requires_approval"`   // 放款是否需要单独确认
}

type TaskConfig struct {
	Interval          int `mapstructure:"interval"`           // 自动放款扫描间隔（秒）
	AttentionInterval int `mapstructure:"attention_interval"` // 人工关注巡检间隔（秒）
	AttentionDays     int `mapstructure:"attention_days"`     // 超过该天数未处理则上报
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // 日志级别: debug, info, warn, error, fatal
	Output string `mapstructure:"output"` // 输出目标: stdout, stderr, file
	File   string `mapstructure:"file"`   // 日志文件路径（当output为file时使用）
}

// GetLevel 实现 logger.LogConfig 接口
func (l LogConfig) GetLevel() string {
	return l.Level
}

// GetOutput 实现 logger.LogConfig 接口
func (l LogConfig) GetOutput() string {
	return l.Output
}

// GetFile 实现 logger.LogConfig 接口
func (l LogConfig) GetFile() string {
	return l.File
}

func Load() *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/eps")

	// 设置默认值
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "")
	viper.SetDefault("database.dbname", "escrow")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("gateway.base_url", "https://api.gateway.test")
	viper.SetDefault("gateway.currency", "INR")
	viper.SetDefault("gateway.timeout_seconds", 10)
	viper.SetDefault("escrow.default_fee_percent", 5)
	viper.SetDefault("escrow.auto_release_days", 7)
	viper.SetDefault("escrow.requires_approval", true)
	viper.SetDefault("task.interval", 180)
	viper.SetDefault("task.attention_interval", 3600)
	viper.SetDefault("task.attention_days", 3)
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.output", "stdout")
	viper.SetDefault("log.file", "logs/app.log")

	// 自动读取环境变量
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		logger.Warn("Warning: Could not read config file: %v", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		logger.Fatal("Unable to decode config into struct: %v", err)
	}

	return &config
}
