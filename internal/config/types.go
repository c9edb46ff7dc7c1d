// Package config 统一配置管理
//
// 配置加载优先级（高→低）：
//  1. 环境变量（通过 .env 文件或 shell/systemd 注入）
//  2. YAML 配置文件（{env}.yaml，如 dev.yaml、test.yaml、prod.yaml）
//  3. 代码硬编码默认值
//
// 凭据单一数据源：
//
//	密码/密钥只存在环境变量中（YAML 中不存储任何密码）。
//	dev/test 环境从 .env.{env} 文件加载，生产环境由 systemd 注入。
//
// 环境：
//   - 开发: APP_ENV=dev (默认) → configs/dev.yaml + .env.dev
//   - 测试: APP_ENV=test → configs/test.yaml + .env.test
//   - 生产: APP_ENV=prod → /etc/job-board/prod.yaml
package config

import "time"

// Environment 环境类型
type Environment string

const (
	EnvProduction  Environment = "prod"
	EnvTest        Environment = "test"
	EnvDevelopment Environment = "dev"
)

// YAMLConfig YAML 配置文件结构
type YAMLConfig struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	MinIO    MinIOConfig    `yaml:"minio"`
	Auth     AuthConfig     `yaml:"auth"`
	Upload   UploadConfig   `yaml:"upload"`

	loadedFrom string `yaml:"-"`
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Port        string `yaml:"port"`         // 监听端口
	FrontendURL string `yaml:"frontend_url"` // CORS 允许的前端源
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver   string `yaml:"driver"` // "mongodb"（默认）、"sqlite" 或 "postgres"
	URI      string `yaml:"uri"`    // MongoDB 连接 URI（优先于 host/port）
	Path     string `yaml:"path"`   // SQLite 文件路径
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"-"` // 只从 DB_PASSWORD 环境变量读取
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`
}

// RedisConfig Redis 配置（限流计数），endpoint 为空时限流关闭
type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	DB       int    `yaml:"db"`
	Password string `yaml:"-"` // 只从 REDIS_PASSWORD 环境变量读取
}

// MinIOConfig MinIO 对象存储配置（职位图片托管）
type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"`   // 例如 localhost:9000
	PublicURL string `yaml:"public_url"` // 对外图片 URL 前缀，默认 http(s)://{endpoint}
	AccessKey string `yaml:"-"`          // 只从 MINIO_ROOT_USER 环境变量读取
	SecretKey string `yaml:"-"`          // 只从 MINIO_ROOT_PASSWORD 环境变量读取
	UseSSL    bool   `yaml:"use_ssl"`
	Bucket    string `yaml:"bucket"` // 默认 "job-board"
}

// AuthConfig 认证配置
// JWTSecret/AdminEmail/AdminPassword 只从环境变量读取，不存储在 YAML 中
type AuthConfig struct {
	JWTSecret     string `yaml:"-"`         // 只从 JWT_SECRET 环境变量读取
	TokenTTL      string `yaml:"token_ttl"` // 例如 "720h"（默认 30 天），JWT_EXPIRES_IN 可覆盖
	AdminEmail    string `yaml:"-"`         // 只从 ADMIN_EMAIL 环境变量读取
	AdminPassword string `yaml:"-"`         // 只从 ADMIN_PASSWORD 环境变量读取
}

// UploadConfig 文件上传限制
type UploadConfig struct {
	MaxSizeMB int64 `yaml:"max_size_mb"` // 默认 5
}

// Config 解析后的运行时配置
type Config struct {
	Env         Environment
	Port        string
	FrontendURL string
	Database    DatabaseConfig
	Redis       RedisConfig
	MinIO       MinIOConfig
	JWTSecret   string
	TokenTTL    time.Duration
	AdminEmail  string
	AdminPass   string
	MaxUpload   int64 // 字节数
}

// IsProd 是否为生产环境
func (c *Config) IsProd() bool {
	return c.Env == EnvProduction
}
