package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// envSearchDirs .env 文件搜索目录（仅 dev/test 使用，生产环境由 systemd 注入）
var envSearchDirs = []string{".", ".."}

// Load 加载运行时配置
//
// 步骤：
//  1. 读取 APP_ENV（默认 dev），加载 .env.{env}
//  2. 读取 configs/{env}.yaml（或 CONFIG_DIR 指定目录）
//  3. 环境变量覆盖 YAML，填入默认值
func Load() *Config {
	env := parseEnv(getEnv("APP_ENV", "dev"))
	loadEnvFiles(env)

	yamlCfg := loadYAMLConfig(env)
	if yamlCfg.loadedFrom != "" {
		log.Printf("[config] loaded %s", yamlCfg.loadedFrom)
	}

	cfg := &Config{
		Env:         env,
		Port:        firstNonEmpty(os.Getenv("PORT"), yamlCfg.Server.Port, "5000"),
		FrontendURL: firstNonEmpty(os.Getenv("FRONTEND_URL"), yamlCfg.Server.FrontendURL, "http://localhost:3000"),
		Database:    yamlCfg.Database,
		Redis:       yamlCfg.Redis,
		MinIO:       yamlCfg.MinIO,
		JWTSecret:   os.Getenv("JWT_SECRET"),
		AdminEmail:  os.Getenv("ADMIN_EMAIL"),
		AdminPass:   os.Getenv("ADMIN_PASSWORD"),
	}

	// 数据库：环境变量优先
	if uri := os.Getenv("MONGODB_URI"); uri != "" {
		cfg.Database.URI = uri
	}
	cfg.Database.Password = os.Getenv("DB_PASSWORD")
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "mongodb"
	}
	if cfg.Database.Name == "" {
		cfg.Database.Name = "job_board"
	}

	cfg.Redis.Password = os.Getenv("REDIS_PASSWORD")

	// MinIO 凭据只从环境变量读取
	cfg.MinIO.AccessKey = os.Getenv("MINIO_ROOT_USER")
	cfg.MinIO.SecretKey = os.Getenv("MINIO_ROOT_PASSWORD")
	if cfg.MinIO.Bucket == "" {
		cfg.MinIO.Bucket = "job-board"
	}

	// 令牌有效期：JWT_EXPIRES_IN > yaml > 默认 30 天
	cfg.TokenTTL = parseTTL(firstNonEmpty(os.Getenv("JWT_EXPIRES_IN"), yamlCfg.Auth.TokenTTL), 30*24*time.Hour)

	// 上传大小上限：默认 5 MB
	maxMB := yamlCfg.Upload.MaxSizeMB
	if maxMB <= 0 {
		maxMB = 5
	}
	cfg.MaxUpload = maxMB << 20

	return cfg
}

// String 返回配置摘要（不含任何凭据）
func (c *Config) String() string {
	return fmt.Sprintf("env=%s port=%s db=%s/%s redis=%s minio=%s bucket=%s token_ttl=%s",
		c.Env, c.Port, c.Database.Driver, c.Database.Name,
		c.Redis.Host, c.MinIO.Endpoint, c.MinIO.Bucket, c.TokenTTL)
}

// MongoURI 返回 MongoDB 连接 URI（URI 优先于 host/port 组合）
func (d DatabaseConfig) MongoURI() string {
	if d.URI != "" {
		return d.URI
	}
	host := firstNonEmpty(d.Host, "localhost")
	port := d.Port
	if port == 0 {
		port = 27017
	}
	if d.User != "" && d.Password != "" {
		return fmt.Sprintf("mongodb://%s:%s@%s:%d", d.User, d.Password, host, port)
	}
	return fmt.Sprintf("mongodb://%s:%d", host, port)
}

// PostgresDSN 返回 PostgreSQL 连接串
func (d DatabaseConfig) PostgresDSN() string {
	host := firstNonEmpty(d.Host, "localhost")
	port := d.Port
	if port == 0 {
		port = 5432
	}
	sslmode := firstNonEmpty(d.SSLMode, "disable")
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s&connect_timeout=10",
		d.User, d.Password, host, port, d.Name, sslmode)
}

// Addr 返回 Redis 地址，未配置时返回空串（限流关闭）
func (r RedisConfig) Addr() string {
	if r.Host == "" {
		return ""
	}
	port := r.Port
	if port == 0 {
		port = 6379
	}
	return fmt.Sprintf("%s:%d", r.Host, port)
}

// ============================================================================
// 内部加载逻辑
// ============================================================================

func parseEnv(s string) Environment {
	switch Environment(s) {
	case EnvProduction, EnvTest, EnvDevelopment:
		return Environment(s)
	}
	return EnvDevelopment
}

// loadEnvFiles 加载 .env.{env} 文件
// godotenv.Load 不覆盖已有环境变量，优先级低于 shell 环境变量
func loadEnvFiles(env Environment) {
	if env == EnvProduction {
		return
	}
	name := fmt.Sprintf(".env.%s", string(env))
	for _, dir := range envSearchDirs {
		if err := godotenv.Load(filepath.Join(dir, name)); err == nil {
			break
		}
	}
}

// configPathsForEnv 根据环境返回配置文件搜索路径
func configPathsForEnv(env Environment) []string {
	if env == EnvProduction {
		return []string{"/etc/job-board"}
	}
	return []string{"configs", "../configs"}
}

// loadYAMLConfig 查找并解析 {env}.yaml，缺失时返回零值配置（默认值兜底）
func loadYAMLConfig(env Environment) *YAMLConfig {
	cfg := &YAMLConfig{}

	paths := configPathsForEnv(env)
	if dir := os.Getenv("CONFIG_DIR"); dir != "" {
		paths = []string{dir}
	}

	name := fmt.Sprintf("%s.yaml", env)
	for _, base := range paths {
		p := filepath.Join(base, name)
		data, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			log.Printf("WARNING: config: failed to parse %s: %v", p, err)
			continue
		}
		cfg.loadedFrom = p
		return cfg
	}
	return cfg
}

func parseTTL(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		log.Printf("WARNING: config: invalid token ttl %q, using %s", s, fallback)
		return fallback
	}
	return d
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
