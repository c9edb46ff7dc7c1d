// Package main API Server 入口
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"job-board/internal/apiserver/auth"
	"job-board/internal/apiserver/job"
	"job-board/internal/apiserver/server"
	"job-board/internal/config"
	rediscache "job-board/internal/shared/cache/redis"
	objstore "job-board/internal/shared/minio"
	"job-board/internal/shared/storage"
	"job-board/internal/shared/storage/driver/postgres"
	"job-board/internal/shared/storage/driver/sqlite"
	"job-board/internal/shared/storage/mongostore"
	"job-board/internal/shared/storage/repository"
)

func main() {
	// 加载配置（自动加载 .env.{env} 与 configs/{env}.yaml）
	cfg := config.Load()

	log.Printf("Starting API Server... [env=%s]", cfg.Env)
	log.Printf("Config: %s", cfg.String())

	// 凭据签名密钥是硬依赖，缺失时立即退出而非降级运行
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	// 初始化持久化存储（驱动按配置切换）
	store, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to open store [driver=%s]: %v", cfg.Database.Driver, err)
	}
	defer store.Close()
	log.Printf("Connected to store [driver=%s]", cfg.Database.Driver)

	// 初始化 MinIO（职位图片托管，未配置时禁用带图上传）
	var images job.ImageHost
	if cfg.MinIO.Endpoint != "" {
		client, err := objstore.NewClient(cfg.MinIO)
		if err != nil {
			log.Fatalf("Failed to create minio client: %v", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := client.EnsureBucket(ctx); err != nil {
			cancel()
			log.Fatalf("Failed to ensure bucket: %v", err)
		}
		cancel()
		images = client
		log.Printf("Connected to MinIO [bucket=%s]", cfg.MinIO.Bucket)
	} else {
		log.Println("MinIO not configured, image uploads disabled")
	}

	// 初始化 Redis 限流（未配置时关闭限流）
	var limiter *rediscache.RateLimiter
	if addr := cfg.Redis.Addr(); addr != "" {
		redisStore, err := rediscache.NewStore(addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisStore.Close()
		limiter = rediscache.NewRateLimiter(redisStore, 100, 15*time.Minute)
		log.Println("Connected to Redis, rate limiting enabled")
	}

	// 引导管理员账号（ADMIN_EMAIL/ADMIN_PASSWORD 配置时）
	if err := auth.EnsureAdminUser(store, cfg.AdminEmail, cfg.AdminPass); err != nil {
		log.Fatalf("Failed to ensure admin user: %v", err)
	}

	h := server.NewHandler(store, images, limiter, cfg)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      h.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 优雅关闭
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	log.Printf("API Server listening on :%s", cfg.Port)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}

	fmt.Println("Server stopped")
}

// openStore 按配置的驱动打开持久化存储
//
// mongodb（默认）使用文档存储；sqlite/postgres 走 SQL 仓储层，
// 启动时自动建表。
func openStore(cfg *config.Config) (storage.PersistentStore, error) {
	switch cfg.Database.Driver {
	case "mongodb", "":
		return mongostore.NewStore(cfg.Database.MongoURI(), cfg.Database.Name)

	case "sqlite":
		db, err := sqlite.Open(cfg.Database.Path)
		if err != nil {
			return nil, err
		}
		dialect := sqlite.NewDialect()
		if err := dialect.AutoMigrate(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		return repository.NewStore(db, dialect), nil

	case "postgres":
		db, err := postgres.Open(cfg.Database.PostgresDSN())
		if err != nil {
			return nil, err
		}
		dialect := postgres.NewDialect()
		if err := dialect.AutoMigrate(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		return repository.NewStore(db, dialect), nil

	default:
		return nil, fmt.Errorf("unknown database driver: %q", cfg.Database.Driver)
	}
}
