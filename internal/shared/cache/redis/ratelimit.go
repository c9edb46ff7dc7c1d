package redis

import (
	"context"
	"fmt"
	"time"
)

// RateLimiter 固定窗口限流器
//
// 每个 key（一般为客户端 IP）在 window 内最多 limit 次请求。
// 计数存于 Redis，多实例部署时共享同一配额。
type RateLimiter struct {
	store  *Store
	limit  int64
	window time.Duration
}

// NewRateLimiter 创建限流器
func NewRateLimiter(store *Store, limit int64, window time.Duration) *RateLimiter {
	return &RateLimiter{store: store, limit: limit, window: window}
}

// Allow 判断 key 的本次请求是否放行
//
// INCR + 首次设置过期实现固定窗口；Redis 故障时放行（限流是
// 保护层而非功能层，不应把存储故障放大为全站 429）。
func (rl *RateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	bucket := fmt.Sprintf("ratelimit:%s:%d", key, time.Now().Unix()/int64(rl.window.Seconds()))

	count, err := rl.store.client.Incr(ctx, bucket).Result()
	if err != nil {
		return true, err
	}
	if count == 1 {
		// 窗口首个请求，设置桶过期
		rl.store.client.Expire(ctx, bucket, rl.window)
	}
	return count <= rl.limit, nil
}
