package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "page:"

// PageCache 按请求路径缓存渲染结果。失效是 fire-and-forget 的信号,
// 错误只记录日志, 从不向写路径传播。client 为 nil 时整体退化为 no-op。
type PageCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// New creates a PageCache instance.
func New(client *redis.Client, ttl time.Duration, logger *zap.Logger) *PageCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &PageCache{client: client, ttl: ttl, logger: logger}
}

// Get 返回路径对应的缓存内容。
func (c *PageCache) Get(ctx context.Context, path string) (string, bool) {
	if c == nil || c.client == nil {
		return "", false
	}

	value, err := c.client.Get(ctx, keyPrefix+path).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) && c.logger != nil {
			c.logger.Warn("page cache read failed", zap.String("path", path), zap.Error(err))
		}
		return "", false
	}
	return value, true
}

// Set 写入路径对应的缓存内容。
func (c *PageCache) Set(ctx context.Context, path, content string) {
	if c == nil || c.client == nil {
		return
	}

	if err := c.client.Set(ctx, keyPrefix+path, content, c.ttl).Err(); err != nil && c.logger != nil {
		c.logger.Warn("page cache write failed", zap.String("path", path), zap.Error(err))
	}
}

// Invalidate 丢弃给定路径的缓存。
func (c *PageCache) Invalidate(ctx context.Context, paths ...string) {
	if c == nil || c.client == nil || len(paths) == 0 {
		return
	}

	keys := make([]string, 0, len(paths))
	for _, path := range paths {
		keys = append(keys, keyPrefix+path)
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil && c.logger != nil {
		c.logger.Warn("page cache invalidation failed", zap.Strings("paths", paths), zap.Error(err))
	}
}
