/*
 * @module service/translation/redis_cache
 * @description 基于 Redis 的翻译结果缓存装饰器
 * @architecture 基础设施层 - 包装任意翻译服务
 * @stateFlow 查询缓存 -> 命中直接返回 / 未命中调用翻译 -> 写回缓存
 * @rules 缓存读写失败时降级为直接调用，不影响翻译结果；失败的翻译不写缓存
 * @dependencies github.com/go-redis/redis/v8
 * @refs http_translator.go
 */

package translation

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
)

// DefaultCacheTTL 默认缓存有效期
const DefaultCacheTTL = 24 * time.Hour

const cacheKeyPrefix = "datascrub:translation"

// Translator 翻译服务
type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
}

// CachedTranslator 带缓存的翻译服务
type CachedTranslator struct {
	next   Translator
	client redis.UniversalClient
	source string
	target string
	ttl    time.Duration
}

// NewCachedTranslator 创建缓存装饰器，source 和 target 参与缓存键以区分语言对
func NewCachedTranslator(next Translator, client redis.UniversalClient, source, target string, ttl time.Duration) *CachedTranslator {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if source == "" {
		source = DefaultSourceLanguage
	}
	if target == "" {
		target = DefaultTargetLanguage
	}
	return &CachedTranslator{next: next, client: client, source: source, target: target, ttl: ttl}
}

// NewRedisClient 创建 Redis 客户端并检查连接
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis连接失败: %w", err)
	}
	return client, nil
}

// CacheKey 缓存键：前缀 + 源语言 + 目标语言 + 文本摘要
func (c *CachedTranslator) CacheKey(text string) string {
	sum := sha1.Sum([]byte(text))
	return fmt.Sprintf("%s:%s:%s:%s", cacheKeyPrefix, c.source, c.target, hex.EncodeToString(sum[:]))
}

// Translate 先查缓存，未命中再调用下游
func (c *CachedTranslator) Translate(ctx context.Context, text string) (string, error) {
	key := c.CacheKey(text)

	cached, err := c.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		return cached, nil
	case !errors.Is(err, redis.Nil):
		slog.Warn("读取翻译缓存失败，直接调用翻译服务", "error", err)
	}

	translated, err := c.next.Translate(ctx, text)
	if err != nil {
		return "", err
	}

	if err := c.client.Set(ctx, key, translated, c.ttl).Err(); err != nil {
		slog.Warn("写入翻译缓存失败", "error", err)
	}
	return translated, nil
}
