/*
 * @module service/rate_limiter/redis_rate_limiter
 * @description 基于Redis的分布式固定窗口限流，多实例共享同一个翻译调用额度
 * @architecture 工具层 - 提供分布式限流能力
 * @stateFlow 计算窗口 -> Redis计数 -> 判断是否超限 -> 超限时等待下一个窗口
 * @rules 使用Lua脚本保证 INCR 与 PEXPIRE 原子执行；计数键带窗口序号，窗口切换后自动换键
 * @dependencies github.com/go-redis/redis/v8
 * @refs service/translation/rate_limited.go, service/init.go
 */

package rate_limiter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// KeyPrefix 限流计数键前缀
const KeyPrefix = "datascrub:ratelimit:"

// Result 限流检查结果
type Result struct {
	Allowed    bool          `json:"allowed"`
	Limit      int           `json:"limit"`
	Remaining  int           `json:"remaining"`
	ResetAfter time.Duration `json:"reset_after"` // 距下一个窗口的时间
}

var incrScript = redis.NewScript(`
	local current = redis.call('INCR', KEYS[1])
	if current == 1 then
		redis.call('PEXPIRE', KEYS[1], ARGV[1])
	end
	return current
`)

// RedisRateLimiter Redis限流器
type RedisRateLimiter struct {
	client redis.UniversalClient
	limit  int
	window time.Duration
	now    func() time.Time
}

// NewRedisRateLimiter 创建限流器，每个 window 内最多放行 limit 次
func NewRedisRateLimiter(client redis.UniversalClient, limit int, window time.Duration) (*RedisRateLimiter, error) {
	if limit <= 0 {
		return nil, errors.New("限流次数必须大于0")
	}
	if window <= 0 {
		return nil, errors.New("限流窗口必须大于0")
	}
	return &RedisRateLimiter{client: client, limit: limit, window: window, now: time.Now}, nil
}

// Allow 占用一次额度
func (r *RedisRateLimiter) Allow(ctx context.Context, name string) (*Result, error) {
	now := r.now()
	slot := now.UnixMilli() / r.window.Milliseconds()
	resetAfter := time.Duration((slot+1)*r.window.Milliseconds()-now.UnixMilli()) * time.Millisecond

	key := fmt.Sprintf("%s%s:%d", KeyPrefix, name, slot)
	count, err := incrScript.Run(ctx, r.client, []string{key}, r.window.Milliseconds()).Int()
	if err != nil {
		return nil, fmt.Errorf("限流检查失败: %w", err)
	}

	remaining := r.limit - count
	if remaining < 0 {
		remaining = 0
	}
	return &Result{
		Allowed:    count <= r.limit,
		Limit:      r.limit,
		Remaining:  remaining,
		ResetAfter: resetAfter,
	}, nil
}

// Wait 阻塞直到获得额度或 ctx 结束
func (r *RedisRateLimiter) Wait(ctx context.Context, name string) error {
	for {
		result, err := r.Allow(ctx, name)
		if err != nil {
			return err
		}
		if result.Allowed {
			return nil
		}

		timer := time.NewTimer(result.ResetAfter)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
