/*
 * @module service/distributed_lock/redis_lock
 * @description Redis分布式锁实现，用于多实例部署时定时清洗任务的防重
 * @architecture 工具层 - 提供分布式锁能力
 * @stateFlow 获取锁 -> 执行任务 -> 释放锁/自动过期
 * @rules 使用Redis SET NX实现，只有持有者能释放或续期
 * @dependencies github.com/go-redis/redis/v8
 * @refs service/scheduler/job_scheduler.go, service/init.go
 */

package distributed_lock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
)

// KeyPrefix 锁键前缀
const KeyPrefix = "datascrub:scheduler:lock:"

// ErrLockNotHeld 锁不存在或由其他实例持有
var ErrLockNotHeld = errors.New("锁不存在或已被其他实例持有")

// DistributedLock 分布式锁接口
type DistributedLock interface {
	// TryLock 尝试获取锁
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Unlock 释放锁
	Unlock(ctx context.Context, key string) error
	// Refresh 刷新锁的过期时间
	Refresh(ctx context.Context, key string, ttl time.Duration) error
}

var (
	unlockScript = redis.NewScript(`
		if redis.call("get", KEYS[1]) == ARGV[1] then
			return redis.call("del", KEYS[1])
		else
			return 0
		end
	`)
	refreshScript = redis.NewScript(`
		if redis.call("get", KEYS[1]) == ARGV[1] then
			return redis.call("pexpire", KEYS[1], ARGV[2])
		else
			return 0
		end
	`)
)

// RedisLock Redis分布式锁实现
type RedisLock struct {
	client     redis.UniversalClient
	instanceID string // 实例ID，用于标识锁的持有者
}

// NewRedisLock 创建Redis分布式锁，instanceID 为空时使用 主机名:进程ID
func NewRedisLock(client redis.UniversalClient, instanceID string) *RedisLock {
	if instanceID == "" {
		hostname, _ := os.Hostname()
		instanceID = fmt.Sprintf("%s:%d", hostname, os.Getpid())
	}
	return &RedisLock{client: client, instanceID: instanceID}
}

// InstanceID 锁持有者标识
func (r *RedisLock) InstanceID() string {
	return r.instanceID
}

// TryLock 尝试获取锁
// 使用SET NX命令，只有当key不存在时才会设置成功
func (r *RedisLock) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := r.client.SetNX(ctx, KeyPrefix+key, r.instanceID, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("获取锁失败: %w", err)
	}
	if ok {
		slog.Debug("分布式锁: 成功获取锁", "key", key, "ttl", ttl, "instance", r.instanceID)
	}
	return ok, nil
}

// Unlock 释放锁，锁已过期或被其他实例持有时只记录警告
func (r *RedisLock) Unlock(ctx context.Context, key string) error {
	n, err := unlockScript.Run(ctx, r.client, []string{KeyPrefix + key}, r.instanceID).Int64()
	if err != nil {
		return fmt.Errorf("释放锁失败: %w", err)
	}
	if n == 0 {
		slog.Warn("分布式锁: 锁不存在或已被其他实例持有", "key", key, "instance", r.instanceID)
	}
	return nil
}

// Refresh 刷新锁的过期时间
func (r *RedisLock) Refresh(ctx context.Context, key string, ttl time.Duration) error {
	n, err := refreshScript.Run(ctx, r.client, []string{KeyPrefix + key}, r.instanceID, ttl.Milliseconds()).Int64()
	if err != nil {
		return fmt.Errorf("刷新锁失败: %w", err)
	}
	if n == 0 {
		return ErrLockNotHeld
	}
	return nil
}

// LockExecutor 带锁执行器，用于简化锁的使用
type LockExecutor struct {
	lock DistributedLock
}

// NewLockExecutor 创建带锁执行器
func NewLockExecutor(lock DistributedLock) *LockExecutor {
	return &LockExecutor{lock: lock}
}

// ExecuteWithLockAndRefresh 在锁保护下执行函数并按 ttl/3 自动续期
// 锁被其他实例持有时不执行，返回 executed=false
func (e *LockExecutor) ExecuteWithLockAndRefresh(ctx context.Context, key string, ttl time.Duration, fn func() error) (executed bool, err error) {
	locked, err := e.lock.TryLock(ctx, key, ttl)
	if err != nil {
		return false, err
	}
	if !locked {
		slog.Debug("分布式锁: 锁已被其他实例持有，跳过执行", "key", key)
		return false, nil
	}

	refreshCtx, cancelRefresh := context.WithCancel(ctx)
	defer cancelRefresh()

	interval := ttl / 3
	if interval <= 0 {
		interval = time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-refreshCtx.Done():
				return
			case <-ticker.C:
				if refreshErr := e.lock.Refresh(refreshCtx, key, ttl); refreshErr != nil {
					slog.Error("分布式锁: 续期失败", "key", key, "error", refreshErr)
				}
			}
		}
	}()

	defer func() {
		cancelRefresh()
		if unlockErr := e.lock.Unlock(context.WithoutCancel(ctx), key); unlockErr != nil {
			slog.Error("分布式锁: 释放锁失败", "key", key, "error", unlockErr)
		}
	}()

	return true, fn()
}
