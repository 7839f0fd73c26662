/*
 * @module service/translation/rate_limited
 * @description 翻译调用限流装饰器，保护外部翻译服务的调用额度
 * @architecture 基础设施层 - 包装任意翻译服务
 * @rules 等待额度时尊重 ctx 的取消与超时；限流检查失败时返回错误，不绕过限流
 * @dependencies service/rate_limiter
 * @refs redis_cache.go, service/init.go
 */

package translation

import (
	"context"
	"fmt"
)

// RateLimitName 翻译调用在限流器中的计数名称
const RateLimitName = "translation"

// Limiter 限流器
type Limiter interface {
	Wait(ctx context.Context, name string) error
}

// RateLimitedTranslator 带限流的翻译服务
type RateLimitedTranslator struct {
	next    Translator
	limiter Limiter
}

// NewRateLimitedTranslator 创建限流装饰器
func NewRateLimitedTranslator(next Translator, limiter Limiter) *RateLimitedTranslator {
	return &RateLimitedTranslator{next: next, limiter: limiter}
}

// Translate 获得额度后调用下游
func (t *RateLimitedTranslator) Translate(ctx context.Context, text string) (string, error) {
	if err := t.limiter.Wait(ctx, RateLimitName); err != nil {
		return "", fmt.Errorf("等待翻译额度失败: %w", err)
	}
	return t.next.Translate(ctx, text)
}
