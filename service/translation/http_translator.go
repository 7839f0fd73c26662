/*
 * @module service/translation/http_translator
 * @description 基于 HTTP 的机器翻译客户端，兼容 LibreTranslate 接口
 * @architecture 基础设施层 - 外部翻译服务适配器
 * @stateFlow 文本 -> POST /translate -> translatedText
 * @rules 客户端不做重试，重试与超时由清洗管道的翻译阶段统一控制
 * @dependencies github.com/go-resty/resty/v2
 * @refs service/data_cleaning/translator.go, redis_cache.go
 */

package translation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultTargetLanguage 默认目标语言
const DefaultTargetLanguage = "en"

// DefaultSourceLanguage 自动检测源语言
const DefaultSourceLanguage = "auto"

// HTTPOptions HTTP 翻译客户端配置
type HTTPOptions struct {
	BaseURL        string
	APIKey         string
	SourceLanguage string // 为空时自动检测
	TargetLanguage string
	Timeout        time.Duration
}

// HTTPTranslator LibreTranslate 兼容客户端
type HTTPTranslator struct {
	client *resty.Client
	source string
	target string
	apiKey string
}

type translateRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
	APIKey string `json:"api_key,omitempty"`
}

type translateResponse struct {
	TranslatedText string `json:"translatedText"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPTranslator 创建 HTTP 翻译客户端
func NewHTTPTranslator(opts HTTPOptions) (*HTTPTranslator, error) {
	if strings.TrimSpace(opts.BaseURL) == "" {
		return nil, errors.New("翻译服务地址不能为空")
	}
	if opts.TargetLanguage == "" {
		opts.TargetLanguage = DefaultTargetLanguage
	}
	if opts.SourceLanguage == "" {
		opts.SourceLanguage = DefaultSourceLanguage
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetRetryCount(0)
	if opts.Timeout > 0 {
		client.SetTimeout(opts.Timeout)
	}

	return &HTTPTranslator{
		client: client,
		source: opts.SourceLanguage,
		target: opts.TargetLanguage,
		apiKey: opts.APIKey,
	}, nil
}

// SourceLanguage 源语言
func (h *HTTPTranslator) SourceLanguage() string {
	return h.source
}

// TargetLanguage 目标语言
func (h *HTTPTranslator) TargetLanguage() string {
	return h.target
}

// Translate 翻译单条文本
func (h *HTTPTranslator) Translate(ctx context.Context, text string) (string, error) {
	var result translateResponse
	var apiErr errorResponse

	resp, err := h.client.R().
		SetContext(ctx).
		SetBody(translateRequest{
			Q:      text,
			Source: h.source,
			Target: h.target,
			Format: "text",
			APIKey: h.apiKey,
		}).
		SetResult(&result).
		SetError(&apiErr).
		Post("/translate")
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("翻译请求失败: %w", ctxErr)
		}
		return "", fmt.Errorf("翻译请求失败: %w", err)
	}

	if resp.IsError() {
		msg := apiErr.Error
		if msg == "" {
			msg = strings.TrimSpace(resp.String())
		}
		return "", fmt.Errorf("翻译服务返回错误 %d: %s", resp.StatusCode(), msg)
	}

	return result.TranslatedText, nil
}
