/*
 * @module service/data_cleaning/translator
 * @description 按列并发翻译文本单元格
 * @architecture 处理层 - translate_columns 阶段，外部翻译服务通过 Translator 接口注入
 * @stateFlow 列 -> errgroup 并发调用 -> 按行号回填
 * @rules 缺失单元格不翻译；并发数有上限；仅显式配置时重试；任一调用失败则阶段失败
 * @dependencies golang.org/x/sync/errgroup, github.com/sethvargo/go-retry
 * @refs service/translation, pipeline.go
 */

package data_cleaning

import (
	"context"
	"errors"
	"time"

	"datascrub/service/models"

	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/errgroup"
)

// Translator 外部翻译协作方，每次调用相互独立
type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
}

// TranslatorFunc 函数适配器
type TranslatorFunc func(ctx context.Context, text string) (string, error)

// Translate 实现 Translator
func (f TranslatorFunc) Translate(ctx context.Context, text string) (string, error) {
	return f(ctx, text)
}

// TranslateOptions 翻译阶段参数
type TranslateOptions struct {
	Concurrency   int           // 并发调用上限
	CallTimeout   time.Duration // 单次调用超时，0 表示不限制
	RetryAttempts uint64        // 失败重试次数，0 表示快速失败
	RetryBackoff  time.Duration // 指数退避基数
}

// DefaultTranslateOptions 默认参数：并发 4、超时 10 秒、不重试
func DefaultTranslateOptions() TranslateOptions {
	return TranslateOptions{
		Concurrency:  4,
		CallTimeout:  10 * time.Second,
		RetryBackoff: 200 * time.Millisecond,
	}
}

// 翻译调用结果
const (
	TranslationOutcomeSuccess = "success"
	TranslationOutcomeError   = "error"
	TranslationOutcomeTimeout = "timeout"
)

// ColumnTranslator 列翻译阶段
type ColumnTranslator struct {
	translator Translator
	opts       TranslateOptions
	observer   Observer
}

// NewColumnTranslator 创建列翻译阶段
func NewColumnTranslator(translator Translator, opts TranslateOptions, observer Observer) *ColumnTranslator {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if observer == nil {
		observer = NopObserver{}
	}
	return &ColumnTranslator{translator: translator, opts: opts, observer: observer}
}

// Apply 依次翻译各列；overwrite 为真时原位替换，否则追加 <列名>_translated
func (ct *ColumnTranslator) Apply(ctx context.Context, t *models.Table, rules []TranslateRule) (*models.Table, error) {
	if ct.translator == nil {
		return nil, &models.ConfigError{Field: StageTranslate, Reason: "未配置翻译服务"}
	}

	current := t
	for _, rule := range rules {
		col, ok := current.Column(rule.Column)
		if !ok {
			return nil, &models.ColumnNotFoundError{Stage: StageTranslate, Column: rule.Column}
		}

		translated, err := ct.translateColumn(ctx, col)
		if err != nil {
			return nil, err
		}

		next, err := current.WithColumn(models.NewColumn(rule.TargetColumn(), translated...))
		if err != nil {
			return nil, err
		}
		current = next
	}
	return current, nil
}

// translateColumn 有界并发调用，结果按行号回填，任一调用失败即整体失败
func (ct *ColumnTranslator) translateColumn(ctx context.Context, col models.Column) ([]models.Cell, error) {
	results := make([]models.Cell, col.Len())
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ct.opts.Concurrency)

	for row, v := range col.Values {
		if v.IsMissing() {
			results[row] = v
			continue
		}
		row, text := row, v.String()
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out, err := ct.translateCell(gctx, text)
			if err != nil {
				return &models.TranslationError{Column: col.Name, Row: row, Err: err}
			}
			results[row] = models.Text(out)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		var te *models.TranslationError
		if errors.As(err, &te) {
			return nil, err
		}
		return nil, &models.TranslationError{Column: col.Name, Row: -1, Err: err}
	}
	return results, nil
}

// translateCell 单次调用带超时；仅在显式配置时重试
func (ct *ColumnTranslator) translateCell(ctx context.Context, text string) (string, error) {
	if ct.opts.RetryAttempts == 0 {
		return ct.call(ctx, text)
	}

	base := ct.opts.RetryBackoff
	if base <= 0 {
		base = DefaultTranslateOptions().RetryBackoff
	}
	backoff := retry.WithMaxRetries(ct.opts.RetryAttempts, retry.NewExponential(base))

	var out string
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var callErr error
		out, callErr = ct.call(ctx, text)
		if callErr != nil {
			return retry.RetryableError(callErr)
		}
		return nil
	})
	return out, err
}

func (ct *ColumnTranslator) call(ctx context.Context, text string) (string, error) {
	if ct.opts.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, ct.opts.CallTimeout)
		defer cancel()
	}

	start := time.Now()
	out, err := ct.translator.Translate(ctx, text)
	switch {
	case err == nil:
		ct.observer.TranslationCall(TranslationOutcomeSuccess, time.Since(start))
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		ct.observer.TranslationCall(TranslationOutcomeTimeout, time.Since(start))
		if !errors.Is(err, context.DeadlineExceeded) {
			err = errors.Join(err, context.DeadlineExceeded)
		}
	default:
		ct.observer.TranslationCall(TranslationOutcomeError, time.Since(start))
	}
	return out, err
}
