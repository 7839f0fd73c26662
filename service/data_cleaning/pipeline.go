/*
 * @module service/data_cleaning/pipeline
 * @description 清洗管道编排器，按固定顺序串联各阶段
 * @architecture 编排层 - 只持有当前表，阶段之间不直接调用
 * @stateFlow 原始表 -> 缺失值 -> 日期 -> 翻译 -> 文本 -> 缩放 -> 展开 -> 去重 -> 结果表
 * @rules 阶段顺序与配置字段顺序无关；去重始终执行；首个阶段失败即中止并原样返回错误
 * @dependencies context, log/slog, time, datascrub/service/models
 * @refs config.go, translator.go, scaling.go
 */

package data_cleaning

import (
	"context"
	"log/slog"
	"time"

	"datascrub/service/models"
)

// Observer 管道执行观察者，用于指标采集
type Observer interface {
	StageCompleted(stage string, rowsIn, rowsOut int, duration time.Duration)
	TranslationCall(outcome string, duration time.Duration)
}

// NopObserver 空观察者
type NopObserver struct{}

// StageCompleted 实现 Observer
func (NopObserver) StageCompleted(string, int, int, time.Duration) {}

// TranslationCall 实现 Observer
func (NopObserver) TranslationCall(string, time.Duration) {}

// Warning 阶段级警告，不中止管道
type Warning struct {
	Stage   string `json:"stage"`
	Column  string `json:"column"`
	Message string `json:"message"`
}

// Result 管道执行结果
type Result struct {
	Table    *models.Table
	Stages   []string  // 实际执行的阶段，按执行顺序
	Warnings []Warning // 缩放阶段的列级失败
}

// Pipeline 清洗管道编排器
type Pipeline struct {
	translator  Translator
	translate   TranslateOptions
	transformer PowerTransformer
	observer    Observer
	logger      *slog.Logger
}

// Option 编排器选项
type Option func(*Pipeline)

// WithTranslator 设置翻译协作方
func WithTranslator(t Translator) Option {
	return func(p *Pipeline) { p.translator = t }
}

// WithTranslateOptions 设置翻译并发、超时与重试参数
func WithTranslateOptions(opts TranslateOptions) Option {
	return func(p *Pipeline) { p.translate = opts }
}

// WithPowerTransformer 替换缩放阶段的幂变换实现
func WithPowerTransformer(t PowerTransformer) Option {
	return func(p *Pipeline) { p.transformer = t }
}

// WithObserver 设置执行观察者
func WithObserver(o Observer) Option {
	return func(p *Pipeline) {
		if o != nil {
			p.observer = o
		}
	}
}

// WithLogger 设置日志记录器
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewPipeline 创建编排器
func NewPipeline(opts ...Option) *Pipeline {
	p := &Pipeline{
		translate:   DefaultTranslateOptions(),
		transformer: NewBoxCox(),
		observer:    NopObserver{},
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// stageFunc 单个阶段：输入当前表，返回新表
type stageFunc func(ctx context.Context, t *models.Table) (*models.Table, error)

type stage struct {
	name string
	run  stageFunc
}

// plan 按固定顺序生成启用的阶段
func (p *Pipeline) plan(cfg Config, result *Result) []stage {
	var stages []stage

	if len(cfg.MissingValues) > 0 {
		stages = append(stages, stage{StageMissingValues, func(_ context.Context, t *models.Table) (*models.Table, error) {
			return ResolveMissingValues(t, cfg.MissingValues)
		}})
	}
	if len(cfg.ParseDate) > 0 {
		stages = append(stages, stage{StageParseDate, func(_ context.Context, t *models.Table) (*models.Table, error) {
			return NormalizeDates(t, cfg.ParseDate)
		}})
	}
	if len(cfg.TranslateColumns) > 0 {
		translator := NewColumnTranslator(p.translator, p.translate, p.observer)
		stages = append(stages, stage{StageTranslate, func(ctx context.Context, t *models.Table) (*models.Table, error) {
			return translator.Apply(ctx, t, cfg.TranslateColumns)
		}})
	}
	if cfg.Clean.Enabled() {
		stages = append(stages, stage{StageClean, func(_ context.Context, t *models.Table) (*models.Table, error) {
			return NormalizeText(t, cfg.Clean)
		}})
	}
	if cfg.ScalingNormalization {
		stages = append(stages, stage{StageScaling, func(_ context.Context, t *models.Table) (*models.Table, error) {
			out, failures := NormalizeScaling(t, p.transformer)
			for _, f := range failures {
				p.logger.Warn("数值变换失败，列保持不变", "stage", StageScaling, "column", f.Column, "error", f.Err)
				result.Warnings = append(result.Warnings, Warning{
					Stage:   StageScaling,
					Column:  f.Column,
					Message: f.Err.Error(),
				})
			}
			return out, nil
		}})
	}
	if len(cfg.Explode) > 0 {
		stages = append(stages, stage{StageExplode, func(_ context.Context, t *models.Table) (*models.Table, error) {
			return ExplodeColumns(t, cfg.Explode)
		}})
	}
	stages = append(stages, stage{StageDeduplicate, func(_ context.Context, t *models.Table) (*models.Table, error) {
		return DropDuplicates(t), nil
	}})

	return stages
}

// Run 执行管道；失败时不返回部分结果，输入表不会被修改
func (p *Pipeline) Run(ctx context.Context, t *models.Table, cfg Config) (*Result, error) {
	if t == nil {
		return nil, &models.InvalidInputError{Input: "nil"}
	}

	start := time.Now()
	result := &Result{}
	current := t

	for _, s := range p.plan(cfg, result) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		stageStart := time.Now()
		next, err := s.run(ctx, current)
		if err != nil {
			p.logger.Error("清洗阶段失败", "stage", s.name, "error", err)
			return nil, err
		}

		elapsed := time.Since(stageStart)
		p.observer.StageCompleted(s.name, current.NumRows(), next.NumRows(), elapsed)
		p.logger.Debug("清洗阶段完成",
			"stage", s.name,
			"rows_in", current.NumRows(),
			"rows_out", next.NumRows(),
			"columns", next.NumColumns(),
			"duration_ms", elapsed.Milliseconds())

		result.Stages = append(result.Stages, s.name)
		current = next
	}

	if current == t {
		current = t.Clone()
	}
	result.Table = current

	p.logger.Info("清洗管道执行完成",
		"stages", len(result.Stages),
		"rows_in", t.NumRows(),
		"rows_out", current.NumRows(),
		"warnings", len(result.Warnings),
		"duration_ms", time.Since(start).Milliseconds())
	return result, nil
}

// RunRequest 解析外部配置并执行管道
func (p *Pipeline) RunRequest(ctx context.Context, t *models.Table, rc RequestConfig) (*Result, error) {
	cfg, err := ParseRequestConfig(rc)
	if err != nil {
		return nil, err
	}
	return p.Run(ctx, t, cfg)
}
