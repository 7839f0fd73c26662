/*
 * @module service/cleaning_service
 * @description 清洗服务：加载表 -> 执行管道 -> 记录运行 -> 发布事件
 * @architecture 分层架构 - 业务服务层
 * @stateFlow 请求 -> Load -> Pipeline.RunRequest -> PipelineRun 记录 -> 指标 -> RunEvent
 * @rules 记录与发布失败只写日志，不改变运行结果；每次运行都有唯一ID
 * @dependencies github.com/google/uuid, datascrub/service/data_cleaning, datascrub/service/history, datascrub/service/event
 * @refs service/init.go, api/controllers/pipeline_controller.go, service/scheduler/job_scheduler.go
 */

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"datascrub/service/data_cleaning"
	"datascrub/service/event"
	"datascrub/service/history"
	"datascrub/service/models"
	"datascrub/service/monitoring"
	"datascrub/service/table_io"

	"github.com/google/uuid"
)

// 触发来源
const (
	TriggerAPI       = "api"
	TriggerScheduler = "scheduler"
)

// sourceInline 内联表的来源描述
const sourceInline = "inline"

// ErrHistoryDisabled 未配置运行记录数据库
var ErrHistoryDisabled = errors.New("未启用运行记录")

// RunRequest 一次清洗运行
type RunRequest struct {
	Input   interface{} // 文件路径或 *models.Table
	Config  data_cleaning.RequestConfig
	Trigger string
}

// RunOutput 运行结果，失败时只有 RunID
type RunOutput struct {
	RunID  string
	Result *data_cleaning.Result
}

// CleaningService 清洗服务
type CleaningService struct {
	pipeline   *data_cleaning.Pipeline
	recorder   *history.Recorder
	metrics    *monitoring.MetricsCollector
	dispatcher *event.Dispatcher
	logger     *slog.Logger
}

// NewCleaningService 创建清洗服务，recorder、metrics、dispatcher 均可为 nil
func NewCleaningService(pipeline *data_cleaning.Pipeline, recorder *history.Recorder, metrics *monitoring.MetricsCollector, dispatcher *event.Dispatcher) *CleaningService {
	if pipeline == nil {
		pipeline = data_cleaning.NewPipeline()
	}
	return &CleaningService{
		pipeline:   pipeline,
		recorder:   recorder,
		metrics:    metrics,
		dispatcher: dispatcher,
		logger:     slog.Default().With("component", "cleaning_service"),
	}
}

// Run 执行一次清洗运行
func (s *CleaningService) Run(ctx context.Context, req RunRequest) (*RunOutput, error) {
	if req.Trigger == "" {
		req.Trigger = TriggerAPI
	}

	start := time.Now()
	run := &models.PipelineRun{
		ID:        uuid.New().String(),
		Source:    describeSource(req.Input),
		Trigger:   req.Trigger,
		Config:    req.Config.Snapshot(),
		Stages:    models.JSONBStringArray{},
		Warnings:  models.JSONBStringArray{},
		StartedAt: start,
	}
	logger := s.logger.With("run_id", run.ID, "source", run.Source, "trigger", run.Trigger)

	result, err := s.execute(ctx, req, run)
	run.DurationMs = time.Since(start).Milliseconds()

	if err != nil {
		run.Status = models.PipelineRunStatusFailed
		run.ErrorType = string(models.ErrorTypeOf(err))
		run.ErrorMessage = err.Error()
		logger.Error("清洗运行失败", "error_type", run.ErrorType, "error", err)
	} else {
		run.Status = models.PipelineRunStatusSuccess
		logger.Info("清洗运行完成",
			"rows_in", run.InputRows,
			"rows_out", run.OutputRows,
			"warnings", len(run.Warnings),
			"duration_ms", run.DurationMs)
	}

	s.finish(ctx, run, time.Since(start))

	output := &RunOutput{RunID: run.ID}
	if err != nil {
		return output, err
	}
	output.Result = result
	return output, nil
}

func (s *CleaningService) execute(ctx context.Context, req RunRequest, run *models.PipelineRun) (*data_cleaning.Result, error) {
	table, err := table_io.Load(req.Input)
	if err != nil {
		return nil, err
	}
	run.InputRows = table.NumRows()
	run.InputColumns = table.NumColumns()

	result, err := s.pipeline.RunRequest(ctx, table, req.Config)
	if err != nil {
		return nil, err
	}

	run.OutputRows = result.Table.NumRows()
	run.OutputColumns = result.Table.NumColumns()
	run.Stages = append(run.Stages, result.Stages...)
	for _, w := range result.Warnings {
		run.Warnings = append(run.Warnings, formatWarning(w))
	}
	return result, nil
}

// finish 记录、统计并发布；失败只记日志
func (s *CleaningService) finish(ctx context.Context, run *models.PipelineRun, elapsed time.Duration) {
	if s.recorder != nil {
		if err := s.recorder.Record(context.WithoutCancel(ctx), run); err != nil {
			s.logger.Warn("保存运行记录失败", "run_id", run.ID, "error", err)
		}
	}

	if s.metrics != nil {
		s.metrics.RunCompleted(run.Status, triggerLabel(run.Trigger), elapsed)
	}

	if s.dispatcher.Enabled() {
		s.dispatcher.Dispatch(context.WithoutCancel(ctx), &event.RunEvent{
			Type:       event.EventTypeRunCompleted,
			RunID:      run.ID,
			Source:     run.Source,
			Trigger:    run.Trigger,
			Status:     run.Status,
			ErrorType:  run.ErrorType,
			Error:      run.ErrorMessage,
			InputRows:  run.InputRows,
			OutputRows: run.OutputRows,
			Stages:     run.Stages,
			Warnings:   len(run.Warnings),
			DurationMs: run.DurationMs,
			Timestamp:  run.StartedAt,
		})
	}
}

// RunFile 清洗文件并返回结果表，供定时任务调用
func (s *CleaningService) RunFile(ctx context.Context, path string, cfg data_cleaning.RequestConfig, trigger string) (*models.Table, error) {
	output, err := s.Run(ctx, RunRequest{Input: path, Config: cfg, Trigger: trigger})
	if err != nil {
		return nil, err
	}
	return output.Result.Table, nil
}

// ListRuns 最近的运行记录
func (s *CleaningService) ListRuns(ctx context.Context, limit int, status string) ([]models.PipelineRun, error) {
	if s.recorder == nil {
		return nil, ErrHistoryDisabled
	}
	return s.recorder.List(ctx, limit, status)
}

// GetRun 按ID获取运行记录
func (s *CleaningService) GetRun(ctx context.Context, id string) (*models.PipelineRun, error) {
	if s.recorder == nil {
		return nil, ErrHistoryDisabled
	}
	return s.recorder.Get(ctx, id)
}

// RunStats 按状态统计运行次数
func (s *CleaningService) RunStats(ctx context.Context) (map[string]int64, error) {
	if s.recorder == nil {
		return nil, ErrHistoryDisabled
	}
	return s.recorder.Stats(ctx)
}

// HistoryEnabled 是否启用运行记录
func (s *CleaningService) HistoryEnabled() bool {
	return s.recorder != nil
}

func describeSource(input interface{}) string {
	switch v := input.(type) {
	case string:
		return v
	case *models.Table, models.Table:
		return sourceInline
	default:
		return fmt.Sprintf("%T", v)
	}
}

func formatWarning(w data_cleaning.Warning) string {
	if w.Column == "" {
		return fmt.Sprintf("%s: %s", w.Stage, w.Message)
	}
	return fmt.Sprintf("%s[%s]: %s", w.Stage, w.Column, w.Message)
}

// triggerLabel 指标标签只保留来源类别，scheduler:<job> 归为 scheduler
func triggerLabel(trigger string) string {
	if kind, _, found := strings.Cut(trigger, ":"); found {
		return kind
	}
	return trigger
}
