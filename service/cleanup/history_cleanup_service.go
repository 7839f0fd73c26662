/*
 * @module service/cleanup/history_cleanup_service
 * @description 运行记录清理服务，定期删除超过保留期的管道运行记录
 * @architecture 分层架构 - 业务服务层
 * @stateFlow 定时触发 -> 计算截止时间 -> 删除过期记录 -> 记录结果
 * @rules 保留天数为 0 时不清理；清理失败只记录日志，不影响清理管道运行
 * @dependencies datascrub/service/history, github.com/robfig/cron/v3
 * @refs service/init.go, service/config
 */

package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"datascrub/service/history"

	"github.com/robfig/cron/v3"
)

// HistoryCleanupService 运行记录清理服务
type HistoryCleanupService struct {
	recorder      *history.Recorder
	retentionDays int
	schedule      string
	cron          *cron.Cron
	ctx           context.Context
	cancel        context.CancelFunc
	started       bool
	now           func() time.Time
}

// NewHistoryCleanupService 创建运行记录清理服务，schedule 为标准 5 段 cron 表达式
func NewHistoryCleanupService(recorder *history.Recorder, retentionDays int, schedule string) *HistoryCleanupService {
	ctx, cancel := context.WithCancel(context.Background())

	return &HistoryCleanupService{
		recorder:      recorder,
		retentionDays: retentionDays,
		schedule:      schedule,
		cron:          cron.New(),
		ctx:           ctx,
		cancel:        cancel,
		now:           time.Now,
	}
}

// CleanupExpiredRuns 删除过期运行记录，返回删除条数
func (s *HistoryCleanupService) CleanupExpiredRuns(ctx context.Context) (int64, error) {
	if s.retentionDays <= 0 {
		return 0, nil
	}

	startTime := s.now()
	cutoff := startTime.AddDate(0, 0, -s.retentionDays)
	slog.Debug("清理运行记录", "cutoff", cutoff.Format("2006-01-02 15:04:05"), "retention_days", s.retentionDays)

	deleted, err := s.recorder.DeleteBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	slog.Info("运行记录清理完成",
		"deleted_count", deleted,
		"retention_days", s.retentionDays,
		"duration_ms", time.Since(startTime).Milliseconds())
	return deleted, nil
}

// StartScheduledCleanup 启动定时清理任务，启动时先执行一次
func (s *HistoryCleanupService) StartScheduledCleanup() error {
	if s.started {
		return fmt.Errorf("运行记录清理调度器已经启动")
	}
	if s.retentionDays <= 0 {
		slog.Info("未配置运行记录保留天数，不启动清理调度器")
		return nil
	}

	_, err := s.cron.AddFunc(s.schedule, func() {
		if _, err := s.CleanupExpiredRuns(s.ctx); err != nil {
			slog.Error("定时运行记录清理失败", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("添加定时任务失败: %w", err)
	}

	s.cron.Start()
	s.started = true
	slog.Info("运行记录清理调度器启动成功", "schedule", s.schedule, "retention_days", s.retentionDays)

	go func() {
		if _, err := s.CleanupExpiredRuns(s.ctx); err != nil {
			slog.Error("首次运行记录清理失败", "error", err)
		}
	}()
	return nil
}

// StopScheduledCleanup 停止定时清理任务
func (s *HistoryCleanupService) StopScheduledCleanup() {
	if !s.started {
		return
	}

	s.cancel()
	<-s.cron.Stop().Done()
	s.started = false

	slog.Info("运行记录清理调度器已停止")
}
