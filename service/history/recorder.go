/*
 * @module service/history/recorder
 * @description 清洗管道运行记录的持久化与查询
 * @architecture 数据访问层 - 基于 GORM，兼容 PostgreSQL 与 SQLite
 * @stateFlow 运行结束 -> Record -> pipeline_runs 表 -> List/Get
 * @rules 记录只追加不修改，只按保留期整批删除；列表按开始时间倒序
 * @dependencies gorm.io/gorm
 * @refs service/models/pipeline_run.go, service/cleaning_service.go
 */

package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"datascrub/service/models"

	"gorm.io/gorm"
)

// 列表分页上限
const (
	DefaultListLimit = 20
	MaxListLimit     = 200
)

// ErrRunNotFound 运行记录不存在
var ErrRunNotFound = errors.New("运行记录不存在")

// Recorder 运行记录存储
type Recorder struct {
	db *gorm.DB
}

// NewRecorder 创建运行记录存储
func NewRecorder(db *gorm.DB) *Recorder {
	return &Recorder{db: db}
}

// AutoMigrate 迁移运行记录表
func (r *Recorder) AutoMigrate() error {
	if err := r.db.AutoMigrate(&models.PipelineRun{}); err != nil {
		return fmt.Errorf("迁移运行记录表失败: %w", err)
	}
	return nil
}

// Record 保存一次运行
func (r *Recorder) Record(ctx context.Context, run *models.PipelineRun) error {
	if run.ID == "" {
		return errors.New("运行记录ID不能为空")
	}
	if err := r.db.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("保存运行记录失败: %w", err)
	}
	return nil
}

// List 按开始时间倒序列出最近的运行，status 为空时不过滤
func (r *Recorder) List(ctx context.Context, limit int, status string) ([]models.PipelineRun, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	query := r.db.WithContext(ctx).Model(&models.PipelineRun{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var runs []models.PipelineRun
	if err := query.Order("started_at DESC").Limit(limit).Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("查询运行记录失败: %w", err)
	}
	return runs, nil
}

// Get 按ID查询
func (r *Recorder) Get(ctx context.Context, id string) (*models.PipelineRun, error) {
	var run models.PipelineRun
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("查询运行记录失败: %w", err)
	}
	return &run, nil
}

// Stats 各状态的运行次数
func (r *Recorder) Stats(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	err := r.db.WithContext(ctx).Model(&models.PipelineRun{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("统计运行记录失败: %w", err)
	}

	stats := make(map[string]int64, len(rows))
	for _, row := range rows {
		stats[row.Status] = row.Count
	}
	return stats, nil
}

// DeleteBefore 删除开始时间早于 cutoff 的运行记录
func (r *Recorder) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("started_at < ?", cutoff).Delete(&models.PipelineRun{})
	if result.Error != nil {
		return 0, fmt.Errorf("删除过期运行记录失败: %w", result.Error)
	}
	return result.RowsAffected, nil
}
