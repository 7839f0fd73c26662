/*
 * @module service/scheduler/job_scheduler
 * @description 定时清洗任务调度器，按 cron 表达式执行任务文件中定义的清洗任务
 * @architecture 基于 robfig/cron 的调度器模式
 * @stateFlow 任务文件 -> 校验 -> 注册 cron -> 触发 -> 加载/清洗/写出
 * @rules 支持标准 5 段表达式和 @every/@daily 等描述符；同一任务不会并发执行，配置分布式锁后跨实例也不会
 * @dependencies github.com/robfig/cron/v3, gopkg.in/yaml.v3, github.com/go-playground/validator/v10
 * @refs service/cleaning_service.go, service/init.go
 */

package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"datascrub/service/data_cleaning"
	"datascrub/service/distributed_lock"
	"datascrub/service/models"
	"datascrub/service/table_io"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// TriggerPrefix 定时任务运行的触发来源前缀
const TriggerPrefix = "scheduler:"

// Job 定时清洗任务
type Job struct {
	Name     string                      `yaml:"name" validate:"required"`
	Schedule string                      `yaml:"schedule" validate:"required"`
	Input    string                      `yaml:"input" validate:"required"`
	Output   string                      `yaml:"output"`
	Config   data_cleaning.RequestConfig `yaml:"config"`
}

// JobFile 任务文件
type JobFile struct {
	Jobs []Job `yaml:"jobs" validate:"dive"`
}

// Runner 执行一次文件清洗运行
type Runner interface {
	RunFile(ctx context.Context, path string, cfg data_cleaning.RequestConfig, trigger string) (*models.Table, error)
}

var (
	validate = validator.New()
	parser   = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
)

// ParseJobs 解析并校验任务文件内容
func ParseJobs(data []byte) ([]Job, error) {
	var file JobFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("解析任务文件失败: %w", err)
	}
	if err := validate.Struct(&file); err != nil {
		return nil, fmt.Errorf("任务文件校验失败: %w", err)
	}

	seen := make(map[string]bool, len(file.Jobs))
	for _, job := range file.Jobs {
		if seen[job.Name] {
			return nil, fmt.Errorf("任务名称重复: %s", job.Name)
		}
		seen[job.Name] = true

		if _, err := parser.Parse(job.Schedule); err != nil {
			return nil, fmt.Errorf("任务 %s 的调度表达式无效: %w", job.Name, err)
		}
		if _, err := data_cleaning.ParseRequestConfig(job.Config); err != nil {
			return nil, fmt.Errorf("任务 %s 的清洗配置无效: %w", job.Name, err)
		}
	}
	return file.Jobs, nil
}

// LoadJobs 读取任务文件
func LoadJobs(path string) ([]Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取任务文件失败: %w", err)
	}
	return ParseJobs(data)
}

// JobScheduler 定时任务调度器
type JobScheduler struct {
	runner  Runner
	cron    *cron.Cron
	logger  *slog.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	mu      sync.Mutex
	entries map[string]cron.EntryID
	running map[string]bool
	lock    *distributed_lock.LockExecutor
	lockTTL time.Duration
}

// DefaultLockTTL 任务锁默认过期时间，执行期间自动续期
const DefaultLockTTL = 5 * time.Minute

// Option 调度器选项
type Option func(*JobScheduler)

// WithLock 多实例部署时用分布式锁保证同一任务只在一个实例执行
func WithLock(lock distributed_lock.DistributedLock, ttl time.Duration) Option {
	return func(s *JobScheduler) {
		if ttl <= 0 {
			ttl = DefaultLockTTL
		}
		s.lock = distributed_lock.NewLockExecutor(lock)
		s.lockTTL = ttl
	}
}

// NewJobScheduler 创建调度器
func NewJobScheduler(runner Runner, logger *slog.Logger, opts ...Option) *JobScheduler {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())

	s := &JobScheduler{
		runner:  runner,
		cron:    cron.New(cron.WithParser(parser)),
		logger:  logger.With("component", "scheduler"),
		ctx:     ctx,
		cancel:  cancel,
		entries: make(map[string]cron.EntryID),
		running: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddJob 注册任务
func (s *JobScheduler) AddJob(job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[job.Name]; exists {
		return fmt.Errorf("任务已存在: %s", job.Name)
	}

	id, err := s.cron.AddFunc(job.Schedule, func() {
		if err := s.RunJob(s.ctx, job); err != nil {
			s.logger.Error("定时任务执行失败", "job", job.Name, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("注册任务 %s 失败: %w", job.Name, err)
	}
	s.entries[job.Name] = id
	s.logger.Info("定时任务已注册", "job", job.Name, "schedule", job.Schedule)
	return nil
}

// RemoveJob 注销任务
func (s *JobScheduler) RemoveJob(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.entries[name]
	if !ok {
		return false
	}
	s.cron.Remove(id)
	delete(s.entries, name)
	return true
}

// Jobs 已注册的任务名
func (s *JobScheduler) Jobs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.entries))
	for name := range s.entries {
		names = append(names, name)
	}
	return names
}

// ErrJobRunning 同名任务仍在执行
var ErrJobRunning = errors.New("任务仍在执行")

// RunJob 立即执行一次任务；设置了 output 时写出结果
func (s *JobScheduler) RunJob(ctx context.Context, job Job) error {
	if !s.acquire(job.Name) {
		s.logger.Warn("跳过本次调度，上一次执行尚未结束", "job", job.Name)
		return ErrJobRunning
	}
	defer s.release(job.Name)

	if s.lock == nil {
		return s.execute(ctx, job)
	}

	executed, err := s.lock.ExecuteWithLockAndRefresh(ctx, job.Name, s.lockTTL, func() error {
		return s.execute(ctx, job)
	})
	if err == nil && !executed {
		s.logger.Info("任务正在其他实例执行，跳过", "job", job.Name)
	}
	return err
}

func (s *JobScheduler) execute(ctx context.Context, job Job) error {
	s.logger.Info("开始执行定时任务", "job", job.Name, "input", job.Input)

	table, err := s.runner.RunFile(ctx, job.Input, job.Config, TriggerPrefix+job.Name)
	if err != nil {
		return err
	}

	if job.Output != "" {
		if err := table_io.WriteFile(job.Output, table); err != nil {
			return fmt.Errorf("写出任务 %s 的结果失败: %w", job.Name, err)
		}
		s.logger.Info("定时任务结果已写出", "job", job.Name, "output", job.Output, "rows", table.NumRows())
	}
	return nil
}

func (s *JobScheduler) acquire(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running[name] {
		return false
	}
	s.running[name] = true
	return true
}

func (s *JobScheduler) release(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.running, name)
}

// Start 启动调度器
func (s *JobScheduler) Start() {
	s.logger.Info("启动定时任务调度器", "jobs", len(s.Jobs()))
	s.cron.Start()
}

// Stop 停止调度器并等待正在执行的任务结束
func (s *JobScheduler) Stop() {
	s.logger.Info("停止定时任务调度器")
	s.cancel()
	<-s.cron.Stop().Done()
}
