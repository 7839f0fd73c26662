/*
 * @module service/init
 * @description 服务初始化模块，负责数据库、Redis、翻译、事件发布、调度器、运行记录清理等依赖的装配
 * @architecture 分层架构 - 服务层
 * @stateFlow 应用启动时执行初始化流程，退出时执行 Shutdown
 * @rules 可选依赖（数据库、Redis、翻译、Kafka、MQTT、调度器）未配置时跳过；已配置但不可用时拒绝启动
 * @dependencies gorm.io/gorm, gorm.io/driver/postgres, gorm.io/driver/sqlite, github.com/go-redis/redis/v8
 * @refs service/config/config_manager.go, main.go
 */

package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"datascrub/service/cleanup"
	"datascrub/service/config"
	"datascrub/service/data_cleaning"
	"datascrub/service/distributed_lock"
	"datascrub/service/event"
	"datascrub/service/history"
	"datascrub/service/monitoring"
	"datascrub/service/rate_limiter"
	"datascrub/service/scheduler"
	"datascrub/service/translation"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var (
	DB                      *gorm.DB
	RedisClient             *redis.Client
	GlobalMetricsCollector  *monitoring.MetricsCollector
	GlobalRecorder          *history.Recorder
	GlobalDispatcher        *event.Dispatcher
	GlobalCleaningService   *CleaningService
	GlobalJobScheduler      *scheduler.JobScheduler
	GlobalCleanupService    *cleanup.HistoryCleanupService
	GlobalTranslatorEnabled bool
	GlobalDataRoot          string
)

// Init 按配置初始化所有服务
func Init(cfg *config.AppConfig) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	GlobalMetricsCollector = monitoring.NewMetricsCollector(nil)
	GlobalDataRoot = cfg.Data.Root

	if err := initDatabase(cfg.Database); err != nil {
		return err
	}
	if err := initCleanup(cfg.History); err != nil {
		return err
	}
	if err := initRedis(ctx, cfg.Redis); err != nil {
		return err
	}

	translator, err := initTranslator(cfg)
	if err != nil {
		return err
	}

	dispatcher, err := initPublishers(cfg)
	if err != nil {
		return err
	}
	GlobalDispatcher = dispatcher

	pipelineOpts := []data_cleaning.Option{
		data_cleaning.WithObserver(GlobalMetricsCollector),
		data_cleaning.WithTranslateOptions(data_cleaning.TranslateOptions{
			Concurrency:   cfg.Translation.Concurrency,
			CallTimeout:   cfg.Translation.Timeout,
			RetryAttempts: cfg.Translation.RetryAttempts,
			RetryBackoff:  cfg.Translation.RetryBackoff,
		}),
	}
	if translator != nil {
		pipelineOpts = append(pipelineOpts, data_cleaning.WithTranslator(translator))
		GlobalTranslatorEnabled = true
	}

	GlobalCleaningService = NewCleaningService(
		data_cleaning.NewPipeline(pipelineOpts...),
		GlobalRecorder,
		GlobalMetricsCollector,
		GlobalDispatcher,
	)

	if err := initScheduler(cfg.Scheduler); err != nil {
		return err
	}

	slog.Info("服务初始化完成",
		"history", GlobalRecorder != nil,
		"translation", GlobalTranslatorEnabled,
		"redis", RedisClient != nil,
		"events", GlobalDispatcher.Enabled(),
		"scheduler", GlobalJobScheduler != nil)
	return nil
}

// initDatabase 初始化运行记录数据库，未配置 DATABASE_URL 时不记录历史
func initDatabase(cfg config.DatabaseConfig) error {
	if cfg.URL == "" {
		slog.Info("未配置 DATABASE_URL，运行记录已禁用")
		return nil
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.URL)
	default:
		dialector = postgres.Open(cfg.URL)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Warn)})
	if err != nil {
		return fmt.Errorf("数据库连接失败: %w", err)
	}
	slog.Info("数据库连接成功", "driver", cfg.Driver)

	recorder := history.NewRecorder(db)
	if err := recorder.AutoMigrate(); err != nil {
		return err
	}
	slog.Info("数据库表结构迁移完成")

	DB = db
	GlobalRecorder = recorder
	return nil
}

// initCleanup 启动运行记录清理，未启用运行记录时跳过
func initCleanup(cfg config.HistoryConfig) error {
	if GlobalRecorder == nil {
		return nil
	}
	svc := cleanup.NewHistoryCleanupService(GlobalRecorder, cfg.RetentionDays, cfg.CleanupSchedule)
	if err := svc.StartScheduledCleanup(); err != nil {
		return err
	}
	GlobalCleanupService = svc
	return nil
}

// initRedis 连接 Redis，未配置 REDIS_ADDR 时跳过
func initRedis(ctx context.Context, cfg config.RedisConfig) error {
	if cfg.Addr == "" {
		return nil
	}
	client, err := translation.NewRedisClient(ctx, cfg.Addr, cfg.Password, cfg.DB)
	if err != nil {
		return err
	}
	RedisClient = client
	slog.Info("Redis 连接成功", "addr", cfg.Addr)
	return nil
}

// initTranslator 初始化翻译服务，有 Redis 时依次包装限流和缓存
func initTranslator(cfg *config.AppConfig) (data_cleaning.Translator, error) {
	if cfg.Translation.URL == "" {
		slog.Info("未配置 TRANSLATION_URL，翻译阶段不可用")
		return nil, nil
	}

	httpTranslator, err := translation.NewHTTPTranslator(translation.HTTPOptions{
		BaseURL:        cfg.Translation.URL,
		APIKey:         cfg.Translation.APIKey,
		SourceLanguage: cfg.Translation.Source,
		TargetLanguage: cfg.Translation.Target,
		Timeout:        cfg.Translation.Timeout,
	})
	if err != nil {
		return nil, err
	}

	if RedisClient == nil {
		if cfg.Translation.RateLimit > 0 {
			slog.Warn("未配置 Redis，翻译限流不生效", "rate_limit", cfg.Translation.RateLimit)
		}
		return httpTranslator, nil
	}

	var translator translation.Translator = httpTranslator
	if cfg.Translation.RateLimit > 0 {
		limiter, err := rate_limiter.NewRedisRateLimiter(RedisClient, cfg.Translation.RateLimit, time.Second)
		if err != nil {
			return nil, err
		}
		translator = translation.NewRateLimitedTranslator(translator, limiter)
		slog.Info("翻译限流已启用", "per_second", cfg.Translation.RateLimit)
	}

	slog.Info("Redis 翻译缓存已启用", "ttl", cfg.Redis.CacheTTL)
	return translation.NewCachedTranslator(translator, RedisClient, httpTranslator.SourceLanguage(), httpTranslator.TargetLanguage(), cfg.Redis.CacheTTL), nil
}

// initPublishers 初始化运行事件发布者
func initPublishers(cfg *config.AppConfig) (*event.Dispatcher, error) {
	var publishers []event.Publisher

	if len(cfg.Kafka.Brokers) > 0 {
		p, err := event.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			return nil, err
		}
		publishers = append(publishers, p)
		slog.Info("Kafka 事件发布已启用", "topic", cfg.Kafka.Topic)
	}

	if cfg.MQTT.Broker != "" {
		p, err := event.NewMQTTPublisher(event.MQTTOptions{
			Broker:   cfg.MQTT.Broker,
			ClientID: "datascrub-" + uuid.New().String()[:8],
			Username: cfg.MQTT.Username,
			Password: cfg.MQTT.Password,
			Topic:    cfg.MQTT.Topic,
			QoS:      cfg.MQTT.QoS,
		})
		if err != nil {
			return nil, err
		}
		publishers = append(publishers, p)
		slog.Info("MQTT 事件发布已启用", "topic", cfg.MQTT.Topic)
	}

	return event.NewDispatcher(5*time.Second, publishers...), nil
}

// initScheduler 加载任务文件并启动调度器
func initScheduler(cfg config.SchedulerConfig) error {
	if cfg.JobsFile == "" {
		return nil
	}

	jobs, err := scheduler.LoadJobs(cfg.JobsFile)
	if err != nil {
		return err
	}

	var opts []scheduler.Option
	if RedisClient != nil {
		opts = append(opts, scheduler.WithLock(distributed_lock.NewRedisLock(RedisClient, ""), cfg.LockTTL))
	}

	s := scheduler.NewJobScheduler(GlobalCleaningService, slog.Default(), opts...)
	for _, job := range jobs {
		if err := s.AddJob(job); err != nil {
			return err
		}
	}
	s.Start()
	GlobalJobScheduler = s
	return nil
}

// Shutdown 停止调度器并释放连接
func Shutdown() {
	if GlobalJobScheduler != nil {
		GlobalJobScheduler.Stop()
	}
	if GlobalCleanupService != nil {
		GlobalCleanupService.StopScheduledCleanup()
	}
	if err := GlobalDispatcher.Close(); err != nil {
		slog.Warn("关闭事件发布者失败", "error", err)
	}
	if RedisClient != nil {
		if err := RedisClient.Close(); err != nil {
			slog.Warn("关闭 Redis 连接失败", "error", err)
		}
	}
	if DB != nil {
		if sqlDB, err := DB.DB(); err == nil {
			sqlDB.Close()
		}
	}
	slog.Info("服务已停止")
}
