/*
 * @module service/config/config_manager
 * @description 应用配置加载：默认值 -> YAML 文件 -> 环境变量覆盖 -> 校验
 * @architecture 配置层 - 启动时加载一次，之后只读
 * @stateFlow 默认配置 -> CONFIG_FILE -> 环境变量 -> validator 校验 -> AppConfig
 * @rules 环境变量优先级最高；校验失败时拒绝启动
 * @dependencies gopkg.in/yaml.v3, github.com/spf13/cast, github.com/go-playground/validator/v10, github.com/joho/godotenv
 * @refs service/init.go, main.go
 */

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// AppConfig 应用配置
type AppConfig struct {
	Server      ServerConfig      `yaml:"server"`
	Log         LogConfig         `yaml:"log"`
	Database    DatabaseConfig    `yaml:"database"`
	History     HistoryConfig     `yaml:"history"`
	Data        DataConfig        `yaml:"data"`
	Redis       RedisConfig       `yaml:"redis"`
	Translation TranslationConfig `yaml:"translation"`
	Kafka       KafkaConfig       `yaml:"kafka"`
	MQTT        MQTTConfig        `yaml:"mqtt"`
	Scheduler   SchedulerConfig   `yaml:"scheduler"`
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Port        int    `yaml:"port" validate:"min=1,max=65535"`
	BaseContext string `yaml:"base_context" validate:"omitempty,startswith=/"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
}

// DatabaseConfig 运行记录数据库配置，URL 为空时不记录运行历史
type DatabaseConfig struct {
	Driver string `yaml:"driver" validate:"oneof=postgres sqlite"`
	URL    string `yaml:"url"`
}

// HistoryConfig 运行记录保留配置，RetentionDays 为 0 时不清理
type HistoryConfig struct {
	RetentionDays   int    `yaml:"retention_days" validate:"min=0"`
	CleanupSchedule string `yaml:"cleanup_schedule" validate:"required"`
}

// DataConfig 接口按路径读取文件时的数据目录，Root 为空时接口不接受文件路径
type DataConfig struct {
	Root string `yaml:"root" validate:"omitempty,dir"`
}

// RedisConfig Redis 配置，Addr 为空时不启用翻译缓存、限流和分布式锁
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db" validate:"min=0,max=15"`
	CacheTTL time.Duration `yaml:"cache_ttl" validate:"min=0"`
}

// TranslationConfig 翻译服务配置，URL 为空时不启用翻译阶段
type TranslationConfig struct {
	URL           string        `yaml:"url" validate:"omitempty,url"`
	APIKey        string        `yaml:"api_key"`
	Source        string        `yaml:"source"`
	Target        string        `yaml:"target" validate:"required"`
	Timeout       time.Duration `yaml:"timeout" validate:"min=0"`
	Concurrency   int           `yaml:"concurrency" validate:"min=1,max=64"`
	RetryAttempts uint64        `yaml:"retry_attempts" validate:"max=10"`
	RetryBackoff  time.Duration `yaml:"retry_backoff" validate:"min=0"`
	RateLimit     int           `yaml:"rate_limit" validate:"min=0"` // 每秒调用次数，0 表示不限流
}

// KafkaConfig 运行事件 Kafka 配置
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic" validate:"required_with=Brokers"`
}

// MQTTConfig 运行事件 MQTT 配置
type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	Topic    string `yaml:"topic" validate:"required_with=Broker"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	QoS      uint8  `yaml:"qos" validate:"max=2"`
}

// SchedulerConfig 定时任务配置
type SchedulerConfig struct {
	JobsFile string        `yaml:"jobs_file"`
	LockTTL  time.Duration `yaml:"lock_ttl" validate:"min=0"`
}

// Default 默认配置
func Default() *AppConfig {
	return &AppConfig{
		Server:   ServerConfig{Port: 80},
		Log:      LogConfig{Level: "info"},
		Database: DatabaseConfig{Driver: "postgres"},
		History:  HistoryConfig{RetentionDays: 30, CleanupSchedule: "0 2 * * *"},
		Redis:    RedisConfig{CacheTTL: 24 * time.Hour},
		Translation: TranslationConfig{
			Target:       "en",
			Timeout:      10 * time.Second,
			Concurrency:  4,
			RetryBackoff: 200 * time.Millisecond,
		},
	}
}

// LoadDotEnv 加载 .env 文件到环境变量，文件不存在时忽略，已有环境变量不被覆盖
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if _, err := os.Stat(file); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			return fmt.Errorf("加载环境文件 %s 失败: %w", file, err)
		}
		slog.Debug("已加载环境文件", "file", file)
	}
	return nil
}

// Load 加载配置，path 为空时只使用默认值和环境变量
func Load(path string) (*AppConfig, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("解析配置文件失败: %w", err)
		}
	}

	if err := applyEnvironmentOverrides(cfg); err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromEnv 读取 CONFIG_FILE 指定的文件并应用环境变量
func LoadFromEnv() (*AppConfig, error) {
	return Load(os.Getenv("CONFIG_FILE"))
}

var validate = validator.New()

// Validate 校验配置
func Validate(cfg *AppConfig) error {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s 不满足 %s", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("配置校验失败: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("配置校验失败: %w", err)
	}
	return nil
}

// envOverride 单个环境变量的覆盖规则
type envOverride struct {
	key   string
	apply func(cfg *AppConfig, value string) error
}

var envOverrides = []envOverride{
	{"LISTEN_PORT", func(c *AppConfig, v string) (err error) { c.Server.Port, err = cast.ToIntE(v); return }},
	{"BASE_CONTEXT", func(c *AppConfig, v string) error { c.Server.BaseContext = v; return nil }},
	{"LOG_LEVEL", func(c *AppConfig, v string) error { c.Log.Level = strings.ToLower(v); return nil }},
	{"DB_DRIVER", func(c *AppConfig, v string) error { c.Database.Driver = strings.ToLower(v); return nil }},
	{"DATABASE_URL", func(c *AppConfig, v string) error { c.Database.URL = v; return nil }},
	{"HISTORY_RETENTION_DAYS", func(c *AppConfig, v string) (err error) { c.History.RetentionDays, err = cast.ToIntE(v); return }},
	{"HISTORY_CLEANUP_SCHEDULE", func(c *AppConfig, v string) error { c.History.CleanupSchedule = v; return nil }},
	{"DATA_ROOT", func(c *AppConfig, v string) error { c.Data.Root = v; return nil }},
	{"REDIS_ADDR", func(c *AppConfig, v string) error { c.Redis.Addr = v; return nil }},
	{"REDIS_PASSWORD", func(c *AppConfig, v string) error { c.Redis.Password = v; return nil }},
	{"REDIS_DB", func(c *AppConfig, v string) (err error) { c.Redis.DB, err = cast.ToIntE(v); return }},
	{"TRANSLATION_CACHE_TTL", func(c *AppConfig, v string) (err error) { c.Redis.CacheTTL, err = cast.ToDurationE(v); return }},
	{"TRANSLATION_URL", func(c *AppConfig, v string) error { c.Translation.URL = v; return nil }},
	{"TRANSLATION_API_KEY", func(c *AppConfig, v string) error { c.Translation.APIKey = v; return nil }},
	{"TRANSLATION_SOURCE", func(c *AppConfig, v string) error { c.Translation.Source = v; return nil }},
	{"TRANSLATION_TARGET", func(c *AppConfig, v string) error { c.Translation.Target = v; return nil }},
	{"TRANSLATION_TIMEOUT", func(c *AppConfig, v string) (err error) { c.Translation.Timeout, err = cast.ToDurationE(v); return }},
	{"TRANSLATION_CONCURRENCY", func(c *AppConfig, v string) (err error) { c.Translation.Concurrency, err = cast.ToIntE(v); return }},
	{"TRANSLATION_RETRY_ATTEMPTS", func(c *AppConfig, v string) (err error) { c.Translation.RetryAttempts, err = cast.ToUint64E(v); return }},
	{"TRANSLATION_RETRY_BACKOFF", func(c *AppConfig, v string) (err error) { c.Translation.RetryBackoff, err = cast.ToDurationE(v); return }},
	{"TRANSLATION_RATE_LIMIT", func(c *AppConfig, v string) (err error) { c.Translation.RateLimit, err = cast.ToIntE(v); return }},
	{"KAFKA_BROKERS", func(c *AppConfig, v string) error { c.Kafka.Brokers = splitList(v); return nil }},
	{"KAFKA_TOPIC", func(c *AppConfig, v string) error { c.Kafka.Topic = v; return nil }},
	{"MQTT_BROKER", func(c *AppConfig, v string) error { c.MQTT.Broker = v; return nil }},
	{"MQTT_TOPIC", func(c *AppConfig, v string) error { c.MQTT.Topic = v; return nil }},
	{"MQTT_USERNAME", func(c *AppConfig, v string) error { c.MQTT.Username = v; return nil }},
	{"MQTT_PASSWORD", func(c *AppConfig, v string) error { c.MQTT.Password = v; return nil }},
	{"SCHEDULER_JOBS_FILE", func(c *AppConfig, v string) error { c.Scheduler.JobsFile = v; return nil }},
	{"SCHEDULER_LOCK_TTL", func(c *AppConfig, v string) (err error) { c.Scheduler.LockTTL, err = cast.ToDurationE(v); return }},
}

// applyEnvironmentOverrides 用环境变量覆盖配置
func applyEnvironmentOverrides(cfg *AppConfig) error {
	for _, o := range envOverrides {
		value, ok := os.LookupEnv(o.key)
		if !ok || value == "" {
			continue
		}
		if err := o.apply(cfg, strings.TrimSpace(value)); err != nil {
			return fmt.Errorf("环境变量 %s=%q 无效: %w", o.key, value, err)
		}
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
