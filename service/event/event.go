/*
 * @module service/event/event
 * @description 清洗管道运行完成事件及其发布
 * @architecture 消息层 - 运行结束后通知下游订阅方
 * @stateFlow 运行结束 -> RunEvent -> Dispatcher -> Kafka / MQTT
 * @rules 发布失败只记录日志，不影响运行结果
 * @dependencies encoding/json, log/slog
 * @refs kafka_publisher.go, mqtt_publisher.go
 */

package event

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"
)

// EventTypeRunCompleted 运行完成事件类型
const EventTypeRunCompleted = "pipeline.run.completed"

// RunEvent 运行完成事件
type RunEvent struct {
	Type       string    `json:"type"`
	RunID      string    `json:"run_id"`
	Source     string    `json:"source"`
	Trigger    string    `json:"trigger"`
	Status     string    `json:"status"`
	ErrorType  string    `json:"error_type,omitempty"`
	Error      string    `json:"error,omitempty"`
	InputRows  int       `json:"input_rows"`
	OutputRows int       `json:"output_rows"`
	Stages     []string  `json:"stages"`
	Warnings   int       `json:"warnings"`
	DurationMs int64     `json:"duration_ms"`
	Timestamp  time.Time `json:"timestamp"`
}

// Encode 序列化事件
func (e *RunEvent) Encode() ([]byte, error) {
	if e.Type == "" {
		e.Type = EventTypeRunCompleted
	}
	return json.Marshal(e)
}

// Publisher 事件发布者
type Publisher interface {
	Name() string
	Publish(ctx context.Context, evt *RunEvent) error
	Close() error
}

// Dispatcher 向所有发布者广播事件
type Dispatcher struct {
	publishers []Publisher
	timeout    time.Duration
}

// NewDispatcher 创建事件分发器，每个发布者单独计时
func NewDispatcher(timeout time.Duration, publishers ...Publisher) *Dispatcher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Dispatcher{publishers: publishers, timeout: timeout}
}

// Enabled 是否配置了发布者
func (d *Dispatcher) Enabled() bool {
	return d != nil && len(d.publishers) > 0
}

// Dispatch 发布事件，返回失败的发布者数量
func (d *Dispatcher) Dispatch(ctx context.Context, evt *RunEvent) int {
	if !d.Enabled() {
		return 0
	}
	failed := 0
	for _, p := range d.publishers {
		pubCtx, cancel := context.WithTimeout(ctx, d.timeout)
		err := p.Publish(pubCtx, evt)
		cancel()
		if err != nil {
			failed++
			slog.Warn("发布运行事件失败", "publisher", p.Name(), "run_id", evt.RunID, "error", err)
			continue
		}
		slog.Debug("运行事件已发布", "publisher", p.Name(), "run_id", evt.RunID)
	}
	return failed
}

// Close 关闭所有发布者
func (d *Dispatcher) Close() error {
	if d == nil {
		return nil
	}
	var errs []error
	for _, p := range d.publishers {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
