package event

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// messageWriter kafka.Writer 的最小接口
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher 将运行事件写入 Kafka 主题，以运行ID为消息键
type KafkaPublisher struct {
	writer messageWriter
	topic  string
}

// NewKafkaPublisher 创建 Kafka 发布者
func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers 不能为空")
	}
	if topic == "" {
		return nil, fmt.Errorf("kafka topic 不能为空")
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
	return &KafkaPublisher{writer: writer, topic: topic}, nil
}

// Name 发布者名称
func (k *KafkaPublisher) Name() string {
	return "kafka:" + k.topic
}

// Publish 写入一条消息
func (k *KafkaPublisher) Publish(ctx context.Context, evt *RunEvent) error {
	payload, err := evt.Encode()
	if err != nil {
		return fmt.Errorf("序列化事件失败: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(evt.RunID),
		Value: payload,
		Time:  evt.Timestamp,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(evt.Type)},
			{Key: "status", Value: []byte(evt.Status)},
		},
	}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("写入Kafka失败 topic=%s: %w", k.topic, err)
	}
	return nil
}

// Close 关闭生产者
func (k *KafkaPublisher) Close() error {
	return k.writer.Close()
}
