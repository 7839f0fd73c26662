package event

import (
	"context"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// tokenPublisher mqtt.Client 的发布子集
type tokenPublisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// MQTTOptions MQTT 发布者配置
type MQTTOptions struct {
	Broker   string
	ClientID string
	Username string
	Password string
	Topic    string
	QoS      byte
}

// MQTTPublisher 将运行事件发布到 MQTT 主题
type MQTTPublisher struct {
	client tokenPublisher
	topic  string
	qos    byte
}

// NewMQTTPublisher 连接 broker 并创建发布者
func NewMQTTPublisher(opts MQTTOptions) (*MQTTPublisher, error) {
	if opts.Broker == "" || opts.Topic == "" {
		return nil, fmt.Errorf("MQTT broker 和 topic 不能为空")
	}
	if opts.ClientID == "" {
		opts.ClientID = fmt.Sprintf("datascrub-%d", time.Now().UnixNano())
	}

	clientOpts := mqtt.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID(opts.ClientID).
		SetUsername(opts.Username).
		SetPassword(opts.Password).
		SetAutoReconnect(true).
		SetConnectTimeout(10 * time.Second)

	client := mqtt.NewClient(clientOpts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("MQTT连接失败: %w", token.Error())
	}
	return &MQTTPublisher{client: client, topic: opts.Topic, qos: opts.QoS}, nil
}

// Name 发布者名称
func (m *MQTTPublisher) Name() string {
	return "mqtt:" + m.topic
}

// Publish 发布事件，等待确认直到上下文结束
func (m *MQTTPublisher) Publish(ctx context.Context, evt *RunEvent) error {
	payload, err := evt.Encode()
	if err != nil {
		return fmt.Errorf("序列化事件失败: %w", err)
	}

	token := m.client.Publish(m.topic, m.qos, false, payload)
	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			return fmt.Errorf("发布消息失败 topic=%s: %w", m.topic, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("发布消息超时 topic=%s: %w", m.topic, ctx.Err())
	}
}

// Close 断开连接
func (m *MQTTPublisher) Close() error {
	m.client.Disconnect(250)
	return nil
}
