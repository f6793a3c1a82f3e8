/*
 * @module service/event/alert_publisher
 * @description 告警事件投递器，将新建告警以JSON消息写入Kafka供通知分发组件消费
 * @architecture 适配器模式 - 封装kafka-go生产者，提供统一的投递接口
 * @documentReference dev_docs/alert_rules.md
 * @stateFlow 告警创建 -> 序列化 -> 按DOT号分区写入topic -> 通知组件消费
 * @rules 1. 未配置broker时投递器关闭，不视为错误
 *        2. 投递尽力而为，失败由下游轮询未读告警兜底
 * @dependencies github.com/segmentio/kafka-go
 * @refs service/alert/alert_service.go
 */

package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"carrierwatch-service/service/models"
)

const defaultAlertTopic = "carrier-alerts"

// AlertPublisher 基于Kafka的告警投递器
type AlertPublisher struct {
	writer  *kafka.Writer
	topic   string
	timeout time.Duration
}

// NewAlertPublisher 从环境变量构建投递器
// KAFKA_BROKERS为空时返回关闭状态的投递器，PublishAlert变为no-op
func NewAlertPublisher() *AlertPublisher {
	brokers := os.Getenv("KAFKA_BROKERS")
	if brokers == "" {
		slog.Info("未配置KAFKA_BROKERS，告警投递器关闭")
		return &AlertPublisher{}
	}

	topic := os.Getenv("ALERT_TOPIC")
	if topic == "" {
		topic = defaultAlertTopic
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(strings.Split(brokers, ",")...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
	}

	slog.Info("告警投递器已初始化", "brokers", brokers, "topic", topic)
	return &AlertPublisher{
		writer:  writer,
		topic:   topic,
		timeout: 10 * time.Second,
	}
}

// PublishAlert 将告警写入Kafka，按DOT号作为分区键保持同承运商消息有序
func (p *AlertPublisher) PublishAlert(alert *models.Alert) error {
	if p.writer == nil {
		return nil
	}

	value, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("序列化告警消息失败: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(alert.DOTNumber),
		Value: value,
		Time:  alert.CreatedAt,
		Headers: []kafka.Header{
			{Key: "alert_type", Value: []byte(alert.AlertType)},
			{Key: "severity", Value: []byte(alert.Severity)},
		},
	})
	if err != nil {
		return fmt.Errorf("发送告警消息失败: %w", err)
	}

	slog.Debug("告警消息已发送", "topic", p.topic, "alert_id", alert.ID)
	return nil
}

// Close 关闭底层生产者
func (p *AlertPublisher) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
