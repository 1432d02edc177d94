// Package kafka 投递约球申请领域事件。
//
// 事件只作为集成钩子：投递失败记录日志，不影响业务调用。
package kafka

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/Kot-Pawel/squashLeague/config"
)

// 事件类型
const (
	EventMatchRequested = "match.requested"
	EventMatchAccepted  = "match.accepted"
	EventMatchRejected  = "match.rejected"
	EventMatchCancelled = "match.cancelled"
)

// Event 领域事件
type Event struct {
	ID          string      `json:"event_id"`
	Type        string      `json:"event_type"`
	AggregateID string      `json:"aggregate_id"`
	OccurredAt  time.Time   `json:"occurred_at"`
	Payload     interface{} `json:"payload"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher 事件发布器。nil *Publisher 可安全调用，表示未启用。
type Publisher struct {
	writer messageWriter
	logger *zap.Logger
	now    func() time.Time
}

// NewPublisher 根据配置创建发布器；未配置 brokers 时返回 nil
func NewPublisher(cfg *config.KafkaConfig, logger *zap.Logger) *Publisher {
	brokers := SplitBrokers(cfg.Brokers)
	if len(brokers) == 0 {
		return nil
	}

	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Async:        true,
		Completion: func(msgs []kafka.Message, err error) {
			if err != nil {
				logger.Warn("领域事件投递失败", zap.Int("count", len(msgs)), zap.Error(err))
			}
		},
	}

	logger.Info("Kafka 事件发布已启用", zap.Strings("brokers", brokers), zap.String("topic", cfg.Topic))
	return newPublisher(w, logger)
}

func newPublisher(w messageWriter, logger *zap.Logger) *Publisher {
	return &Publisher{writer: w, logger: logger, now: time.Now}
}

// Publish 发布一条事件，消息 Key 为聚合 ID（同一申请的事件落在同一分区）
func (p *Publisher) Publish(ctx context.Context, eventType, aggregateID string, payload interface{}) {
	if p == nil {
		return
	}

	evt := Event{
		ID:          uuid.New().String(),
		Type:        eventType,
		AggregateID: aggregateID,
		OccurredAt:  p.now().UTC(),
		Payload:     payload,
	}
	value, err := json.Marshal(evt)
	if err != nil {
		p.logger.Error("序列化领域事件失败", zap.String("event_type", eventType), zap.Error(err))
		return
	}

	msg := kafka.Message{
		Key:   []byte(aggregateID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(evt.ID)},
			{Key: "event_type", Value: []byte(eventType)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Warn("写入领域事件失败",
			zap.String("event_type", eventType),
			zap.String("aggregate_id", aggregateID),
			zap.Error(err),
		)
	}
}

// Close 刷新并关闭底层 writer
func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	return p.writer.Close()
}

// SplitBrokers 解析逗号分隔的 broker 列表
func SplitBrokers(raw string) []string {
	var brokers []string
	for _, b := range strings.Split(raw, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// HeaderValue 读取消息头
func HeaderValue(headers []kafka.Header, key string) string {
	for _, h := range headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}
