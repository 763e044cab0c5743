// Package events publishes pipeline observability events to Kafka. Every
// call site treats the publisher as optional; a nil publisher disables
// events without branching elsewhere.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/finwatch/networth-pipeline/internal/models"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
)

// Event type constants
const (
	EventJobFailed  = "JOB_FAILED"
	EventAlertFired = "ALERT_FIRED"
)

// PipelineEvent is the wire format for pipeline events
type PipelineEvent struct {
	EventType string    `json:"event_type"`
	JobName   string    `json:"job_name,omitempty"`
	JobID     string    `json:"job_id,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	AlertID   string    `json:"alert_id,omitempty"`
	UserID    string    `json:"user_id,omitempty"`
	Symbol    string    `json:"symbol,omitempty"`
	Price     string    `json:"price,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher writes pipeline events to a Kafka topic
type Publisher struct {
	writer *kafka.Writer
	topic  string
}

// NewPublisher creates a Kafka publisher
func NewPublisher(brokers []string, topic string) *Publisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
	}
	return &Publisher{writer: writer, topic: topic}
}

// PublishJobFailed publishes a retry-exhausted job event
func (p *Publisher) PublishJobFailed(ctx context.Context, jobName, jobID, reason string) error {
	event := PipelineEvent{
		EventType: EventJobFailed,
		JobName:   jobName,
		JobID:     jobID,
		Reason:    reason,
		Timestamp: time.Now(),
	}
	return p.publish(ctx, jobID, event)
}

// PublishAlertFired publishes a fired-alert event
func (p *Publisher) PublishAlertFired(ctx context.Context, alert *models.Alert, price decimal.Decimal) error {
	event := PipelineEvent{
		EventType: EventAlertFired,
		AlertID:   alert.ID,
		UserID:    alert.UserID,
		Symbol:    alert.Symbol,
		Price:     price.String(),
		Timestamp: time.Now(),
	}
	return p.publish(ctx, alert.Symbol, event)
}

func (p *Publisher) publish(ctx context.Context, key string, event PipelineEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: data,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write event to kafka: %w", err)
	}
	return nil
}

// Close closes the Kafka writer
func (p *Publisher) Close() error {
	return p.writer.Close()
}
